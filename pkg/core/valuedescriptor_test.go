// Copyright 2025 European Digital Reading Lab. All rights reserved.
// Use of this source code is governed by a BSD-style license
// specified in the Github project LICENSE file.

package core

import (
	"errors"
	"testing"

	"github.com/edrlab/core-data/pkg/stor"
)

func TestAddValueDescriptor(t *testing.T) {

	vd := &stor.ValueDescriptor{Name: "pressure", Type: stor.TYPE_FLOAT, UomLabel: "kPa", Formatting: "%4.2f"}
	id, err := Svc.AddValueDescriptor(vd)
	if err != nil {
		t.Fatalf("Failed to add a value descriptor: %v", err)
	}
	if id == "" {
		t.Fatal("Expected a generated value descriptor id")
	}

	// the name must be unique
	dup := &stor.ValueDescriptor{Name: "pressure", Type: stor.TYPE_FLOAT}
	_, err = Svc.AddValueDescriptor(dup)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("Expected a validation error on a duplicate name, got %v", err)
	}

	// the name is required
	_, err = Svc.AddValueDescriptor(&stor.ValueDescriptor{Type: stor.TYPE_FLOAT})
	if !errors.As(err, &verr) {
		t.Fatalf("Expected a validation error on a missing name, got %v", err)
	}

	// the format string must fit the configured pattern
	bad := &stor.ValueDescriptor{Name: "badformat", Type: stor.TYPE_STRING, Formatting: "not-a-format"}
	_, err = Svc.AddValueDescriptor(bad)
	if !errors.As(err, &verr) {
		t.Fatalf("Expected a validation error on a bad format string, got %v", err)
	}

	// an empty format string is accepted
	plain := &stor.ValueDescriptor{Name: "plain", Type: stor.TYPE_STRING}
	if _, err = Svc.AddValueDescriptor(plain); err != nil {
		t.Fatalf("Failed to add a descriptor without formatting: %v", err)
	}

	// cleanup
	if _, err = Svc.DeleteValueDescriptor(id); err != nil {
		t.Fatalf("Failed to delete a value descriptor: %v", err)
	}
	if _, err = Svc.DeleteValueDescriptorByName("plain"); err != nil {
		t.Fatalf("Failed to delete a value descriptor by name: %v", err)
	}
}

func TestGetValueDescriptor(t *testing.T) {

	descriptor, err := Svc.GetValueDescriptorByName("temperature")
	if err != nil {
		t.Fatalf("Failed to get a value descriptor by name: %v", err)
	}
	same, err := Svc.GetValueDescriptor(descriptor.ID)
	if err != nil {
		t.Fatalf("Failed to get a value descriptor by id: %v", err)
	}
	if same.Name != "temperature" {
		t.Fatal("Failed to retrieve the expected value descriptor")
	}

	_, err = Svc.GetValueDescriptorByName("no-such-descriptor")
	var nferr *NotFoundError
	if !errors.As(err, &nferr) {
		t.Fatalf("Expected a not found error, got %v", err)
	}
}

func TestListValueDescriptors(t *testing.T) {

	descriptors, err := Svc.ListValueDescriptors()
	if err != nil {
		t.Fatalf("Failed to list value descriptors: %v", err)
	}
	if len(*descriptors) < 3 {
		t.Fatalf("Expected the seeded descriptors, got %d", len(*descriptors))
	}

	descriptors, err = Svc.ValueDescriptorsByUomLabel("degrees celsius")
	if err != nil {
		t.Fatalf("Failed to get value descriptors by uom label: %v", err)
	}
	if len(*descriptors) != 1 || (*descriptors)[0].Name != "temperature" {
		t.Fatal("Failed to retrieve the expected value descriptor")
	}

	descriptors, err = Svc.ValueDescriptorsByLabel("ambient")
	if err != nil {
		t.Fatalf("Failed to get value descriptors by label: %v", err)
	}
	if len(*descriptors) != 2 {
		t.Fatalf("Expected 2 descriptors with the label, got %d", len(*descriptors))
	}
}

func TestUpdateValueDescriptor(t *testing.T) {
	clearEvents(t)

	// updating loose fields is fine, even while referenced
	if _, err := Svc.AddEvent(newIngestEvent("sensor-001")); err != nil {
		t.Fatalf("Failed to add an event: %v", err)
	}
	desc := "ambient temperature, degrees celsius"
	ok, err := Svc.UpdateValueDescriptor(ValueDescriptorPatch{Name: strPtr("temperature"), Description: &desc})
	if err != nil || !ok {
		t.Fatalf("Failed to update a value descriptor: %v", err)
	}
	descriptor, err := Svc.GetValueDescriptorByName("temperature")
	if err != nil {
		t.Fatalf("Failed to get the descriptor back: %v", err)
	}
	if descriptor.Description != desc {
		t.Fatal("Failed to update the description")
	}

	// a rename is refused while readings still reference the name
	_, err = Svc.UpdateValueDescriptor(ValueDescriptorPatch{ID: descriptor.ID, Name: strPtr("temp-renamed")})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("Expected a validation error on a referenced rename, got %v", err)
	}

	// once the readings are gone, the rename goes through
	clearEvents(t)
	ok, err = Svc.UpdateValueDescriptor(ValueDescriptorPatch{ID: descriptor.ID, Name: strPtr("temp-renamed")})
	if err != nil || !ok {
		t.Fatalf("Failed to rename an unreferenced value descriptor: %v", err)
	}
	// rename it back
	ok, err = Svc.UpdateValueDescriptor(ValueDescriptorPatch{ID: descriptor.ID, Name: strPtr("temperature")})
	if err != nil || !ok {
		t.Fatalf("Failed to rename the value descriptor back: %v", err)
	}

	// a new format string goes through the pattern check
	_, err = Svc.UpdateValueDescriptor(ValueDescriptorPatch{ID: descriptor.ID, Formatting: strPtr("not-a-format")})
	if !errors.As(err, &verr) {
		t.Fatalf("Expected a validation error on a bad format string, got %v", err)
	}

	// an unknown descriptor is a not found error
	_, err = Svc.UpdateValueDescriptor(ValueDescriptorPatch{ID: "no-such-descriptor", Description: &desc})
	var nferr *NotFoundError
	if !errors.As(err, &nferr) {
		t.Fatalf("Expected a not found error, got %v", err)
	}

	// a patch without id or name is refused
	_, err = Svc.UpdateValueDescriptor(ValueDescriptorPatch{Description: &desc})
	if !errors.As(err, &verr) {
		t.Fatalf("Expected a validation error on a missing identifier, got %v", err)
	}
}

func TestDeleteValueDescriptorReferenced(t *testing.T) {
	clearEvents(t)

	if _, err := Svc.AddEvent(newIngestEvent("sensor-001")); err != nil {
		t.Fatalf("Failed to add an event: %v", err)
	}

	// a referenced descriptor cannot be deleted
	_, err := Svc.DeleteValueDescriptorByName("humidity")
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("Expected a validation error on a referenced delete, got %v", err)
	}

	// once the readings are gone, the delete goes through
	clearEvents(t)
	ok, err := Svc.DeleteValueDescriptorByName("humidity")
	if err != nil || !ok {
		t.Fatalf("Failed to delete an unreferenced value descriptor: %v", err)
	}

	// restore the seeded descriptor for the other tests
	if _, err = Svc.AddValueDescriptor(&stor.ValueDescriptor{Name: "humidity", Type: stor.TYPE_INTEGER, Min: "0", Max: "100", UomLabel: "percent", Labels: []string{"ambient"}}); err != nil {
		t.Fatalf("Failed to restore a value descriptor: %v", err)
	}
}

func strPtr(s string) *string {
	return &s
}
