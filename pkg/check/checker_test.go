// Copyright 2025 European Digital Reading Lab. All rights reserved.
// Use of this source code is governed by a BSD-style license
// specified in the Github project LICENSE file.

package check

import (
	"encoding/json"
	"testing"

	"github.com/edrlab/core-data/pkg/stor"
)

func goodEvent() *stor.Event {
	return &stor.Event{
		ID:       "7b1c3e14-6f3a-4f32-9c6e-8a2f0a6c1d11",
		Device:   "sensor-001",
		Created:  1700000000000,
		Modified: 1700000000000,
		Origin:   1699999999999,
		Readings: []stor.Reading{
			{ID: "rd-1", Device: "sensor-001", Name: "temperature", Value: "21.5"},
		},
	}
}

func TestChecker(t *testing.T) {

	payload, err := json.Marshal(goodEvent())
	if err != nil {
		t.Fatalf("Failed to marshal an event: %v", err)
	}
	if err = Checker(payload, true); err != nil {
		t.Errorf("Failed to check a valid payload: %v", err)
	}

	// not json at all
	if err = Checker([]byte("not json"), false); err == nil {
		t.Error("Expected an error on a malformed payload")
	}

	// a payload without a device does not fit the schema
	bad := goodEvent()
	bad.Device = ""
	payload, _ = json.Marshal(bad)
	if err = Checker(payload, false); err == nil {
		t.Error("Expected an error on a payload without a device")
	}
}

func TestCheckEvent(t *testing.T) {

	// a valid event passes, strict or not
	if err := CheckEvent(goodEvent(), true); err != nil {
		t.Errorf("Failed to check a valid event: %v", err)
	}

	// an unsaved event passes the lax check only
	unsaved := goodEvent()
	unsaved.ID = "unsaved"
	unsaved.Created = 0
	unsaved.Modified = 0
	unsaved.Readings[0].ID = ""
	if err := CheckEvent(unsaved, false); err != nil {
		t.Errorf("Failed to check an unsaved event: %v", err)
	}
	if err := CheckEvent(unsaved, true); err == nil {
		t.Error("Expected a strict check to refuse an unsaved event")
	}

	// a reading without a name is refused
	event := goodEvent()
	event.Readings[0].Name = ""
	if err := CheckEvent(event, false); err == nil {
		t.Error("Expected an error on a reading without a name")
	}

	// a reading tied to another device is refused
	event = goodEvent()
	event.Readings[0].Device = "sensor-002"
	if err := CheckEvent(event, false); err == nil {
		t.Error("Expected an error on a reading of a different device")
	}

	// a modification timestamp before the creation is refused
	event = goodEvent()
	event.Modified = event.Created - 1
	if err := CheckEvent(event, true); err == nil {
		t.Error("Expected an error on a stale modification timestamp")
	}
}
