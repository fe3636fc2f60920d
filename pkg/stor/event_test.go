// Copyright 2025 European Digital Reading Lab. All rights reserved.
// Use of this source code is governed by a BSD-style license
// specified in the Github project LICENSE file.

package stor

import (
	"testing"
	"time"
)

// TestEvents calls gorm functionalities related to events and readings
func TestEvents(t *testing.T) {
	var err error

	// create an event with its two readings
	e1 := newTestEvent("device-stor-1")
	err = St.Event().Create(e1)
	if err != nil {
		t.Fatalf("Failed to create an event: %v", err)
	}
	if e1.ID == "" {
		t.Fatal("Expected a generated event id")
	}
	if e1.Created == 0 || e1.Created != e1.Modified {
		t.Fatalf("Expected equal created / modified timestamps, got %d / %d", e1.Created, e1.Modified)
	}

	// get the event back, with its readings
	var event *Event
	event, err = St.Event().Get(e1.ID)
	if err != nil {
		t.Fatalf("Failed to get an event: %v", err)
	}
	if event.Device != e1.Device {
		t.Fatal("Event modified when retrieved")
	}
	if len(event.Readings) != 2 {
		t.Fatalf("Expected 2 readings, got %d", len(event.Readings))
	}
	if event.Readings[0].EventID != e1.ID {
		t.Fatal("Reading not attached to its event")
	}

	// create a second event for another device
	e2 := newTestEvent("device-stor-2")
	err = St.Event().Create(e2)
	if err != nil {
		t.Fatalf("Failed to create an event: %v", err)
	}

	// count events
	var count int64
	count, err = St.Event().Count()
	if err != nil {
		t.Fatalf("Failed to count events: %v", err)
	}
	if count != 2 {
		t.Fatalf("Failed to count, expected 2 got %d", count)
	}
	count, err = St.Event().CountByDevice("device-stor-1")
	if err != nil {
		t.Fatalf("Failed to count events by device: %v", err)
	}
	if count != 1 {
		t.Fatalf("Failed to count by device, expected 1 got %d", count)
	}

	// get the events of a device
	var events *[]Event
	events, err = St.Event().FindByDevice("device-stor-2", 10)
	if err != nil {
		t.Fatalf("Failed to get events by device: %v", err)
	}
	if len(*events) != 1 || (*events)[0].ID != e2.ID {
		t.Fatal("Failed to retrieve the expected event")
	}

	// get the events of a creation window covering both
	events, err = St.Event().FindByCreatedBetween(e1.Created, time.Now().UnixMilli(), 10)
	if err != nil {
		t.Fatalf("Failed to get events by creation time: %v", err)
	}
	if len(*events) != 2 {
		t.Fatalf("Expected 2 events in the window, got %d", len(*events))
	}

	// update the first event
	e1.Pushed = time.Now().UnixMilli()
	err = St.Event().Update(e1)
	if err != nil {
		t.Fatalf("Failed to update an event: %v", err)
	}
	event, err = St.Event().Get(e1.ID)
	if err != nil {
		t.Fatalf("Failed to get the updated event: %v", err)
	}
	if event.Pushed == 0 {
		t.Fatal("Failed to update the pushed timestamp")
	}
	if len(event.Readings) != 2 {
		t.Fatal("Readings lost during an event update")
	}

	// delete the events and their readings
	for _, e := range []*Event{e1, e2} {
		for i := range e.Readings {
			err = St.Reading().Delete(&e.Readings[i])
			if err != nil {
				t.Fatalf("Failed to delete a reading: %v", err)
			}
		}
		err = St.Event().Delete(e)
		if err != nil {
			t.Fatalf("Failed to delete an event: %v", err)
		}
	}

	// count events again
	count, err = St.Event().Count()
	if err != nil {
		t.Fatalf("Failed to count events: %v", err)
	}
	if count != 0 {
		t.Fatalf("Failed to count, expected 0 got %d", count)
	}
}

// TestReadings calls gorm functionalities related to standalone readings
func TestReadings(t *testing.T) {
	var err error

	// check a reading
	r1 := &Reading{Device: "device-stor-3", Name: descriptorNames[2], Value: "20"}
	err = r1.Validate()
	if err != nil {
		t.Fatalf("Invalid test reading: %v", err)
	}

	// create two readings with the same name
	err = St.Reading().Create(r1)
	if err != nil {
		t.Fatalf("Failed to create a reading: %v", err)
	}
	r2 := &Reading{Device: "device-stor-4", Name: descriptorNames[2], Value: "21"}
	err = St.Reading().Create(r2)
	if err != nil {
		t.Fatalf("Failed to create a reading: %v", err)
	}

	// count readings by name
	var count int64
	count, err = St.Reading().CountByName(descriptorNames[2])
	if err != nil {
		t.Fatalf("Failed to count readings by name: %v", err)
	}
	if count != 2 {
		t.Fatalf("Failed to count by name, expected 2 got %d", count)
	}

	// get readings by name and device
	var readings *[]Reading
	readings, err = St.Reading().FindByNameAndDevice(descriptorNames[2], "device-stor-3", 10)
	if err != nil {
		t.Fatalf("Failed to get readings by name and device: %v", err)
	}
	if len(*readings) != 1 || (*readings)[0].ID != r1.ID {
		t.Fatal("Failed to retrieve the expected reading")
	}

	// get readings by a set of names
	readings, err = St.Reading().FindByNames([]string{descriptorNames[2]}, 10)
	if err != nil {
		t.Fatalf("Failed to get readings by names: %v", err)
	}
	if len(*readings) != 2 {
		t.Fatalf("Expected 2 readings, got %d", len(*readings))
	}

	// update a reading
	r1.Value = "25"
	err = St.Reading().Update(r1)
	if err != nil {
		t.Fatalf("Failed to update a reading: %v", err)
	}
	var reading *Reading
	reading, err = St.Reading().Get(r1.ID)
	if err != nil {
		t.Fatalf("Failed to get the updated reading: %v", err)
	}
	if reading.Value != "25" {
		t.Fatalf("Failed to update the reading value, got %s", reading.Value)
	}
	// a reading created on its own is owned by no event
	if reading.EventID != "" {
		t.Fatalf("Unexpected event id on a standalone reading: %s", reading.EventID)
	}

	// delete the readings
	err = St.Reading().Delete(r1)
	if err != nil {
		t.Fatalf("Failed to delete a reading: %v", err)
	}
	err = St.Reading().Delete(r2)
	if err != nil {
		t.Fatalf("Failed to delete a reading: %v", err)
	}
	count, err = St.Reading().CountByName(descriptorNames[2])
	if err != nil {
		t.Fatalf("Failed to count readings by name: %v", err)
	}
	if count != 0 {
		t.Fatalf("Failed to count, expected 0 got %d", count)
	}
}
