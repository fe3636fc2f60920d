// Copyright 2025 European Digital Reading Lab. All rights reserved.
// Use of this source code is governed by a BSD-style license
// specified in the Github project LICENSE file.

package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"
)

// ---
// Reading utilities
// ---

// createReading posts a standalone reading and returns its input form
// and the server-assigned identifier.
func createReading(t *testing.T, device, name, value string) (*ReadingTest, string) {
	t.Helper()

	inReading := &ReadingTest{
		Device: device,
		Name:   name,
		Value:  value,
		Origin: time.Now().UnixMilli(),
	}
	data, err := json.Marshal(inReading)
	if err != nil {
		t.Fatal("Marshaling Reading failed.")
	}

	req, _ := http.NewRequest("POST", "/readings", bytes.NewReader(data))
	response := executeRequest(req)

	if response.Code != http.StatusCreated {
		t.Fatalf("Failed to create a reading, status %d: %s", response.Code, response.Body.String())
	}
	return inReading, strings.TrimSpace(response.Body.String())
}

// deleteReading removes a reading by its identifier.
func deleteReading(t *testing.T, id string) {
	t.Helper()

	req, _ := http.NewRequest("DELETE", "/readings/id/"+id, nil)
	response := executeRequest(req)
	checkResponseCode(t, http.StatusOK, response)
}

// ---
// Reading Tests
// ---

func TestCreateReading(t *testing.T) {
	scrubAllEvents(t)

	inReading, id := createReading(t, "sensor-001", "temperature", "19.2")
	if id == "" {
		t.Fatal("Expected a server-assigned reading id")
	}

	// get the reading back
	req, _ := http.NewRequest("GET", "/readings/id/"+id, nil)
	response := executeRequest(req)

	if checkResponseCode(t, http.StatusOK, response) {
		var outReading ReadingTest

		if err := json.Unmarshal(response.Body.Bytes(), &outReading); err != nil {
			t.Fatal(err)
		}
		if outReading.Name != inReading.Name ||
			outReading.Value != inReading.Value ||
			outReading.Device != inReading.Device {
			t.Error("Failed to get the same content back")
		}
	}

	// delete the reading
	deleteReading(t, id)
}

func TestCreateReadingUnknownDescriptor(t *testing.T) {

	data, _ := json.Marshal(&ReadingTest{Device: "sensor-001", Name: "bogus", Value: "1"})
	req, _ := http.NewRequest("POST", "/readings", bytes.NewReader(data))
	response := executeRequest(req)

	checkResponseCode(t, http.StatusConflict, response)
}

func TestCountReadings(t *testing.T) {
	scrubAllEvents(t)

	_, id := createReading(t, "sensor-001", "temperature", "19.2")

	req, _ := http.NewRequest("GET", "/readings/count", nil)
	response := executeRequest(req)
	if checkResponseCode(t, http.StatusOK, response) {
		if body := strings.TrimSpace(response.Body.String()); body != "1" {
			t.Errorf("Expected 1 reading, got %s", body)
		}
	}

	deleteReading(t, id)
}

func TestReadingQueries(t *testing.T) {
	scrubAllEvents(t)

	start := time.Now().UnixMilli()
	_, id1 := createReading(t, "sensor-001", "temperature", "19.2")
	_, id2 := createReading(t, "sensor-002", "temperature", "18.1")
	_, id3 := createReading(t, "sensor-001", "humidity", "57")
	end := time.Now().UnixMilli()

	// by name
	req, _ := http.NewRequest("GET", "/readings/name/temperature/10", nil)
	response := executeRequest(req)
	if checkResponseCode(t, http.StatusOK, response) {
		var outReadings []ReadingTest
		if err := json.Unmarshal(response.Body.Bytes(), &outReadings); err != nil {
			t.Fatal(err)
		}
		if len(outReadings) != 2 {
			t.Errorf("Expected 2 readings by name, got %d", len(outReadings))
		}
	}

	// by name and device
	req, _ = http.NewRequest("GET", "/readings/name/temperature/device/sensor-001/10", nil)
	response = executeRequest(req)
	if checkResponseCode(t, http.StatusOK, response) {
		var outReadings []ReadingTest
		if err := json.Unmarshal(response.Body.Bytes(), &outReadings); err != nil {
			t.Fatal(err)
		}
		if len(outReadings) != 1 || outReadings[0].ID != id1 {
			t.Error("Failed to retrieve the expected reading")
		}
	}

	// by device
	req, _ = http.NewRequest("GET", "/readings/device/sensor-001/10", nil)
	response = executeRequest(req)
	if checkResponseCode(t, http.StatusOK, response) {
		var outReadings []ReadingTest
		if err := json.Unmarshal(response.Body.Bytes(), &outReadings); err != nil {
			t.Fatal(err)
		}
		if len(outReadings) != 2 {
			t.Errorf("Expected 2 readings for the device, got %d", len(outReadings))
		}
	}

	// by creation window
	path := fmt.Sprintf("/readings/created/%d/%d/10", start, end)
	req, _ = http.NewRequest("GET", path, nil)
	response = executeRequest(req)
	if checkResponseCode(t, http.StatusOK, response) {
		var outReadings []ReadingTest
		if err := json.Unmarshal(response.Body.Bytes(), &outReadings); err != nil {
			t.Fatal(err)
		}
		if len(outReadings) != 3 {
			t.Errorf("Expected 3 readings in the window, got %d", len(outReadings))
		}
	}

	// through the value descriptor registry: uom label, label, type
	req, _ = http.NewRequest("GET", "/readings/uomlabel/percent/10", nil)
	response = executeRequest(req)
	if checkResponseCode(t, http.StatusOK, response) {
		var outReadings []ReadingTest
		if err := json.Unmarshal(response.Body.Bytes(), &outReadings); err != nil {
			t.Fatal(err)
		}
		if len(outReadings) != 1 || outReadings[0].ID != id3 {
			t.Error("Failed to retrieve the expected reading by uom label")
		}
	}

	req, _ = http.NewRequest("GET", "/readings/label/ambient/10", nil)
	response = executeRequest(req)
	if checkResponseCode(t, http.StatusOK, response) {
		var outReadings []ReadingTest
		if err := json.Unmarshal(response.Body.Bytes(), &outReadings); err != nil {
			t.Fatal(err)
		}
		if len(outReadings) != 3 {
			t.Errorf("Expected 3 readings by label, got %d", len(outReadings))
		}
	}

	req, _ = http.NewRequest("GET", "/readings/type/F/10", nil)
	response = executeRequest(req)
	if checkResponseCode(t, http.StatusOK, response) {
		var outReadings []ReadingTest
		if err := json.Unmarshal(response.Body.Bytes(), &outReadings); err != nil {
			t.Fatal(err)
		}
		if len(outReadings) != 2 {
			t.Errorf("Expected 2 readings by type, got %d", len(outReadings))
		}
	}

	for _, id := range []string{id1, id2, id3} {
		deleteReading(t, id)
	}
}

func TestUpdateReadingAPI(t *testing.T) {
	scrubAllEvents(t)

	_, id := createReading(t, "sensor-001", "temperature", "19.2")

	// rename to another registered descriptor
	patch := map[string]interface{}{"id": id, "name": "humidity", "value": "57"}
	data, _ := json.Marshal(patch)
	req, _ := http.NewRequest("PUT", "/readings", bytes.NewReader(data))
	response := executeRequest(req)
	checkResponseCode(t, http.StatusOK, response)

	// rename to an unknown descriptor is refused
	patch = map[string]interface{}{"id": id, "name": "bogus"}
	data, _ = json.Marshal(patch)
	req, _ = http.NewRequest("PUT", "/readings", bytes.NewReader(data))
	response = executeRequest(req)
	checkResponseCode(t, http.StatusConflict, response)

	deleteReading(t, id)
}

func TestDeleteUnknownReading(t *testing.T) {

	req, _ := http.NewRequest("DELETE", "/readings/id/no-such-reading", nil)
	response := executeRequest(req)

	checkResponseCode(t, http.StatusNotFound, response)
}
