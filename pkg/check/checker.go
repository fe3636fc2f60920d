// Copyright 2025 European Digital Reading Lab. All rights reserved.
// Use of this source code is governed by a BSD-style license
// specified in the Github project LICENSE file.

// Package check verifies exported event payloads: a payload taken off
// the export channel must round-trip to a well-formed event. Useful to
// subscribers and when debugging the export pipeline.
package check

import (
	"embed"
	"errors"
	"fmt"

	"encoding/json"

	log "github.com/sirupsen/logrus"
	jsonschema "github.com/xeipuuv/gojsonschema"

	"github.com/edrlab/core-data/pkg/stor"
)

//go:embed data/event.schema.json
var jsfs embed.FS

// Checker verifies an exported event payload.
// Parameters:
// bytes is the raw payload taken off the export channel
// strict requires server-assigned fields (identifiers, created
// timestamps), which are absent when the producer runs with
// persistence disabled.
func Checker(bytes []byte, strict bool) error {

	log.Info("-- Check the event payload --")

	// check the shape of the payload using the json schema
	var err error
	err = validateEvent(bytes)
	if err != nil {
		log.Errorf("Failed to validate the event payload: %v", err)
		return err
	}

	// parse json data -> event
	event := new(stor.Event)
	err = json.Unmarshal(bytes, event)
	if err != nil {
		log.Errorf("Failed to unmarshal the event: %v", err)
		return err
	}

	// check the event semantics
	err = CheckEvent(event, strict)
	if err != nil {
		log.Errorf("Failed to check the event: %v", err)
		return err
	}

	log.Info("The event payload is valid")
	return nil
}

// CheckEvent verifies the semantics of a decoded event.
func CheckEvent(event *stor.Event, strict bool) error {

	if event.Device == "" {
		return errors.New("the event must be associated to a device")
	}
	if strict {
		if event.ID == "" || event.ID == "unsaved" {
			return errors.New("the event misses a server-assigned identifier")
		}
		if event.Created == 0 {
			return errors.New("the event misses a creation timestamp")
		}
		if event.Created != event.Modified && event.Modified < event.Created {
			return errors.New("the event modification timestamp precedes its creation")
		}
	}

	for i, r := range event.Readings {
		if r.Name == "" {
			return fmt.Errorf("reading %d misses a value descriptor name", i)
		}
		if r.Device != "" && r.Device != event.Device {
			return fmt.Errorf("reading %d is associated to a different device than its event", i)
		}
		if strict && (r.ID == "" || r.ID == "unsaved") {
			return fmt.Errorf("reading %d misses a server-assigned identifier", i)
		}
	}

	return nil
}

func validateEvent(bytes []byte) error {

	eventSchema, err := jsfs.ReadFile("data/event.schema.json")
	if err != nil {
		return err
	}

	schemaLoader := jsonschema.NewStringLoader(string(eventSchema))
	documentLoader := jsonschema.NewStringLoader(string(bytes))

	result, err := jsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return err
	}
	if !result.Valid() {
		for _, desc := range result.Errors() {
			log.Errorf("Validation error: %s", desc)
		}
		return errors.New("the payload does not conform to the event schema")
	}
	return nil
}
