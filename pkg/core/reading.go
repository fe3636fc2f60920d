// Copyright 2025 European Digital Reading Lab. All rights reserved.
// Use of this source code is governed by a BSD-style license
// specified in the Github project LICENSE file.

package core

import (
	log "github.com/sirupsen/logrus"

	"github.com/edrlab/core-data/pkg/stor"
)

// ReadingPatch is a sparse update of a reading: a nil field is left
// untouched, a set field overwrites, including with a zero value.
type ReadingPatch struct {
	ID     string  `json:"id"`
	Name   *string `json:"name,omitempty"`
	Value  *string `json:"value,omitempty"`
	Origin *int64  `json:"origin,omitempty"`
	Pushed *int64  `json:"pushed,omitempty"`
}

// AddReading accepts a standalone reading, outside of any event. Its
// name must reference an existing value descriptor whatever the
// persistence mode; with persistence off the reading only gets the
// "unsaved" identifier.
func (s *Service) AddReading(reading *stor.Reading) (string, error) {
	if err := s.checkDescriptor(reading.Name); err != nil {
		return "", err
	}
	if s.Toggles.PersistData.Load() {
		if err := s.Store.Reading().Create(reading); err != nil {
			return "", serviceErr(err)
		}
	} else {
		reading.ID = UnsavedID
	}
	return reading.ID, nil
}

// GetReading returns a reading by its identifier.
func (s *Service) GetReading(id string) (*stor.Reading, error) {
	reading, err := s.Store.Reading().Get(id)
	if notRecordFound(err) {
		return nil, &NotFoundError{Kind: "reading", ID: id}
	}
	if err != nil {
		return nil, serviceErr(err)
	}
	return reading, nil
}

// ListReadings returns every reading, refusing to answer when the
// table holds more than the configured max result size.
func (s *Service) ListReadings() (*[]stor.Reading, error) {
	count, err := s.Store.Reading().Count()
	if err != nil {
		return nil, serviceErr(err)
	}
	if count > int64(s.Config.MaxResultSize) {
		return nil, &LimitExceededError{Kind: "reading"}
	}
	readings, err := s.Store.Reading().ListAll(s.Config.MaxResultSize)
	if err != nil {
		return nil, serviceErr(err)
	}
	return readings, nil
}

// ReadingCount returns the total number of stored readings.
func (s *Service) ReadingCount() (int64, error) {
	count, err := s.Store.Reading().Count()
	if err != nil {
		return 0, serviceErr(err)
	}
	return count, nil
}

// ReadingsByName returns the latest readings matching a value
// descriptor name.
func (s *Service) ReadingsByName(name string, limit int) (*[]stor.Reading, error) {
	if limit > s.Config.MaxResultSize {
		return nil, &LimitExceededError{Kind: "reading"}
	}
	readings, err := s.Store.Reading().FindByName(name, limit)
	if err != nil {
		return nil, serviceErr(err)
	}
	return readings, nil
}

// ReadingsForDevice returns the latest readings of a device.
func (s *Service) ReadingsForDevice(deviceID string, limit int) (*[]stor.Reading, error) {
	if err := s.checkDevice(deviceID); err != nil {
		return nil, err
	}
	if limit > s.Config.MaxResultSize {
		return nil, &LimitExceededError{Kind: "reading"}
	}
	readings, err := s.Store.Reading().FindByDevice(deviceID, limit)
	if err != nil {
		return nil, serviceErr(err)
	}
	return readings, nil
}

// ReadingsByNameAndDevice returns the latest readings matching both a
// value descriptor name and a device.
func (s *Service) ReadingsByNameAndDevice(name, deviceID string, limit int) (*[]stor.Reading, error) {
	if limit > s.Config.MaxResultSize {
		return nil, &LimitExceededError{Kind: "reading"}
	}
	readings, err := s.Store.Reading().FindByNameAndDevice(name, deviceID, limit)
	if err != nil {
		return nil, serviceErr(err)
	}
	return readings, nil
}

// ReadingsByCreationTime returns the readings created in a time window.
func (s *Service) ReadingsByCreationTime(start, end int64, limit int) (*[]stor.Reading, error) {
	if limit > s.Config.MaxResultSize {
		return nil, &LimitExceededError{Kind: "reading"}
	}
	readings, err := s.Store.Reading().FindByCreatedBetween(start, end, limit)
	if err != nil {
		return nil, serviceErr(err)
	}
	return readings, nil
}

// ReadingsByUomLabel returns readings whose value descriptor carries
// the given unit of measure label.
func (s *Service) ReadingsByUomLabel(uomLabel string, limit int) (*[]stor.Reading, error) {
	if limit > s.Config.MaxResultSize {
		return nil, &LimitExceededError{Kind: "reading"}
	}
	descriptors, err := s.Store.ValueDescriptor().FindByUomLabel(uomLabel)
	if err != nil {
		return nil, serviceErr(err)
	}
	return s.readingsForDescriptors(descriptors, limit)
}

// ReadingsByLabel returns readings whose value descriptor carries the
// given label.
func (s *Service) ReadingsByLabel(label string, limit int) (*[]stor.Reading, error) {
	if limit > s.Config.MaxResultSize {
		return nil, &LimitExceededError{Kind: "reading"}
	}
	descriptors, err := s.Store.ValueDescriptor().FindByLabel(label)
	if err != nil {
		return nil, serviceErr(err)
	}
	return s.readingsForDescriptors(descriptors, limit)
}

// ReadingsByType returns readings whose value descriptor declares the
// given type (one of I, B, F, S).
func (s *Service) ReadingsByType(iotType string, limit int) (*[]stor.Reading, error) {
	if limit > s.Config.MaxResultSize {
		return nil, &LimitExceededError{Kind: "reading"}
	}
	descriptors, err := s.Store.ValueDescriptor().FindByType(iotType)
	if err != nil {
		return nil, serviceErr(err)
	}
	return s.readingsForDescriptors(descriptors, limit)
}

func (s *Service) readingsForDescriptors(descriptors *[]stor.ValueDescriptor, limit int) (*[]stor.Reading, error) {
	readings := []stor.Reading{}
	if len(*descriptors) == 0 {
		return &readings, nil
	}
	names := make([]string, 0, len(*descriptors))
	for _, d := range *descriptors {
		names = append(names, d.Name)
	}
	found, err := s.Store.Reading().FindByNames(names, limit)
	if err != nil {
		return nil, serviceErr(err)
	}
	return found, nil
}

// UpdateReading applies a sparse patch to an existing reading. A name
// change is validated against the value descriptor registry.
func (s *Service) UpdateReading(patch ReadingPatch) (bool, error) {
	reading, err := s.Store.Reading().Get(patch.ID)
	if notRecordFound(err) {
		log.Errorf("Request to update a non-existent reading: %s", patch.ID)
		return false, &NotFoundError{Kind: "reading", ID: patch.ID}
	}
	if err != nil {
		return false, serviceErr(err)
	}

	if patch.Name != nil {
		if err := s.checkDescriptor(*patch.Name); err != nil {
			return false, err
		}
		reading.Name = *patch.Name
	}
	if patch.Value != nil {
		reading.Value = *patch.Value
	}
	if patch.Origin != nil {
		reading.Origin = *patch.Origin
	}
	if patch.Pushed != nil {
		reading.Pushed = *patch.Pushed
	}

	if err := s.Store.Reading().Update(reading); err != nil {
		return false, serviceErr(err)
	}
	return true, nil
}

// DeleteReading removes a reading by its identifier.
func (s *Service) DeleteReading(id string) (bool, error) {
	reading, err := s.Store.Reading().Get(id)
	if notRecordFound(err) {
		log.Errorf("Request to delete a non-existent reading: %s", id)
		return false, &NotFoundError{Kind: "reading", ID: id}
	}
	if err != nil {
		return false, serviceErr(err)
	}
	if err := s.Store.Reading().Delete(reading); err != nil {
		return false, serviceErr(err)
	}
	return true, nil
}
