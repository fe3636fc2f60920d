// Copyright 2025 European Digital Reading Lab. All rights reserved.
// Use of this source code is governed by a BSD-style license
// specified in the Github project LICENSE file.

package core

import (
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/edrlab/core-data/pkg/stor"
)

// EventPatch is a sparse update of an event: a nil field is left
// untouched, a set field overwrites, including with a zero value.
type EventPatch struct {
	ID     string  `json:"id"`
	Device *string `json:"device,omitempty"`
	Pushed *int64  `json:"pushed,omitempty"`
	Origin *int64  `json:"origin,omitempty"`
}

// AddEvent accepts a new event with its readings.
//
// The device identifier is required, and checked against the directory
// when the meta check toggle is on. Every reading must reference an
// existing value descriptor; the whole set is validated before anything
// is written, so a failed validation leaves no partial state. With
// persistence off, the event gets the "unsaved" identifier and skips
// the store entirely.
//
// Whatever the persistence mode, the accepted event is handed to three
// independent background tasks: export publish, device liveness update,
// device service liveness update. Their failures never surface here.
func (s *Service) AddEvent(event *stor.Event) (string, error) {
	if err := s.checkDevice(event.Device); err != nil {
		return "", err
	}

	if s.Toggles.PersistData.Load() {
		for i := range event.Readings {
			if err := s.checkDescriptor(event.Readings[i].Name); err != nil {
				return "", err
			}
			// the parent event is authoritative for the device
			event.Readings[i].Device = event.Device
			if event.Readings[i].Origin == 0 {
				event.Readings[i].Origin = event.Origin
			}
		}
		// readings are inserted along with the event, in one transaction
		if err := s.Store.Event().Create(event); err != nil {
			return "", serviceErr(err)
		}
	} else {
		event.ID = UnsavedID
	}

	s.dispatchPostIngest(event)

	return event.ID, nil
}

// GetEvent returns an event, with its readings, by its identifier.
func (s *Service) GetEvent(id string) (*stor.Event, error) {
	event, err := s.Store.Event().Get(id)
	if notRecordFound(err) {
		return nil, &NotFoundError{Kind: "event", ID: id}
	}
	if err != nil {
		return nil, serviceErr(err)
	}
	return event, nil
}

// ListEvents returns every event, refusing to answer when the table
// holds more than the configured max result size.
func (s *Service) ListEvents() (*[]stor.Event, error) {
	count, err := s.Store.Event().Count()
	if err != nil {
		return nil, serviceErr(err)
	}
	if count > int64(s.Config.MaxResultSize) {
		return nil, &LimitExceededError{Kind: "event"}
	}
	events, err := s.Store.Event().ListAll(s.Config.MaxResultSize)
	if err != nil {
		return nil, serviceErr(err)
	}
	return events, nil
}

// EventsForDevice returns the latest events of a device.
func (s *Service) EventsForDevice(deviceID string, limit int) (*[]stor.Event, error) {
	if err := s.checkDevice(deviceID); err != nil {
		return nil, err
	}
	if limit > s.Config.MaxResultSize {
		return nil, &LimitExceededError{Kind: "event"}
	}
	events, err := s.Store.Event().FindByDevice(deviceID, limit)
	if err != nil {
		return nil, serviceErr(err)
	}
	return events, nil
}

// EventsByCreationTime returns the events created in a time window.
func (s *Service) EventsByCreationTime(start, end int64, limit int) (*[]stor.Event, error) {
	if limit > s.Config.MaxResultSize {
		return nil, &LimitExceededError{Kind: "event"}
	}
	events, err := s.Store.Event().FindByCreatedBetween(start, end, limit)
	if err != nil {
		return nil, serviceErr(err)
	}
	return events, nil
}

// ReadingsForDeviceAndDescriptor returns the readings of a device
// matching a value descriptor name, extracted from its latest events.
func (s *Service) ReadingsForDeviceAndDescriptor(deviceID, descriptor string, limit int) ([]stor.Reading, error) {
	if err := s.checkDevice(deviceID); err != nil {
		return nil, err
	}
	if limit > s.Config.MaxResultSize {
		return nil, &LimitExceededError{Kind: "event"}
	}
	events, err := s.Store.Event().FindByDevice(deviceID, limit)
	if err != nil {
		return nil, serviceErr(err)
	}
	readings := []stor.Reading{}
	for _, e := range *events {
		for _, r := range e.Readings {
			if r.Name == descriptor {
				readings = append(readings, r)
			}
		}
	}
	return readings, nil
}

// EventCount returns the total number of stored events.
func (s *Service) EventCount() (int64, error) {
	count, err := s.Store.Event().Count()
	if err != nil {
		return 0, serviceErr(err)
	}
	return count, nil
}

// EventCountForDevice returns the number of stored events of a device.
func (s *Service) EventCountForDevice(deviceID string) (int64, error) {
	count, err := s.Store.Event().CountByDevice(deviceID)
	if err != nil {
		return 0, serviceErr(err)
	}
	return count, nil
}

// UpdateEvent applies a sparse patch to an existing event. A device
// change goes through the same directory check as ingestion.
func (s *Service) UpdateEvent(patch EventPatch) (bool, error) {
	event, err := s.Store.Event().Get(patch.ID)
	if notRecordFound(err) {
		log.Errorf("Request to update a non-existent event: %s", patch.ID)
		return false, &NotFoundError{Kind: "event", ID: patch.ID}
	}
	if err != nil {
		return false, serviceErr(err)
	}

	if patch.Device != nil {
		if err := s.checkDevice(*patch.Device); err != nil {
			return false, err
		}
		event.Device = *patch.Device
	}
	if patch.Pushed != nil {
		event.Pushed = *patch.Pushed
	}
	if patch.Origin != nil {
		event.Origin = *patch.Origin
	}

	if err := s.Store.Event().Update(event); err != nil {
		return false, serviceErr(err)
	}
	return true, nil
}

// MarkPushed records that an event was exported downstream: the pushed
// timestamp is set to the current time on the event and on every one of
// its readings. Calling it again on the same event just refreshes the
// timestamp.
func (s *Service) MarkPushed(id string) (bool, error) {
	event, err := s.Store.Event().Get(id)
	if notRecordFound(err) {
		log.Errorf("Request to mark a non-existent event as pushed: %s", id)
		return false, &NotFoundError{Kind: "event", ID: id}
	}
	if err != nil {
		return false, serviceErr(err)
	}

	now := time.Now().UnixMilli()
	event.Pushed = now
	for i := range event.Readings {
		if err := s.checkDescriptor(event.Readings[i].Name); err != nil {
			return false, err
		}
		event.Readings[i].Pushed = now
		if err := s.Store.Reading().Update(&event.Readings[i]); err != nil {
			return false, serviceErr(err)
		}
	}
	if err := s.Store.Event().Update(event); err != nil {
		return false, serviceErr(err)
	}
	return true, nil
}

// DeleteEvent removes an event and all of its readings.
func (s *Service) DeleteEvent(id string) (bool, error) {
	event, err := s.Store.Event().Get(id)
	if notRecordFound(err) {
		log.Errorf("Request to delete a non-existent event: %s", id)
		return false, &NotFoundError{Kind: "event", ID: id}
	}
	if err != nil {
		return false, serviceErr(err)
	}
	if err := s.deleteEvent(event); err != nil {
		return false, serviceErr(err)
	}
	return true, nil
}

// DeleteEventsByDevice removes every event of a device, with their
// readings, and returns the number of events removed. An unknown device
// is a zero count, not an error, though the identifier itself is still
// checked against the directory when the meta check toggle is on.
func (s *Service) DeleteEventsByDevice(deviceID string) (int, error) {
	if err := s.checkDevice(deviceID); err != nil {
		return 0, err
	}
	// -1 cancels the result limit: the whole set is removed
	events, err := s.Store.Event().FindByDevice(deviceID, -1)
	if err != nil {
		return 0, serviceErr(err)
	}
	for _, e := range *events {
		if err := s.deleteEvent(&e); err != nil {
			return 0, serviceErr(err)
		}
	}
	return len(*events), nil
}

// deleteEvent removes the owned readings first, then the event row.
func (s *Service) deleteEvent(event *stor.Event) error {
	for i := range event.Readings {
		if err := s.Store.Reading().Delete(&event.Readings[i]); err != nil {
			return err
		}
	}
	return s.Store.Event().Delete(event)
}

// ScrubPushedEvents removes every event already marked as pushed, with
// their readings, and returns the number of events removed.
func (s *Service) ScrubPushedEvents() (int64, error) {
	count, err := s.Store.Scrub().ScrubPushed()
	if err != nil {
		return 0, serviceErr(err)
	}
	log.Infof("Scrubbed %d pushed events", count)
	return count, nil
}

// ScrubOldEvents removes every event older than the given age, in
// milliseconds from the creation timestamp, with their readings, and
// returns the number of events removed.
func (s *Service) ScrubOldEvents(age int64) (int64, error) {
	cutoff := time.Now().UnixMilli() - age
	count, err := s.Store.Scrub().ScrubAged(cutoff)
	if err != nil {
		return 0, serviceErr(err)
	}
	log.Infof("Scrubbed %d events older than %d ms", count, age)
	return count, nil
}

// ScrubAllEvents removes every event and reading, whatever their state.
func (s *Service) ScrubAllEvents() (bool, error) {
	if err := s.Store.Scrub().ScrubAll(); err != nil {
		return false, serviceErr(err)
	}
	log.Warn("Scrubbed all events and readings")
	return true, nil
}
