// Copyright 2025 European Digital Reading Lab. All rights reserved.
// Use of this source code is governed by a BSD-style license
// specified in the Github project LICENSE file.

package core

import (
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/edrlab/core-data/pkg/stor"
)

// Background tasks triggered by an accepted event. Each runs on its own
// goroutine, unordered, and the caller never waits for them: ingestion
// acknowledges before, after or while they run. Every failure on this
// path is logged and swallowed.

func (s *Service) dispatchPostIngest(event *stor.Event) {
	// the tasks work on their own copy of the event
	ev := *event
	go s.queueEvent(&ev)
	go s.updateDeviceLastReported(ev.Device)
	go s.updateServiceLastReported(ev.Device)
}

// queueEvent publishes the event on the export channel, so that
// downstream consumers such as rules engines receive it.
func (s *Service) queueEvent(event *stor.Event) {
	if !s.Toggles.Export.Load() {
		return
	}
	if err := s.Publisher.SendEvent(event); err != nil {
		log.Errorf("Event not queued for export, check the message broker: %s", event.ID)
	}
}

// updateDeviceLastReported refreshes the last connected / last reported
// timestamps of the event's device in the directory.
func (s *Service) updateDeviceLastReported(deviceID string) {
	if !s.Toggles.UpdateDeviceReported.Load() {
		log.Debugf("Skipping update of device connected/reported times for: %s", deviceID)
		return
	}
	device, err := s.resolveDevice(deviceID)
	if err != nil {
		log.Errorf("Error updating device connected/reported times, unresolved device %s: %v", deviceID, err)
		return
	}
	now := time.Now().UnixMilli()
	if err := s.Devices.UpdateLastConnected(device.ID, now); err != nil {
		log.Errorf("Error updating device connected time for %s: %v", deviceID, err)
	}
	if err := s.Devices.UpdateLastReported(device.ID, now); err != nil {
		log.Errorf("Error updating device reported time for %s: %v", deviceID, err)
	}
}

// updateServiceLastReported refreshes the last connected / last
// reported timestamps of the service owning the event's device. A
// device without a service is skipped.
func (s *Service) updateServiceLastReported(deviceID string) {
	if !s.Toggles.UpdateServiceReported.Load() {
		log.Debugf("Skipping update of device service connected/reported times for: %s", deviceID)
		return
	}
	device, err := s.resolveDevice(deviceID)
	if err != nil {
		log.Errorf("Error updating service connected/reported times, unresolved device %s: %v", deviceID, err)
		return
	}
	if device.Service == nil {
		log.Warnf("No device service associated to device: %s", device.ID)
		return
	}
	now := time.Now().UnixMilli()
	if err := s.Services.UpdateServiceLastConnected(device.Service.ID, now); err != nil {
		log.Errorf("Error updating service connected time for %s: %v", deviceID, err)
	}
	if err := s.Services.UpdateServiceLastReported(device.Service.ID, now); err != nil {
		log.Errorf("Error updating service reported time for %s: %v", deviceID, err)
	}
}
