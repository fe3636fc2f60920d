// Copyright 2025 European Digital Reading Lab. All rights reserved.
// Use of this source code is governed by a BSD-style license
// specified in the Github project LICENSE file.

// Package core implements the event ingestion pipeline, the value
// descriptor registry, the retention scrubber and the asynchronous
// fan-out toward the export channel and the device directory.
package core

import (
	"errors"
	"sync/atomic"

	"github.com/edrlab/core-data/pkg/conf"
	"github.com/edrlab/core-data/pkg/export"
	"github.com/edrlab/core-data/pkg/meta"
	"github.com/edrlab/core-data/pkg/stor"
)

// UnsavedID is the sentinel identifier given to events and readings
// accepted while persistence is disabled.
const UnsavedID = "unsaved"

// Toggles are the runtime feature switches of the service. They can be
// flipped while requests are in flight, by a configuration reload, so
// every read and write goes through an atomic.
type Toggles struct {
	MetaCheck             atomic.Bool
	PersistData           atomic.Bool
	Export                atomic.Bool
	UpdateDeviceReported  atomic.Bool
	UpdateServiceReported atomic.Bool
}

// Apply sets the toggles from a configuration.
func (t *Toggles) Apply(c *conf.Config) {
	t.MetaCheck.Store(c.Service.MetaCheck)
	t.PersistData.Store(c.Service.PersistData)
	t.Export.Store(c.Export.Enabled)
	t.UpdateDeviceReported.Store(c.Metadata.UpdateDeviceReported)
	t.UpdateServiceReported.Store(c.Metadata.UpdateServiceReported)
}

// Service holds the collaborators of the core operations. All of them
// are injected, so tests can substitute fakes.
type Service struct {
	Config    *conf.Config
	Toggles   Toggles
	Store     stor.Store
	Devices   meta.DeviceClient
	Services  meta.ServiceClient
	Publisher export.EventPublisher
}

// NewService returns a core service using the given collaborators.
func NewService(c *conf.Config, st stor.Store, devices meta.DeviceClient, services meta.ServiceClient, publisher export.EventPublisher) *Service {
	s := &Service{
		Config:    c,
		Store:     st,
		Devices:   devices,
		Services:  services,
		Publisher: publisher,
	}
	s.Toggles.Apply(c)
	return s
}

// resolveDevice locates a directory device by name first, then by id.
func (s *Service) resolveDevice(deviceID string) (*meta.Device, error) {
	device, err := s.Devices.DeviceForName(deviceID)
	if errors.Is(err, meta.ErrNotFound) {
		device, err = s.Devices.Device(deviceID)
	}
	return device, err
}

// checkDevice validates the device associated to an event. The device
// identifier is always required; its existence in the directory is only
// checked when the meta check toggle is on.
func (s *Service) checkDevice(deviceID string) error {
	if deviceID == "" {
		return &ValidationError{"event must be associated to a device"}
	}
	if !s.Toggles.MetaCheck.Load() {
		return nil
	}
	_, err := s.resolveDevice(deviceID)
	if errors.Is(err, meta.ErrNotFound) {
		return &NotFoundError{Kind: "device", ID: deviceID}
	}
	if err != nil {
		return serviceErr(err)
	}
	return nil
}

// checkDescriptor verifies that a reading name references an existing
// value descriptor.
func (s *Service) checkDescriptor(name string) error {
	_, err := s.Store.ValueDescriptor().GetByName(name)
	if notRecordFound(err) {
		return &ValidationError{"non-existent value descriptor specified in reading"}
	}
	if err != nil {
		return serviceErr(err)
	}
	return nil
}
