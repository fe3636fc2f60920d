// Copyright 2025 European Digital Reading Lab. All rights reserved.
// Use of this source code is governed by a BSD-style license
// specified in the Github project LICENSE file.

// Package meta gives access to the external device directory, which
// keeps the registry of devices and of the services managing them.
// Core data consults it for existence checks on ingested events and
// notifies it of device / service liveness.
package meta

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

// ErrNotFound is returned when the directory has no entry for the
// requested name or identifier.
var ErrNotFound = errors.New("not found in the device directory")

// Device directory record
type Device struct {
	ID      string         `json:"id"`
	Name    string         `json:"name"`
	Service *DeviceService `json:"service,omitempty"` // the service managing the device, may be absent
}

// DeviceService directory record
type DeviceService struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// DeviceClient resolves devices and updates their liveness timestamps.
type DeviceClient interface {
	DeviceForName(name string) (*Device, error)
	Device(id string) (*Device, error)
	UpdateLastConnected(id string, timestamp int64) error
	UpdateLastReported(id string, timestamp int64) error
}

// ServiceClient updates the liveness timestamps of a device service.
type ServiceClient interface {
	UpdateServiceLastConnected(id string, timestamp int64) error
	UpdateServiceLastReported(id string, timestamp int64) error
}

// Client is the REST implementation of DeviceClient and ServiceClient.
type Client struct {
	httpClient *resty.Client
}

// NewClient creates a directory client for the given base URL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &Client{httpClient: client}
}

func (c *Client) getDevice(path string) (*Device, error) {
	var device Device
	// some directories omit the content type on JSON responses
	resp, err := c.httpClient.R().
		SetResult(&device).
		ForceContentType("application/json").
		Get(path)
	if err != nil {
		return nil, fmt.Errorf("device directory unreachable: %w", err)
	}
	if resp.StatusCode() == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.IsError() {
		return nil, fmt.Errorf("device directory error: %s", resp.Status())
	}
	return &device, nil
}

// DeviceForName fetches a device by its unique name.
func (c *Client) DeviceForName(name string) (*Device, error) {
	return c.getDevice("/api/v1/device/name/" + name)
}

// Device fetches a device by its identifier.
func (c *Client) Device(id string) (*Device, error) {
	return c.getDevice("/api/v1/device/" + id)
}

func (c *Client) put(path string) error {
	resp, err := c.httpClient.R().Put(path)
	if err != nil {
		return fmt.Errorf("device directory unreachable: %w", err)
	}
	if resp.StatusCode() == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.IsError() {
		return fmt.Errorf("device directory error: %s", resp.Status())
	}
	return nil
}

// UpdateLastConnected sets the last connected timestamp of a device.
func (c *Client) UpdateLastConnected(id string, timestamp int64) error {
	return c.put(fmt.Sprintf("/api/v1/device/%s/lastconnected/%d", id, timestamp))
}

// UpdateLastReported sets the last reported timestamp of a device.
func (c *Client) UpdateLastReported(id string, timestamp int64) error {
	return c.put(fmt.Sprintf("/api/v1/device/%s/lastreported/%d", id, timestamp))
}

// UpdateServiceLastConnected sets the last connected timestamp of a device service.
func (c *Client) UpdateServiceLastConnected(id string, timestamp int64) error {
	return c.put(fmt.Sprintf("/api/v1/deviceservice/%s/lastconnected/%d", id, timestamp))
}

// UpdateServiceLastReported sets the last reported timestamp of a device service.
func (c *Client) UpdateServiceLastReported(id string, timestamp int64) error {
	return c.put(fmt.Sprintf("/api/v1/deviceservice/%s/lastreported/%d", id, timestamp))
}
