// Copyright 2025 European Digital Reading Lab. All rights reserved.
// Use of this source code is governed by a BSD-style license
// specified in the Github project LICENSE file.

package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/edrlab/core-data/pkg/core"
	"github.com/edrlab/core-data/pkg/stor"
)

// AddEvent ingests a new event with its readings.
func (a *APICtrl) AddEvent(w http.ResponseWriter, r *http.Request) {

	data := &EventRequest{}
	if err := render.Bind(r, data); err != nil {
		render.Render(w, r, ErrInvalidRequest(err))
		return
	}

	id, err := a.Service.AddEvent(data.Event)
	if err != nil {
		render.Render(w, r, ErrCore(err))
		return
	}

	render.Status(r, http.StatusCreated)
	render.PlainText(w, r, id)
}

// GetEvent returns a specific event with its readings.
func (a *APICtrl) GetEvent(w http.ResponseWriter, r *http.Request) {

	id := chi.URLParam(r, "eventID")
	if id == "" {
		render.Render(w, r, ErrInvalidRequest(errors.New("missing required event identifier")))
		return
	}
	event, err := a.Service.GetEvent(id)
	if err != nil {
		render.Render(w, r, ErrCore(err))
		return
	}
	if err := render.Render(w, r, NewEventResponse(event)); err != nil {
		render.Render(w, r, ErrRender(err))
	}
}

// ListEvents lists all events present in the database.
func (a *APICtrl) ListEvents(w http.ResponseWriter, r *http.Request) {

	events, err := a.Service.ListEvents()
	if err != nil {
		render.Render(w, r, ErrCore(err))
		return
	}
	if err := render.RenderList(w, r, NewEventListResponse(events)); err != nil {
		render.Render(w, r, ErrRender(err))
	}
}

// EventsForDevice lists the latest events of a device.
func (a *APICtrl) EventsForDevice(w http.ResponseWriter, r *http.Request) {

	limit, err := pathInt(r, "limit")
	if err != nil {
		render.Render(w, r, ErrInvalidRequest(err))
		return
	}
	events, err := a.Service.EventsForDevice(chi.URLParam(r, "deviceID"), limit)
	if err != nil {
		render.Render(w, r, ErrCore(err))
		return
	}
	if err := render.RenderList(w, r, NewEventListResponse(events)); err != nil {
		render.Render(w, r, ErrRender(err))
	}
}

// EventsByCreationTime lists the events created in a time window.
func (a *APICtrl) EventsByCreationTime(w http.ResponseWriter, r *http.Request) {

	start, err1 := pathInt64(r, "start")
	end, err2 := pathInt64(r, "end")
	limit, err3 := pathInt(r, "limit")
	if err := errors.Join(err1, err2, err3); err != nil {
		render.Render(w, r, ErrInvalidRequest(err))
		return
	}
	events, err := a.Service.EventsByCreationTime(start, end, limit)
	if err != nil {
		render.Render(w, r, ErrCore(err))
		return
	}
	if err := render.RenderList(w, r, NewEventListResponse(events)); err != nil {
		render.Render(w, r, ErrRender(err))
	}
}

// ReadingsForDeviceAndDescriptor lists the readings of a device
// matching a value descriptor name.
func (a *APICtrl) ReadingsForDeviceAndDescriptor(w http.ResponseWriter, r *http.Request) {

	limit, err := pathInt(r, "limit")
	if err != nil {
		render.Render(w, r, ErrInvalidRequest(err))
		return
	}
	readings, err := a.Service.ReadingsForDeviceAndDescriptor(
		chi.URLParam(r, "deviceID"), chi.URLParam(r, "name"), limit)
	if err != nil {
		render.Render(w, r, ErrCore(err))
		return
	}
	if err := render.RenderList(w, r, NewReadingListResponse(&readings)); err != nil {
		render.Render(w, r, ErrRender(err))
	}
}

// CountEvents returns the total number of events.
func (a *APICtrl) CountEvents(w http.ResponseWriter, r *http.Request) {

	count, err := a.Service.EventCount()
	if err != nil {
		render.Render(w, r, ErrCore(err))
		return
	}
	render.PlainText(w, r, strconv.FormatInt(count, 10))
}

// CountEventsForDevice returns the number of events of a device.
func (a *APICtrl) CountEventsForDevice(w http.ResponseWriter, r *http.Request) {

	count, err := a.Service.EventCountForDevice(chi.URLParam(r, "deviceID"))
	if err != nil {
		render.Render(w, r, ErrCore(err))
		return
	}
	render.PlainText(w, r, strconv.FormatInt(count, 10))
}

// UpdateEvent applies a sparse patch to an event.
func (a *APICtrl) UpdateEvent(w http.ResponseWriter, r *http.Request) {

	data := &EventPatchRequest{}
	if err := render.Bind(r, data); err != nil {
		render.Render(w, r, ErrInvalidRequest(err))
		return
	}

	ok, err := a.Service.UpdateEvent(*data.EventPatch)
	if err != nil {
		render.Render(w, r, ErrCore(err))
		return
	}
	render.PlainText(w, r, strconv.FormatBool(ok))
}

// MarkEventPushed sets the pushed timestamp on an event and its readings.
func (a *APICtrl) MarkEventPushed(w http.ResponseWriter, r *http.Request) {

	ok, err := a.Service.MarkPushed(chi.URLParam(r, "eventID"))
	if err != nil {
		render.Render(w, r, ErrCore(err))
		return
	}
	render.PlainText(w, r, strconv.FormatBool(ok))
}

// DeleteEvent removes an event and its readings.
func (a *APICtrl) DeleteEvent(w http.ResponseWriter, r *http.Request) {

	ok, err := a.Service.DeleteEvent(chi.URLParam(r, "eventID"))
	if err != nil {
		render.Render(w, r, ErrCore(err))
		return
	}
	render.PlainText(w, r, strconv.FormatBool(ok))
}

// DeleteEventsByDevice removes every event of a device and returns the
// count of events removed.
func (a *APICtrl) DeleteEventsByDevice(w http.ResponseWriter, r *http.Request) {

	count, err := a.Service.DeleteEventsByDevice(chi.URLParam(r, "deviceID"))
	if err != nil {
		render.Render(w, r, ErrCore(err))
		return
	}
	render.PlainText(w, r, strconv.Itoa(count))
}

// ScrubPushedEvents removes all pushed events and their readings.
func (a *APICtrl) ScrubPushedEvents(w http.ResponseWriter, r *http.Request) {

	count, err := a.Service.ScrubPushedEvents()
	if err != nil {
		render.Render(w, r, ErrCore(err))
		return
	}
	render.PlainText(w, r, strconv.FormatInt(count, 10))
}

// ScrubOldEvents removes all events older than the given age, in
// milliseconds, and their readings.
func (a *APICtrl) ScrubOldEvents(w http.ResponseWriter, r *http.Request) {

	age, err := pathInt64(r, "age")
	if err != nil {
		render.Render(w, r, ErrInvalidRequest(err))
		return
	}
	count, err := a.Service.ScrubOldEvents(age)
	if err != nil {
		render.Render(w, r, ErrCore(err))
		return
	}
	render.PlainText(w, r, strconv.FormatInt(count, 10))
}

// ScrubAllEvents removes every event and reading.
func (a *APICtrl) ScrubAllEvents(w http.ResponseWriter, r *http.Request) {

	ok, err := a.Service.ScrubAllEvents()
	if err != nil {
		render.Render(w, r, ErrCore(err))
		return
	}
	render.PlainText(w, r, strconv.FormatBool(ok))
}

// --
// Request and Response payloads for the REST api.
// --

// EventRequest is the request payload for events.
type EventRequest struct {
	*stor.Event
}

// Bind post-processes requests after unmarshalling.
func (e *EventRequest) Bind(r *http.Request) error {
	if e.Event == nil {
		return errors.New("missing required event fields")
	}
	return nil
}

// EventPatchRequest is the request payload for event updates.
type EventPatchRequest struct {
	*core.EventPatch
}

// Bind post-processes requests after unmarshalling.
func (e *EventPatchRequest) Bind(r *http.Request) error {
	if e.EventPatch == nil || e.ID == "" {
		return errors.New("missing required event identifier")
	}
	return nil
}

// EventResponse is the response payload for events.
type EventResponse struct {
	*stor.Event
}

// NewEventResponse creates a rendered event.
func NewEventResponse(event *stor.Event) *EventResponse {
	return &EventResponse{Event: event}
}

// Render processes responses before marshalling.
func (e *EventResponse) Render(w http.ResponseWriter, r *http.Request) error {
	return nil
}

// NewEventListResponse creates a rendered list of events.
func NewEventListResponse(events *[]stor.Event) []render.Renderer {
	list := []render.Renderer{}
	for i := range *events {
		list = append(list, &EventResponse{Event: &(*events)[i]})
	}
	return list
}

// pathInt parses an integer url parameter.
func pathInt(r *http.Request, name string) (int, error) {
	v, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil {
		return 0, errors.New("invalid " + name + " parameter")
	}
	return v, nil
}

// pathInt64 parses a long integer url parameter.
func pathInt64(r *http.Request, name string) (int64, error) {
	v, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil {
		return 0, errors.New("invalid " + name + " parameter")
	}
	return v, nil
}
