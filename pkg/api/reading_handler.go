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

// AddReading registers a standalone reading.
func (a *APICtrl) AddReading(w http.ResponseWriter, r *http.Request) {

	data := &ReadingRequest{}
	if err := render.Bind(r, data); err != nil {
		render.Render(w, r, ErrInvalidRequest(err))
		return
	}

	id, err := a.Service.AddReading(data.Reading)
	if err != nil {
		render.Render(w, r, ErrCore(err))
		return
	}

	render.Status(r, http.StatusCreated)
	render.PlainText(w, r, id)
}

// GetReading returns a specific reading.
func (a *APICtrl) GetReading(w http.ResponseWriter, r *http.Request) {

	reading, err := a.Service.GetReading(chi.URLParam(r, "readingID"))
	if err != nil {
		render.Render(w, r, ErrCore(err))
		return
	}
	if err := render.Render(w, r, NewReadingResponse(reading)); err != nil {
		render.Render(w, r, ErrRender(err))
	}
}

// ListReadings lists all readings present in the database.
func (a *APICtrl) ListReadings(w http.ResponseWriter, r *http.Request) {

	readings, err := a.Service.ListReadings()
	if err != nil {
		render.Render(w, r, ErrCore(err))
		return
	}
	if err := render.RenderList(w, r, NewReadingListResponse(readings)); err != nil {
		render.Render(w, r, ErrRender(err))
	}
}

// CountReadings returns the total number of readings.
func (a *APICtrl) CountReadings(w http.ResponseWriter, r *http.Request) {

	count, err := a.Service.ReadingCount()
	if err != nil {
		render.Render(w, r, ErrCore(err))
		return
	}
	render.PlainText(w, r, strconv.FormatInt(count, 10))
}

// readingQuery runs one of the filtered reading searches, all of which
// share the limit parameter handling.
func (a *APICtrl) readingQuery(w http.ResponseWriter, r *http.Request,
	search func(criteria string, limit int) (*[]stor.Reading, error), criteria string) {

	limit, err := pathInt(r, "limit")
	if err != nil {
		render.Render(w, r, ErrInvalidRequest(err))
		return
	}
	readings, err := search(criteria, limit)
	if err != nil {
		render.Render(w, r, ErrCore(err))
		return
	}
	if err := render.RenderList(w, r, NewReadingListResponse(readings)); err != nil {
		render.Render(w, r, ErrRender(err))
	}
}

// ReadingsByName lists the latest readings for a value descriptor name.
func (a *APICtrl) ReadingsByName(w http.ResponseWriter, r *http.Request) {
	a.readingQuery(w, r, a.Service.ReadingsByName, chi.URLParam(r, "name"))
}

// ReadingsForDevice lists the latest readings of a device.
func (a *APICtrl) ReadingsForDevice(w http.ResponseWriter, r *http.Request) {
	a.readingQuery(w, r, a.Service.ReadingsForDevice, chi.URLParam(r, "deviceID"))
}

// ReadingsByUomLabel lists readings whose descriptor carries a unit of
// measure label.
func (a *APICtrl) ReadingsByUomLabel(w http.ResponseWriter, r *http.Request) {
	a.readingQuery(w, r, a.Service.ReadingsByUomLabel, chi.URLParam(r, "uomLabel"))
}

// ReadingsByLabel lists readings whose descriptor carries a label.
func (a *APICtrl) ReadingsByLabel(w http.ResponseWriter, r *http.Request) {
	a.readingQuery(w, r, a.Service.ReadingsByLabel, chi.URLParam(r, "label"))
}

// ReadingsByType lists readings whose descriptor declares a type.
func (a *APICtrl) ReadingsByType(w http.ResponseWriter, r *http.Request) {
	a.readingQuery(w, r, a.Service.ReadingsByType, chi.URLParam(r, "type"))
}

// ReadingsByNameAndDevice lists readings matching a descriptor name and
// a device.
func (a *APICtrl) ReadingsByNameAndDevice(w http.ResponseWriter, r *http.Request) {

	limit, err := pathInt(r, "limit")
	if err != nil {
		render.Render(w, r, ErrInvalidRequest(err))
		return
	}
	readings, err := a.Service.ReadingsByNameAndDevice(
		chi.URLParam(r, "name"), chi.URLParam(r, "deviceID"), limit)
	if err != nil {
		render.Render(w, r, ErrCore(err))
		return
	}
	if err := render.RenderList(w, r, NewReadingListResponse(readings)); err != nil {
		render.Render(w, r, ErrRender(err))
	}
}

// ReadingsByCreationTime lists the readings created in a time window.
func (a *APICtrl) ReadingsByCreationTime(w http.ResponseWriter, r *http.Request) {

	start, err1 := pathInt64(r, "start")
	end, err2 := pathInt64(r, "end")
	limit, err3 := pathInt(r, "limit")
	if err := errors.Join(err1, err2, err3); err != nil {
		render.Render(w, r, ErrInvalidRequest(err))
		return
	}
	readings, err := a.Service.ReadingsByCreationTime(start, end, limit)
	if err != nil {
		render.Render(w, r, ErrCore(err))
		return
	}
	if err := render.RenderList(w, r, NewReadingListResponse(readings)); err != nil {
		render.Render(w, r, ErrRender(err))
	}
}

// UpdateReading applies a sparse patch to a reading.
func (a *APICtrl) UpdateReading(w http.ResponseWriter, r *http.Request) {

	data := &ReadingPatchRequest{}
	if err := render.Bind(r, data); err != nil {
		render.Render(w, r, ErrInvalidRequest(err))
		return
	}

	ok, err := a.Service.UpdateReading(*data.ReadingPatch)
	if err != nil {
		render.Render(w, r, ErrCore(err))
		return
	}
	render.PlainText(w, r, strconv.FormatBool(ok))
}

// DeleteReading removes a reading.
func (a *APICtrl) DeleteReading(w http.ResponseWriter, r *http.Request) {

	ok, err := a.Service.DeleteReading(chi.URLParam(r, "readingID"))
	if err != nil {
		render.Render(w, r, ErrCore(err))
		return
	}
	render.PlainText(w, r, strconv.FormatBool(ok))
}

// --
// Request and Response payloads for the REST api.
// --

// ReadingRequest is the request payload for readings.
type ReadingRequest struct {
	*stor.Reading
}

// Bind post-processes requests after unmarshalling.
func (rr *ReadingRequest) Bind(r *http.Request) error {
	if rr.Reading == nil {
		return errors.New("missing required reading fields")
	}
	return nil
}

// ReadingPatchRequest is the request payload for reading updates.
type ReadingPatchRequest struct {
	*core.ReadingPatch
}

// Bind post-processes requests after unmarshalling.
func (rr *ReadingPatchRequest) Bind(r *http.Request) error {
	if rr.ReadingPatch == nil || rr.ID == "" {
		return errors.New("missing required reading identifier")
	}
	return nil
}

// ReadingResponse is the response payload for readings.
type ReadingResponse struct {
	*stor.Reading
}

// NewReadingResponse creates a rendered reading.
func NewReadingResponse(reading *stor.Reading) *ReadingResponse {
	return &ReadingResponse{Reading: reading}
}

// Render processes responses before marshalling.
func (rr *ReadingResponse) Render(w http.ResponseWriter, r *http.Request) error {
	return nil
}

// NewReadingListResponse creates a rendered list of readings.
func NewReadingListResponse(readings *[]stor.Reading) []render.Renderer {
	list := []render.Renderer{}
	for i := range *readings {
		list = append(list, &ReadingResponse{Reading: &(*readings)[i]})
	}
	return list
}
