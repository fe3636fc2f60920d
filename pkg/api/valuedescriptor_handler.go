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

// AddValueDescriptor registers a new value descriptor.
func (a *APICtrl) AddValueDescriptor(w http.ResponseWriter, r *http.Request) {

	data := &ValueDescriptorRequest{}
	if err := render.Bind(r, data); err != nil {
		render.Render(w, r, ErrInvalidRequest(err))
		return
	}

	id, err := a.Service.AddValueDescriptor(data.ValueDescriptor)
	if err != nil {
		render.Render(w, r, ErrCore(err))
		return
	}

	render.Status(r, http.StatusCreated)
	render.PlainText(w, r, id)
}

// GetValueDescriptor returns a specific value descriptor.
func (a *APICtrl) GetValueDescriptor(w http.ResponseWriter, r *http.Request) {

	descriptor, err := a.Service.GetValueDescriptor(chi.URLParam(r, "descriptorID"))
	if err != nil {
		render.Render(w, r, ErrCore(err))
		return
	}
	if err := render.Render(w, r, NewValueDescriptorResponse(descriptor)); err != nil {
		render.Render(w, r, ErrRender(err))
	}
}

// GetValueDescriptorByName returns a value descriptor by its unique name.
func (a *APICtrl) GetValueDescriptorByName(w http.ResponseWriter, r *http.Request) {

	descriptor, err := a.Service.GetValueDescriptorByName(chi.URLParam(r, "name"))
	if err != nil {
		render.Render(w, r, ErrCore(err))
		return
	}
	if err := render.Render(w, r, NewValueDescriptorResponse(descriptor)); err != nil {
		render.Render(w, r, ErrRender(err))
	}
}

// ListValueDescriptors lists all value descriptors.
func (a *APICtrl) ListValueDescriptors(w http.ResponseWriter, r *http.Request) {

	descriptors, err := a.Service.ListValueDescriptors()
	if err != nil {
		render.Render(w, r, ErrCore(err))
		return
	}
	if err := render.RenderList(w, r, NewValueDescriptorListResponse(descriptors)); err != nil {
		render.Render(w, r, ErrRender(err))
	}
}

// ValueDescriptorsByUomLabel lists the descriptors carrying a unit of
// measure label.
func (a *APICtrl) ValueDescriptorsByUomLabel(w http.ResponseWriter, r *http.Request) {

	descriptors, err := a.Service.ValueDescriptorsByUomLabel(chi.URLParam(r, "uomLabel"))
	if err != nil {
		render.Render(w, r, ErrCore(err))
		return
	}
	if err := render.RenderList(w, r, NewValueDescriptorListResponse(descriptors)); err != nil {
		render.Render(w, r, ErrRender(err))
	}
}

// ValueDescriptorsByLabel lists the descriptors carrying a label.
func (a *APICtrl) ValueDescriptorsByLabel(w http.ResponseWriter, r *http.Request) {

	descriptors, err := a.Service.ValueDescriptorsByLabel(chi.URLParam(r, "label"))
	if err != nil {
		render.Render(w, r, ErrCore(err))
		return
	}
	if err := render.RenderList(w, r, NewValueDescriptorListResponse(descriptors)); err != nil {
		render.Render(w, r, ErrRender(err))
	}
}

// UpdateValueDescriptor applies a sparse patch to a value descriptor.
func (a *APICtrl) UpdateValueDescriptor(w http.ResponseWriter, r *http.Request) {

	data := &ValueDescriptorPatchRequest{}
	if err := render.Bind(r, data); err != nil {
		render.Render(w, r, ErrInvalidRequest(err))
		return
	}

	ok, err := a.Service.UpdateValueDescriptor(*data.ValueDescriptorPatch)
	if err != nil {
		render.Render(w, r, ErrCore(err))
		return
	}
	render.PlainText(w, r, strconv.FormatBool(ok))
}

// DeleteValueDescriptor removes a value descriptor by its identifier.
func (a *APICtrl) DeleteValueDescriptor(w http.ResponseWriter, r *http.Request) {

	ok, err := a.Service.DeleteValueDescriptor(chi.URLParam(r, "descriptorID"))
	if err != nil {
		render.Render(w, r, ErrCore(err))
		return
	}
	render.PlainText(w, r, strconv.FormatBool(ok))
}

// DeleteValueDescriptorByName removes a value descriptor by its name.
func (a *APICtrl) DeleteValueDescriptorByName(w http.ResponseWriter, r *http.Request) {

	ok, err := a.Service.DeleteValueDescriptorByName(chi.URLParam(r, "name"))
	if err != nil {
		render.Render(w, r, ErrCore(err))
		return
	}
	render.PlainText(w, r, strconv.FormatBool(ok))
}

// --
// Request and Response payloads for the REST api.
// --

// ValueDescriptorRequest is the request payload for value descriptors.
type ValueDescriptorRequest struct {
	*stor.ValueDescriptor
}

// Bind post-processes requests after unmarshalling.
func (v *ValueDescriptorRequest) Bind(r *http.Request) error {
	if v.ValueDescriptor == nil {
		return errors.New("missing required value descriptor fields")
	}
	return nil
}

// ValueDescriptorPatchRequest is the request payload for value
// descriptor updates.
type ValueDescriptorPatchRequest struct {
	*core.ValueDescriptorPatch
}

// Bind post-processes requests after unmarshalling.
func (v *ValueDescriptorPatchRequest) Bind(r *http.Request) error {
	if v.ValueDescriptorPatch == nil {
		return errors.New("missing required value descriptor fields")
	}
	return nil
}

// ValueDescriptorResponse is the response payload for value descriptors.
type ValueDescriptorResponse struct {
	*stor.ValueDescriptor
}

// NewValueDescriptorResponse creates a rendered value descriptor.
func NewValueDescriptorResponse(descriptor *stor.ValueDescriptor) *ValueDescriptorResponse {
	return &ValueDescriptorResponse{ValueDescriptor: descriptor}
}

// Render processes responses before marshalling.
func (v *ValueDescriptorResponse) Render(w http.ResponseWriter, r *http.Request) error {
	return nil
}

// NewValueDescriptorListResponse creates a rendered list of value descriptors.
func NewValueDescriptorListResponse(descriptors *[]stor.ValueDescriptor) []render.Renderer {
	list := []render.Renderer{}
	for i := range *descriptors {
		list = append(list, &ValueDescriptorResponse{ValueDescriptor: &(*descriptors)[i]})
	}
	return list
}
