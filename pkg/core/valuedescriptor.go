// Copyright 2025 European Digital Reading Lab. All rights reserved.
// Use of this source code is governed by a BSD-style license
// specified in the Github project LICENSE file.

package core

import (
	"regexp"

	log "github.com/sirupsen/logrus"

	"github.com/edrlab/core-data/pkg/stor"
)

// ValueDescriptorPatch is a sparse update of a value descriptor: a nil
// field is left untouched, a set field overwrites, including with a
// zero value. The descriptor is located by id first, name second.
type ValueDescriptorPatch struct {
	ID           string    `json:"id,omitempty"`
	Name         *string   `json:"name,omitempty"`
	Min          *string   `json:"min,omitempty"`
	Max          *string   `json:"max,omitempty"`
	Type         *string   `json:"type,omitempty"`
	UomLabel     *string   `json:"uomLabel,omitempty"`
	DefaultValue *string   `json:"defaultValue,omitempty"`
	Formatting   *string   `json:"formatting,omitempty"`
	Labels       *[]string `json:"labels,omitempty"`
	Description  *string   `json:"description,omitempty"`
	Origin       *int64    `json:"origin,omitempty"`
}

// validFormatString accepts an empty format string, else matches it
// against the configured pattern.
func (s *Service) validFormatString(formatting string) bool {
	if formatting == "" {
		return true
	}
	matched, err := regexp.MatchString(s.Config.Service.FormatSpecifier, formatting)
	if err != nil {
		return false
	}
	return matched
}

// AddValueDescriptor registers a new value descriptor. Its name must be
// unique and its format string, if any, must fit the configured
// pattern.
//
// The uniqueness check and the insert are not one atomic step: two
// concurrent adds of the same name can, in principle, race past the
// check. The store's unique index still rejects the second insert; it
// is then reported as an opaque service failure rather than a
// validation one.
func (s *Service) AddValueDescriptor(descriptor *stor.ValueDescriptor) (string, error) {
	if err := descriptor.Validate(); err != nil {
		return "", &ValidationError{Message: err.Error()}
	}
	if !s.validFormatString(descriptor.Formatting) {
		return "", &ValidationError{"value descriptor's format string doesn't fit the required pattern: " + s.Config.Service.FormatSpecifier}
	}
	_, err := s.Store.ValueDescriptor().GetByName(descriptor.Name)
	if err == nil {
		return "", &ValidationError{"value descriptor's name is not unique: " + descriptor.Name}
	}
	if !notRecordFound(err) {
		return "", serviceErr(err)
	}
	if err := s.Store.ValueDescriptor().Create(descriptor); err != nil {
		return "", serviceErr(err)
	}
	return descriptor.ID, nil
}

// GetValueDescriptor returns a value descriptor by its identifier.
func (s *Service) GetValueDescriptor(id string) (*stor.ValueDescriptor, error) {
	descriptor, err := s.Store.ValueDescriptor().Get(id)
	if notRecordFound(err) {
		return nil, &NotFoundError{Kind: "value descriptor", ID: id}
	}
	if err != nil {
		return nil, serviceErr(err)
	}
	return descriptor, nil
}

// GetValueDescriptorByName returns a value descriptor by its unique name.
func (s *Service) GetValueDescriptorByName(name string) (*stor.ValueDescriptor, error) {
	descriptor, err := s.Store.ValueDescriptor().GetByName(name)
	if notRecordFound(err) {
		return nil, &NotFoundError{Kind: "value descriptor", ID: name}
	}
	if err != nil {
		return nil, serviceErr(err)
	}
	return descriptor, nil
}

// ListValueDescriptors returns every value descriptor, within the
// configured max result size.
func (s *Service) ListValueDescriptors() (*[]stor.ValueDescriptor, error) {
	count, err := s.Store.ValueDescriptor().Count()
	if err != nil {
		return nil, serviceErr(err)
	}
	if count > int64(s.Config.MaxResultSize) {
		return nil, &LimitExceededError{Kind: "value descriptor"}
	}
	descriptors, err := s.Store.ValueDescriptor().ListAll()
	if err != nil {
		return nil, serviceErr(err)
	}
	return descriptors, nil
}

// ValueDescriptorsByUomLabel returns the descriptors carrying a unit of
// measure label.
func (s *Service) ValueDescriptorsByUomLabel(uomLabel string) (*[]stor.ValueDescriptor, error) {
	descriptors, err := s.Store.ValueDescriptor().FindByUomLabel(uomLabel)
	if err != nil {
		return nil, serviceErr(err)
	}
	return descriptors, nil
}

// ValueDescriptorsByLabel returns the descriptors carrying a label.
func (s *Service) ValueDescriptorsByLabel(label string) (*[]stor.ValueDescriptor, error) {
	descriptors, err := s.Store.ValueDescriptor().FindByLabel(label)
	if err != nil {
		return nil, serviceErr(err)
	}
	return descriptors, nil
}

// UpdateValueDescriptor applies a sparse patch to an existing value
// descriptor. A rename is refused while any reading still references
// the current name; a new format string goes through the same pattern
// check as creation.
func (s *Service) UpdateValueDescriptor(patch ValueDescriptorPatch) (bool, error) {
	descriptor, err := s.getValueDescriptorByIDOrName(patch.ID, patch.Name)
	if err != nil {
		return false, err
	}

	if patch.Formatting != nil {
		if !s.validFormatString(*patch.Formatting) {
			return false, &ValidationError{"value descriptor's format string doesn't fit the required pattern: " + s.Config.Service.FormatSpecifier}
		}
		descriptor.Formatting = *patch.Formatting
	}
	if patch.Name != nil && *patch.Name != descriptor.Name {
		refs, err := s.Store.Reading().CountByName(descriptor.Name)
		if err != nil {
			return false, serviceErr(err)
		}
		if refs > 0 {
			log.Errorf("Data integrity issue: value descriptor %s is still referenced by existing readings", descriptor.Name)
			return false, &ValidationError{"value descriptor " + descriptor.Name + " is still referenced by existing readings"}
		}
		descriptor.Name = *patch.Name
	}
	if patch.Min != nil {
		descriptor.Min = *patch.Min
	}
	if patch.Max != nil {
		descriptor.Max = *patch.Max
	}
	if patch.Type != nil {
		descriptor.Type = *patch.Type
	}
	if patch.UomLabel != nil {
		descriptor.UomLabel = *patch.UomLabel
	}
	if patch.DefaultValue != nil {
		descriptor.DefaultValue = *patch.DefaultValue
	}
	if patch.Labels != nil {
		descriptor.Labels = *patch.Labels
	}
	if patch.Description != nil {
		descriptor.Description = *patch.Description
	}
	if patch.Origin != nil {
		descriptor.Origin = *patch.Origin
	}

	if err := descriptor.Validate(); err != nil {
		return false, &ValidationError{Message: err.Error()}
	}
	if err := s.Store.ValueDescriptor().Update(descriptor); err != nil {
		return false, serviceErr(err)
	}
	return true, nil
}

// DeleteValueDescriptor removes a value descriptor by its identifier,
// unless a reading still references its name.
func (s *Service) DeleteValueDescriptor(id string) (bool, error) {
	descriptor, err := s.Store.ValueDescriptor().Get(id)
	if notRecordFound(err) {
		log.Errorf("Request to delete a non-existent value descriptor: %s", id)
		return false, &NotFoundError{Kind: "value descriptor", ID: id}
	}
	if err != nil {
		return false, serviceErr(err)
	}
	return s.deleteValueDescriptor(descriptor)
}

// DeleteValueDescriptorByName removes a value descriptor by its name,
// unless a reading still references it.
func (s *Service) DeleteValueDescriptorByName(name string) (bool, error) {
	descriptor, err := s.Store.ValueDescriptor().GetByName(name)
	if notRecordFound(err) {
		log.Errorf("Request to delete an unknown value descriptor: %s", name)
		return false, &NotFoundError{Kind: "value descriptor", ID: name}
	}
	if err != nil {
		return false, serviceErr(err)
	}
	return s.deleteValueDescriptor(descriptor)
}

func (s *Service) deleteValueDescriptor(descriptor *stor.ValueDescriptor) (bool, error) {
	refs, err := s.Store.Reading().CountByName(descriptor.Name)
	if err != nil {
		return false, serviceErr(err)
	}
	if refs > 0 {
		log.Errorf("Data integrity issue: value descriptor %s is still referenced by existing readings", descriptor.Name)
		return false, &ValidationError{"value descriptor " + descriptor.Name + " is still referenced by existing readings"}
	}
	if err := s.Store.ValueDescriptor().Delete(descriptor); err != nil {
		return false, serviceErr(err)
	}
	return true, nil
}

func (s *Service) getValueDescriptorByIDOrName(id string, name *string) (*stor.ValueDescriptor, error) {
	var descriptor *stor.ValueDescriptor
	var err error
	var ident string

	if id != "" {
		ident = id
		descriptor, err = s.Store.ValueDescriptor().Get(id)
	} else if name != nil {
		ident = *name
		descriptor, err = s.Store.ValueDescriptor().GetByName(*name)
	} else {
		return nil, &ValidationError{"missing value descriptor identifier"}
	}
	if notRecordFound(err) {
		log.Errorf("Request to update a non-existent value descriptor: %s", ident)
		return nil, &NotFoundError{Kind: "value descriptor", ID: ident}
	}
	if err != nil {
		return nil, serviceErr(err)
	}
	return descriptor, nil
}
