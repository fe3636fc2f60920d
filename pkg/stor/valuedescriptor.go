// Copyright 2025 European Digital Reading Lab. All rights reserved.
// Use of this source code is governed by a BSD-style license
// specified in the Github project LICENSE file.

package stor

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Value descriptor types: integer, boolean, floating point, string
const (
	TYPE_INTEGER = "I"
	TYPE_BOOLEAN = "B"
	TYPE_FLOAT   = "F"
	TYPE_STRING  = "S"
)

// ValueDescriptor data model
// A value descriptor is the schema of a named reading type: declared
// type, bounds, unit of measure, formatting and labels. Its name is
// unique; min, max and the default value are kept as opaque text, like
// reading values.
type ValueDescriptor struct {
	ID           string   `json:"id" gorm:"type:varchar(100);primaryKey"`
	Name         string   `json:"name" validate:"required" gorm:"type:varchar(255);uniqueIndex"`
	Min          string   `json:"min,omitempty"`
	Max          string   `json:"max,omitempty"`
	Type         string   `json:"type" validate:"omitempty,oneof=I B F S" gorm:"type:varchar(1)"`
	UomLabel     string   `json:"uomLabel,omitempty" gorm:"type:varchar(255);index"`
	DefaultValue string   `json:"defaultValue,omitempty"`
	Formatting   string   `json:"formatting,omitempty"`
	Labels       []string `json:"labels,omitempty" gorm:"serializer:json"`
	Description  string   `json:"description,omitempty"`
	Origin       int64    `json:"origin"`
	Created      int64    `json:"created"`
	Modified     int64    `json:"modified"`
}

// Validate checks required fields and values
func (v *ValueDescriptor) Validate() error {

	validate := validator.New()
	return validate.Struct(v)
}

func (v *ValueDescriptor) BeforeSave(tx *gorm.DB) error {
	v.Modified = time.Now().UnixMilli()
	return nil
}

func (v *ValueDescriptor) BeforeCreate(tx *gorm.DB) error {
	if v.ID == "" {
		v.ID = uuid.New().String()
	}
	v.Created = v.Modified
	return nil
}

func (s valueDescriptorStore) ListAll() (*[]ValueDescriptor, error) {
	descriptors := []ValueDescriptor{}
	// security: limited to 1000 results
	return &descriptors, s.db.Limit(1000).Order("name ASC").Find(&descriptors).Error
}

func (s valueDescriptorStore) FindByUomLabel(uomLabel string) (*[]ValueDescriptor, error) {
	descriptors := []ValueDescriptor{}
	return &descriptors, s.db.Limit(1000).Where("uom_label = ?", uomLabel).Find(&descriptors).Error
}

func (s valueDescriptorStore) FindByLabel(label string) (*[]ValueDescriptor, error) {
	descriptors := []ValueDescriptor{}
	// labels are kept as a json array; match the quoted label in the serialized form
	return &descriptors, s.db.Limit(1000).Where(`labels LIKE ?`, `%"`+label+`"%`).Find(&descriptors).Error
}

func (s valueDescriptorStore) FindByType(iotType string) (*[]ValueDescriptor, error) {
	descriptors := []ValueDescriptor{}
	return &descriptors, s.db.Limit(1000).Where("type = ?", iotType).Find(&descriptors).Error
}

func (s valueDescriptorStore) Count() (int64, error) {
	var count int64
	return count, s.db.Model(ValueDescriptor{}).Count(&count).Error
}

func (s valueDescriptorStore) Get(id string) (*ValueDescriptor, error) {
	var descriptor ValueDescriptor
	return &descriptor, s.db.Where("id = ?", id).First(&descriptor).Error
}

func (s valueDescriptorStore) GetByName(name string) (*ValueDescriptor, error) {
	var descriptor ValueDescriptor
	return &descriptor, s.db.Where("name = ?", name).First(&descriptor).Error
}

func (s valueDescriptorStore) Create(newDescriptor *ValueDescriptor) error {
	return s.db.Create(newDescriptor).Error
}

func (s valueDescriptorStore) Update(changedDescriptor *ValueDescriptor) error {
	return s.db.Save(changedDescriptor).Error
}

func (s valueDescriptorStore) Delete(deletedDescriptor *ValueDescriptor) error {
	return s.db.Delete(deletedDescriptor).Error
}
