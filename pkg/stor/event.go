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

// Event data model
// An event is one device observation, carrying zero or more readings.
// Timestamps are epoch milliseconds; Created and Modified are set by the
// gorm hooks below and are equal at creation. Pushed stays at zero until
// the event is marked as exported downstream.
type Event struct {
	ID       string    `json:"id" gorm:"type:varchar(100);primaryKey"`
	Pushed   int64     `json:"pushed"`
	Device   string    `json:"device" validate:"required" gorm:"type:varchar(255);index"`
	Created  int64     `json:"created" gorm:"index"` // index on created, used by the retention scrubber
	Modified int64     `json:"modified"`
	Origin   int64     `json:"origin"`
	Readings []Reading `json:"readings,omitempty" gorm:"foreignKey:EventID;references:ID"`
}

// Validate checks required fields and values
func (e *Event) Validate() error {

	validate := validator.New()
	return validate.Struct(e)
}

func (e *Event) BeforeSave(tx *gorm.DB) error {
	e.Modified = time.Now().UnixMilli()
	return nil
}

func (e *Event) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	// created and modified are equal at creation
	e.Created = e.Modified
	return nil
}

func (s eventStore) ListAll(limit int) (*[]Event, error) {
	events := []Event{}
	// result sorted to assure the same order for each request
	return &events, s.db.Preload("Readings").Limit(limit).Order("created DESC").Find(&events).Error
}

func (s eventStore) FindByDevice(device string, limit int) (*[]Event, error) {
	events := []Event{}
	return &events, s.db.Preload("Readings").Limit(limit).Where("device = ?", device).Order("created DESC").Find(&events).Error
}

func (s eventStore) FindByCreatedBetween(start, end int64, limit int) (*[]Event, error) {
	events := []Event{}
	return &events, s.db.Preload("Readings").Limit(limit).Where("created BETWEEN ? AND ?", start, end).Order("created DESC").Find(&events).Error
}

func (s eventStore) Count() (int64, error) {
	var count int64
	return count, s.db.Model(Event{}).Count(&count).Error
}

func (s eventStore) CountByDevice(device string) (int64, error) {
	var count int64
	return count, s.db.Model(Event{}).Where("device = ?", device).Count(&count).Error
}

func (s eventStore) Get(id string) (*Event, error) {
	var event Event
	return &event, s.db.Preload("Readings").Where("id = ?", id).First(&event).Error
}

func (s eventStore) Create(newEvent *Event) error {
	// associated readings are inserted in the same transaction
	return s.db.Create(newEvent).Error
}

func (s eventStore) Update(changedEvent *Event) error {
	return s.db.Omit("Readings").Save(changedEvent).Error
}

func (s eventStore) Delete(deletedEvent *Event) error {
	return s.db.Delete(deletedEvent).Error
}
