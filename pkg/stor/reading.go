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

// Reading data model
// A reading is one named measurement value. Its name must reference an
// existing value descriptor; the check is made on writes, by the core
// service, not by a database constraint. Device is propagated from the
// parent event. EventID is empty for a reading added on its own.
type Reading struct {
	ID       string `json:"id" gorm:"type:varchar(100);primaryKey"`
	Pushed   int64  `json:"pushed"`
	Created  int64  `json:"created" gorm:"index"`
	Origin   int64  `json:"origin"`
	Modified int64  `json:"modified"`
	Device   string `json:"device,omitempty" gorm:"type:varchar(255);index"`
	Name     string `json:"name" validate:"required" gorm:"type:varchar(255);index"`
	Value    string `json:"value"`
	EventID  string `json:"-" gorm:"type:varchar(100);index"` // owning event, empty for a standalone reading
}

// Validate checks required fields and values
func (r *Reading) Validate() error {

	validate := validator.New()
	return validate.Struct(r)
}

func (r *Reading) BeforeSave(tx *gorm.DB) error {
	r.Modified = time.Now().UnixMilli()
	return nil
}

func (r *Reading) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	r.Created = r.Modified
	return nil
}

func (s readingStore) ListAll(limit int) (*[]Reading, error) {
	readings := []Reading{}
	return &readings, s.db.Limit(limit).Order("created DESC").Find(&readings).Error
}

func (s readingStore) FindByName(name string, limit int) (*[]Reading, error) {
	readings := []Reading{}
	return &readings, s.db.Limit(limit).Where("name = ?", name).Order("created DESC").Find(&readings).Error
}

func (s readingStore) FindByDevice(device string, limit int) (*[]Reading, error) {
	readings := []Reading{}
	return &readings, s.db.Limit(limit).Where("device = ?", device).Order("created DESC").Find(&readings).Error
}

func (s readingStore) FindByNameAndDevice(name, device string, limit int) (*[]Reading, error) {
	readings := []Reading{}
	return &readings, s.db.Limit(limit).Where("name = ? AND device = ?", name, device).Order("created DESC").Find(&readings).Error
}

func (s readingStore) FindByNames(names []string, limit int) (*[]Reading, error) {
	readings := []Reading{}
	return &readings, s.db.Limit(limit).Where("name IN ?", names).Order("created DESC").Find(&readings).Error
}

func (s readingStore) FindByCreatedBetween(start, end int64, limit int) (*[]Reading, error) {
	readings := []Reading{}
	return &readings, s.db.Limit(limit).Where("created BETWEEN ? AND ?", start, end).Order("created DESC").Find(&readings).Error
}

func (s readingStore) Count() (int64, error) {
	var count int64
	return count, s.db.Model(Reading{}).Count(&count).Error
}

func (s readingStore) CountByName(name string) (int64, error) {
	var count int64
	return count, s.db.Model(Reading{}).Where("name = ?", name).Count(&count).Error
}

func (s readingStore) Get(id string) (*Reading, error) {
	var reading Reading
	return &reading, s.db.Where("id = ?", id).First(&reading).Error
}

func (s readingStore) Create(newReading *Reading) error {
	return s.db.Create(newReading).Error
}

func (s readingStore) Update(changedReading *Reading) error {
	return s.db.Save(changedReading).Error
}

func (s readingStore) Delete(deletedReading *Reading) error {
	return s.db.Delete(deletedReading).Error
}
