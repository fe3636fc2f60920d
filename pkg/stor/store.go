// Copyright 2025 European Digital Reading Lab. All rights reserved.
// Use of this source code is governed by a BSD-style license
// specified in the Github project LICENSE file.

// The stor package manages the storage of our entities.
package stor

import (
	"fmt"
	"os"
	"strings"
	"time"

	"log"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type (

	// generic store
	dbStore struct {
		db *gorm.DB
	}

	// entity stores
	eventStore           dbStore
	readingStore         dbStore
	valueDescriptorStore dbStore
	scrubStore           dbStore

	// Store interface, giving access to specialized interfaces
	Store interface {
		Event() EventRepository
		Reading() ReadingRepository
		ValueDescriptor() ValueDescriptorRepository
		Scrub() ScrubRepository
	}

	// EventRepository interface, defining event operations
	EventRepository interface {
		ListAll(limit int) (*[]Event, error)
		FindByDevice(device string, limit int) (*[]Event, error)
		FindByCreatedBetween(start, end int64, limit int) (*[]Event, error)
		Count() (int64, error)
		CountByDevice(device string) (int64, error)
		Get(id string) (*Event, error)
		Create(e *Event) error
		Update(e *Event) error
		Delete(e *Event) error
	}

	// ReadingRepository interface, defining reading operations
	ReadingRepository interface {
		ListAll(limit int) (*[]Reading, error)
		FindByName(name string, limit int) (*[]Reading, error)
		FindByDevice(device string, limit int) (*[]Reading, error)
		FindByNameAndDevice(name, device string, limit int) (*[]Reading, error)
		FindByNames(names []string, limit int) (*[]Reading, error)
		FindByCreatedBetween(start, end int64, limit int) (*[]Reading, error)
		Count() (int64, error)
		CountByName(name string) (int64, error)
		Get(id string) (*Reading, error)
		Create(r *Reading) error
		Update(r *Reading) error
		Delete(r *Reading) error
	}

	// ValueDescriptorRepository interface, defining value descriptor operations
	ValueDescriptorRepository interface {
		ListAll() (*[]ValueDescriptor, error)
		FindByUomLabel(uomLabel string) (*[]ValueDescriptor, error)
		FindByLabel(label string) (*[]ValueDescriptor, error)
		FindByType(iotType string) (*[]ValueDescriptor, error)
		Count() (int64, error)
		Get(id string) (*ValueDescriptor, error)
		GetByName(name string) (*ValueDescriptor, error)
		Create(v *ValueDescriptor) error
		Update(v *ValueDescriptor) error
		Delete(v *ValueDescriptor) error
	}

	// ScrubRepository interface, defining the bulk retention deletes.
	// Readings are always removed before events so that no orphaned
	// reading stays visible.
	ScrubRepository interface {
		ScrubPushed() (int64, error)
		ScrubAged(cutoff int64) (int64, error)
		ScrubAll() error
	}
)

// implementation of the different repository interfaces
func (s *dbStore) Event() EventRepository {
	return (*eventStore)(s)
}

func (s *dbStore) Reading() ReadingRepository {
	return (*readingStore)(s)
}

func (s *dbStore) ValueDescriptor() ValueDescriptorRepository {
	return (*valueDescriptorStore)(s)
}

func (s *dbStore) Scrub() ScrubRepository {
	return (*scrubStore)(s)
}

// Init initializes the database
func Init(dsn string) (Store, error) {
	var err error

	dialect, cnx := dbFromURI(dsn)
	if dialect == "error" {
		return nil, fmt.Errorf("incorrect database source name: %q", dsn)
	}

	// add parameters specific to the dialect
	cnx = addParamsDialectSpecific(cnx, dialect)

	// database logger
	newLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags), // io writer
		logger.Config{
			SlowThreshold:             time.Second, // Slow SQL threshold
			LogLevel:                  logger.Warn, // Log level (Silent, Error, Warn, Info)
			IgnoreRecordNotFoundError: true,        // Ignore ErrRecordNotFound error for logger
			Colorful:                  true,        // Enable color
		},
	)

	// readings may exist without an owning event, therefore no database
	// level foreign key is created; the event to readings cascade is
	// handled by the core service.
	db, err := gorm.Open(GormDialector(cnx), &gorm.Config{
		Logger:                                   newLogger,
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		log.Printf("Failed connecting to the database: %v", err)
		return nil, err
	}

	err = performDialectSpecific(db, dialect)
	if err != nil {
		log.Printf("Failed performing dialect specific database init: %v", err)
		return nil, err
	}

	err = db.AutoMigrate(&Event{}, &Reading{}, &ValueDescriptor{})
	if err != nil {
		log.Printf("Failed performing database automigrate: %v", err)
		return nil, err
	}

	stor := &dbStore{db: db}

	return stor, nil
}

// dbFromURI
func dbFromURI(uri string) (string, string) {
	parts := strings.Split(uri, "://")
	if len(parts) != 2 {
		return "error", ""
	}
	return parts[0], parts[1]
}

// addParamsDialectSpecific takes a connection string and adds parameters specific to the SQL dialect
func addParamsDialectSpecific(cnx, dialect string) string {
	// the connection string may already carry a query
	sep := "?"
	if strings.Contains(cnx, "?") {
		sep = "&"
	}
	switch dialect {
	case "sqlite3":
		cnx += sep + "cache=shared&mode=rwc"
	case "mysql":
		cnx += sep + "charset=utf8mb4&parseTime=True&loc=Local"
	case "postgres":
		cnx += sep + "sslmode=disable"
	default:
		log.Printf("Invalid dialect: %s", dialect)
	}
	return cnx
}

// performDialectSpecific
func performDialectSpecific(db *gorm.DB, dialect string) error {
	switch dialect {
	case "sqlite3":
		err := db.Exec("PRAGMA journal_mode = WAL").Error
		if err != nil {
			return err
		}
		err = db.Exec("PRAGMA foreign_keys = ON").Error
		if err != nil {
			return err
		}
	case "mysql":
		// nothing , so far
	case "postgres":
		// nothing , so far
	default:
		return fmt.Errorf("invalid dialect: %s", dialect)
	}
	return nil
}
