// Copyright 2025 European Digital Reading Lab. All rights reserved.
// Use of this source code is governed by a BSD-style license
// specified in the Github project LICENSE file.

// Core Data collects sensor events and distributes them downstream.
package main

import (
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-chi/chi/v5"
	log "github.com/sirupsen/logrus"

	"github.com/edrlab/core-data/pkg/conf"
	"github.com/edrlab/core-data/pkg/core"
	"github.com/edrlab/core-data/pkg/export"
	"github.com/edrlab/core-data/pkg/meta"
	"github.com/edrlab/core-data/pkg/stor"
)

// Server context
type Server struct {
	*conf.Config
	stor.Store
	Core      *core.Service
	Publisher *export.MQTTPublisher
	Router    *chi.Mux
}

func main() {

	s := Server{}

	configFile := os.Getenv("EDRLAB_COREDATA_CONFIG")
	if configFile == "" {
		panic("Failed to retrieve the configuration file path.")
	}

	c, err := conf.ReadConfig(configFile)
	if err != nil {
		panic("Failed to read the configuration.")
	}

	s.Config = c

	setLogLevel(c.LogLevel)

	s.Initialize()

	// runtime toggles follow edits of the configuration file
	go s.watchConfig(configFile)

	log.Info("The server is ready.")

	s.Run(":" + strconv.Itoa(c.Port))
}

func setLogLevel(logLevel string) {
	level, err := log.ParseLevel(logLevel)
	if err != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)
}

// Initialize sets up the database, the collaborators and the routes
func (s *Server) Initialize() {
	var err error

	// Setup the database
	s.Store, err = stor.Init(s.Config.Dsn)
	if err != nil {
		panic("Database setup failed.")
	}

	// Setup the device directory client
	directory := meta.NewClient(s.Config.Metadata.BaseURL,
		time.Duration(s.Config.Metadata.TimeoutSec)*time.Second)

	// Setup the export publisher; the broker connection is lazy
	s.Publisher = export.NewMQTTPublisher(s.Config.Export.BrokerURL,
		s.Config.Export.Topic, s.Config.Export.ClientID)

	// Setup the core service
	s.Core = core.NewService(s.Config, s.Store, directory, directory, s.Publisher)

	// Setup the routes
	s.Router = s.setRoutes()
}

// watchConfig reloads the service toggles when the configuration file
// is modified. Other settings (port, dsn, broker) need a restart.
func (s *Server) watchConfig(configFile string) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		log.Errorf("Failed to watch the configuration file: %v", err)
		return
	}
	defer watcher.Close()

	if err := watcher.Add(configFile); err != nil {
		log.Errorf("Failed to watch the configuration file: %v", err)
		return
	}

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if event.Op&fsnotify.Write == fsnotify.Write || event.Op&fsnotify.Create == fsnotify.Create {
				c, err := conf.ReadConfig(configFile)
				if err != nil {
					log.Errorf("Failed to reload the configuration: %v", err)
					continue
				}
				// published atomically, request handlers read them in flight
				s.Core.Toggles.Apply(c)
				log.Info("Configuration toggles reloaded.")
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			log.Errorf("Configuration watcher error: %v", err)
		}
	}
}

// Run starts the server
func (s *Server) Run(port string) {
	defer s.Publisher.Close()

	log.Fatal(http.ListenAndServe(port, s.Router))
}
