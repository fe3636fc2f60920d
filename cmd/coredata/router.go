// Copyright 2025 European Digital Reading Lab. All rights reserved.
// Use of this source code is governed by a BSD-style license
// specified in the Github project LICENSE file.

package main

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/render"

	"github.com/edrlab/core-data/pkg/api"
)

func (s *Server) setRoutes() *chi.Mux {

	// Set api controller dependencies
	a := api.NewAPICtrl(s.Config, s.Core)

	// Define the router
	r := chi.NewRouter()

	// Recovery middleware
	r.Use(middleware.Recoverer)

	// Heartbeat (excluded from logs)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("The Core Data server is running!"))
	})

	// Group for all other routes
	r.Group(func(r chi.Router) {
		// Logger middleware
		r.Use(middleware.Logger)

		r.NotFound(notFoundProblemDetail)

		// CORS Configuration
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   []string{"http://localhost:8090", "http://localhost:8091"},
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
			ExposedHeaders:   []string{"Link"},
			AllowCredentials: true,
			MaxAge:           300, // Maximum value not ignored by any of major browsers
		}))

		// Public routes: ingestion and read paths, used by device services
		r.Group(func(r chi.Router) {
			r.Use(render.SetContentType(render.ContentTypeJSON))

			// Events
			r.Route("/events", func(r chi.Router) {
				r.Post("/", a.AddEvent) // POST /events
				r.Get("/", a.ListEvents)
				r.Put("/", a.UpdateEvent)
				r.Get("/count", a.CountEvents)
				r.Get("/count/device/{deviceID}", a.CountEventsForDevice)
				r.Get("/id/{eventID}", a.GetEvent)
				r.Put("/pushed/{eventID}", a.MarkEventPushed) // mark exported
				r.Get("/device/{deviceID}/{limit}", a.EventsForDevice)
				r.Get("/device/{deviceID}/valuedescriptor/{name}/{limit}", a.ReadingsForDeviceAndDescriptor)
				r.Get("/created/{start}/{end}/{limit}", a.EventsByCreationTime)
			})

			// Readings
			r.Route("/readings", func(r chi.Router) {
				r.Post("/", a.AddReading) // POST /readings
				r.Get("/", a.ListReadings)
				r.Put("/", a.UpdateReading)
				r.Get("/count", a.CountReadings)
				r.Get("/id/{readingID}", a.GetReading)
				r.Get("/name/{name}/{limit}", a.ReadingsByName)
				r.Get("/name/{name}/device/{deviceID}/{limit}", a.ReadingsByNameAndDevice)
				r.Get("/device/{deviceID}/{limit}", a.ReadingsForDevice)
				r.Get("/uomlabel/{uomLabel}/{limit}", a.ReadingsByUomLabel)
				r.Get("/label/{label}/{limit}", a.ReadingsByLabel)
				r.Get("/type/{type}/{limit}", a.ReadingsByType)
				r.Get("/created/{start}/{end}/{limit}", a.ReadingsByCreationTime)
			})

			// Value descriptors, read only
			r.Route("/valuedescriptors", func(r chi.Router) {
				r.Get("/", a.ListValueDescriptors)
				r.Get("/id/{descriptorID}", a.GetValueDescriptor)
				r.Get("/name/{name}", a.GetValueDescriptorByName)
				r.Get("/uomlabel/{uomLabel}", a.ValueDescriptorsByUomLabel)
				r.Get("/label/{label}", a.ValueDescriptorsByLabel)
			})
		})

		// Private Routes
		// Require Authentication
		credentials := make(map[string]string)
		credentials[s.Config.Access.Username] = s.Config.Access.Password

		r.Group(func(r chi.Router) {
			r.Use(middleware.BasicAuth("restricted", credentials))
			r.Use(render.SetContentType(render.ContentTypeJSON))

			// Destructive event operations and retention scrubbing
			r.Route("/events/scrub", func(r chi.Router) {
				r.Delete("/", a.ScrubPushedEvents)       // DELETE /events/scrub
				r.Delete("/all", a.ScrubAllEvents)       // DELETE /events/scrub/all
				r.Delete("/age/{age}", a.ScrubOldEvents) // DELETE /events/scrub/age/604800000
			})
			r.Delete("/events/id/{eventID}", a.DeleteEvent)
			r.Delete("/events/device/{deviceID}", a.DeleteEventsByDevice)
			r.Delete("/readings/id/{readingID}", a.DeleteReading)

			// Value descriptor management
			r.Post("/valuedescriptors", a.AddValueDescriptor)
			r.Put("/valuedescriptors", a.UpdateValueDescriptor)
			r.Delete("/valuedescriptors/id/{descriptorID}", a.DeleteValueDescriptor)
			r.Delete("/valuedescriptors/name/{name}", a.DeleteValueDescriptorByName)
		})
	})

	return r
}

// notFoundProblemDetail formats not found errors as problem details, for the sake of consistency.
func notFoundProblemDetail(w http.ResponseWriter, r *http.Request) {
	response := map[string]string{"type": "about:blank", "title": "Endpoint not found."}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusNotFound)

	json.NewEncoder(w).Encode(response)
}
