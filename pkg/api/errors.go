// Copyright 2025 European Digital Reading Lab. All rights reserved.
// Use of this source code is governed by a BSD-style license
// specified in the Github project LICENSE file.

package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/render"

	"github.com/edrlab/core-data/pkg/core"
)

// ErrResponse renderer type for handling all sorts of errors.
type ErrResponse struct {
	Err            error `json:"-"` // low-level runtime error
	HTTPStatusCode int   `json:"-"` // http response status code

	StatusText string `json:"status"`          // user-level status message
	ErrorText  string `json:"error,omitempty"` // application-level error message
}

// Render processes error responses before marshalling.
func (e *ErrResponse) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.HTTPStatusCode)
	return nil
}

// ErrInvalidRequest is used for payloads which cannot be processed.
func ErrInvalidRequest(err error) render.Renderer {
	return &ErrResponse{
		Err:            err,
		HTTPStatusCode: http.StatusBadRequest,
		StatusText:     "Invalid request.",
		ErrorText:      err.Error(),
	}
}

// ErrRender is used for responses which cannot be marshalled.
func ErrRender(err error) render.Renderer {
	return &ErrResponse{
		Err:            err,
		HTTPStatusCode: http.StatusUnprocessableEntity,
		StatusText:     "Error rendering response.",
		ErrorText:      err.Error(),
	}
}

// ErrNotFound is used for failed lookups.
var ErrNotFound = &ErrResponse{HTTPStatusCode: http.StatusNotFound, StatusText: "Resource not found."}

// ErrServer is used for unexpected errors; the cause stays server side.
func ErrServer(err error) render.Renderer {
	return &ErrResponse{
		Err:            err,
		HTTPStatusCode: http.StatusServiceUnavailable,
		StatusText:     "Unexpected service error.",
	}
}

// ErrCore maps a core service error to its http rendering: validation
// issues are conflicts, lookups misses are 404, oversized reads are
// 413, anything else is an opaque 503.
func ErrCore(err error) render.Renderer {
	var vErr *core.ValidationError
	var nfErr *core.NotFoundError
	var limErr *core.LimitExceededError

	switch {
	case errors.As(err, &vErr):
		return &ErrResponse{
			Err:            err,
			HTTPStatusCode: http.StatusConflict,
			StatusText:     "Invalid data.",
			ErrorText:      vErr.Message,
		}
	case errors.As(err, &nfErr):
		return &ErrResponse{
			Err:            err,
			HTTPStatusCode: http.StatusNotFound,
			StatusText:     "Resource not found.",
			ErrorText:      nfErr.Error(),
		}
	case errors.As(err, &limErr):
		return &ErrResponse{
			Err:            err,
			HTTPStatusCode: http.StatusRequestEntityTooLarge,
			StatusText:     "Max result size exceeded.",
			ErrorText:      limErr.Error(),
		}
	default:
		return ErrServer(err)
	}
}
