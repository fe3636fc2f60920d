// Copyright 2025 European Digital Reading Lab. All rights reserved.
// Use of this source code is governed by a BSD-style license
// specified in the Github project LICENSE file.

// Package api manages the api controllers
package api

import (
	"github.com/edrlab/core-data/pkg/conf"
	"github.com/edrlab/core-data/pkg/core"
)

// APICtrl contains the context required by http handlers.
type APICtrl struct {
	*conf.Config
	*core.Service
}

// NewAPICtrl returns a new API controller
func NewAPICtrl(cf *conf.Config, sv *core.Service) *APICtrl {
	return &APICtrl{
		Config:  cf,
		Service: sv,
	}
}
