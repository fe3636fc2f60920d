// Copyright 2025 European Digital Reading Lab. All rights reserved.
// Use of this source code is governed by a BSD-style license
// specified in the Github project LICENSE file.

package conf

import (
	"errors"
	"os"
	"path/filepath"
	"regexp"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Core Data server configuration
type Config struct {
	LogLevel      string `yaml:"log_level" envconfig:"log_level"` // "debug", "info", "warn", "error"
	Port          int    `yaml:"port"`
	Dsn           string `yaml:"dsn"`
	MaxResultSize int    `yaml:"max_result_size" envconfig:"max_result_size"`
	Access        `yaml:"access"`
	Service       `yaml:"service"`
	Export        `yaml:"export"`
	Metadata      `yaml:"metadata"`
}

type Access struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// Service groups the toggles of the ingestion pipeline.
type Service struct {
	// check the event device against the metadata service on writes
	MetaCheck bool `yaml:"meta_check" envconfig:"meta_check"`
	// persist events and readings; when false, ingested events are only
	// forwarded downstream and get the "unsaved" identifier
	PersistData bool `yaml:"persist_data" envconfig:"persist_data"`
	// accepted printf-style format strings for value descriptors
	FormatSpecifier string `yaml:"format_specifier" envconfig:"format_specifier"`
}

// Export configures the outbound event channel.
type Export struct {
	Enabled   bool   `yaml:"enabled" envconfig:"export_enabled"`
	BrokerURL string `yaml:"broker_url" envconfig:"export_broker_url"`
	Topic     string `yaml:"topic" envconfig:"export_topic"`
	ClientID  string `yaml:"client_id" envconfig:"export_client_id"`
}

// Metadata configures access to the external device directory and the
// liveness notifications sent to it.
type Metadata struct {
	BaseURL               string `yaml:"base_url" envconfig:"metadata_base_url"`
	TimeoutSec            int    `yaml:"timeout_sec" envconfig:"metadata_timeout_sec"`
	UpdateDeviceReported  bool   `yaml:"update_device_reported" envconfig:"update_device_reported"`
	UpdateServiceReported bool   `yaml:"update_service_reported" envconfig:"update_service_reported"`
}

// DefaultFormatSpecifier accepts printf-style format strings, e.g. "%d" or "%4.2f".
const DefaultFormatSpecifier = `^%(\d+\$)?([-#+ 0,(<]*)?(\d+)?(\.\d+)?([tT])?([a-zA-Z%])$`

// ReadConfig loads the configuration from a yaml file, then processes
// environment variable overrides and applies defaults.
func ReadConfig(configFile string) (*Config, error) {

	var c Config

	if configFile != "" {
		f, _ := filepath.Abs(configFile)
		yamlData, err := os.ReadFile(f)
		if err != nil {
			return nil, err
		}
		err = yaml.Unmarshal(yamlData, &c)
		if err != nil {
			return nil, err
		}

	} else {
		return nil, errors.New("failed to find the configuration file")
	}

	// environment variables take precedence over the file
	err := envconfig.Process("coredata", &c)
	if err != nil {
		return nil, err
	}

	setDefaults(&c)

	// the format specifier must be a valid regular expression
	if _, err := regexp.Compile(c.Service.FormatSpecifier); err != nil {
		return nil, err
	}

	return &c, nil
}

func setDefaults(c *Config) {
	if c.Port == 0 {
		c.Port = 48080
	}
	if c.MaxResultSize == 0 {
		c.MaxResultSize = 100
	}
	if c.Service.FormatSpecifier == "" {
		c.Service.FormatSpecifier = DefaultFormatSpecifier
	}
	if c.Export.Topic == "" {
		c.Export.Topic = "events"
	}
	if c.Export.ClientID == "" {
		c.Export.ClientID = "core-data"
	}
	if c.Metadata.TimeoutSec == 0 {
		c.Metadata.TimeoutSec = 10
	}
}
