// Copyright 2025 European Digital Reading Lab. All rights reserved.
// Use of this source code is governed by a BSD-style license
// specified in the Github project LICENSE file.

// datachecker validates event payloads taken off the export channel

package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/edrlab/core-data/pkg/check"
	log "github.com/sirupsen/logrus"
)

func init() {
	// Output to stdout instead of the default stderr
	log.SetOutput(os.Stdout)

	log.SetFormatter(&log.TextFormatter{
		DisableTimestamp: true,
	})
}

func usage() {
	fmt.Println("Usage: datachecker [-strict] [-verbose] filepath")
	flag.PrintDefaults()
}

func main() {

	// parse the command line
	strict := flag.Bool("strict", false, "if set, require server-assigned identifiers and timestamps.")
	verbose := flag.Bool("verbose", false, "if set, display info messages; if not set, display only warnings and errors.")
	flag.Parse()

	// the verbose flag acts on the info level
	if !*verbose {
		log.SetLevel(log.WarnLevel)
	}

	// open the payload
	filepath := flag.Arg(0)
	if filepath == "" {
		usage()
		os.Exit(1)
	}

	bytes, err := os.ReadFile(filepath)
	if err != nil {
		log.Fatal("Error: ", err)
	}
	// log the file name
	fmt.Println("Checking ", filepath)

	// pass all checks
	if check.Checker(bytes, *strict) != nil {
		os.Exit(1)
	}
}
