// Copyright 2025 Canvas Technologies, Inc. All rights reserved
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build linux
// +build linux

package main

// tdxq is a query tool for Intel TDX guest metadata. It retrieves the
// virtual processor info and walks the system configuration field set,
// either through the tdx_guest_aux device or via direct TDCALL.

import (
	"errors"
	"log"

	"gopkg.in/alecthomas/kingpin.v2"

	"github.com/canvas-technologies/tdxaux/config"
	"github.com/canvas-technologies/tdxaux/tdlog"
)

const (
	// HelpText is the command line help.
	HelpText = "tdxq retrieves TDX guest metadata via TDG.VP.INFO and TDG.SYS.RD"

	transportAuto   = "auto"
	transportDevice = "device"
	transportNative = "native"
)

var goversion string

var (
	configFile = kingpin.Flag("config", "Guest configuration JSON file. Default is autodetection (initramfs, EFI variable, kernel command line) with fallback to the reference leaf numbers").String()
	transport  = kingpin.Flag("transport", "How to issue the calls: 'device' uses the tdx_guest_aux character device, 'native' executes TDCALL directly, 'auto' prefers the device when present").Default(transportAuto).Enum(transportAuto, transportDevice, transportNative)
	devicePath = kingpin.Flag("device", "Path of the guest character device").Default(defaultDevicePath).String()
	logLevel   = kingpin.Flag("loglevel", "Log level: e 'errors' w 'warn' i 'info' d 'debug'").Default("w").String()

	vpinfo = kingpin.Command("vpinfo", "Print the virtual processor info of the calling VCPU")

	field   = kingpin.Command("field", "Read a single system configuration field")
	fieldID = field.Arg("id", "Field id to read, -1 for the first field of the enumeration order").Required().Int64()

	walk = kingpin.Command("walk", "Enumerate all system configuration fields")
)

func main() {
	log.SetPrefix("tdxq: ")
	log.SetFlags(0)
	kingpin.UsageTemplate(kingpin.CompactUsageTemplate).Version(goversion)
	kingpin.CommandLine.Help = HelpText

	cmd := kingpin.Parse()

	setLogLevel(*logLevel)

	cfg, err := loadConfig(*configFile)
	if err != nil {
		log.Fatal(err)
	}

	switch cmd {
	case vpinfo.FullCommand():
		err = vpinfoCmd(cfg, *transport, *devicePath)
	case field.FullCommand():
		err = fieldCmd(cfg, *transport, *devicePath, *fieldID)
	case walk.FullCommand():
		err = walkCmd(cfg, *transport, *devicePath)
	}

	if err != nil {
		log.Fatal(err)
	}
}

func setLogLevel(level string) {
	switch level {
	case "e", "error":
		tdlog.SetLevel(tdlog.ErrorLevel)
	case "w", "warn":
		tdlog.SetLevel(tdlog.WarnLevel)
	case "i", "info":
		tdlog.SetLevel(tdlog.InfoLevel)
	default:
		tdlog.SetLevel(tdlog.DebugLevel)
	}
}

func loadConfig(path string) (config.Config, error) {
	if path != "" {
		cfg, err := config.FromFile(path)
		if err != nil {
			return config.Config{}, err
		}

		return *cfg, nil
	}

	cfg, err := config.Autodetect()
	if err != nil {
		if errors.Is(err, config.ErrConfigNotFound) {
			tdlog.Debug("No guest configuration found, using reference leaf numbers")

			return config.Default(), nil
		}

		return config.Config{}, err
	}

	return *cfg, nil
}
