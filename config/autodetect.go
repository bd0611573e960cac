// Copyright 2025 Canvas Technologies, Inc. All rights reserved
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/u-root/u-root/pkg/cmdline"
	"github.com/u-root/u-root/pkg/efivarfs"

	"github.com/canvas-technologies/tdxaux/tderror"
	"github.com/canvas-technologies/tdxaux/tdlog"
)

// Operations used for raising Errors of this package.
const (
	ErrOpAutodetect tderror.Op = "config autodetect"
	ErrOpLoad       tderror.Op = "config load"
)

// Errors which may be raised and wrapped in this package.
var (
	ErrConfigNotFound = errors.New("no guest configuration found")
)

// Sources used by Autodetect.
const (
	ConfigInitrdPath  = "/etc/tdx_guest_aux.json"
	ConfigEFIVarName  = "TdxAuxConfig-9ea51868-4b04-4e2f-b63f-8afb0f0a2b63"
	CmdlineModuleName = "tdx_guest_aux"
)

type source interface {
	probe() (*Config, error)
	info() string
}

// Autodetect looks for a guest configuration in the following order:
// - inside the initramfs at ConfigInitrdPath
// - at the efivar filesystem for ConfigEFIVarName
// - on the kernel command line as tdx_guest_aux module parameters
//
// It returns the first configuration found. In case there is no match an
// ErrConfigNotFound is returned.
func Autodetect() (*Config, error) {
	var probingOrder = []source{
		&initramfs{},
		&efivar{},
		&kernelCmdline{},
	}

	tdlog.Debug("Guest configuration autodetect")

	for _, src := range probingOrder {
		tdlog.Debug(src.info())

		cfg, err := src.probe()
		if err != nil {
			tdlog.Debug(err.Error())

			continue
		}

		return cfg, nil
	}

	return nil, tderror.E(tderror.Config, ErrOpAutodetect, ErrConfigNotFound)
}

// FromReader decodes and validates a JSON guest configuration.
func FromReader(r io.Reader) (*Config, error) {
	var cfg Config
	if err := json.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, tderror.E(tderror.Config, ErrOpLoad, err)
	}

	return &cfg, nil
}

// FromFile reads a JSON guest configuration from path.
func FromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, tderror.E(tderror.Config, ErrOpLoad, err)
	}
	defer f.Close()

	return FromReader(f)
}

type initramfs struct{}

var _ source = &initramfs{}

func (i *initramfs) probe() (*Config, error) {
	return FromFile(ConfigInitrdPath)
}

func (i *initramfs) info() string {
	return fmt.Sprintf("Probing initramfs at %s", ConfigInitrdPath)
}

type efivar struct{}

var _ source = &efivar{}

func (e *efivar) probe() (*Config, error) {
	const operation = tderror.Op("read EFI var")

	vars, err := efivarfs.New()
	if err != nil {
		return nil, tderror.E(tderror.Config, operation, err.Error())
	}

	_, r, err := efivarfs.SimpleReadVariable(vars, ConfigEFIVarName)
	if err != nil {
		return nil, tderror.E(tderror.Config, operation, err.Error())
	}

	return FromReader(r)
}

func (e *efivar) info() string {
	return fmt.Sprintf("Probing EFI variable %s", ConfigEFIVarName)
}

type kernelCmdline struct{}

var _ source = &kernelCmdline{}

func (k *kernelCmdline) probe() (*Config, error) {
	flags := cmdline.FlagsForModule(CmdlineModuleName)
	if strings.TrimSpace(flags) == "" {
		return nil, ErrConfigNotFound
	}

	return parseModuleFlags(flags)
}

func (k *kernelCmdline) info() string {
	return fmt.Sprintf("Probing kernel command line for %s parameters", CmdlineModuleName)
}

// parseModuleFlags overlays module parameters in insmod syntax, e.g.
// "vp_info_leaf=1 sys_rd_leaf=11", onto the default configuration. This
// keeps the configuration surface of the reference kernel module working
// unchanged for the userland implementation.
func parseModuleFlags(flags string) (*Config, error) {
	const operation = tderror.Op("parse cmdline params")

	cfg := Default()

	for _, flag := range strings.Fields(flags) {
		key, value, found := strings.Cut(flag, "=")
		if !found {
			return nil, tderror.E(tderror.Config, operation, fmt.Sprintf("malformed parameter %q", flag))
		}

		var err error

		switch key {
		case "vp_info_leaf":
			cfg.VPInfoLeaf, err = strconv.ParseUint(value, 0, 64)
		case "sys_rd_leaf":
			cfg.SysRdLeaf, err = strconv.ParseUint(value, 0, 64)
		case "vp_info_layout":
			layout := StringToVPInfoLayout(value)
			if layout == LayoutUnknown {
				err = fmt.Errorf("unknown layout %q", value)
			} else {
				cfg.VPInfoLayout = layout
			}
		case "end_of_walk_status":
			var status int64
			status, err = strconv.ParseInt(value, 0, 32)
			cfg.EndOfWalkStatus = int32(status)
		case "max_walk_steps":
			cfg.MaxWalkSteps, err = strconv.Atoi(value)
		default:
			tdlog.Warn("Ignoring unknown %s parameter %q", CmdlineModuleName, key)
		}

		if err != nil {
			return nil, tderror.E(tderror.Config, operation, fmt.Sprintf("parameter %q: %v", flag, err))
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, tderror.E(tderror.Config, operation, err)
	}

	return &cfg, nil
}
