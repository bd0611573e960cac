// Copyright 2025 Canvas Technologies, Inc. All rights reserved
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package config holds the leaf numbers and protocol settings consumed by
// the query layer. Leaf numbers come from the Intel TDX Module/ABI
// specification and differ between module versions, so they are never
// hardcoded in the query code; they are loaded from one of the sources in
// autodetect.go or set explicitly.
package config

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/canvas-technologies/tdxaux/tdlog"
)

const (
	ErrMissingJSONKey = Error("missing JSON key")

	ErrNoLeafConfigured      = Error("at least one leaf number must be set")
	ErrMissingLayout         = Error("VP info register layout must be set")
	ErrInvalidWalkSteps      = Error("maximum walk steps must not be negative")
	ErrWalkStatusWithoutLeaf = Error("end-of-walk status requires a field-read leaf")
)

// Error reports an invalid configuration.
type Error string

// Error implements the error interface.
func (e Error) Error() string {
	return string(e)
}

// Defaults mirror the reference kernel module parameters. They match the
// leaf numbers of current TDX modules but must be overridden when the
// deployed module deviates from them.
const (
	DefaultVPInfoLeaf   uint64 = 1
	DefaultSysRdLeaf    uint64 = 11
	DefaultMaxWalkSteps int    = 4096
)

// VPInfoLayout selects which auxiliary registers of a TDG.VP.INFO result
// carry meaningful data. Later module ABI versions populate more
// registers; there is no in-band version detection, so the caller states
// the layout explicitly.
type VPInfoLayout int

const (
	LayoutUnset VPInfoLayout = iota
	// LayoutV1 returns the attributes bitfield only.
	LayoutV1
	// LayoutV2 additionally returns the extended feature mask (XFAM) and
	// the guest physical address width.
	LayoutV2
	LayoutUnknown
)

// String implements fmt.Stringer.
func (l VPInfoLayout) String() string {
	if l < LayoutUnset || l >= LayoutUnknown {
		return "unknown"
	}

	return [...]string{"unset", "v1", "v2"}[l]
}

// StringToVPInfoLayout parses a layout name.
func StringToVPInfoLayout(str string) VPInfoLayout {
	layouts := map[string]VPInfoLayout{
		"":   LayoutUnset,
		"v1": LayoutV1,
		"v2": LayoutV2,
	}

	if layout, ok := layouts[str]; ok {
		return layout
	}

	return LayoutUnknown
}

// MarshalJSON implements json.Marshaler.
func (l VPInfoLayout) MarshalJSON() ([]byte, error) {
	if l != LayoutUnset {
		return json.Marshal(l.String())
	}

	return []byte(jsonNull), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (l *VPInfoLayout) UnmarshalJSON(data []byte) error {
	if string(data) == jsonNull {
		*l = LayoutUnset
	} else {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}

		layout := StringToVPInfoLayout(str)
		if layout == LayoutUnknown {
			return &json.UnmarshalTypeError{
				Value: fmt.Sprintf("string %q", str),
				Type:  reflect.TypeOf(l),
			}
		}
		*l = layout
	}

	return nil
}

// Config stores the protocol settings of one guest environment.
//
// A zero leaf number disables the corresponding operation. EndOfWalkStatus
// names the nonzero module status that signals a clean end of a field
// walk; zero means no such status is defined and only a next id of -1
// ends a walk cleanly. MaxWalkSteps bounds a field walk as a guard
// against a misbehaving module returning a cyclic next id sequence;
// zero means unbounded.
type Config struct {
	VPInfoLeaf      uint64       `json:"vp_info_leaf"`
	SysRdLeaf       uint64       `json:"sys_rd_leaf"`
	VPInfoLayout    VPInfoLayout `json:"vp_info_layout"`
	EndOfWalkStatus int32        `json:"end_of_walk_status"`
	MaxWalkSteps    int          `json:"max_walk_steps"`
}

// Default returns a Config carrying the reference leaf numbers, the
// current register layout and the default walk guard.
func Default() Config {
	return Config{
		VPInfoLeaf:   DefaultVPInfoLeaf,
		SysRdLeaf:    DefaultSysRdLeaf,
		VPInfoLayout: LayoutV2,
		MaxWalkSteps: DefaultMaxWalkSteps,
	}
}

// UnmarshalJSON implements json.Unmarshaler.
//
// All fields of Config need to be present in JSON.
func (c *Config) UnmarshalJSON(data []byte) error {
	var jsonMap map[string]interface{}
	if err := json.Unmarshal(data, &jsonMap); err != nil {
		return err
	}

	for _, tag := range jsonTags(c) {
		if _, ok := jsonMap[tag]; !ok {
			tdlog.Debug("All fields of the guest config are expected to be set or unset. Missing json key %q", tag)

			return ErrMissingJSONKey
		}
	}

	type alias Config

	var cfg alias
	if err := json.Unmarshal(data, &cfg); err != nil {
		return err
	}

	*c = Config(cfg)

	if err := c.Validate(); err != nil {
		*c = Config{}

		return fmt.Errorf("unmarshal guest config: %w", err)
	}

	return nil
}

// Validate checks c against the constraints documented on Config.
func (c *Config) Validate() error {
	var validationSet = []func(*Config) error{
		checkLeaves,
		checkLayout,
		checkWalkGuard,
		checkEndOfWalkStatus,
	}

	for _, f := range validationSet {
		if err := f(c); err != nil {
			return err
		}
	}

	return nil
}

func checkLeaves(cfg *Config) error {
	if cfg.VPInfoLeaf == 0 && cfg.SysRdLeaf == 0 {
		return ErrNoLeafConfigured
	}

	return nil
}

func checkLayout(cfg *Config) error {
	if cfg.VPInfoLeaf != 0 && cfg.VPInfoLayout == LayoutUnset {
		return ErrMissingLayout
	}

	return nil
}

func checkWalkGuard(cfg *Config) error {
	if cfg.MaxWalkSteps < 0 {
		return ErrInvalidWalkSteps
	}

	return nil
}

func checkEndOfWalkStatus(cfg *Config) error {
	if cfg.SysRdLeaf == 0 && cfg.EndOfWalkStatus != 0 {
		return ErrWalkStatusWithoutLeaf
	}

	return nil
}
