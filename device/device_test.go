// Copyright 2025 Canvas Technologies, Inc. All rights reserved
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build linux
// +build linux

package device

import (
	"errors"
	"path/filepath"
	"testing"
	"unsafe"
)

// The ioctl numbers are ABI; they must match what the kernel module
// computes from its uapi header.
func TestIoctlNumbers(t *testing.T) {
	if got, want := uintptr(iocVPInfo), uintptr(0x8020F501); got != want {
		t.Errorf("vp info ioctl = %#x, want %#x", got, want)
	}

	if got, want := uintptr(iocSysRd), uintptr(0xC028F502); got != want {
		t.Errorf("sys rd ioctl = %#x, want %#x", got, want)
	}
}

func TestUAPIStructSizes(t *testing.T) {
	if got := unsafe.Sizeof(vpInfoOut{}); got != 32 {
		t.Errorf("sizeof(vpInfoOut) = %d, want 32", got)
	}

	if got := unsafe.Sizeof(sysRdArg{}); got != 40 {
		t.Errorf("sizeof(sysRdArg) = %d, want 40", got)
	}
}

func TestUAPIStructOffsets(t *testing.T) {
	var arg sysRdArg

	for _, tt := range []struct {
		name string
		got  uintptr
		want uintptr
	}{
		{"field_id_in", unsafe.Offsetof(arg.FieldIDIn), 0},
		{"field_id_out", unsafe.Offsetof(arg.FieldIDOut), 8},
		{"next_id", unsafe.Offsetof(arg.NextID), 16},
		{"value", unsafe.Offsetof(arg.Value), 24},
		{"tdcall_status", unsafe.Offsetof(arg.Status), 32},
	} {
		if tt.got != tt.want {
			t.Errorf("offsetof(%s) = %d, want %d", tt.name, tt.got, tt.want)
		}
	}
}

func TestOpenPathMissing(t *testing.T) {
	_, err := OpenPath(filepath.Join(t.TempDir(), "no_such_device"))

	if !errors.Is(err, ErrNoDevice) {
		t.Errorf("got %v, want ErrNoDevice", err)
	}
}
