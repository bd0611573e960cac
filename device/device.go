// Copyright 2025 Canvas Technologies, Inc. All rights reserved
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build linux
// +build linux

// Package device talks to the tdx_guest_aux character device, the kernel
// side boundary transport for unprivileged callers. It speaks the device's
// ioctl ABI and returns the same typed results as the query package, so
// callers can switch between direct TDCALL and the device without caring
// which one serves them.
package device

import (
	"errors"
	"os"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/canvas-technologies/tdxaux/query"
	"github.com/canvas-technologies/tdxaux/tderror"
	"github.com/canvas-technologies/tdxaux/tdlog"
)

// Path is where the kernel module registers its misc device.
const Path = "/dev/tdx_guest_aux"

// Operations used for raising Errors of this package.
const (
	ErrOpOpen      tderror.Op = "open device"
	ErrOpVPInfo    tderror.Op = "vp info ioctl"
	ErrOpReadField tderror.Op = "read field ioctl"
)

// Errors which may be raised and wrapped in this package.
var (
	ErrNoDevice = errors.New("guest device not present")
)

// vpInfoOut mirrors struct tdx_vp_info_out of the device uapi.
type vpInfoOut struct {
	Attributes uint64
	XFAM       uint64
	GPAWidth   uint64
	Status     int32
	_          int32 // tail padding, part of the uapi struct size
}

// sysRdArg mirrors struct tdx_sys_rd_arg of the device uapi.
type sysRdArg struct {
	FieldIDIn  int64
	FieldIDOut int64
	NextID     int64
	Value      uint64
	Status     int32
	_          int32 // tail padding, part of the uapi struct size
}

// ioctl command encoding per include/uapi/asm-generic/ioctl.h.
const (
	iocNrBits   = 8
	iocTypeBits = 8
	iocSizeBits = 14

	iocNrShift   = 0
	iocTypeShift = iocNrShift + iocNrBits
	iocSizeShift = iocTypeShift + iocTypeBits
	iocDirShift  = iocSizeShift + iocSizeBits

	iocWrite = 1
	iocRead  = 2

	iocBase = 0xF5

	// _IOR(0xF5, 0x01, struct tdx_vp_info_out)
	iocVPInfo = iocRead<<iocDirShift |
		iocBase<<iocTypeShift |
		0x01<<iocNrShift |
		unsafe.Sizeof(vpInfoOut{})<<iocSizeShift

	// _IOWR(0xF5, 0x02, struct tdx_sys_rd_arg)
	iocSysRd = (iocRead|iocWrite)<<iocDirShift |
		iocBase<<iocTypeShift |
		0x02<<iocNrShift |
		unsafe.Sizeof(sysRdArg{})<<iocSizeShift
)

// Device is an open handle to the guest device. It is safe for concurrent
// use; every operation is one self-contained ioctl.
type Device struct {
	file *os.File
}

var _ query.FieldReader = &Device{}

// Present reports whether the guest device exists, without opening it.
func Present() bool {
	_, err := os.Stat(Path)

	return !errors.Is(err, os.ErrNotExist)
}

// Open opens the guest device at the default path.
func Open() (*Device, error) {
	return OpenPath(Path)
}

// OpenPath opens the guest device at path.
func OpenPath(path string) (*Device, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, tderror.E(tderror.Device, ErrOpOpen, ErrNoDevice)
		}

		return nil, tderror.E(tderror.Device, ErrOpOpen, err)
	}

	tdlog.Debug("Opened guest device %s", path)

	return &Device{file: file}, nil
}

// Close releases the device handle.
func (d *Device) Close() error {
	return d.file.Close()
}

func (d *Device) ioctl(cmd uintptr, arg unsafe.Pointer) error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, d.file.Fd(), cmd, uintptr(arg))
	if errno != 0 {
		return errno
	}

	return nil
}

// VPInfo issues the VP info ioctl. Errors are transport failures between
// this process and the kernel; the module status travels inside the
// result, exactly as with a direct call.
func (d *Device) VPInfo() (*query.VPInfoResult, error) {
	var out vpInfoOut

	if err := d.ioctl(uintptr(iocVPInfo), unsafe.Pointer(&out)); err != nil {
		return nil, tderror.E(tderror.Device, ErrOpVPInfo, err)
	}

	return &query.VPInfoResult{
		Attributes: out.Attributes,
		XFAM:       out.XFAM,
		GPAWidth:   out.GPAWidth,
		Status:     out.Status,
	}, nil
}

// ReadField issues the field read ioctl, implementing query.FieldReader
// over the device transport.
func (d *Device) ReadField(id int64) (*query.FieldResult, error) {
	arg := sysRdArg{FieldIDIn: id}

	if err := d.ioctl(uintptr(iocSysRd), unsafe.Pointer(&arg)); err != nil {
		return nil, tderror.E(tderror.Device, ErrOpReadField, err)
	}

	return &query.FieldResult{
		FieldID: arg.FieldIDOut,
		NextID:  arg.NextID,
		Value:   arg.Value,
		Status:  arg.Status,
	}, nil
}

// Fields returns a walker over the device with the given walk settings.
func (d *Device) Fields(endOfWalkStatus int32, maxSteps int) *query.Walker {
	return query.NewWalker(d, endOfWalkStatus, maxSteps)
}
