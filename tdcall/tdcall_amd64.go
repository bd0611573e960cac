// Copyright 2025 Canvas Technologies, Inc. All rights reserved
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build amd64
// +build amd64

package tdcall

import (
	"github.com/klauspost/cpuid/v2"

	"github.com/canvas-technologies/tdxaux/tderror"
)

// tdcall is implemented in tdcall_amd64.s.
func tdcall(leaf, rcx, rdx, r8, r9, r10, r11 uint64) (status, orcx, ordx, or8, or9, or10, or11 uint64)

// Native executes TDCALL directly on the current virtual processor.
// It holds no state; a single value serves any number of concurrent calls.
type Native struct{}

var _ Invoker = &Native{}

// NewNative returns a Native invoker after verifying that the code runs
// inside a TDX trust domain. Executing TDCALL outside of one raises #UD,
// so the feature check is mandatory, not advisory.
func NewNative() (*Native, error) {
	if !cpuid.CPU.Has(cpuid.TDX_GUEST) {
		return nil, tderror.E(tderror.Call, ErrOpNewNative, ErrNoTDXGuest)
	}

	return &Native{}, nil
}

// Call implements Invoker.
func (n *Native) Call(leaf uint64, args *Args) (int64, error) {
	if args == nil {
		args = &Args{}
	}

	status, rcx, rdx, r8, r9, r10, r11 := tdcall(
		leaf, args.RCX, args.RDX, args.R8, args.R9, args.R10, args.R11)

	args.RCX = rcx
	args.RDX = rdx
	args.R8 = r8
	args.R9 = r9
	args.R10 = r10
	args.R11 = r11

	return int64(status), nil
}
