// Copyright 2025 Canvas Technologies, Inc. All rights reserved
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build !amd64
// +build !amd64

package tdcall

import "github.com/canvas-technologies/tdxaux/tderror"

// Native is a placeholder on platforms without the TDCALL instruction.
type Native struct{}

var _ Invoker = &Native{}

// NewNative always fails; TDX trust domains exist on amd64 only.
func NewNative() (*Native, error) {
	return nil, tderror.E(tderror.Call, ErrOpNewNative, ErrUnsupported)
}

// Call implements Invoker.
func (n *Native) Call(leaf uint64, args *Args) (int64, error) {
	return 0, tderror.E(tderror.Call, ErrOpCall, ErrUnsupported)
}
