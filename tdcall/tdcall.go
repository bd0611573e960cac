// Copyright 2025 Canvas Technologies, Inc. All rights reserved
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package tdcall implements the guest side of the Intel TDX module call
// convention. A call selects a leaf function via the primary register and
// passes up to six operands through the auxiliary registers; the module
// returns a status code in the primary register and leaf specific data in
// the auxiliary registers.
//
// The register slot assignment is the only place in tdxaux that deals with
// raw register positions. Higher layers see typed requests and results only.
package tdcall

import (
	"errors"

	"github.com/canvas-technologies/tdxaux/tderror"
)

// Operations used for raising Errors of this package.
const (
	ErrOpNewNative tderror.Op = "new native invoker"
	ErrOpCall      tderror.Op = "module call"
)

var (
	// ErrNoTDXGuest is returned when the code does not run inside an
	// Intel TDX trust domain and the TDCALL instruction is unavailable.
	ErrNoTDXGuest = errors.New("not running inside a TDX guest")
	// ErrUnsupported is returned on platforms without TDCALL support.
	ErrUnsupported = errors.New("TDCALL is not supported on this platform")
)

// StatusSuccess is the primary register value the TDX module returns for a
// completed call. Any other value is a leaf defined failure code and is
// passed through to the caller as data, never as a Go error.
const StatusSuccess int64 = 0

// Args holds the six auxiliary register slots of one module call, in the
// architectural order RCX, RDX, R8, R9, R10, R11. Slots left zero are
// passed as zero; callers needing a different default must set it
// explicitly. After a call the same slots hold the output registers,
// regardless of the returned status.
type Args struct {
	RCX uint64
	RDX uint64
	R8  uint64
	R9  uint64
	R10 uint64
	R11 uint64
}

// Invoker performs a single module call.
//
// Call places leaf in the primary register and the Args slots in their
// auxiliary registers, executes the call as one indivisible operation and
// writes all output registers back into args. The returned status is the
// primary register value; a nonzero status is not an error. The error
// return is reserved for an unavailable invocation environment.
//
// Implementations must not retry, cache or interpret results and must not
// keep state between calls. Concurrent calls are safe; serialization of
// the underlying module is the module's concern.
type Invoker interface {
	Call(leaf uint64, args *Args) (int64, error)
}
