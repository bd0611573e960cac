// Copyright 2025 Canvas Technologies, Inc. All rights reserved
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package tderror provides the error handling used in tdxaux.
// The core part is the constructor function E().
package tderror

// Op describes an operation, usually as the name of the method.
type Op string

// Scope identifies the subsystem where the error occurred.
type Scope string

// Scopes of errors.
const (
	Call   Scope = "TDCALL"
	Config Scope = "Configuration"
	Device Scope = "Guest device"
	Query  Scope = "Query"
)

// Error provides structured and detailed context. Some fields
// may be left unset.
//
// An Error value should be created using the E() function.
type Error struct {
	// Op is the operation being executed when the error occurred.
	Op Op
	// Scope is the subsystem of tdxaux causing the error.
	Scope Scope
	// Info provides further context to the error or holds the string
	// value of the triggering error if it is not wrapped.
	Info string
	// Err is the underlying wrapped error.
	Err error
}

const (
	colon   string = ": "
	hyphen  string = " - "
	newline string = "\n"
)

// Error implements the error interface.
func (e Error) Error() string {
	composed := string(e.Scope)

	switch {
	case e.Op != "" && e.Info != "":
		composed += colon + string(e.Op) + hyphen + e.Info
	case e.Op != "":
		composed += colon + string(e.Op)
	case e.Info != "":
		composed += colon + e.Info
	default:
	}

	if e.Err != nil {
		composed += newline + e.Err.Error()
	}

	return composed
}

// Unwrap returns the wrapped error, so that stored sentinel errors
// remain reachable via errors.Is and errors.As.
func (e Error) Unwrap() error {
	return e.Err
}

// E returns an Error constructed from its arguments.
// There should be at least one argument, or E returns an unspecified error.
// The type of each argument determines its meaning.
// If more than one argument of a given type is presented,
// only the last one is recorded.
//
// The types are:
//
//	tderror.Op
//		The performed operation.
//	tderror.Scope
//		The subsystem where the error occurred.
//	error
//		The underlying error that should be wrapped.
//	string
//		Treated as error message of an error that should
//		not be wrapped or as additional information to the
//		provided error.
//
// Further types are ignored.
func E(args ...interface{}) Error {
	if len(args) == 0 {
		return Error{Info: "unspecified"}
	}

	var err = Error{}

	for _, arg := range args {
		switch arg := arg.(type) {
		case Op:
			err.Op = arg
		case Scope:
			err.Scope = arg
		case error:
			err.Err = arg
		case string:
			err.Info = arg
		default:
		}
	}

	return err
}
