// Copyright 2025 Canvas Technologies, Inc. All rights reserved
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package query

import (
	"errors"

	"github.com/canvas-technologies/tdxaux/tderror"
)

// Operation used for raising Errors of the walk protocol.
const (
	ErrOpWalk tderror.Op = "field walk"
)

var (
	// ErrWalkTruncated is returned when a walk hits its step limit
	// before the module signalled an end. This points at a cyclic next
	// id sequence from a misbehaving module.
	ErrWalkTruncated = errors.New("field walk exceeded the step limit")
)

// Walker enumerates the module defined field set one ReadField at a
// time. All iteration state lives in the walker; the module itself is
// stateless and a walk can be restarted at any time with a new Walker.
//
// A walk ends cleanly when the module returns NoMoreFields as next id,
// or when it returns the configured end-of-walk status. Any other
// nonzero status also ends the walk; it is reported through Status, not
// as an error, since interpreting module status codes is the caller's
// business.
type Walker struct {
	rd       FieldReader
	endState int32
	maxSteps int
	next     int64
	steps    int
	status   int32
	done     bool
}

// NewWalker returns a Walker over rd starting at the first field.
// endOfWalkStatus is the module status treated as a clean end (zero:
// none defined). maxSteps bounds the walk (zero: unbounded).
func NewWalker(rd FieldReader, endOfWalkStatus int32, maxSteps int) *Walker {
	return &Walker{
		rd:       rd,
		endState: endOfWalkStatus,
		maxSteps: maxSteps,
		next:     FirstField,
	}
}

// Fields returns a Walker over s using its configured end-of-walk
// status and step limit.
func (s *Service) Fields() *Walker {
	return NewWalker(s, s.cfg.EndOfWalkStatus, s.cfg.MaxWalkSteps)
}

// Next reads the next field. It returns false once the walk is over;
// inspect Status for the module status that ended it. The error return
// is reserved for configuration errors, an unavailable invocation
// environment and the step limit guard.
func (w *Walker) Next() (*FieldResult, bool, error) {
	if w.done {
		return nil, false, nil
	}

	if w.maxSteps > 0 && w.steps >= w.maxSteps {
		w.done = true

		return nil, false, tderror.E(tderror.Query, ErrOpWalk, ErrWalkTruncated)
	}

	res, err := w.rd.ReadField(w.next)
	if err != nil {
		w.done = true

		return nil, false, err
	}

	w.steps++

	if res.Status != 0 {
		w.done = true

		if w.endState != 0 && res.Status == w.endState {
			// Defined end of the enumeration, not a failure.
			return nil, false, nil
		}

		w.status = res.Status

		return nil, false, nil
	}

	if res.NextID == NoMoreFields {
		w.done = true
	} else {
		w.next = res.NextID
	}

	return res, true, nil
}

// Status returns the module status that ended the walk. It is zero
// while the walk is running and after a clean end.
func (w *Walker) Status() int32 {
	return w.status
}

// WalkFields enumerates all fields and returns them together with the
// status that ended the walk, zero meaning a clean end.
func (s *Service) WalkFields() ([]FieldResult, int32, error) {
	return WalkFields(s.Fields())
}

// WalkFields drains w and collects the enumerated fields.
func WalkFields(w *Walker) ([]FieldResult, int32, error) {
	var fields []FieldResult

	for {
		res, ok, err := w.Next()
		if err != nil {
			return fields, w.Status(), err
		}

		if !ok {
			return fields, w.Status(), nil
		}

		fields = append(fields, *res)
	}
}
