// Copyright 2025 Canvas Technologies, Inc. All rights reserved
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package tderror

import (
	"errors"
	"fmt"
	"testing"
)

const (
	emptyOp     Op    = ""
	filledOpOne Op    = "read field"
	filledOpTwo Op    = "another operation"
	emptyScope  Scope = ""
	filledScope Scope = Query
	filledInfo  string = "a lot of info"
)

var (
	errFilled = fmt.Errorf("this is an error")
)

func TestE(t *testing.T) {
	cases := []struct {
		name string
		got  Error
		want Error
	}{
		{
			name: "no arguments",
			got:  E(),
			want: Error{Info: "unspecified"},
		},
		{
			name: "scope and info",
			got:  E(filledScope, filledInfo),
			want: Error{emptyOp, filledScope, filledInfo, nil},
		},
		{
			name: "all fields",
			got:  E(filledOpOne, filledScope, filledInfo, errFilled),
			want: Error{filledOpOne, filledScope, filledInfo, errFilled},
		},
		{
			name: "op only",
			got:  E(filledOpTwo),
			want: Error{filledOpTwo, emptyScope, "", nil},
		},
		{
			name: "ignored argument type",
			got:  E(filledOpOne, 42),
			want: Error{filledOpOne, emptyScope, "", nil},
		},
	}

	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %+v, want %+v", tt.got, tt.want)
			}
		})
	}
}

func TestErrorString(t *testing.T) {
	cases := []struct {
		name string
		err  Error
		want string
	}{
		{
			name: "scope op and info",
			err:  Error{filledOpOne, filledScope, filledInfo, nil},
			want: "Query: read field - a lot of info",
		},
		{
			name: "op only",
			err:  Error{filledOpOne, filledScope, "", nil},
			want: "Query: read field",
		},
		{
			name: "wrapped error",
			err:  Error{filledOpOne, filledScope, "", errFilled},
			want: "Query: read field\nthis is an error",
		},
	}

	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestUnwrap(t *testing.T) {
	sentinel := errors.New("sentinel")
	err := E(filledScope, filledOpOne, sentinel)

	if !errors.Is(err, sentinel) {
		t.Errorf("errors.Is(%v, sentinel) = false, want true", err)
	}

	var structured Error
	if !errors.As(err, &structured) {
		t.Fatalf("errors.As failed for %v", err)
	}

	if structured.Op != filledOpOne {
		t.Errorf("got op %q, want %q", structured.Op, filledOpOne)
	}
}
