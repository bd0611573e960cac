// Copyright 2025 Canvas Technologies, Inc. All rights reserved
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package tdlog

import "testing"

func TestSetLevel(t *testing.T) {
	defer SetLevel(DebugLevel)

	for _, tt := range []struct {
		name string
		set  LogLevel
		want LogLevel
	}{
		{"error", ErrorLevel, ErrorLevel},
		{"warn", WarnLevel, WarnLevel},
		{"info", InfoLevel, InfoLevel},
		{"debug", DebugLevel, DebugLevel},
		{"unknown defaults to debug", LogLevel(42), DebugLevel},
	} {
		t.Run(tt.name, func(t *testing.T) {
			SetLevel(tt.set)
			if got := Level(); got != tt.want {
				t.Errorf("Level() = %d, want %d", got, tt.want)
			}
		})
	}
}
