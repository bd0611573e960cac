// Copyright 2025 Canvas Technologies, Inc. All rights reserved
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package tdlog

import (
	"fmt"
	"io"
	"log"
)

type standardLogger struct {
	out   *log.Logger
	level LogLevel
}

func newStandardLogger(w io.Writer) *standardLogger {
	return &standardLogger{
		out:   log.New(w, "", 0),
		level: DebugLevel,
	}
}

func (l *standardLogger) setLevel(level LogLevel) {
	l.level = level
}

func (l *standardLogger) logLevel() LogLevel {
	return l.level
}

func (l *standardLogger) error(format string, v ...interface{}) {
	if l.level >= ErrorLevel {
		l.out.Print(errorTag + prefix + fmt.Sprintf(format, v...))
	}
}

func (l *standardLogger) warn(format string, v ...interface{}) {
	if l.level >= WarnLevel {
		l.out.Print(warnTag + prefix + fmt.Sprintf(format, v...))
	}
}

func (l *standardLogger) info(format string, v ...interface{}) {
	if l.level >= InfoLevel {
		l.out.Print(infoTag + prefix + fmt.Sprintf(format, v...))
	}
}

func (l *standardLogger) debug(format string, v ...interface{}) {
	if l.level >= DebugLevel {
		l.out.Print(debugTag + prefix + fmt.Sprintf(format, v...))
	}
}
