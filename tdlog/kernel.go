// Copyright 2025 Canvas Technologies, Inc. All rights reserved
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package tdlog

import (
	"errors"
	"fmt"

	"github.com/u-root/u-root/pkg/ulog"
)

type kernelLogger struct {
	out   *ulog.KLog
	level LogLevel
}

var errInitKlog = errors.New("init klog failed")

func newKernelLogger() (*kernelLogger, error) {
	klog := ulog.KernelLog
	klog.SetLogLevel(ulog.KLogNotice)

	if err := klog.SetConsoleLogLevel(ulog.KLogInfo); err != nil {
		return nil, fmt.Errorf("%w: %s", errInitKlog, err)
	}

	return &kernelLogger{
		out:   klog,
		level: DebugLevel,
	}, nil
}

func (l *kernelLogger) setLevel(level LogLevel) {
	l.level = level
}

func (l *kernelLogger) logLevel() LogLevel {
	return l.level
}

func (l *kernelLogger) error(format string, v ...interface{}) {
	if l.level >= ErrorLevel {
		l.out.Print(errorTag + prefix + fmt.Sprintf(format, v...))
	}
}

func (l *kernelLogger) warn(format string, v ...interface{}) {
	if l.level >= WarnLevel {
		l.out.Print(warnTag + prefix + fmt.Sprintf(format, v...))
	}
}

func (l *kernelLogger) info(format string, v ...interface{}) {
	if l.level >= InfoLevel {
		l.out.Print(infoTag + prefix + fmt.Sprintf(format, v...))
	}
}

func (l *kernelLogger) debug(format string, v ...interface{}) {
	if l.level >= DebugLevel {
		l.out.Print(debugTag + prefix + fmt.Sprintf(format, v...))
	}
}
