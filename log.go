// Copyright 2021 Cosmos Nicolaou. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package stunpack

import "fmt"

// LogLevel classifies an Event, mirroring the original library's
// stpk_LogType (STPK_LOG_INFO/WARN/ERR).
type LogLevel int

const (
	LogInfo LogLevel = iota
	LogWarn
	LogErr
)

func (l LogLevel) String() string {
	switch l {
	case LogInfo:
		return "info"
	case LogWarn:
		return "warn"
	case LogErr:
		return "error"
	default:
		return "invalid"
	}
}

// Event is a single structured diagnostic emitted by the decoder. It
// replaces the original's printf-style log callback: Message is always a
// ready-to-display string, and Fields optionally carries the raw values
// behind it (table dumps, progress percentages) for hosts that want more
// than text.
type Event struct {
	Level   LogLevel
	Message string
	Fields  map[string]interface{}
}

// LogFunc receives every Event a Context emits. Verbosity gates which
// events are produced in the first place; see Context's verbosity field.
type LogFunc func(Event)

// verbosity thresholds, matching the original library's UTIL_* macros.
const (
	verbosityProgress   = 1 // UTIL_NOVERBOSE / UTIL_MSG
	verbosityDiagnostic = 2 // UTIL_VERBOSE1
	verbosityTrace      = 3 // UTIL_VERBOSE2 / UTIL_VERBOSE_HUFF
)

func (c *Context) emit(level LogLevel, threshold int, format string, args ...interface{}) {
	if c.log == nil || c.verbosity < threshold {
		return
	}
	c.log(Event{Level: level, Message: fmt.Sprintf(format, args...)})
}

func (c *Context) emitFields(level LogLevel, threshold int, message string, fields map[string]interface{}) {
	if c.log == nil || c.verbosity < threshold {
		return
	}
	c.log(Event{Level: level, Message: message, Fields: fields})
}

// progress logs at verbosity 1 only (and is suppressed at verbosity 2 and
// above, where the per-pass diagnostics below are more useful than a ticker).
func (c *Context) progress(format string, args ...interface{}) {
	if c.verbosity != verbosityProgress {
		return
	}
	c.emit(LogInfo, verbosityProgress, format, args...)
}

func (c *Context) diagf(format string, args ...interface{}) {
	c.emit(LogInfo, verbosityDiagnostic, format, args...)
}

func (c *Context) diagArray(name string, arr []byte) {
	if c.log == nil || c.verbosity < verbosityDiagnostic {
		return
	}
	c.log(Event{
		Level:   LogInfo,
		Message: fmt.Sprintf("%s[%#x]", name, len(arr)),
		Fields:  map[string]interface{}{name: append([]byte(nil), arr...)},
	})
}

func (c *Context) tracef(format string, args ...interface{}) {
	c.emit(LogInfo, verbosityTrace, format, args...)
}

func (c *Context) warnf(format string, args ...interface{}) {
	c.emit(LogWarn, verbosityProgress, format, args...)
}

func (c *Context) errf(format string, args ...interface{}) {
	c.emit(LogErr, verbosityProgress, format, args...)
}
