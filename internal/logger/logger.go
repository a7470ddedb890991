// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package logger

import (
	"io"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"
)

// Level is the minimum severity a Logger emits.
//
//go:generate ${TOOLS_BIN}/stringer -type=Level
type Level int

const (
	ERROR Level = iota
	WARN
	INFO
	DEBUG
	TRACE
)

var hclogLevels = map[Level]hclog.Level{
	ERROR: hclog.Error,
	WARN:  hclog.Warn,
	INFO:  hclog.Info,
	DEBUG: hclog.Debug,
	TRACE: hclog.Trace,
}

// LevelFromString parses a case insensitive level name, falling back to INFO.
func LevelFromString(level string) Level {
	for l := range hclogLevels {
		if l.String() == strings.ToUpper(level) {
			return l
		}
	}
	return INFO
}

func (l Level) hclogLevel() hclog.Level {
	if level, ok := hclogLevels[l]; ok {
		return level
	}
	return hclog.Info
}

// Logger is the structured logger passed around through context.Context.
type Logger interface {
	// WithName returns a Logger whose module is name, keeping the fields already attached.
	WithName(name string) Logger
	// With returns a Logger that always emits the given key/value pairs.
	With(args ...any) Logger
	SetLevel(level Level)

	Trace(msg string, args ...any)
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

var (
	_ Logger = &instance{}

	nullLogger = &instance{log: hclog.NewNullLogger()}
)

type instance struct {
	log hclog.Logger
}

// NewLogger returns a JSON Logger writing to writer at INFO level.
func NewLogger(writer io.Writer) Logger {
	return &instance{
		log: hclog.New(&hclog.LoggerOptions{
			JSONFormat: true,
			Output:     writer,
			TimeFn:     time.Now,
			Level:      INFO.hclogLevel(),
		}),
	}
}

func (i instance) WithName(name string) Logger { return &instance{log: i.log.ResetNamed(name)} }
func (i instance) With(args ...any) Logger     { return &instance{log: i.log.With(args...)} }
func (i instance) SetLevel(level Level)        { i.log.SetLevel(level.hclogLevel()) }

func (i instance) Trace(msg string, args ...any) { i.log.Trace(msg, args...) }
func (i instance) Debug(msg string, args ...any) { i.log.Debug(msg, args...) }
func (i instance) Info(msg string, args ...any)  { i.log.Info(msg, args...) }
func (i instance) Warn(msg string, args ...any)  { i.log.Warn(msg, args...) }
func (i instance) Error(msg string, args ...any) { i.log.Error(msg, args...) }
