/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package log implements a module scoped, leveled logger for fmt-style messages.
// Lines are written through glog unless a custom provider is installed with Initialize.
package log

import (
	"sync"

	"github.com/hyperledger/aries-wallet-go/spi/log"
)

// Log is an implementation of Logger interface.
// It encapsulates default or custom logger to provide module and level based logging.
type Log struct {
	instance log.Logger
	module   string
	once     sync.Once
}

// New creates and returns a Logger implementation based on given module name.
// note: the underlying logger instance is lazy initialized on first use.
func New(module string) *Log {
	return &Log{module: module}
}

// Fatalf calls Fatalf function of underlying logger.
func (l *Log) Fatalf(msg string, args ...interface{}) {
	l.logger().Fatalf(msg, args...)
}

// Panicf calls Panic function of underlying logger.
func (l *Log) Panicf(msg string, args ...interface{}) {
	l.logger().Panicf(msg, args...)
}

// Debugf logs at DEBUG if enabled for the module.
func (l *Log) Debugf(msg string, args ...interface{}) {
	if IsEnabledFor(l.module, log.DEBUG) {
		l.logger().Debugf(msg, args...)
	}
}

// Infof logs at INFO if enabled for the module.
func (l *Log) Infof(msg string, args ...interface{}) {
	if IsEnabledFor(l.module, log.INFO) {
		l.logger().Infof(msg, args...)
	}
}

// Warnf logs at WARNING if enabled for the module.
func (l *Log) Warnf(msg string, args ...interface{}) {
	if IsEnabledFor(l.module, log.WARNING) {
		l.logger().Warnf(msg, args...)
	}
}

// Errorf logs at ERROR if enabled for the module.
func (l *Log) Errorf(msg string, args ...interface{}) {
	if IsEnabledFor(l.module, log.ERROR) {
		l.logger().Errorf(msg, args...)
	}
}

func (l *Log) logger() log.Logger {
	l.once.Do(func() {
		l.instance = loggerProvider().GetLogger(l.module)
	})

	return l.instance
}

//nolint:gochecknoglobals
var (
	providerInstance log.LoggerProvider
	providerOnce     sync.Once
)

// Initialize sets a custom logging provider which takes over logging operations.
// It has to be called before the first line is logged, later calls are ignored.
func Initialize(p log.LoggerProvider) {
	providerOnce.Do(func() {
		providerInstance = p
	})
}

func loggerProvider() log.LoggerProvider {
	providerOnce.Do(func() {
		providerInstance = &glogProvider{}
	})

	return providerInstance
}
