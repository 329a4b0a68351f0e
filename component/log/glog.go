/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package log

import (
	"fmt"

	"github.com/golang/glog"

	"github.com/hyperledger/aries-wallet-go/spi/log"
)

// callDepth skips glogLogger and the Log facade so glog reports the caller's file:line.
const callDepth = 2

type glogProvider struct{}

func (p *glogProvider) GetLogger(module string) log.Logger {
	return &glogLogger{prefix: fmt.Sprintf("[%s] ", module)}
}

// glogLogger writes module prefixed lines through glog.
type glogLogger struct {
	prefix string
}

func (g *glogLogger) Panicf(msg string, args ...interface{}) {
	s := g.prefix + fmt.Sprintf(msg, args...)
	glog.ErrorDepth(callDepth, s)
	panic(s)
}

func (g *glogLogger) Fatalf(msg string, args ...interface{}) {
	glog.FatalDepthf(callDepth, g.prefix+msg, args...)
}

func (g *glogLogger) Errorf(msg string, args ...interface{}) {
	glog.ErrorDepthf(callDepth, g.prefix+msg, args...)
}

func (g *glogLogger) Warnf(msg string, args ...interface{}) {
	glog.WarningDepthf(callDepth, g.prefix+msg, args...)
}

func (g *glogLogger) Infof(msg string, args ...interface{}) {
	glog.InfoDepthf(callDepth, g.prefix+msg, args...)
}

func (g *glogLogger) Debugf(msg string, args ...interface{}) {
	glog.InfoDepthf(callDepth, g.prefix+"DEBUG "+msg, args...)
}
