/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package logutil formats the log lines of the RPC services.
package logutil

import (
	"fmt"
	"strings"

	"github.com/hyperledger/aries-wallet-go/component/log"
	"github.com/hyperledger/aries-wallet-go/pkg/common/walleterr"
	spi "github.com/hyperledger/aries-wallet-go/spi/log"
)

// LogFailure logs a failed call along with the kind of its error. Failures the caller can fix
// are logged at INFO, the others at ERROR.
func LogFailure(logger *log.Log, service, method string, err error, data ...string) {
	kind := walleterr.KindOf(err)
	msg := line(service, method, "kind="+string(kind)+" errMsg=["+err.Error()+"]", data)

	if failureLevel(kind) == spi.ERROR {
		logger.Errorf("%s", msg)

		return
	}

	logger.Infof("%s", msg)
}

// LogSuccess logs a completed call at DEBUG.
func LogSuccess(logger *log.Log, service, method string, data ...string) {
	logger.Debugf("%s", line(service, method, "success", data))
}

// LogInfo logs a message about a call at INFO.
func LogInfo(logger *log.Log, service, method, msg string, data ...string) {
	logger.Infof("%s", line(service, method, msg, data))
}

// KeyValue renders a key value pair of a log line. Secrets must never be passed.
func KeyValue(key, val string) string {
	return fmt.Sprintf("%s=[%s]", key, val)
}

func failureLevel(kind walleterr.Kind) spi.Level {
	switch kind {
	case walleterr.InternalFailure, walleterr.BackendUnavailable, walleterr.Timeout:
		return spi.ERROR
	default:
		return spi.INFO
	}
}

func line(service, method, msg string, data []string) string {
	parts := append([]string{"service=[" + service + "]", "method=[" + method + "]"}, data...)

	return strings.Join(append(parts, msg), " ")
}
