/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package log

import (
	"sync"

	"github.com/hyperledger/aries-wallet-go/spi/log"
)

const defaultModule = ""

// moduleLevels holds the per module level table. The empty module is the default for all modules.
type moduleLevels struct {
	mutex  sync.RWMutex
	levels map[string]log.Level
}

//nolint:gochecknoglobals
var levels = &moduleLevels{levels: map[string]log.Level{defaultModule: log.INFO}}

func (m *moduleLevels) get(module string) log.Level {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	if lvl, ok := m.levels[module]; ok {
		return lvl
	}

	return m.levels[defaultModule]
}

func (m *moduleLevels) set(module string, level log.Level) {
	m.mutex.Lock()
	m.levels[module] = level
	m.mutex.Unlock()
}

// SetLevel sets the log level for a module. An empty module name sets the default level.
// If not set the level is INFO.
func SetLevel(module string, level log.Level) {
	levels.set(module, level)
}

// GetLevel returns the log level of a module.
func GetLevel(module string) log.Level {
	return levels.get(module)
}

// IsEnabledFor reports whether the module logs lines of the given level.
func IsEnabledFor(module string, level log.Level) bool {
	return level <= levels.get(module)
}

// ParseLevel returns the log level from a string representation.
func ParseLevel(level string) (log.Level, error) {
	return log.ParseLevel(level)
}
