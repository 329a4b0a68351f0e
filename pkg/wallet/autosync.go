/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package wallet

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"
)

// startAutoSync schedules Sync of the active backend. Only one scheduler runs per store.
func (s *Store) startAutoSync() {
	if s.autoSync <= 0 {
		return
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.scheduler != nil {
		return
	}

	scheduler := gocron.NewScheduler(time.UTC)
	scheduler.SingletonModeAll()

	_, err := scheduler.Every(s.autoSync).WaitForSchedule().Do(s.syncJob)
	if err != nil {
		logger.Errorf("failed to schedule wallet auto-sync: %s", err)

		return
	}

	scheduler.StartAsync()
	s.scheduler = scheduler

	logger.Debugf("wallet auto-sync every %s", s.autoSync)
}

func (s *Store) syncJob() {
	ctx, cancel := context.WithTimeout(context.Background(), s.autoSync)
	defer cancel()

	if err := s.Sync(ctx); err != nil {
		logger.Warnf("wallet auto-sync failed: %s", err)
	}
}
