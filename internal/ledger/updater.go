// Package ledger adds recognized audio usage to per-user accounting
// counters after a job completes.
package ledger

import (
	"context"
	"fmt"
	"math"

	"github.com/minutescript/MinScript-Backend/internal/config"
	"github.com/minutescript/MinScript-Backend/internal/docstore"
)

// Updater increments one user's usage counters. The read-modify-write is
// not atomic: two jobs for the same user finishing at once can lose an
// update. That race matches the deployed accounting behavior and stays
// as-is; cap enforcement happens before enqueue, so the counter is
// informational.
type Updater struct {
	docs docstore.Store
	mode string
}

// NewUpdater builds an updater for the configured accounting mode.
func NewUpdater(docs docstore.Store, mode string) *Updater {
	if mode == "" {
		mode = config.AccountingModeMinutes
	}
	return &Updater{docs: docs, mode: mode}
}

// Record adds one completed recording to the user's ledger. In minutes
// mode the whole-minute duration is added; the legacy recordings mode
// counts the recording itself.
func (u *Updater) Record(ctx context.Context, userID string, lengthSeconds float64) error {
	led, err := u.docs.GetLedger(ctx, userID)
	if err != nil {
		return fmt.Errorf("read ledger: %w", err)
	}

	switch u.mode {
	case config.AccountingModeRecordings:
		if err := u.docs.SetNumRecordings(ctx, userID, led.NumRecordings+1); err != nil {
			return fmt.Errorf("update recordings counter: %w", err)
		}
	default:
		minutes := int64(math.Floor(lengthSeconds / 60))
		if err := u.docs.SetUsedMinutes(ctx, userID, led.UsedMinutes+minutes); err != nil {
			return fmt.Errorf("update used minutes: %w", err)
		}
	}

	return nil
}
