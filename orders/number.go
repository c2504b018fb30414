package orders

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/retailops/procurement/models"
)

const numberSeqWidth = 3

// FormatOrderNumber renders the PO-{YYYY}{MM}-{NNN} order number.
func FormatOrderNumber(at time.Time, seq int) string {
	return fmt.Sprintf("PO-%s-%0*d", at.Format("200601"), numberSeqWidth, seq)
}

// monthPrefix returns the shared prefix of every order number in the calendar
// month of at, e.g. "PO-202403-".
func monthPrefix(at time.Time) string {
	return fmt.Sprintf("PO-%s-", at.Format("200601"))
}

// nextOrderNumber scans for the greatest existing number in the month of at
// and returns the next one, starting at 001 for a fresh month. Soft-deleted
// orders count: a number is never reused regardless of deletion state.
//
// This is a read-then-write scheme with no lock. Two concurrent creates can
// both observe the same latest number; the unique index on order_number is
// the backstop, and Create retries generation once on a duplicate-key error.
func (s *Service) nextOrderNumber(at time.Time) (string, error) {
	prefix := monthPrefix(at)

	var latest []string
	err := s.db.Model(&models.PurchaseOrder{}).
		Where("order_number LIKE ?", prefix+"%").
		Order("order_number DESC").
		Limit(1).
		Pluck("order_number", &latest).Error
	if err != nil {
		return "", internal("failed to scan order numbers", err)
	}

	seq := 1
	if len(latest) > 0 {
		tail := strings.TrimPrefix(latest[0], prefix)
		if n, err := strconv.Atoi(tail); err == nil {
			seq = n + 1
		}
	}
	return FormatOrderNumber(at, seq), nil
}
