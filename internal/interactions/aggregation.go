package interactions

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// upsertMonthlyCounter bumps the monthly counter for one accepted event.
// The increment-or-insert is a single statement so concurrent requests for
// the same (business, month) can never lose updates; an application-level
// read-modify-write here would race.
//
// Types without a mapped column (whatsapp_click) leave the rollup untouched;
// the raw event is still in the log.
func upsertMonthlyCounter(tx *gorm.DB, businessID string, t InteractionType, month time.Time) error {
	column, ok := counterColumn(t)
	if !ok {
		return nil
	}

	now := time.Now().UTC()
	// column comes from the closed mapping in types.go, never from input.
	query := fmt.Sprintf(`
		INSERT INTO monthly_analytics (business_id, month_start, %[1]s, created_at, updated_at)
		VALUES (?, ?, 1, ?, ?)
		ON CONFLICT (business_id, month_start) DO UPDATE SET
			%[1]s = monthly_analytics.%[1]s + 1,
			updated_at = ?
	`, column)

	if err := tx.Exec(query, businessID, month, now, now, now).Error; err != nil {
		return fmt.Errorf("failed to update monthly analytics: %w", err)
	}
	return nil
}
