package interactions

import (
	"time"

	"gorm.io/gorm"
)

// Rate limiting bounds for a single source IP. The window slides: it is the
// trailing 60 seconds at admission time, not a calendar bucket.
const (
	RateLimitWindow       = 60 * time.Second
	RateLimitMaxPerWindow = 30
)

// CountRecentByIP counts interactions recorded for a source IP inside the
// trailing rate-limit window ending at now.
func CountRecentByIP(db *gorm.DB, sourceIP string, now time.Time) (int64, error) {
	var count int64
	err := db.Model(&InteractionEvent{}).
		Where("source_ip = ? AND occurred_at > ?", sourceIP, now.Add(-RateLimitWindow)).
		Count(&count).Error
	return count, err
}

// checkRateLimit admits or rejects a request for the given source IP.
// An empty IP means a trusted internal caller and is always admitted; for
// everyone else the request is rejected once the window already holds
// RateLimitMaxPerWindow events. The check and the later insert are not
// serialized against each other, so the limit is approximate under
// concurrency, which is acceptable for an abuse guard.
func checkRateLimit(db *gorm.DB, sourceIP string, now time.Time) error {
	if sourceIP == "" {
		return nil
	}

	count, err := CountRecentByIP(db, sourceIP, now)
	if err != nil {
		return err
	}
	if count >= RateLimitMaxPerWindow {
		return &RateLimitedError{SourceIP: sourceIP}
	}
	return nil
}
