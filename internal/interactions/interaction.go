// Package interactions implements the ingest pipeline: validation, per-IP
// rate limiting, the append-only interaction log and the monthly rollup
// counters derived from it.
package interactions

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"peyda/internal/pkg/geoip"
	"peyda/internal/settings"
)

// DBManager is the subset of the database manager the ingest pipeline needs.
type DBManager interface {
	GetConnection() *gorm.DB
	PerformWrite(fn func(tx *gorm.DB) error) error
}

// InteractionEvent is one recorded visitor action against a business profile.
// Rows are immutable facts: they are never updated or deleted by this
// pipeline, and double-submissions are stored as separate facts.
type InteractionEvent struct {
	ID         string          `gorm:"primaryKey;size:36"`
	BusinessID string          `gorm:"index:idx_interactions_business_time;not null"`
	Type       InteractionType `gorm:"index;not null"`
	OccurredAt time.Time       `gorm:"index:idx_interactions_business_time;index:idx_interactions_ip_time,priority:2;not null"`
	SourceIP   string          `gorm:"index:idx_interactions_ip_time,priority:1"`
	UserAgent  string
	Referrer   string
	Country    string `gorm:"index"`
	CreatedAt  time.Time
}

// TableName pins the append-only log to the interactions table.
func (InteractionEvent) TableName() string {
	return "interactions"
}

// RecordInput carries one raw ingest request plus its transport metadata.
type RecordInput struct {
	BusinessID string
	Type       string
	SourceIP   string
	UserAgent  string
	Referrer   string
}

// Validate checks the payload against the ingest contract. BusinessID and
// Type must be present, and Type must belong to the accepted set.
func (in *RecordInput) Validate() error {
	if in.BusinessID == "" {
		return &MissingFieldError{Field: "businessId"}
	}
	if in.Type == "" {
		return &MissingFieldError{Field: "type"}
	}
	if !IsValidType(in.Type) {
		return &InvalidTypeError{Type: in.Type}
	}
	return nil
}

// RecordInteraction runs the full ingest pipeline for one request: validate,
// check the per-IP rate limit, then append the event and bump the monthly
// counter in a single transaction. It returns the stored event, or nil when
// the request was deliberately skipped (excluded IP).
func RecordInteraction(dbm DBManager, logger *slog.Logger, input *RecordInput) (*InteractionEvent, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	db := dbm.GetConnection()

	excluded, err := settings.IsIPExcluded(db, input.SourceIP)
	if err != nil {
		logger.Error("Error checking IP exclusion", slog.Any("error", err))
	} else if excluded {
		logger.Debug("Skipping interaction for excluded IP", slog.String("ip", input.SourceIP))
		return nil, nil
	}

	now := time.Now().UTC()
	if err := checkRateLimit(db, input.SourceIP, now); err != nil {
		return nil, err
	}

	event := &InteractionEvent{
		ID:         uuid.NewString(),
		BusinessID: input.BusinessID,
		Type:       InteractionType(input.Type),
		OccurredAt: now,
		SourceIP:   input.SourceIP,
		UserAgent:  input.UserAgent,
		Referrer:   input.Referrer,
		Country:    geoip.GetCountryFromIP(input.SourceIP),
		CreatedAt:  now,
	}

	// One transaction for both writes: a counter must never move without its
	// backing event, and vice versa.
	err = dbm.PerformWrite(func(tx *gorm.DB) error {
		if err := tx.Create(event).Error; err != nil {
			return fmt.Errorf("failed to store interaction: %w", err)
		}
		return upsertMonthlyCounter(tx, event.BusinessID, event.Type, MonthStart(now))
	})
	if err != nil {
		logger.Error("Failed to record interaction",
			slog.String("businessId", input.BusinessID),
			slog.String("type", input.Type),
			slog.String("ip", input.SourceIP),
			slog.Any("error", err))
		return nil, err
	}

	return event, nil
}

// MonthStart normalizes a timestamp to the first day of its calendar month
// in UTC, the canonical key of a monthly rollup row.
func MonthStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}
