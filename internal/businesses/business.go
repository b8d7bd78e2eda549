// Package businesses holds the minimal business catalog the analytics
// pipeline joins against. Full listing management lives in the directory
// application; this service only needs identity, name and moderation status.
package businesses

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Moderation statuses for a business listing.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
	StatusDraft    = "draft"
)

// BusinessNotFoundError is returned when a business id cannot be resolved.
type BusinessNotFoundError struct {
	ID string
}

func (e *BusinessNotFoundError) Error() string {
	return fmt.Sprintf("business not found: %s", e.ID)
}

// NewBusinessNotFoundError creates a new BusinessNotFoundError
func NewBusinessNotFoundError(id string) *BusinessNotFoundError {
	return &BusinessNotFoundError{ID: id}
}

// Business represents a directory listing tracked by this service.
type Business struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	Name      string    `gorm:"not null" json:"name"`
	Slug      string    `gorm:"uniqueIndex;not null" json:"slug"`
	City      string    `gorm:"index" json:"city"`
	Province  string    `gorm:"index" json:"province"`
	Status    string    `gorm:"index;not null;default:'pending'" json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateBusiness inserts a new business, assigning a fresh id when absent.
func CreateBusiness(db *gorm.DB, business *Business) error {
	if business.ID == "" {
		business.ID = uuid.NewString()
	}
	if business.Status == "" {
		business.Status = StatusPending
	}
	business.CreatedAt = time.Now().UTC()
	return db.Create(business).Error
}

// GetBusinessByID retrieves a business by id, returning BusinessNotFoundError
// when no row exists.
func GetBusinessByID(db *gorm.DB, id string) (*Business, error) {
	var business Business
	if err := db.Where("id = ?", id).First(&business).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, NewBusinessNotFoundError(id)
		}
		return nil, fmt.Errorf("unexpected error querying business: %w", err)
	}
	return &business, nil
}

// GetBusinessBySlug retrieves a business by its URL slug.
func GetBusinessBySlug(db *gorm.DB, slug string) (*Business, error) {
	var business Business
	if err := db.Where("slug = ?", slug).First(&business).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, NewBusinessNotFoundError(slug)
		}
		return nil, fmt.Errorf("unexpected error querying business: %w", err)
	}
	return &business, nil
}

// GetAllBusinesses retrieves every business in the catalog.
func GetAllBusinesses(db *gorm.DB) ([]Business, error) {
	var result []Business
	if err := db.Find(&result).Error; err != nil {
		return nil, fmt.Errorf("failed to get businesses: %w", err)
	}
	return result, nil
}

// StatusCounts holds the number of businesses per moderation status.
type StatusCounts struct {
	Pending  int64 `json:"pending"`
	Approved int64 `json:"approved"`
	Rejected int64 `json:"rejected"`
	Draft    int64 `json:"draft"`
	Total    int64 `json:"total"`
}

// CountByStatus groups the catalog by moderation status.
func CountByStatus(db *gorm.DB) (StatusCounts, error) {
	var rows []struct {
		Status string
		Count  int64
	}
	err := db.Model(&Business{}).
		Select("status, COUNT(*) as count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return StatusCounts{}, fmt.Errorf("failed to count businesses by status: %w", err)
	}

	var counts StatusCounts
	for _, row := range rows {
		switch row.Status {
		case StatusPending:
			counts.Pending = row.Count
		case StatusApproved:
			counts.Approved = row.Count
		case StatusRejected:
			counts.Rejected = row.Count
		case StatusDraft:
			counts.Draft = row.Count
		}
		counts.Total += row.Count
	}
	return counts, nil
}
