// Package settings stores small runtime-tunable values in the database,
// currently the list of IPs excluded from tracking.
package settings

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"gorm.io/gorm"
)

// Setting represents a configuration item in the database
type Setting struct {
	ID        uint      `gorm:"primaryKey"`
	Key       string    `gorm:"uniqueIndex;not null"`
	Value     string    `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime:milli"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime:milli"`
}

const excludedIPsKey = "excluded_ips"

// Excluded IPs sit on the hot ingest path, so they are cached in-process and
// refreshed whenever the setting is written through this package.
var (
	excludedMu     sync.RWMutex
	excludedIPs    []string
	excludedLoaded bool
)

// SetupDefaultSettings seeds missing settings rows without touching existing
// values.
func SetupDefaultSettings(db *gorm.DB) error {
	defaults := []Setting{
		{Key: excludedIPsKey, Value: ""},
	}
	for _, setting := range defaults {
		err := db.Exec(`
			INSERT INTO settings (key, value, created_at, updated_at)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(key) DO NOTHING
		`, setting.Key, setting.Value, time.Now().UTC(), time.Now().UTC()).Error
		if err != nil {
			return fmt.Errorf("failed to seed setting %s: %w", setting.Key, err)
		}
	}
	return nil
}

// GetSetting retrieves a setting value from the database
func GetSetting(db *gorm.DB, key string) (string, error) {
	var setting Setting
	if err := db.Where("key = ?", key).First(&setting).Error; err != nil {
		return "", err
	}
	return setting.Value, nil
}

// UpdateSetting upserts a setting value.
func UpdateSetting(db *gorm.DB, key, value string) error {
	err := db.Exec(`
		INSERT INTO settings (key, value, created_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = ?, updated_at = ?
	`, key, value, time.Now().UTC(), time.Now().UTC(), value, time.Now().UTC()).Error
	if err != nil {
		return fmt.Errorf("failed to update setting %s: %w", key, err)
	}
	return nil
}

// GetExcludedIPs returns the cached exclusion list, loading it on first use.
func GetExcludedIPs(db *gorm.DB) ([]string, error) {
	excludedMu.RLock()
	if excludedLoaded {
		ips := excludedIPs
		excludedMu.RUnlock()
		return ips, nil
	}
	excludedMu.RUnlock()

	return reloadExcludedIPs(db)
}

// UpdateExcludedIPs persists the exclusion list (comma separated) and
// refreshes the cache.
func UpdateExcludedIPs(db *gorm.DB, ips []string) error {
	cleaned := make([]string, 0, len(ips))
	for _, ip := range ips {
		if trimmed := strings.TrimSpace(ip); trimmed != "" {
			cleaned = append(cleaned, trimmed)
		}
	}

	if err := UpdateSetting(db, excludedIPsKey, strings.Join(cleaned, ",")); err != nil {
		return err
	}

	excludedMu.Lock()
	excludedIPs = cleaned
	excludedLoaded = true
	excludedMu.Unlock()
	return nil
}

// IsIPExcluded reports whether tracking is disabled for the given IP.
func IsIPExcluded(db *gorm.DB, ip string) (bool, error) {
	if ip == "" {
		return false, nil
	}

	ips, err := GetExcludedIPs(db)
	if err != nil {
		return false, err
	}
	for _, excluded := range ips {
		if excluded == ip {
			return true, nil
		}
	}
	return false, nil
}

// ResetCache drops the in-process exclusion cache; intended for tests.
func ResetCache() {
	excludedMu.Lock()
	excludedIPs = nil
	excludedLoaded = false
	excludedMu.Unlock()
}

func reloadExcludedIPs(db *gorm.DB) ([]string, error) {
	value, err := GetSetting(db, excludedIPsKey)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			value = ""
		} else {
			return nil, fmt.Errorf("failed to load excluded IPs: %w", err)
		}
	}

	var ips []string
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			ips = append(ips, trimmed)
		}
	}

	excludedMu.Lock()
	excludedIPs = ips
	excludedLoaded = true
	excludedMu.Unlock()
	return ips, nil
}
