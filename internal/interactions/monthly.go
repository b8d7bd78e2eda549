package interactions

import (
	"time"

	"gorm.io/gorm"
)

// MonthlyAnalytics is the pre-aggregated rollup row for one business and one
// calendar month. At most one row exists per (business_id, month_start);
// counters only ever grow within a month. Dashboards read these rows instead
// of scanning the interaction log.
type MonthlyAnalytics struct {
	ID         uint      `gorm:"primaryKey;autoIncrement" json:"-"`
	BusinessID string    `gorm:"uniqueIndex:idx_monthly_business_month;size:36;not null" json:"business_id"`
	MonthStart time.Time `gorm:"uniqueIndex:idx_monthly_business_month;not null" json:"month_start"`

	ProfileViews     int `gorm:"not null;default:0" json:"profile_views"`
	PhoneClicks      int `gorm:"not null;default:0" json:"phone_clicks"`
	WhatsappClicks   int `gorm:"not null;default:0" json:"whatsapp_clicks"`
	WebsiteClicks    int `gorm:"not null;default:0" json:"website_clicks"`
	DirectionsClicks int `gorm:"not null;default:0" json:"directions_clicks"`
	EmailClicks      int `gorm:"not null;default:0" json:"email_clicks"`
	BookingClicks    int `gorm:"not null;default:0" json:"booking_clicks"`

	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

// TableName pins the rollup to the monthly_analytics table.
func (MonthlyAnalytics) TableName() string {
	return "monthly_analytics"
}

// TotalClicks sums every click counter. Profile views are not clicks and are
// excluded; whatsapp_clicks is included on the read side even though the
// ingest mapping never writes it.
func (m *MonthlyAnalytics) TotalClicks() int {
	return m.PhoneClicks + m.WhatsappClicks + m.WebsiteClicks +
		m.DirectionsClicks + m.EmailClicks + m.BookingClicks
}

// GetMonthlyRowsSince returns a business's rollup rows with month_start at or
// after from, oldest first.
func GetMonthlyRowsSince(db *gorm.DB, businessID string, from time.Time) ([]MonthlyAnalytics, error) {
	var rows []MonthlyAnalytics
	err := db.Where("business_id = ? AND month_start >= ?", businessID, from).
		Order("month_start ASC").
		Find(&rows).Error
	return rows, err
}
