// Package seeder fills a development database with plausible businesses and
// a year of interaction history so dashboards have something to show.
package seeder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"peyda/internal/businesses"
	"peyda/internal/interactions"
	"peyda/internal/settings"
	"peyda/internal/users"
)

// DBManager is the subset of the database manager the seeder needs.
type DBManager interface {
	GetConnection() *gorm.DB
	PerformWrite(fn func(tx *gorm.DB) error) error
}

// Seeder generates demo data: a default admin, a small business catalog and
// twelve months of interactions with matching rollups.
type Seeder struct {
	DBManager DBManager
	Logger    *slog.Logger
	Months    int
}

// NewSeeder creates a new seeder instance.
func NewSeeder(dbManager DBManager, logger *slog.Logger, months int) *Seeder {
	if logger == nil {
		logger = slog.Default()
	}
	if months <= 0 {
		months = 12
	}
	return &Seeder{
		DBManager: dbManager,
		Logger:    logger,
		Months:    months,
	}
}

type businessSeed struct {
	name     string
	city     string
	province string
	status   string
}

var catalog = []businessSeed{
	{"Cafe Naderi", "Tehran", "Tehran", businesses.StatusApproved},
	{"Shiraz Kebab House", "Shiraz", "Fars", businesses.StatusApproved},
	{"Isfahan Carpet Gallery", "Isfahan", "Isfahan", businesses.StatusApproved},
	{"Tabriz Bazaar Sweets", "Tabriz", "East Azerbaijan", businesses.StatusApproved},
	{"Caspian Guesthouse", "Rasht", "Gilan", businesses.StatusApproved},
	{"Mashhad Auto Repair", "Mashhad", "Razavi Khorasan", businesses.StatusPending},
	{"Yazd Pottery Studio", "Yazd", "Yazd", businesses.StatusPending},
	{"Kerman Spice Shop", "Kerman", "Kerman", businesses.StatusRejected},
	{"Qom Bookstore", "Qom", "Qom", businesses.StatusDraft},
}

// Seed populates the database. Existing rows are reused, so running the
// seeder twice does not duplicate the catalog.
func (s *Seeder) Seed(ctx context.Context) error {
	start := time.Now()
	db := s.DBManager.GetConnection()

	if err := settings.SetupDefaultSettings(db); err != nil {
		return fmt.Errorf("failed to seed settings: %w", err)
	}

	if err := users.CreateAdminUser(s.DBManager, "admin@peyda.local", "password"); err != nil &&
		!errors.Is(err, users.ErrUserExists) {
		return fmt.Errorf("failed to seed admin user: %w", err)
	}

	for _, seed := range catalog {
		if err := ctx.Err(); err != nil {
			return err
		}

		business, err := s.ensureBusiness(db, seed)
		if err != nil {
			return err
		}
		if business.Status != businesses.StatusApproved {
			continue
		}
		if err := s.seedHistory(db, business); err != nil {
			return fmt.Errorf("failed to seed history for %s: %w", business.Slug, err)
		}
	}

	s.Logger.Info("Seeding completed",
		slog.Int("businesses", len(catalog)),
		slog.Int("months", s.Months),
		slog.Duration("elapsed", time.Since(start)))
	return nil
}

func (s *Seeder) ensureBusiness(db *gorm.DB, seed businessSeed) (*businesses.Business, error) {
	slug := slugify(seed.name)
	if existing, err := businesses.GetBusinessBySlug(db, slug); err == nil {
		return existing, nil
	}

	business := &businesses.Business{
		Name:     seed.name,
		Slug:     slug,
		City:     seed.city,
		Province: seed.province,
		Status:   seed.status,
	}
	if err := businesses.CreateBusiness(db, business); err != nil {
		return nil, fmt.Errorf("failed to create business %s: %w", slug, err)
	}
	s.Logger.Debug("Created business", slog.String("slug", slug))
	return business, nil
}

// seedHistory writes one rollup row per month plus a sample of raw events
// for the most recent month. Counters are random but internally consistent.
func (s *Seeder) seedHistory(db *gorm.DB, business *businesses.Business) error {
	var existing int64
	db.Model(&interactions.MonthlyAnalytics{}).
		Where("business_id = ?", business.ID).
		Count(&existing)
	if existing > 0 {
		return nil
	}

	now := time.Now().UTC()
	currentMonth := interactions.MonthStart(now)
	ipPool := generateIPPool(40)

	return s.DBManager.PerformWrite(func(tx *gorm.DB) error {
		for i := s.Months - 1; i >= 0; i-- {
			month := currentMonth.AddDate(0, -i, 0)
			row := interactions.MonthlyAnalytics{
				BusinessID:       business.ID,
				MonthStart:       month,
				ProfileViews:     30 + rand.IntN(400),
				PhoneClicks:      rand.IntN(40),
				WhatsappClicks:   rand.IntN(30),
				WebsiteClicks:    rand.IntN(25),
				DirectionsClicks: rand.IntN(20),
				EmailClicks:      rand.IntN(10),
				BookingClicks:    rand.IntN(15),
				CreatedAt:        month,
				UpdatedAt:        month,
			}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}

			if i == 0 {
				if err := s.seedRawEvents(tx, business, month, row, ipPool); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

func (s *Seeder) seedRawEvents(tx *gorm.DB, business *businesses.Business, month time.Time, row interactions.MonthlyAnalytics, ipPool []string) error {
	counts := map[interactions.InteractionType]int{
		interactions.TypeView:            row.ProfileViews,
		interactions.TypePhoneClick:      row.PhoneClicks,
		interactions.TypeWhatsappClick:   row.WhatsappClicks,
		interactions.TypeWebsiteClick:    row.WebsiteClicks,
		interactions.TypeDirectionsClick: row.DirectionsClicks,
		interactions.TypeEmailClick:      row.EmailClicks,
		interactions.TypeBookingClick:    row.BookingClicks,
	}

	userAgents := sampleUserAgents()
	for interactionType, count := range counts {
		for n := 0; n < count; n++ {
			occurredAt := month.Add(time.Duration(rand.IntN(28*24)) * time.Hour)
			event := interactions.InteractionEvent{
				ID:         uuid.NewString(),
				BusinessID: business.ID,
				Type:       interactionType,
				OccurredAt: occurredAt,
				SourceIP:   ipPool[rand.IntN(len(ipPool))],
				UserAgent:  userAgents[rand.IntN(len(userAgents))],
				Referrer:   "https://peyda.example/" + business.Slug,
				Country:    "ir",
				CreatedAt:  occurredAt,
			}
			if err := tx.Create(&event).Error; err != nil {
				return err
			}
		}
	}
	return nil
}

func generateIPPool(size int) []string {
	pool := make([]string, 0, size)
	for i := 0; i < size; i++ {
		pool = append(pool, fmt.Sprintf("5.%d.%d.%d",
			rand.IntN(200)+1, rand.IntN(255), rand.IntN(254)+1))
	}
	return pool
}

func sampleUserAgents() []string {
	return []string{
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0 Safari/537.36",
		"Mozilla/5.0 (iPhone; CPU iPhone OS 17_5 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.5 Mobile/15E148 Safari/604.1",
		"Mozilla/5.0 (Linux; Android 14; SM-A546B) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/125.0 Mobile Safari/537.36",
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Safari/605.1.15",
	}
}

func slugify(name string) string {
	slug := make([]rune, 0, len(name))
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			slug = append(slug, r)
		case r >= 'A' && r <= 'Z':
			slug = append(slug, r+('a'-'A'))
		case r == ' ', r == '-', r == '_':
			slug = append(slug, '-')
		}
	}
	return string(slug)
}
