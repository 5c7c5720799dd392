package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/travelfair/service-promo/internal/domain"
	bookingDomain "github.com/travelfair/service-promo/internal/domain/booking"
	promoDomain "github.com/travelfair/service-promo/internal/domain/promo"
)

// BookingModel is the GORM model for the bookings table.
type BookingModel struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey"`
	Number         string    `gorm:"type:varchar(20);uniqueIndex;not null"`
	BookedAt       time.Time `gorm:"not null;index"`
	AgentID        uuid.UUID `gorm:"type:uuid;not null;index"`
	AgentName      string    `gorm:"type:varchar(255);not null"`
	OperatorID     uuid.UUID `gorm:"type:uuid;not null"`
	OperatorName   string    `gorm:"type:varchar(255);not null"`
	CustomerName   string    `gorm:"type:varchar(255);not null"`
	CustomerPhone  string    `gorm:"type:varchar(50)"`
	CustomerEmail  string    `gorm:"type:varchar(255)"`
	TicketAmount   int64     `gorm:"not null"`
	PromoID        uuid.UUID `gorm:"type:uuid;not null;index"`
	PromoName      string    `gorm:"type:varchar(255);not null"`
	PromoKind      string    `gorm:"type:varchar(20);not null"`
	GuaranteedCode *string   `gorm:"type:varchar(50)"`
	CashbackAmount int64     `gorm:"not null"`
	Status         string    `gorm:"type:varchar(20);not null;index"`
	Notes          string    `gorm:"type:text"`
	VoidedAt       *time.Time
	CreatedAt      time.Time `gorm:"not null"`
	UpdatedAt      time.Time `gorm:"not null"`
}

// TableName sets the table name.
func (BookingModel) TableName() string { return "bookings" }

// GormBookingRepository implements booking.Repository using GORM.
type GormBookingRepository struct {
	db *gorm.DB
}

// NewGormBookingRepository creates a new GormBookingRepository.
func NewGormBookingRepository(db *gorm.DB) *GormBookingRepository {
	return &GormBookingRepository{db: db}
}

// SaveReserved inserts the booking and consumes one quota unit in a single
// transaction. The promo row lock serializes racing submissions, so the
// global check, the derived per-agent count and the insert are indivisible.
func (r *GormBookingRepository) SaveReserved(ctx context.Context, b *bookingDomain.Booking) error {
	model := toBookingModel(b)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var promoModel PromoModel
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", model.PromoID).
			First(&promoModel).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.NewNotFoundError("Promo", model.PromoID.String())
			}
			return err
		}

		if promoModel.QuotaUsed >= promoModel.QuotaTotal {
			return domain.ErrQuotaExhausted
		}

		if promoModel.QuotaPerAgent != nil {
			var used int64
			err := tx.Model(&BookingModel{}).
				Where("promo_id = ? AND agent_id = ? AND status = ?",
					model.PromoID, model.AgentID, string(bookingDomain.StatusConfirmed)).
				Count(&used).Error
			if err != nil {
				return err
			}
			if used >= int64(*promoModel.QuotaPerAgent) {
				return domain.ErrAgentQuotaExhausted
			}
		}

		err = tx.Model(&PromoModel{}).
			Where("id = ?", model.PromoID).
			UpdateColumn("quota_used", gorm.Expr("quota_used + 1")).Error
		if err != nil {
			return err
		}

		return tx.Create(&model).Error
	})
}

// MarkVoided flips the booking to voided and releases its quota unit in a
// single transaction. The status guard in the WHERE clause makes the
// transition race-free: of two concurrent voids only one row update lands,
// the other maps to ErrAlreadyVoided and releases nothing.
func (r *GormBookingRepository) MarkVoided(ctx context.Context, b *bookingDomain.Booking) error {
	model := toBookingModel(b)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&BookingModel{}).
			Where("id = ? AND status = ?", model.ID, string(bookingDomain.StatusConfirmed)).
			Select("Status", "VoidedAt", "Notes", "UpdatedAt").
			Updates(&model)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			var exists int64
			if err := tx.Model(&BookingModel{}).Where("id = ?", model.ID).Count(&exists).Error; err != nil {
				return err
			}
			if exists == 0 {
				return domain.NewNotFoundError("Booking", model.ID.String())
			}
			return domain.ErrAlreadyVoided
		}

		return tx.Model(&PromoModel{}).
			Where("id = ? AND quota_used > 0", model.PromoID).
			UpdateColumn("quota_used", gorm.Expr("quota_used - 1")).Error
	})
}

// FindByID returns a booking by ID.
func (r *GormBookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*bookingDomain.Booking, error) {
	var model BookingModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Booking", id.String())
		}
		return nil, err
	}
	return toBookingDomain(&model), nil
}

// List returns a filtered, paginated page of bookings, newest first.
func (r *GormBookingRepository) List(ctx context.Context, filter bookingDomain.Filter, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	query := r.applyFilter(r.db.WithContext(ctx).Model(&BookingModel{}), filter)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var models []BookingModel
	offset := (page - 1) * limit
	if err := query.Order("booked_at DESC").Offset(offset).Limit(limit).Find(&models).Error; err != nil {
		return nil, 0, err
	}

	bookings := make([]*bookingDomain.Booking, len(models))
	for i := range models {
		bookings[i] = toBookingDomain(&models[i])
	}
	return bookings, total, nil
}

// CountConfirmed derives the agent's consumption of a promo.
func (r *GormBookingRepository) CountConfirmed(ctx context.Context, promoID, agentID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&BookingModel{}).
		Where("promo_id = ? AND agent_id = ? AND status = ?", promoID, agentID, string(bookingDomain.StatusConfirmed)).
		Count(&count).Error
	return count, err
}

// CountConfirmedByAgent reports the agent's aggregate confirmed bookings.
func (r *GormBookingRepository) CountConfirmedByAgent(ctx context.Context, agentID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&BookingModel{}).
		Where("agent_id = ? AND status = ?", agentID, string(bookingDomain.StatusConfirmed)).
		Count(&count).Error
	return count, err
}

// GetStats aggregates confirmed totals plus the voided count for the
// dashboard, over the same filter the list endpoint accepts.
func (r *GormBookingRepository) GetStats(ctx context.Context, filter bookingDomain.Filter) (*bookingDomain.Stats, error) {
	type row struct {
		TotalBookings    int64
		TotalCashback    int64
		TotalTicketSales int64
	}

	base := filter
	base.Status = nil

	confirmed := string(bookingDomain.StatusConfirmed)
	var confirmedRow row
	err := r.applyFilter(r.db.WithContext(ctx).Model(&BookingModel{}), base).
		Where("status = ?", confirmed).
		Select("COUNT(*) AS total_bookings, COALESCE(SUM(cashback_amount), 0) AS total_cashback, COALESCE(SUM(ticket_amount), 0) AS total_ticket_sales").
		Scan(&confirmedRow).Error
	if err != nil {
		return nil, err
	}

	var voided int64
	err = r.applyFilter(r.db.WithContext(ctx).Model(&BookingModel{}), base).
		Where("status = ?", string(bookingDomain.StatusVoided)).
		Count(&voided).Error
	if err != nil {
		return nil, err
	}

	return &bookingDomain.Stats{
		TotalBookings:    confirmedRow.TotalBookings,
		TotalCashback:    confirmedRow.TotalCashback,
		TotalTicketSales: confirmedRow.TotalTicketSales,
		VoidedBookings:   voided,
	}, nil
}

func (r *GormBookingRepository) applyFilter(query *gorm.DB, filter bookingDomain.Filter) *gorm.DB {
	if filter.AgentID != nil {
		query = query.Where("agent_id = ?", *filter.AgentID)
	}
	if filter.PromoID != nil {
		query = query.Where("promo_id = ?", *filter.PromoID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", string(*filter.Status))
	}
	if filter.DateFrom != nil {
		query = query.Where("booked_at >= ?", *filter.DateFrom)
	}
	if filter.DateTo != nil {
		query = query.Where("booked_at <= ?", *filter.DateTo)
	}
	return query
}

func toBookingModel(b *bookingDomain.Booking) BookingModel {
	return BookingModel{
		ID:             b.ID(),
		Number:         b.Number(),
		BookedAt:       b.BookedAt(),
		AgentID:        b.AgentID(),
		AgentName:      b.AgentName(),
		OperatorID:     b.OperatorID(),
		OperatorName:   b.OperatorName(),
		CustomerName:   b.Customer().Name,
		CustomerPhone:  b.Customer().Phone,
		CustomerEmail:  b.Customer().Email,
		TicketAmount:   b.TicketAmount(),
		PromoID:        b.PromoID(),
		PromoName:      b.PromoName(),
		PromoKind:      string(b.PromoKind()),
		GuaranteedCode: b.GuaranteedCode(),
		CashbackAmount: b.CashbackAmount(),
		Status:         string(b.Status()),
		Notes:          b.Notes(),
		VoidedAt:       b.VoidedAt(),
		CreatedAt:      b.CreatedAt(),
		UpdatedAt:      b.UpdatedAt(),
	}
}

func toBookingDomain(m *BookingModel) *bookingDomain.Booking {
	return bookingDomain.Reconstruct(
		m.ID, m.Number, m.BookedAt,
		m.AgentID, m.AgentName,
		m.OperatorID, m.OperatorName,
		bookingDomain.Customer{Name: m.CustomerName, Phone: m.CustomerPhone, Email: m.CustomerEmail},
		m.TicketAmount,
		m.PromoID, m.PromoName, promoDomain.Kind(m.PromoKind),
		m.GuaranteedCode, m.CashbackAmount,
		bookingDomain.Status(m.Status), m.Notes, m.VoidedAt,
		m.CreatedAt, m.UpdatedAt,
	)
}
