package repository

import (
	"context"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/travelfair/service-promo/internal/domain"
	promoDomain "github.com/travelfair/service-promo/internal/domain/promo"
)

// TierList stores the cashback schedule as a JSONB column.
type TierList []promoDomain.CashbackTier

// Value implements driver.Valuer.
func (t TierList) Value() (driver.Value, error) {
	return json.Marshal(t)
}

// Scan implements sql.Scanner.
func (t *TierList) Scan(src interface{}) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, t)
	case string:
		return json.Unmarshal([]byte(v), t)
	case nil:
		*t = nil
		return nil
	default:
		return fmt.Errorf("unsupported tier list source type %T", src)
	}
}

// PromoModel is the GORM model for the promos table.
type PromoModel struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey"`
	EventID       uuid.UUID `gorm:"type:uuid;not null;index"`
	Name          string    `gorm:"type:varchar(255);not null"`
	Kind          string    `gorm:"type:varchar(20);not null"`
	Description   string    `gorm:"type:text"`
	QuotaTotal    int       `gorm:"not null"`
	QuotaUsed     int       `gorm:"not null;default:0"`
	QuotaPerAgent *int
	Tiers         TierList  `gorm:"type:jsonb;not null"`
	ValidFrom     time.Time `gorm:"type:date;not null"`
	ValidTo       time.Time `gorm:"type:date;not null"`
	IsActive      bool      `gorm:"not null;default:true"`
	CreatedAt     time.Time `gorm:"not null"`
	UpdatedAt     time.Time `gorm:"not null"`
}

// TableName sets the table name.
func (PromoModel) TableName() string { return "promos" }

// GormPromoRepository implements promo.Repository.
type GormPromoRepository struct {
	db *gorm.DB
}

// NewGormPromoRepository creates a new GormPromoRepository.
func NewGormPromoRepository(db *gorm.DB) *GormPromoRepository {
	return &GormPromoRepository{db: db}
}

// Save persists a new promo.
func (r *GormPromoRepository) Save(ctx context.Context, p *promoDomain.Promo) error {
	model := toPromoModel(p)
	return r.db.WithContext(ctx).Create(&model).Error
}

// Update persists schedule edits. The quota_used column is deliberately left
// out: only the booking repository's transactional operations move it.
func (r *GormPromoRepository) Update(ctx context.Context, p *promoDomain.Promo) error {
	model := toPromoModel(p)
	result := r.db.WithContext(ctx).
		Model(&PromoModel{}).
		Where("id = ?", model.ID).
		Select("Name", "Description", "QuotaTotal", "QuotaPerAgent", "Tiers", "ValidFrom", "ValidTo", "IsActive", "UpdatedAt").
		Updates(&model)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.NewNotFoundError("Promo", model.ID.String())
	}
	return nil
}

// FindByID returns a promo by ID.
func (r *GormPromoRepository) FindByID(ctx context.Context, id uuid.UUID) (*promoDomain.Promo, error) {
	var model PromoModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Promo", id.String())
		}
		return nil, err
	}
	return toPromoDomain(&model), nil
}

// FindByEvent returns all promos belonging to an event.
func (r *GormPromoRepository) FindByEvent(ctx context.Context, eventID uuid.UUID) ([]*promoDomain.Promo, error) {
	var models []PromoModel
	if err := r.db.WithContext(ctx).Where("event_id = ?", eventID).Order("created_at").Find(&models).Error; err != nil {
		return nil, err
	}
	return toPromoDomainSlice(models), nil
}

// FindActive returns all promos flagged active.
func (r *GormPromoRepository) FindActive(ctx context.Context) ([]*promoDomain.Promo, error) {
	var models []PromoModel
	if err := r.db.WithContext(ctx).Where("is_active = ?", true).Order("created_at").Find(&models).Error; err != nil {
		return nil, err
	}
	return toPromoDomainSlice(models), nil
}

// ListAll returns every promo.
func (r *GormPromoRepository) ListAll(ctx context.Context) ([]*promoDomain.Promo, error) {
	var models []PromoModel
	if err := r.db.WithContext(ctx).Order("created_at").Find(&models).Error; err != nil {
		return nil, err
	}
	return toPromoDomainSlice(models), nil
}

func toPromoModel(p *promoDomain.Promo) PromoModel {
	return PromoModel{
		ID:            p.ID(),
		EventID:       p.EventID(),
		Name:          p.Name(),
		Kind:          string(p.Kind()),
		Description:   p.Description(),
		QuotaTotal:    p.QuotaTotal(),
		QuotaUsed:     p.QuotaUsed(),
		QuotaPerAgent: p.QuotaPerAgent(),
		Tiers:         TierList(p.Tiers()),
		ValidFrom:     p.ValidFrom(),
		ValidTo:       p.ValidTo(),
		IsActive:      p.IsActive(),
		CreatedAt:     p.CreatedAt(),
		UpdatedAt:     p.UpdatedAt(),
	}
}

func toPromoDomain(m *PromoModel) *promoDomain.Promo {
	return promoDomain.Reconstruct(
		m.ID, m.EventID, m.Name, promoDomain.Kind(m.Kind), m.Description,
		m.QuotaTotal, m.QuotaUsed, m.QuotaPerAgent,
		[]promoDomain.CashbackTier(m.Tiers),
		m.ValidFrom, m.ValidTo, m.IsActive,
		m.CreatedAt, m.UpdatedAt,
	)
}

func toPromoDomainSlice(models []PromoModel) []*promoDomain.Promo {
	promos := make([]*promoDomain.Promo, len(models))
	for i := range models {
		promos[i] = toPromoDomain(&models[i])
	}
	return promos
}
