package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/travelfair/service-promo/internal/domain"
	codeDomain "github.com/travelfair/service-promo/internal/domain/code"
)

// CodeModel is the GORM model for the guaranteed_codes table.
type CodeModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Code      string    `gorm:"type:varchar(50);uniqueIndex;not null"`
	PromoID   uuid.UUID `gorm:"type:uuid;not null;index"`
	ValidFrom time.Time `gorm:"type:date;not null"`
	ValidTo   time.Time `gorm:"type:date;not null"`
	IsUsed    bool      `gorm:"not null;default:false"`
	UsedBy    string    `gorm:"type:varchar(255)"`
	UsedAt    *time.Time
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName sets the table name.
func (CodeModel) TableName() string { return "guaranteed_codes" }

// GormCodeRegistry implements code.Registry using GORM.
type GormCodeRegistry struct {
	db *gorm.DB
}

// NewGormCodeRegistry creates a new GormCodeRegistry.
func NewGormCodeRegistry(db *gorm.DB) *GormCodeRegistry {
	return &GormCodeRegistry{db: db}
}

// Save persists a new code.
func (r *GormCodeRegistry) Save(ctx context.Context, c *codeDomain.GuaranteedCode) error {
	model := toCodeModel(c)
	return r.db.WithContext(ctx).Create(&model).Error
}

// Update persists administrative edits, refusing them once the stored row is
// claimed. The guard runs under a row lock so an edit can never race a claim.
func (r *GormCodeRegistry) Update(ctx context.Context, c *codeDomain.GuaranteedCode) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current CodeModel
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", c.ID()).
			First(&current).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrCodeNotFound
			}
			return err
		}
		if current.IsUsed {
			return domain.ErrCodeImmutable
		}

		model := toCodeModel(c)
		return tx.Model(&CodeModel{}).
			Where("id = ?", model.ID).
			Select("Code", "PromoID", "ValidFrom", "ValidTo", "UpdatedAt").
			Updates(&model).Error
	})
}

// Delete removes an unclaimed code. Claimed codes are frozen in place as the
// audit record of their redemption.
func (r *GormCodeRegistry) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current CodeModel
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", id).
			First(&current).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrCodeNotFound
			}
			return err
		}
		if current.IsUsed {
			return domain.ErrCodeImmutable
		}
		return tx.Delete(&CodeModel{}, "id = ?", id).Error
	})
}

// FindByID returns a code by ID.
func (r *GormCodeRegistry) FindByID(ctx context.Context, id uuid.UUID) (*codeDomain.GuaranteedCode, error) {
	var model CodeModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrCodeNotFound
		}
		return nil, err
	}
	return toCodeDomain(&model), nil
}

// FindByCode returns a code by its normalized string.
func (r *GormCodeRegistry) FindByCode(ctx context.Context, normalized string) (*codeDomain.GuaranteedCode, error) {
	var model CodeModel
	if err := r.db.WithContext(ctx).Where("code = ?", normalized).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrCodeNotFound
		}
		return nil, err
	}
	return toCodeDomain(&model), nil
}

// FindByPromo returns all codes belonging to a promo.
func (r *GormCodeRegistry) FindByPromo(ctx context.Context, promoID uuid.UUID) ([]*codeDomain.GuaranteedCode, error) {
	var models []CodeModel
	if err := r.db.WithContext(ctx).Where("promo_id = ?", promoID).Order("created_at").Find(&models).Error; err != nil {
		return nil, err
	}
	codes := make([]*codeDomain.GuaranteedCode, len(models))
	for i := range models {
		codes[i] = toCodeDomain(&models[i])
	}
	return codes, nil
}

// Claim consumes the code inside a single transaction. The row lock
// serializes concurrent claimants: the first one flips is_used, every later
// one observes the flipped flag and fails with CodeAlreadyClaimed.
func (r *GormCodeRegistry) Claim(ctx context.Context, normalized, claimant string, now time.Time) (*codeDomain.GuaranteedCode, error) {
	var claimed *codeDomain.GuaranteedCode
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var model CodeModel
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("code = ?", normalized).
			First(&model).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrCodeNotFound
			}
			return err
		}

		c := toCodeDomain(&model)
		if err := c.Claim(claimant, now); err != nil {
			return err
		}

		updated := toCodeModel(c)
		if err := tx.Model(&CodeModel{}).
			Where("id = ?", updated.ID).
			Select("IsUsed", "UsedBy", "UsedAt", "UpdatedAt").
			Updates(&updated).Error; err != nil {
			return err
		}

		claimed = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return claimed, nil
}

// Unclaim reverts a claim during submission compensation. Idempotent: a code
// that is already unclaimed is left untouched.
func (r *GormCodeRegistry) Unclaim(ctx context.Context, normalized string) error {
	return r.db.WithContext(ctx).
		Model(&CodeModel{}).
		Where("code = ? AND is_used = ?", normalized, true).
		Updates(map[string]interface{}{
			"is_used":    false,
			"used_by":    "",
			"used_at":    nil,
			"updated_at": time.Now().UTC(),
		}).Error
}

func toCodeModel(c *codeDomain.GuaranteedCode) CodeModel {
	return CodeModel{
		ID:        c.ID(),
		Code:      c.Code(),
		PromoID:   c.PromoID(),
		ValidFrom: c.ValidFrom(),
		ValidTo:   c.ValidTo(),
		IsUsed:    c.IsUsed(),
		UsedBy:    c.UsedBy(),
		UsedAt:    c.UsedAt(),
		CreatedAt: c.CreatedAt(),
		UpdatedAt: c.UpdatedAt(),
	}
}

func toCodeDomain(m *CodeModel) *codeDomain.GuaranteedCode {
	return codeDomain.Reconstruct(
		m.ID, m.Code, m.PromoID,
		m.ValidFrom, m.ValidTo,
		m.IsUsed, m.UsedBy, m.UsedAt,
		m.CreatedAt, m.UpdatedAt,
	)
}
