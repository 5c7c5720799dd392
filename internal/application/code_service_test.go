package application

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/travelfair/service-promo/internal/domain"
	"github.com/travelfair/service-promo/internal/domain/promo"
)

func TestCreateCodes(t *testing.T) {
	s := newTestStack(t)
	p := s.seedPromo(t, promo.KindGuaranteedCode, 10, nil)

	dtos, err := s.codeSvc.CreateCodes(context.Background(), CreateCodeRequest{
		PromoID:   p.ID(),
		Codes:     []string{"vip-001", " vip-002 ", "VIP-003"},
		ValidFrom: time.Now(),
		ValidTo:   time.Now().AddDate(0, 0, 3),
	})
	require.NoError(t, err)
	require.Len(t, dtos, 3)
	assert.Equal(t, "VIP-001", dtos[0].Code)
	assert.Equal(t, "VIP-002", dtos[1].Code)
}

func TestCreateCodes_RegularPromoRejected(t *testing.T) {
	s := newTestStack(t)
	p := s.seedPromo(t, promo.KindRegular, 10, nil)

	_, err := s.codeSvc.CreateCodes(context.Background(), CreateCodeRequest{
		PromoID:   p.ID(),
		Codes:     []string{"vip-001"},
		ValidFrom: time.Now(),
		ValidTo:   time.Now().AddDate(0, 0, 3),
	})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestValidateCode(t *testing.T) {
	s := newTestStack(t)
	a := s.seedAgent(t)
	p := s.seedPromo(t, promo.KindGuaranteedCode, 10, nil)
	s.seedCode(t, "VIP-001", p.ID())
	ctx := context.Background()

	dto, err := s.codeSvc.ValidateCode(ctx, p.ID(), " vip-001 ")
	require.NoError(t, err)
	assert.True(t, dto.Valid)
	assert.Equal(t, "VIP-001", dto.Code)

	// Unknown code and a code under another promo both read as not found.
	dto, err = s.codeSvc.ValidateCode(ctx, p.ID(), "VIP-999")
	require.NoError(t, err)
	assert.False(t, dto.Valid)

	dto, err = s.codeSvc.ValidateCode(ctx, uuid.New(), "VIP-001")
	require.NoError(t, err)
	assert.False(t, dto.Valid)

	// Validation never consumes: the code still redeems afterwards.
	raw := "VIP-001"
	_, err = s.bookingSvc.SubmitBooking(ctx, a.ID(), uuid.New(), "Siti", submitReq(p.ID(), 5_500_000, &raw))
	require.NoError(t, err)

	dto, err = s.codeSvc.ValidateCode(ctx, p.ID(), "VIP-001")
	require.NoError(t, err)
	assert.False(t, dto.Valid)
	assert.Equal(t, "code has already been used", dto.Message)
}

func TestValidateCode_OutOfWindow(t *testing.T) {
	s := newTestStack(t)
	p := s.seedPromo(t, promo.KindGuaranteedCode, 10, nil)
	c, err := s.codeSvc.CreateCodes(context.Background(), CreateCodeRequest{
		PromoID:   p.ID(),
		Codes:     []string{"EXPIRED-01"},
		ValidFrom: time.Now().AddDate(0, 0, -10),
		ValidTo:   time.Now().AddDate(0, 0, -5),
	})
	require.NoError(t, err)
	require.Len(t, c, 1)

	dto, err := s.codeSvc.ValidateCode(context.Background(), p.ID(), "EXPIRED-01")
	require.NoError(t, err)
	assert.False(t, dto.Valid)
	assert.Equal(t, "code is outside its validity window", dto.Message)
}

func TestUpdateCode_ClaimedIsImmutable(t *testing.T) {
	s := newTestStack(t)
	a := s.seedAgent(t)
	p := s.seedPromo(t, promo.KindGuaranteedCode, 10, nil)
	c := s.seedCode(t, "VIP-001", p.ID())
	ctx := context.Background()

	raw := "VIP-001"
	_, err := s.bookingSvc.SubmitBooking(ctx, a.ID(), uuid.New(), "Siti", submitReq(p.ID(), 5_500_000, &raw))
	require.NoError(t, err)

	_, err = s.codeSvc.UpdateCode(ctx, c.ID(), UpdateCodeRequest{
		ValidFrom: time.Now(),
		ValidTo:   time.Now().AddDate(0, 0, 10),
	})
	assert.ErrorIs(t, err, domain.ErrCodeImmutable)

	err = s.codeSvc.DeleteCode(ctx, c.ID())
	assert.ErrorIs(t, err, domain.ErrCodeImmutable)
}

func TestDeleteCode_Unclaimed(t *testing.T) {
	s := newTestStack(t)
	p := s.seedPromo(t, promo.KindGuaranteedCode, 10, nil)
	c := s.seedCode(t, "VIP-001", p.ID())

	require.NoError(t, s.codeSvc.DeleteCode(context.Background(), c.ID()))

	dtos, err := s.codeSvc.ListCodesByPromo(context.Background(), p.ID())
	require.NoError(t, err)
	assert.Empty(t, dtos)
}
