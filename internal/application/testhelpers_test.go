package application

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/travelfair/service-promo/internal/domain"
	"github.com/travelfair/service-promo/internal/domain/agent"
	"github.com/travelfair/service-promo/internal/domain/booking"
	"github.com/travelfair/service-promo/internal/domain/code"
	"github.com/travelfair/service-promo/internal/domain/event"
	"github.com/travelfair/service-promo/internal/domain/promo"
)

// memPromoRepo is an in-memory promo.Repository. The quota counters live here
// but only memBookingRepo's transactional operations move them, mirroring the
// real store's ownership.
type memPromoRepo struct {
	mu       sync.Mutex
	promos   map[uuid.UUID]*promo.Promo
	used     map[uuid.UUID]int
	reserves int
	releases int
}

func newMemPromoRepo() *memPromoRepo {
	return &memPromoRepo{
		promos: make(map[uuid.UUID]*promo.Promo),
		used:   make(map[uuid.UUID]int),
	}
}

func (r *memPromoRepo) Save(ctx context.Context, p *promo.Promo) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.promos[p.ID()] = p
	r.used[p.ID()] = p.QuotaUsed()
	return nil
}

func (r *memPromoRepo) Update(ctx context.Context, p *promo.Promo) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.promos[p.ID()]; !ok {
		return domain.NewNotFoundError("Promo", p.ID().String())
	}
	r.promos[p.ID()] = p
	return nil
}

func (r *memPromoRepo) FindByID(ctx context.Context, id uuid.UUID) (*promo.Promo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.promos[id]
	if !ok {
		return nil, domain.NewNotFoundError("Promo", id.String())
	}
	return r.snapshot(p), nil
}

// snapshot rebuilds the promo with the live consumption counter, the way a
// fresh read from the store would.
func (r *memPromoRepo) snapshot(p *promo.Promo) *promo.Promo {
	return promo.Reconstruct(p.ID(), p.EventID(), p.Name(), p.Kind(), p.Description(),
		p.QuotaTotal(), r.used[p.ID()], p.QuotaPerAgent(), p.Tiers(),
		p.ValidFrom(), p.ValidTo(), p.IsActive(), p.CreatedAt(), p.UpdatedAt())
}

func (r *memPromoRepo) FindByEvent(ctx context.Context, eventID uuid.UUID) ([]*promo.Promo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*promo.Promo
	for _, p := range r.promos {
		if p.EventID() == eventID {
			out = append(out, r.snapshot(p))
		}
	}
	return out, nil
}

func (r *memPromoRepo) FindActive(ctx context.Context) ([]*promo.Promo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*promo.Promo
	for _, p := range r.promos {
		if p.IsActive() {
			out = append(out, r.snapshot(p))
		}
	}
	return out, nil
}

func (r *memPromoRepo) ListAll(ctx context.Context) ([]*promo.Promo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*promo.Promo, 0, len(r.promos))
	for _, p := range r.promos {
		out = append(out, r.snapshot(p))
	}
	return out, nil
}

func (r *memPromoRepo) quotaUsed(promoID uuid.UUID) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.used[promoID]
}

// memCodeRegistry is an in-memory code.Registry keyed by normalized code.
type memCodeRegistry struct {
	mu          sync.Mutex
	codes       map[string]*code.GuaranteedCode
	failUnclaim error
}

func newMemCodeRegistry() *memCodeRegistry {
	return &memCodeRegistry{codes: make(map[string]*code.GuaranteedCode)}
}

func (r *memCodeRegistry) Save(ctx context.Context, c *code.GuaranteedCode) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.codes[c.Code()]; ok {
		return domain.NewConflictError("code already exists: " + c.Code())
	}
	r.codes[c.Code()] = c
	return nil
}

func (r *memCodeRegistry) Update(ctx context.Context, c *code.GuaranteedCode) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.codes[c.Code()]
	if !ok {
		return domain.ErrCodeNotFound
	}
	if existing.IsUsed() {
		return domain.ErrCodeImmutable
	}
	r.codes[c.Code()] = c
	return nil
}

func (r *memCodeRegistry) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for k, c := range r.codes {
		if c.ID() == id {
			if c.IsUsed() {
				return domain.ErrCodeImmutable
			}
			delete(r.codes, k)
			return nil
		}
	}
	return domain.ErrCodeNotFound
}

func (r *memCodeRegistry) FindByID(ctx context.Context, id uuid.UUID) (*code.GuaranteedCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.codes {
		if c.ID() == id {
			return c, nil
		}
	}
	return nil, domain.ErrCodeNotFound
}

func (r *memCodeRegistry) FindByCode(ctx context.Context, normalized string) (*code.GuaranteedCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.codes[normalized]
	if !ok {
		return nil, domain.ErrCodeNotFound
	}
	return c, nil
}

func (r *memCodeRegistry) FindByPromo(ctx context.Context, promoID uuid.UUID) ([]*code.GuaranteedCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*code.GuaranteedCode
	for _, c := range r.codes {
		if c.PromoID() == promoID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *memCodeRegistry) Claim(ctx context.Context, normalized, claimant string, now time.Time) (*code.GuaranteedCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.codes[normalized]
	if !ok {
		return nil, domain.ErrCodeNotFound
	}
	if err := c.Claim(claimant, now); err != nil {
		return nil, err
	}
	return c, nil
}

func (r *memCodeRegistry) Unclaim(ctx context.Context, normalized string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failUnclaim != nil {
		return r.failUnclaim
	}
	if c, ok := r.codes[normalized]; ok && c.IsUsed() {
		c.Unclaim()
	}
	return nil
}

// memAgentRepo is an in-memory agent.Repository.
type memAgentRepo struct {
	mu     sync.Mutex
	agents map[uuid.UUID]*agent.Agent
}

func newMemAgentRepo() *memAgentRepo {
	return &memAgentRepo{agents: make(map[uuid.UUID]*agent.Agent)}
}

func (r *memAgentRepo) Save(ctx context.Context, a *agent.Agent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.agents[a.ID()] = a
	return nil
}

func (r *memAgentRepo) Update(ctx context.Context, a *agent.Agent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.agents[a.ID()]; !ok {
		return domain.NewNotFoundError("Agent", a.ID().String())
	}
	r.agents[a.ID()] = a
	return nil
}

func (r *memAgentRepo) FindByID(ctx context.Context, id uuid.UUID) (*agent.Agent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.agents[id]
	if !ok {
		return nil, domain.NewNotFoundError("Agent", id.String())
	}
	return a, nil
}

func (r *memAgentRepo) ListAll(ctx context.Context) ([]*agent.Agent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*agent.Agent, 0, len(r.agents))
	for _, a := range r.agents {
		out = append(out, a)
	}
	return out, nil
}

// memBookingRepo is an in-memory booking.Repository with the same atomicity
// contract as the real store: SaveReserved and MarkVoided couple the booking
// write and the quota counter move under one lock (promos first, then
// bookings), so racing callers see a single winner. Reads hand out rebuilt
// aggregates the way a fresh store read would.
type memBookingRepo struct {
	mu       sync.Mutex
	bookings map[uuid.UUID]*booking.Booking
	promos   *memPromoRepo
	failSave error
	onFind   func()
}

func newMemBookingRepo() *memBookingRepo {
	return &memBookingRepo{bookings: make(map[uuid.UUID]*booking.Booking)}
}

func cloneBooking(b *booking.Booking) *booking.Booking {
	return booking.Reconstruct(b.ID(), b.Number(), b.BookedAt(),
		b.AgentID(), b.AgentName(), b.OperatorID(), b.OperatorName(),
		b.Customer(), b.TicketAmount(),
		b.PromoID(), b.PromoName(), b.PromoKind(),
		b.GuaranteedCode(), b.CashbackAmount(),
		b.Status(), b.Notes(), b.VoidedAt(), b.CreatedAt(), b.UpdatedAt())
}

func (r *memBookingRepo) SaveReserved(ctx context.Context, b *booking.Booking) error {
	r.promos.mu.Lock()
	defer r.promos.mu.Unlock()
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failSave != nil {
		return r.failSave
	}
	p, ok := r.promos.promos[b.PromoID()]
	if !ok {
		return domain.NewNotFoundError("Promo", b.PromoID().String())
	}
	if r.promos.used[p.ID()] >= p.QuotaTotal() {
		return domain.ErrQuotaExhausted
	}
	if perAgent := p.QuotaPerAgent(); perAgent != nil {
		var confirmed int
		for _, existing := range r.bookings {
			if existing.PromoID() == p.ID() && existing.AgentID() == b.AgentID() && existing.Status() == booking.StatusConfirmed {
				confirmed++
			}
		}
		if confirmed >= *perAgent {
			return domain.ErrAgentQuotaExhausted
		}
	}
	r.promos.used[p.ID()]++
	r.promos.reserves++
	r.bookings[b.ID()] = cloneBooking(b)
	return nil
}

func (r *memBookingRepo) MarkVoided(ctx context.Context, b *booking.Booking) error {
	r.promos.mu.Lock()
	defer r.promos.mu.Unlock()
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.bookings[b.ID()]
	if !ok {
		return domain.NewNotFoundError("Booking", b.ID().String())
	}
	if stored.Status() != booking.StatusConfirmed {
		return domain.ErrAlreadyVoided
	}
	r.bookings[b.ID()] = cloneBooking(b)
	if r.promos.used[b.PromoID()] > 0 {
		r.promos.used[b.PromoID()]--
		r.promos.releases++
	}
	return nil
}

func (r *memBookingRepo) FindByID(ctx context.Context, id uuid.UUID) (*booking.Booking, error) {
	r.mu.Lock()
	b, ok := r.bookings[id]
	r.mu.Unlock()
	if !ok {
		return nil, domain.NewNotFoundError("Booking", id.String())
	}
	if r.onFind != nil {
		r.onFind()
	}
	return cloneBooking(b), nil
}

func (r *memBookingRepo) List(ctx context.Context, filter booking.Filter, page, limit int) ([]*booking.Booking, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var matched []*booking.Booking
	for _, b := range r.bookings {
		if matches(b, filter) {
			matched = append(matched, b)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].BookedAt().After(matched[j].BookedAt()) })

	total := int64(len(matched))
	start := (page - 1) * limit
	if start >= len(matched) {
		return nil, total, nil
	}
	end := start + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func matches(b *booking.Booking, f booking.Filter) bool {
	if f.AgentID != nil && b.AgentID() != *f.AgentID {
		return false
	}
	if f.PromoID != nil && b.PromoID() != *f.PromoID {
		return false
	}
	if f.Status != nil && b.Status() != *f.Status {
		return false
	}
	if f.DateFrom != nil && b.BookedAt().Before(*f.DateFrom) {
		return false
	}
	if f.DateTo != nil && b.BookedAt().After(*f.DateTo) {
		return false
	}
	return true
}

func (r *memBookingRepo) CountConfirmed(ctx context.Context, promoID, agentID uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, b := range r.bookings {
		if b.PromoID() == promoID && b.AgentID() == agentID && b.Status() == booking.StatusConfirmed {
			n++
		}
	}
	return n, nil
}

func (r *memBookingRepo) CountConfirmedByAgent(ctx context.Context, agentID uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, b := range r.bookings {
		if b.AgentID() == agentID && b.Status() == booking.StatusConfirmed {
			n++
		}
	}
	return n, nil
}

func (r *memBookingRepo) GetStats(ctx context.Context, filter booking.Filter) (*booking.Stats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stats := &booking.Stats{}
	for _, b := range r.bookings {
		if !matches(b, filter) {
			continue
		}
		switch b.Status() {
		case booking.StatusConfirmed:
			stats.TotalBookings++
			stats.TotalCashback += b.CashbackAmount()
			stats.TotalTicketSales += b.TicketAmount()
		case booking.StatusVoided:
			stats.VoidedBookings++
		}
	}
	return stats, nil
}

// testStack wires the application services over the in-memory repositories.
type testStack struct {
	bookings *memBookingRepo
	promos   *memPromoRepo
	codes    *memCodeRegistry
	agents   *memAgentRepo
	fairs    *memEventRepo

	bookingSvc *BookingService
	promoSvc   *PromoService
	codeSvc    *CodeService
	agentSvc   *AgentService
}

func newTestStack(t *testing.T) *testStack {
	t.Helper()
	bookings := newMemBookingRepo()
	promos := newMemPromoRepo()
	bookings.promos = promos
	codes := newMemCodeRegistry()
	agents := newMemAgentRepo()
	fairs := newMemEventRepo()
	log := zap.NewNop()

	return &testStack{
		bookings:   bookings,
		promos:     promos,
		codes:      codes,
		agents:     agents,
		fairs:      fairs,
		bookingSvc: NewBookingService(bookings, promos, codes, agents, fairs, nil, log),
		promoSvc:   NewPromoService(promos, bookings, log),
		codeSvc:    NewCodeService(codes, promos, log),
		agentSvc:   NewAgentService(agents, bookings, log),
	}
}

func (s *testStack) seedAgent(t *testing.T) *agent.Agent {
	t.Helper()
	a, err := agent.NewAgent("Wanderlust Tours", 50)
	require.NoError(t, err)
	require.NoError(t, s.agents.Save(context.Background(), a))
	return a
}

func (s *testStack) seedPromo(t *testing.T, kind promo.Kind, quotaTotal int, perAgent *int) *promo.Promo {
	t.Helper()
	fair, err := event.NewEvent("Jakarta Travel Fair", "", "JCC Senayan",
		time.Now(), time.Now().AddDate(0, 0, 3))
	require.NoError(t, err)
	require.NoError(t, s.fairs.Save(context.Background(), fair))

	p, err := promo.NewPromo(fair.ID(), "Travel Fair Cashback", kind, "",
		quotaTotal, perAgent, []promo.CashbackTier{
			{MinAmount: 3_500_000, CashbackAmount: 250_000},
			{MinAmount: 5_000_000, CashbackAmount: 1_000_000},
			{MinAmount: 7_000_000, CashbackAmount: 2_500_000},
		}, time.Now(), time.Now().AddDate(0, 0, 3))
	require.NoError(t, err)
	require.NoError(t, s.promos.Save(context.Background(), p))
	return p
}

func (s *testStack) seedCode(t *testing.T, raw string, promoID uuid.UUID) *code.GuaranteedCode {
	t.Helper()
	c, err := code.NewGuaranteedCode(raw, promoID, time.Now(), time.Now().AddDate(0, 0, 3))
	require.NoError(t, err)
	require.NoError(t, s.codes.Save(context.Background(), c))
	return c
}

var errStoreDown = errors.New("store down")
