package application

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/travelfair/service-promo/internal/domain/agent"
	"github.com/travelfair/service-promo/internal/domain/booking"
)

// CreateAgentRequest is the DTO for registering a travel agent.
type CreateAgentRequest struct {
	Name           string `json:"name" binding:"required"`
	QuotaAllocated int    `json:"quota_allocated"`
}

// UpdateAgentRequest is the DTO for editing a travel agent.
type UpdateAgentRequest struct {
	Name           string `json:"name" binding:"required"`
	QuotaAllocated int    `json:"quota_allocated"`
	IsActive       bool   `json:"is_active"`
}

// AgentDTO is the API response DTO for travel agent data. QuotaUsed is derived
// from confirmed bookings, so voids self-correct it; the allocation is a
// reporting ceiling, not an enforced cap.
type AgentDTO struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	QuotaAllocated int       `json:"quota_allocated"`
	QuotaUsed      int64     `json:"quota_used"`
	IsActive       bool      `json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// AgentService is the application service for travel agent administration.
type AgentService struct {
	agents   agent.Repository
	bookings booking.Repository
	logger   *zap.Logger
}

// NewAgentService creates a new AgentService.
func NewAgentService(agents agent.Repository, bookings booking.Repository, logger *zap.Logger) *AgentService {
	return &AgentService{agents: agents, bookings: bookings, logger: logger}
}

// CreateAgent registers a new travel agent.
func (s *AgentService) CreateAgent(ctx context.Context, req CreateAgentRequest) (*AgentDTO, error) {
	a, err := agent.NewAgent(req.Name, req.QuotaAllocated)
	if err != nil {
		return nil, err
	}
	if err := s.agents.Save(ctx, a); err != nil {
		return nil, err
	}

	s.logger.Info("agent created",
		zap.String("agent_id", a.ID().String()),
		zap.String("name", a.Name()),
	)

	dto := toAgentDTO(a, 0)
	return &dto, nil
}

// UpdateAgent edits a travel agent.
func (s *AgentService) UpdateAgent(ctx context.Context, agentID uuid.UUID, req UpdateAgentRequest) (*AgentDTO, error) {
	a, err := s.agents.FindByID(ctx, agentID)
	if err != nil {
		return nil, err
	}
	if err := a.Update(req.Name, req.QuotaAllocated, req.IsActive); err != nil {
		return nil, err
	}
	if err := s.agents.Update(ctx, a); err != nil {
		return nil, err
	}

	used, err := s.bookings.CountConfirmedByAgent(ctx, a.ID())
	if err != nil {
		return nil, err
	}
	dto := toAgentDTO(a, used)
	return &dto, nil
}

// GetAgent returns one agent with its derived consumption.
func (s *AgentService) GetAgent(ctx context.Context, agentID uuid.UUID) (*AgentDTO, error) {
	a, err := s.agents.FindByID(ctx, agentID)
	if err != nil {
		return nil, err
	}
	used, err := s.bookings.CountConfirmedByAgent(ctx, a.ID())
	if err != nil {
		return nil, err
	}
	dto := toAgentDTO(a, used)
	return &dto, nil
}

// ListAgents returns every agent with derived consumption.
func (s *AgentService) ListAgents(ctx context.Context) ([]AgentDTO, error) {
	items, err := s.agents.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	dtos := make([]AgentDTO, len(items))
	for i, a := range items {
		used, err := s.bookings.CountConfirmedByAgent(ctx, a.ID())
		if err != nil {
			return nil, err
		}
		dtos[i] = toAgentDTO(a, used)
	}
	return dtos, nil
}

func toAgentDTO(a *agent.Agent, used int64) AgentDTO {
	return AgentDTO{
		ID:             a.ID(),
		Name:           a.Name(),
		QuotaAllocated: a.QuotaAllocated(),
		QuotaUsed:      used,
		IsActive:       a.IsActive(),
		CreatedAt:      a.CreatedAt(),
		UpdatedAt:      a.UpdatedAt(),
	}
}
