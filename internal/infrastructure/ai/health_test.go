package ai

import (
	"context"
	"errors"
	"testing"

	"github.com/alchemorsel/recipegen/internal/ports/outbound"
	"github.com/alchemorsel/recipegen/pkg/healthcheck"
	"github.com/stretchr/testify/assert"
)

type stubService struct {
	name    string
	pingErr error
}

func (s *stubService) Generate(ctx context.Context, prompt string) (*outbound.Generation, error) {
	return &outbound.Generation{Text: "ok"}, nil
}

func (s *stubService) Name() string { return s.name }

type pingingService struct {
	stubService
}

func (p *pingingService) HealthCheck(ctx context.Context) error { return p.pingErr }

func TestHealthChecker(t *testing.T) {
	tests := []struct {
		name       string
		service    outbound.AIService
		wantStatus healthcheck.Status
	}{
		{"not configured", nil, healthcheck.StatusDegraded},
		{"hosted provider", &stubService{name: "gemini"}, healthcheck.StatusHealthy},
		{"reachable local provider", &pingingService{stubService{name: "ollama"}}, healthcheck.StatusHealthy},
		{"unreachable local provider", &pingingService{stubService{name: "ollama", pingErr: errors.New("connection refused")}}, healthcheck.StatusDegraded},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			check := NewHealthChecker(tt.service).Check(context.Background())

			assert.Equal(t, "ai", check.Name)
			assert.Equal(t, tt.wantStatus, check.Status)
		})
	}
}
