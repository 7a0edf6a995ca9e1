package ai

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/bryanwahyu/decision-ledger/internal/domain/ai"
)

// ErrNoLiveClient is returned when live mode is requested without a key.
var ErrNoLiveClient = errors.New("live ai client not configured")

// Service dispatches each request to the live or demo client based on the
// mode carried by the request.
type Service struct {
	live   ai.Client
	demo   ai.Client
	prober ai.Prober
	mode   ai.Mode

	probeTTL time.Duration
	mu       sync.Mutex
	probed   time.Time
	resolved ai.Mode
}

// NewService; live and prober may be nil when no key is configured.
func NewService(live, demo ai.Client, prober ai.Prober, mode ai.Mode) *Service {
	if mode == "" {
		mode = ai.ModeAuto
	}
	return &Service{live: live, demo: demo, prober: prober, mode: mode, probeTTL: 5 * time.Minute}
}

// ResolveMode turns the configured mode into a concrete one. Auto probes the
// live provider and falls back to demo; the answer is cached for probeTTL.
func (s *Service) ResolveMode(ctx context.Context) ai.Mode {
	if s.mode.Concrete() {
		return s.mode
	}
	if s.live == nil {
		return ai.ModeDemo
	}
	if s.prober == nil {
		return ai.ModeLive
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.probed.IsZero() && time.Since(s.probed) < s.probeTTL {
		return s.resolved
	}
	s.resolved = ai.ModeLive
	if err := s.prober.Ping(ctx); err != nil {
		log.Warn().Err(err).Msg("ai probe failed, using demo responses")
		s.resolved = ai.ModeDemo
	}
	s.probed = time.Now()
	return s.resolved
}

// For picks the client for mode, resolving auto first.
func (s *Service) For(ctx context.Context, mode ai.Mode) (ai.Client, ai.Mode, error) {
	if !mode.Concrete() {
		mode = s.ResolveMode(ctx)
	}
	if mode == ai.ModeDemo {
		return s.demo, mode, nil
	}
	if s.live == nil {
		return nil, mode, ErrNoLiveClient
	}
	return s.live, mode, nil
}

func (s *Service) Complete(ctx context.Context, req ai.Request) (string, error) {
	c, mode, err := s.For(ctx, req.Mode)
	if err != nil {
		return "", err
	}
	req.Mode = mode
	return c.Complete(ctx, req)
}

func (s *Service) Stream(ctx context.Context, req ai.Request, onDelta func(string)) (string, error) {
	c, mode, err := s.For(ctx, req.Mode)
	if err != nil {
		return "", err
	}
	req.Mode = mode
	return c.Stream(ctx, req, onDelta)
}
