package scans

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/bryanwahyu/decision-ledger/internal/application"
	"github.com/bryanwahyu/decision-ledger/internal/domain/ai"
	"github.com/bryanwahyu/decision-ledger/internal/domain/findings"
	domain "github.com/bryanwahyu/decision-ledger/internal/domain/scans"
	"github.com/bryanwahyu/decision-ledger/internal/infra/ai/prompt"
	"github.com/bryanwahyu/decision-ledger/internal/infra/report"
)

// Completion is the AI dispatcher the service talks to.
type Completion interface {
	ai.Client
	ResolveMode(ctx context.Context) ai.Mode
}

// Recorder receives scan and parse metrics.
type Recorder interface {
	RecordScan(kind, mode, outcome string, d time.Duration)
	RecordParse(kind string, stats findings.ParseStats)
}

type nopRecorder struct{}

func (nopRecorder) RecordScan(string, string, string, time.Duration) {}
func (nopRecorder) RecordParse(string, findings.ParseStats)          {}

// Service implements use-cases untuk Scan
// Service is designed to be used concurrently and is thread-safe
type Service struct {
	Repo      domain.Repository
	Resolved  domain.ResolvedRepository
	AI        Completion
	Artifacts domain.ArtifactStore // optional
	Metrics   Recorder             // optional
	Clock     application.Clock

	Currency  string
	MaxRows   int
	MaxTokens int

	// mu serialises read-modify-write of the resolved set.
	mu sync.Mutex
}

//
// ==== USE CASES ====
//

// Command untuk trigger scan
type RunCommand struct {
	Kind   ai.Kind
	Text   string // free-text notes, may be the only input
	Tables []domain.Table
	Mode   ai.Mode // empty uses the configured mode
}

type Result struct {
	Scan       *domain.Scan `json:"scan"`
	Structured bool         `json:"structured"`
}

// Run executes one scan and replaces the stored scan of the same kind.
func (s *Service) Run(ctx context.Context, cmd RunCommand) (Result, error) {
	return s.run(ctx, cmd, nil)
}

// RunStream is Run with each response chunk passed to onDelta as it arrives.
// Parsing happens once on the settled text.
func (s *Service) RunStream(ctx context.Context, cmd RunCommand, onDelta func(string)) (Result, error) {
	if onDelta == nil {
		onDelta = func(string) {}
	}
	return s.run(ctx, cmd, onDelta)
}

// RunAll runs every kind on the same input concurrently. Results follow
// domain.Kinds order.
func (s *Service) RunAll(ctx context.Context, cmd RunCommand) ([]Result, error) {
	if !hasInput(cmd) {
		return nil, domain.ErrNoInput
	}
	if !cmd.Mode.Concrete() {
		cmd.Mode = s.AI.ResolveMode(ctx)
	}
	out := make([]Result, len(domain.Kinds))
	g, gctx := errgroup.WithContext(ctx)
	for i, kind := range domain.Kinds {
		i := i
		c := cmd
		c.Kind = kind
		g.Go(func() error {
			res, err := s.Run(gctx, c)
			if err != nil {
				return err
			}
			out[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) run(ctx context.Context, cmd RunCommand, onDelta func(string)) (Result, error) {
	kind, err := domain.ParseKind(string(cmd.Kind))
	if err != nil {
		return Result{}, err
	}
	if !hasInput(cmd) {
		return Result{}, domain.ErrNoInput
	}
	mode := cmd.Mode
	if !mode.Concrete() {
		mode = s.AI.ResolveMode(ctx)
	}

	system, err := prompt.System(kind)
	if err != nil {
		return Result{}, err
	}
	req := ai.Request{
		Mode:      mode,
		Kind:      kind,
		System:    system,
		Prompt:    prompt.User(kind, cmd.Tables, cmd.Text, s.MaxRows),
		MaxTokens: s.MaxTokens,
	}

	id := domain.ScanID(uuid.New().String())
	logger := log.With().Str("scan_id", string(id)).Str("kind", string(kind)).Str("mode", string(mode)).Logger()
	start := s.clock().Now()

	var raw string
	if onDelta != nil {
		raw, err = s.AI.Stream(ctx, req, onDelta)
	} else {
		raw, err = s.AI.Complete(ctx, req)
	}
	elapsed := s.clock().Now().Sub(start)
	if err != nil {
		s.metrics().RecordScan(string(kind), string(mode), errorOutcome(err), elapsed)
		logger.Error().Err(err).Dur("elapsed", elapsed).Msg("completion failed")
		return Result{}, fmt.Errorf("%s scan: %w", kind, err)
	}

	scan := &domain.Scan{
		ID:            id,
		Kind:          kind,
		Mode:          mode,
		CreatedAt:     start.UTC(),
		DurationMS:    elapsed.Milliseconds(),
		Sources:       sources(cmd),
		Raw:           raw,
		Findings:      []findings.Finding{},
		Opportunities: []findings.Opportunity{},
	}
	switch kind {
	case ai.KindOperational:
		scan.Findings, scan.Stats = findings.ParseFindingsReport(raw)
	case ai.KindRevenue:
		scan.Opportunities, scan.Stats = findings.ParseOpportunitiesReport(raw)
	}
	if kind != ai.KindBrief {
		s.metrics().RecordParse(string(kind), scan.Stats)
	}
	if scan.Stats.Warnings() > 0 {
		logger.Warn().Int("skipped", scan.Stats.Skipped).Int("dropped", scan.Stats.Dropped).Msg("parser discarded segments")
	}

	s.archive(ctx, scan)

	if err := s.Repo.Save(ctx, scan); err != nil {
		s.metrics().RecordScan(string(kind), string(mode), "store_error", elapsed)
		return Result{}, fmt.Errorf("save %s scan: %w", kind, err)
	}

	structured := scan.Structured()
	outcome := "ok"
	if !structured {
		outcome = "unstructured"
	}
	s.metrics().RecordScan(string(kind), string(mode), outcome, elapsed)
	logger.Info().
		Int("findings", len(scan.Findings)).
		Int("opportunities", len(scan.Opportunities)).
		Bool("structured", structured).
		Dur("elapsed", elapsed).
		Msg("scan stored")

	return Result{Scan: scan, Structured: structured}, nil
}

// archive uploads the raw response; failure is logged, never fatal.
func (s *Service) archive(ctx context.Context, scan *domain.Scan) {
	if s.Artifacts == nil {
		return
	}
	key := fmt.Sprintf("scans/%s/%s.txt", scan.Kind, scan.ID)
	url, err := s.Artifacts.Put(ctx, key, []byte(scan.Raw), "text/plain; charset=utf-8")
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("artifact upload failed")
		return
	}
	scan.ArtifactURL = url
}

// Latest ambil scan terakhir untuk kind; nil when none ran yet
func (s *Service) Latest(ctx context.Context, kind ai.Kind) (*domain.Scan, error) {
	k, err := domain.ParseKind(string(kind))
	if err != nil {
		return nil, err
	}
	return s.Repo.Latest(ctx, k)
}

// Dashboard is the rollup view over the latest scans.
type Dashboard struct {
	Mode          ai.Mode                    `json:"mode"`
	Currency      string                     `json:"currency"`
	Findings      []findings.Finding         `json:"findings"`
	Rollup        findings.Rollup            `json:"rollup"`
	Opportunities findings.OpportunityRollup `json:"opportunities"`
	Brief         string                     `json:"brief"`
	Resolved      []int                      `json:"resolved"`
	ScannedAt     map[ai.Kind]time.Time      `json:"scanned_at"`

	resolvedSet findings.ResolvedSet
}

// Dashboard rekap latest operational, revenue and brief scans
func (s *Service) Dashboard(ctx context.Context) (Dashboard, error) {
	d := Dashboard{
		Mode:      s.AI.ResolveMode(ctx),
		Currency:  s.Currency,
		Findings:  []findings.Finding{},
		ScannedAt: map[ai.Kind]time.Time{},
	}

	latest := make(map[ai.Kind]*domain.Scan, len(domain.Kinds))
	for _, kind := range domain.Kinds {
		sc, err := s.Repo.Latest(ctx, kind)
		if err != nil {
			return Dashboard{}, fmt.Errorf("load %s scan: %w", kind, err)
		}
		if sc != nil {
			latest[kind] = sc
			d.ScannedAt[kind] = sc.CreatedAt
		}
	}

	resolved, err := s.Resolved.Load(ctx)
	if err != nil {
		return Dashboard{}, fmt.Errorf("load resolved set: %w", err)
	}
	d.resolvedSet = resolved
	d.Resolved = resolved.IDs()

	if sc := latest[ai.KindOperational]; sc != nil {
		d.Findings = sc.Findings
	}
	d.Rollup = findings.Summarize(d.Findings, resolved)

	var opps []findings.Opportunity
	if sc := latest[ai.KindRevenue]; sc != nil {
		opps = sc.Opportunities
	}
	d.Opportunities = findings.SummarizeOpportunities(opps)

	if sc := latest[ai.KindBrief]; sc != nil && sc.Structured() {
		d.Brief = sc.Raw
	}
	return d, nil
}

// ToggleResolved flips id in the resolved set and reports whether it is now
// resolved. The id must name a finding of the latest operational scan, or
// already be in the set so a stale entry can be cleared.
func (s *Service) ToggleResolved(ctx context.Context, id int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	set, err := s.Resolved.Load(ctx)
	if err != nil {
		return false, fmt.Errorf("load resolved set: %w", err)
	}
	sc, err := s.Repo.Latest(ctx, ai.KindOperational)
	if err != nil {
		return false, fmt.Errorf("load operational scan: %w", err)
	}

	var f findings.Finding
	found := false
	if sc != nil {
		f, found = sc.FindingByID(id)
	}
	if !found {
		if !set.Has(id) {
			return false, fmt.Errorf("%w: %d", findings.ErrUnknownFinding, id)
		}
		f = findings.Finding{ID: id}
	}

	now := set.Toggle(f)
	if err := s.Resolved.Store(ctx, set); err != nil {
		return false, fmt.Errorf("store resolved set: %w", err)
	}
	log.Info().Int("finding_id", id).Bool("resolved", now).Msg("resolution toggled")
	return now, nil
}

// ClearResolved empties the resolved set.
func (s *Service) ClearResolved(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Resolved.Store(ctx, findings.NewResolvedSet())
}

// ExportPDF renders the dashboard. A copy is archived when an artifact
// store is configured.
func (s *Service) ExportPDF(ctx context.Context) ([]byte, error) {
	d, err := s.Dashboard(ctx)
	if err != nil {
		return nil, err
	}
	now := s.clock().Now()
	out, err := report.PDF(report.Data{
		GeneratedAt:   now,
		Currency:      s.Currency,
		Brief:         d.Brief,
		Findings:      d.Findings,
		Resolved:      d.resolvedSet,
		Rollup:        d.Rollup,
		Opportunities: d.Opportunities,
	})
	if err != nil {
		return nil, fmt.Errorf("render export: %w", err)
	}
	if s.Artifacts != nil {
		key := fmt.Sprintf("exports/ledger-%s.pdf", now.UTC().Format("20060102-150405"))
		if _, err := s.Artifacts.Put(ctx, key, out, "application/pdf"); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("export archive failed")
		}
	}
	return out, nil
}

// ParseResult is the offline parse of a saved response.
type ParseResult struct {
	Kind              ai.Kind                     `json:"kind"`
	Findings          []findings.Finding          `json:"findings,omitempty"`
	Opportunities     []findings.Opportunity      `json:"opportunities,omitempty"`
	Stats             findings.ParseStats         `json:"stats"`
	Rollup            *findings.Rollup            `json:"rollup,omitempty"`
	OpportunityRollup *findings.OpportunityRollup `json:"opportunity_rollup,omitempty"`
}

// Parse runs the record parser for kind on text without calling the model.
func Parse(kind ai.Kind, text string, resolved findings.ResolvedSet) (ParseResult, error) {
	k, err := domain.ParseKind(string(kind))
	if err != nil {
		return ParseResult{}, err
	}
	res := ParseResult{Kind: k}
	switch k {
	case ai.KindOperational:
		res.Findings, res.Stats = findings.ParseFindingsReport(text)
		r := findings.Summarize(res.Findings, resolved)
		res.Rollup = &r
	case ai.KindRevenue:
		res.Opportunities, res.Stats = findings.ParseOpportunitiesReport(text)
		r := findings.SummarizeOpportunities(res.Opportunities)
		res.OpportunityRollup = &r
	default:
		return ParseResult{}, fmt.Errorf("%w: %s has no records to parse", domain.ErrUnknownKind, k)
	}
	return res, nil
}

// helper
func hasInput(cmd RunCommand) bool {
	if strings.TrimSpace(cmd.Text) != "" {
		return true
	}
	for _, t := range cmd.Tables {
		if !t.Empty() {
			return true
		}
	}
	return false
}

func sources(cmd RunCommand) []string {
	out := make([]string, 0, len(cmd.Tables)+1)
	for _, t := range cmd.Tables {
		if t.Name != "" {
			out = append(out, t.Name)
		}
	}
	if strings.TrimSpace(cmd.Text) != "" {
		out = append(out, "notes")
	}
	return out
}

func errorOutcome(err error) string {
	switch {
	case errors.Is(err, ai.ErrQuotaExceeded):
		return "quota"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "error"
	}
}

func (s *Service) clock() application.Clock {
	if s.Clock == nil {
		return application.SystemClock{}
	}
	return s.Clock
}

func (s *Service) metrics() Recorder {
	if s.Metrics == nil {
		return nopRecorder{}
	}
	return s.Metrics
}
