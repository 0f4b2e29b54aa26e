// Package console holds the screening console's operations: each one validates
// its input, makes at most one upstream call and returns a view value.
package console

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/dgnsrekt/bullion_console/internal/lookup"
	"github.com/dgnsrekt/bullion_console/internal/notify"
	"github.com/dgnsrekt/bullion_console/internal/report"
	"github.com/dgnsrekt/bullion_console/internal/selector"
	"github.com/dgnsrekt/bullion_console/internal/sequence"
	"github.com/dgnsrekt/bullion_console/internal/upstream"
)

const (
	actionLookup = "lookup"
	actionScreen = "screen"
	actionLists  = "lists"

	notifyTimeout = 5 * time.Second
)

// Upstream is the set of remote calls the console makes.
type Upstream interface {
	Search(ctx context.Context, term string) (lookup.Quote, error)
	Screen(ctx context.Context, endpoint, list string) (report.Result, error)
	Lists(ctx context.Context) ([]string, error)
}

// Notifier receives a summary of every completed screening run.
type Notifier interface {
	Notify(ctx context.Context, message string) error
}

// Options configures a Service. Zero timeouts disable the per-call deadline.
type Options struct {
	Catalog       *selector.Catalog
	Schema        report.Schema
	Currency      string
	LookupTimeout time.Duration
	ScreenTimeout time.Duration
	ListsTimeout  time.Duration
	Notifier      Notifier
}

// ScreenRequest is the selection submitted with the start button.
type ScreenRequest struct {
	Trend     string `json:"trend"`
	Algorithm string `json:"algorithm"`
	List      string `json:"list"`
}

// Service implements the console operations.
type Service struct {
	up   Upstream
	opts Options
	seq  *sequence.Sequencer
}

// NewService builds a Service, defaulting to the built-in catalog and the
// union column schema.
func NewService(up Upstream, opts Options) *Service {
	if opts.Catalog == nil {
		opts.Catalog = selector.DefaultCatalog()
	}
	if opts.Schema == "" {
		opts.Schema = report.SchemaUnion
	}
	return &Service{up: up, opts: opts, seq: sequence.New()}
}

func (s *Service) TrendOptions() []selector.Option {
	return s.opts.Catalog.TrendOptions()
}

func (s *Service) AlgorithmOptions(trend string) []selector.Option {
	return s.opts.Catalog.AlgorithmOptions(strings.TrimSpace(trend))
}

// WatchlistOptions fetches the listing and builds the list selector. Fetch
// failures become the "Error loading" placeholder; the only error returned is
// a superseded request.
func (s *Service) WatchlistOptions(ctx context.Context) ([]selector.Option, error) {
	ctx, ticket := s.seq.Begin(ctx, actionLists)
	defer ticket.Done()
	ctx, cancel := withTimeout(ctx, s.opts.ListsTimeout)
	defer cancel()

	names, err := s.up.Lists(ctx)
	if !ticket.Current() {
		return nil, superseded(actionLists)
	}
	if err != nil {
		slog.Error("watch-list fetch failed", "error", err)
	}
	return selector.WatchlistOptions(names, err), nil
}

// Lookup searches for one stock. An empty term is answered locally but still
// supersedes any lookup in flight.
func (s *Service) Lookup(ctx context.Context, term string) (lookup.Card, error) {
	ctx, ticket := s.seq.Begin(ctx, actionLookup)
	defer ticket.Done()

	term = strings.TrimSpace(term)
	if term == "" {
		return lookup.Prompt(), nil
	}

	ctx, cancel := withTimeout(ctx, s.opts.LookupTimeout)
	defer cancel()

	q, err := s.up.Search(ctx, term)
	if !ticket.Current() {
		return lookup.Card{}, superseded(actionLookup)
	}
	if err != nil {
		slog.Error("stock lookup failed", "term", term, "error", err)
		return lookup.ErrorCard(), nil
	}
	return lookup.BuildCard(q, s.opts.Currency), nil
}

// Screen runs the selected algorithm over the selected watch-list. A refused
// selection still supersedes any run in flight.
func (s *Service) Screen(ctx context.Context, req ScreenRequest) (report.Report, error) {
	ctx, ticket := s.seq.Begin(ctx, actionScreen)
	defer ticket.Done()

	req.Trend = strings.TrimSpace(req.Trend)
	req.Algorithm = strings.TrimSpace(req.Algorithm)
	req.List = strings.TrimSpace(req.List)
	if selector.IsUnselected(req.Trend) || selector.IsUnselected(req.Algorithm) || selector.IsUnselected(req.List) {
		return report.Notice(report.StateInvalid, report.MsgSelectAll), nil
	}
	algo, ok := s.opts.Catalog.Algorithm(req.Trend, req.Algorithm)
	if !ok {
		slog.Warn("algorithm not offered for trend", "trend", req.Trend, "algorithm", req.Algorithm)
		return report.Notice(report.StateInvalid, report.MsgSelectAll), nil
	}

	ctx, cancel := withTimeout(ctx, s.opts.ScreenTimeout)
	defer cancel()

	res, err := s.up.Screen(ctx, algo.Endpoint, req.List)
	if !ticket.Current() {
		return report.Report{}, superseded(actionScreen)
	}
	if err != nil {
		var coded *upstream.CodedError
		if errors.As(err, &coded) && coded.Code == upstream.CodeMalformed {
			slog.Error("screening response rejected", "list", req.List, "algorithm", req.Algorithm, "error", err)
			return report.Notice(report.StateUnexpected, report.MsgUnexpected), nil
		}
		slog.Error("screening failed", "list", req.List, "algorithm", req.Algorithm, "error", err)
		return report.Notice(report.StateError, report.MsgScreenFailed), nil
	}

	rep := report.Build(res, s.opts.Schema)
	slog.Info("screening completed",
		"run_id", rep.RunID,
		"trend", req.Trend,
		"algorithm", req.Algorithm,
		"list", req.List,
		"total", rep.Counts.Total,
		"eligible", rep.Counts.Eligible,
		"rejected", rep.Counts.Rejected,
	)
	s.notifyCompleted(algo.Label, req.List, rep)
	return rep, nil
}

func (s *Service) notifyCompleted(algorithm, list string, rep report.Report) {
	if s.opts.Notifier == nil {
		return
	}
	msg := notify.ScreenSummary(algorithm, list, rep.Counts)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()
		if err := s.opts.Notifier.Notify(ctx, msg); err != nil {
			slog.Warn("screening notification failed", "run_id", rep.RunID, "error", err)
		}
	}()
}

func superseded(action string) error {
	return &upstream.CodedError{Code: upstream.CodeSuperseded, Message: action + " superseded by a newer request", Cause: sequence.ErrSuperseded}
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
