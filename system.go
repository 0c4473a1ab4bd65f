package repertoire

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/karpatkey/defi-repertoire/chain"
)

// Logger defines a standard interface for structured, leveled logging,
// compatible with the standard library's slog.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// NopLogger discards everything.
type NopLogger struct{}

func (NopLogger) Debug(string, ...any) {}
func (NopLogger) Info(string, ...any)  {}
func (NopLogger) Warn(string, ...any)  {}
func (NopLogger) Error(string, ...any) {}

// --- Function Type Definitions for Dependencies ---

type GetReaderFunc func(ctx context.Context, bc chain.Blockchain) (chain.Reader, error)
type ErrorHandlerFunc func(err error)

// Config holds the dependencies and settings of a System.
type Config struct {
	SystemName    string
	PrometheusReg prometheus.Registerer
	Registry      *Registry
	GetReader     GetReaderFunc
	// Clock is optional; it defaults to time.Now and drives swap deadlines.
	Clock func() time.Time
	// ErrorHandler is optional and sees every failed request after it is logged and counted.
	ErrorHandler ErrorHandlerFunc
	Logger       Logger
}

// validate checks that all essential fields in the Config are provided.
func (c *Config) validate() error {
	if c.SystemName == "" {
		return errors.New("system name is required")
	}
	if c.PrometheusReg == nil {
		return errors.New("prometheus registerer is required")
	}
	if c.Registry == nil {
		return errors.New("strategy registry is required")
	}
	if c.GetReader == nil {
		return errors.New("get reader function is required")
	}
	if c.Logger == nil {
		return errors.New("logger is required")
	}
	return nil
}

// StrategyCall is one requested strategy with its raw arguments.
type StrategyCall struct {
	ID        string         `json:"id"`
	Arguments map[string]any `json:"arguments"`
}

// StrategyView is the catalogue entry of a strategy on one chain.
type StrategyView struct {
	Kind        Kind           `json:"kind"`
	Protocol    string         `json:"protocol"`
	Name        string         `json:"name"`
	ID          string         `json:"id"`
	Label       string         `json:"label"`
	Description string         `json:"description"`
	Arguments   map[string]any `json:"arguments"`
	Options     Options        `json:"options"`
}

// System turns strategy calls into ordered transactables against live chains.
type System struct {
	systemName   string
	registry     *Registry
	getReader    GetReaderFunc
	clock        func() time.Time
	errorHandler ErrorHandlerFunc
	metrics      *Metrics
	logger       Logger
}

// NewSystem constructs a System from cfg.
func NewSystem(cfg *Config) (*System, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid repertoire system configuration: %w", err)
	}

	metrics := NewMetrics(cfg.PrometheusReg, cfg.SystemName)
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}

	system := &System{
		systemName: cfg.SystemName,
		registry:   cfg.Registry,
		getReader:  cfg.GetReader,
		clock:      clock,
		errorHandler: func(err error) {
			kind := ErrorKind(err)
			// Caller mistakes are routine; only server-side failures are logged as errors.
			switch kind {
			case "validation", "not_found", "domain", "unsupported":
				cfg.Logger.Debug("request rejected", "system", cfg.SystemName, "kind", kind, "error", err)
			default:
				cfg.Logger.Error("repertoire request failed", "system", cfg.SystemName, "kind", kind, "error", err)
			}
			metrics.ErrorsTotal.WithLabelValues(kind).Inc()
			if cfg.ErrorHandler != nil {
				cfg.ErrorHandler(err)
			}
		},
		metrics: metrics,
		logger:  cfg.Logger,
	}
	system.logger.Info("repertoire system ready", "system", system.systemName, "strategies", len(cfg.Registry.List()))
	return system, nil
}

// Registry returns the strategy registry the system serves.
func (s *System) Registry() *Registry {
	return s.registry
}

// Catalogue lists the strategies available on bc with their base options.
// A base options failure is logged and leaves that entry without options.
func (s *System) Catalogue(ctx context.Context, bc chain.Blockchain) []StrategyView {
	strategies := s.registry.ListFor(bc)
	views := make([]StrategyView, 0, len(strategies))
	for _, st := range strategies {
		meta := st.Meta()
		view := StrategyView{
			Kind:        meta.Kind,
			Protocol:    meta.Protocol,
			Name:        meta.Name,
			ID:          meta.ID(),
			Label:       meta.Label,
			Description: meta.Description,
			Arguments:   meta.Fields.JSONSchema(),
		}
		opts, err := st.BaseOptions(ctx, bc)
		switch {
		case err == nil:
			view.Options = opts
			s.metrics.OptionsRequests.WithLabelValues(meta.ID(), "base", "ok").Inc()
		case errors.Is(err, ErrOptionsUnsupported):
		default:
			s.metrics.OptionsRequests.WithLabelValues(meta.ID(), "base", "error").Inc()
			s.logger.Warn("base options unavailable", "strategy", meta.ID(), "chain", bc.Name, "error", err)
		}
		views = append(views, view)
	}
	return views
}

// NewTxContext dials bc and builds a request context for avatar.
func (s *System) NewTxContext(ctx context.Context, bc chain.Blockchain, avatar string) (*TxContext, error) {
	reader, err := s.getReader(ctx, bc)
	if err != nil {
		err = &UpstreamError{Source: "chain:" + bc.Name, Err: err}
		s.errorHandler(err)
		return nil, err
	}
	tc, err := NewTxContext(ctx, s.registry, reader, avatar, WithClock(s.clock))
	if err != nil {
		s.errorHandler(err)
		return nil, err
	}
	if tc.Chain != bc {
		err = &UpstreamError{Source: "chain:" + bc.Name, Err: fmt.Errorf("endpoint reports chain %s", tc.Chain.Name)}
		s.errorHandler(err)
		return nil, err
	}
	return tc, nil
}

// Transactions composes calls in order inside one shared context and
// concatenates their transactables.
func (s *System) Transactions(ctx context.Context, bc chain.Blockchain, avatar string, calls []StrategyCall) ([]Transactable, error) {
	tc, err := s.NewTxContext(ctx, bc, avatar)
	if err != nil {
		return nil, err
	}
	txs := make([]Transactable, 0, len(calls))
	for i, call := range calls {
		out, err := s.compose(ctx, tc, call)
		if err != nil {
			return nil, fmt.Errorf("strategy call %d: %w", i, err)
		}
		txs = append(txs, out...)
	}
	return txs, nil
}

func (s *System) compose(ctx context.Context, tc *TxContext, call StrategyCall) ([]Transactable, error) {
	label := s.strategyLabel(call.ID)
	timer := prometheus.NewTimer(s.metrics.ExecutionDuration.WithLabelValues(label))
	defer timer.ObserveDuration()

	start := time.Now()
	txs, err := s.registry.Compose(ctx, tc, call.ID, call.Arguments)
	if err != nil {
		s.metrics.ExecutionsTotal.WithLabelValues(label, ErrorKind(err)).Inc()
		s.errorHandler(err)
		return nil, err
	}
	s.metrics.ExecutionsTotal.WithLabelValues(label, "ok").Inc()
	s.metrics.TransactablesOut.WithLabelValues(label).Observe(float64(len(txs)))
	s.logger.Debug("strategy composed", "strategy", call.ID, "chain", tc.Chain.Name, "transactables", len(txs), "duration", time.Since(start))
	return txs, nil
}

// BaseOptions resolves the chain-wide options of strategy id.
func (s *System) BaseOptions(ctx context.Context, bc chain.Blockchain, id string) (Options, error) {
	opts, err := s.registry.BaseOptions(ctx, bc, id)
	s.observeOptions(id, "base", err)
	return opts, err
}

// Options resolves options of strategy id narrowed by the partial raw arguments.
func (s *System) Options(ctx context.Context, bc chain.Blockchain, id string, raw map[string]any) (Options, error) {
	opts, err := s.registry.Options(ctx, bc, id, raw)
	s.observeOptions(id, "refined", err)
	return opts, err
}

func (s *System) observeOptions(id, tier string, err error) {
	label := s.strategyLabel(id)
	if err != nil {
		s.metrics.OptionsRequests.WithLabelValues(label, tier, ErrorKind(err)).Inc()
		s.errorHandler(err)
		return
	}
	s.metrics.OptionsRequests.WithLabelValues(label, tier, "ok").Inc()
}

// strategyLabel keeps metric cardinality bounded to registered ids.
func (s *System) strategyLabel(id string) string {
	if _, err := s.registry.Get(id); err != nil {
		return "unknown"
	}
	return id
}
