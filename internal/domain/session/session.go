package session

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pelletier/go-toml/v2"

	"github.com/facetlabs/facet/internal/domain/data"
	"github.com/facetlabs/facet/internal/domain/filter"
	"github.com/facetlabs/facet/internal/domain/lifecycle"
	"github.com/facetlabs/facet/internal/domain/module"
	"github.com/facetlabs/facet/internal/domain/registry"
	"github.com/facetlabs/facet/internal/domain/reporter"
	"github.com/facetlabs/facet/internal/shared/id"
)

// Session is the per-connection context object. It owns exactly one
// lifecycle, one reporter, one timezone slot and, once built, one dataset
// registry. Sessions share no mutable state with each other.
type Session struct {
	ID        id.SessionID
	Token     string
	CreatedAt time.Time

	title     string
	resolver  data.Resolver
	lifecycle *lifecycle.Lifecycle
	reporter  *reporter.Aggregator

	// Timezone handshake, one-shot like the lifecycle transition. Guarded
	// because diagnostics reads arrive on HTTP goroutines.
	tzMu sync.Mutex
	tz   struct {
		value string
		set   bool
	}
}

// Options assembles a session. Title, Header and Footer must already be
// validated and sanitized display content.
type Options struct {
	Title         string
	Header        string
	Footer        string
	Tree          module.Tree
	DefaultFilter *filter.State
	Bookmark      any
	Resolver      data.Resolver
	Presenter     lifecycle.Presenter
	Sink          registry.Sink
}

// New creates a session in AwaitingData. Invalid options fail fast.
func New(opts Options) (*Session, error) {
	if opts.Resolver == nil {
		return nil, fmt.Errorf("session: resolver is required")
	}

	rep := reporter.New()
	lc, err := lifecycle.New(lifecycle.Config{
		Title:         opts.Title,
		Header:        opts.Header,
		Footer:        opts.Footer,
		Tree:          opts.Tree,
		DefaultFilter: opts.DefaultFilter,
		Bookmark:      opts.Bookmark,
		Reporter:      rep,
		Presenter:     opts.Presenter,
		Sink:          opts.Sink,
	})
	if err != nil {
		return nil, err
	}

	return &Session{
		ID:        id.NewSessionID(),
		Token:     uuid.New().String(),
		CreatedAt: time.Now(),
		title:     opts.Title,
		resolver:  opts.Resolver,
		lifecycle: lc,
		reporter:  rep,
	}, nil
}

// Title returns the application title the session was created with.
func (s *Session) Title() string { return s.title }

// Run subscribes the lifecycle to the resolver and blocks until the
// one-shot transition completes, the resolver finishes without data, or ctx
// is cancelled. Cancelling ctx (session disconnect) releases the
// subscription; an open progress sink is closed by the registry build
// itself on every path.
func (s *Session) Run(ctx context.Context) error {
	return s.lifecycle.Watch(ctx, s.resolver.Resolve(ctx))
}

// State returns the lifecycle phase.
func (s *Session) State() lifecycle.State {
	return s.lifecycle.State()
}

// Filters returns the restored filter state, nil before activation.
func (s *Session) Filters() *filter.State {
	return s.lifecycle.Filters()
}

// Registry returns the built registry, nil before activation.
func (s *Session) Registry() *registry.Registry {
	return s.lifecycle.Registry()
}

// Tree returns the activated module tree.
func (s *Session) Tree() module.Tree {
	return s.lifecycle.Tree()
}

// Reporter returns the session's report aggregator.
func (s *Session) Reporter() *reporter.Aggregator {
	return s.reporter
}

// SetTimezone stores the client timezone on first receipt and reports
// whether the value was stored. Redundant receipts are ignored.
func (s *Session) SetTimezone(tz string) bool {
	s.tzMu.Lock()
	defer s.tzMu.Unlock()
	if s.tz.set || tz == "" {
		return false
	}
	s.tz.value = tz
	s.tz.set = true
	return true
}

// Timezone returns the stored client timezone, if received.
func (s *Session) Timezone() (string, bool) {
	s.tzMu.Lock()
	defer s.tzMu.Unlock()
	return s.tz.value, s.tz.set
}

// Diagnostics is the human-readable session-info surface.
type Diagnostics struct {
	SessionID     string `json:"session_id"`
	PID           int    `json:"pid"`
	TokenFragment string `json:"token_fragment"`
	State         string `json:"state"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	Timezone      string `json:"timezone,omitempty"`
	Fingerprint   string `json:"bundle_fingerprint,omitempty"`
}

// Diagnostics returns the session-info popup payload. The token is
// truncated; the full value never leaves the server.
func (s *Session) Diagnostics() Diagnostics {
	d := Diagnostics{
		SessionID:     s.ID.String(),
		PID:           os.Getpid(),
		TokenFragment: s.Token[:8],
		State:         string(s.State()),
		UptimeSeconds: int64(time.Since(s.CreatedAt).Seconds()),
	}
	if tz, ok := s.Timezone(); ok {
		d.Timezone = tz
	}
	if reg := s.Registry(); reg != nil {
		d.Fingerprint = reg.Fingerprint()
	}
	return d
}

// lockfile is the TOML document pinning what the session is running.
type lockfile struct {
	App struct {
		Title     string `toml:"title"`
		SessionID string `toml:"session_id"`
		CreatedAt string `toml:"created_at"`
	} `toml:"app"`
	Bundle struct {
		Fingerprint string `toml:"fingerprint"`
	} `toml:"bundle"`
	Modules []lockfileModule `toml:"modules"`
}

type lockfileModule struct {
	ID       string   `toml:"id"`
	Datasets []string `toml:"datasets,omitempty"`
}

// Lockfile renders the downloadable lock-file artifact. Only available once
// the session is active.
func (s *Session) Lockfile() ([]byte, error) {
	reg := s.Registry()
	if reg == nil {
		return nil, fmt.Errorf("session %s not active", s.ID)
	}

	var lf lockfile
	lf.App.Title = s.title
	lf.App.SessionID = s.ID.String()
	lf.App.CreatedAt = s.CreatedAt.UTC().Format(time.RFC3339)
	lf.Bundle.Fingerprint = reg.Fingerprint()
	for _, leaf := range s.Tree().Leaves() {
		lf.Modules = append(lf.Modules, lockfileModule{
			ID:       leaf.ID,
			Datasets: leaf.Datasets,
		})
	}
	return toml.Marshal(lf)
}
