package service

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/starford/daybook/internal/access"
	"github.com/starford/daybook/internal/catalog"
	"github.com/starford/daybook/internal/document"
	"github.com/starford/daybook/internal/journal"
	"github.com/starford/daybook/internal/layout"
	"github.com/starford/daybook/internal/pathmatch"
	"github.com/starford/daybook/internal/refs"
	"github.com/starford/daybook/internal/scanner"
)

// Setup describes a journal to build a Service for.
type Setup struct {
	Ext       string
	Scopes    []layout.Scope
	Templates layout.Templates
	Rules     []pathmatch.Rule

	Catalog  catalog.Catalog
	Events   Publisher
	OnCreate journal.CreateHook
	Clock    func() time.Time
	Logger   *slog.Logger
}

// Build wires the journal components described by s.
func Build(s Setup) (*Service, error) {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}

	l, err := layout.New(s.Ext, s.Scopes, s.Templates)
	if err != nil {
		return nil, err
	}
	m, err := pathmatch.New(s.Rules)
	if err != nil {
		return nil, err
	}

	roots := make([]string, 0, len(l.Scopes()))
	for _, sc := range l.Scopes() {
		roots = append(roots, sc.Base)
	}
	docs, err := document.NewFS(roots...)
	if err != nil {
		return nil, fmt.Errorf("service: documents: %w", err)
	}

	opts := []journal.Option{journal.WithLogger(logger)}
	if s.Clock != nil {
		opts = append(opts, journal.WithClock(s.Clock))
	}
	if s.OnCreate != nil {
		opts = append(opts, journal.WithCreateHook(s.OnCreate))
	}

	sc := scanner.New(logger)
	return New(Deps{
		Layout:  l,
		Matcher: m,
		Access:  access.New(sc, m),
		Refs:    refs.New(l, sc, m, logger),
		Journal: journal.New(l, docs, opts...),
		Docs:    docs,
		Catalog: s.Catalog,
		Events:  s.Events,
		Logger:  logger,
	}), nil
}
