package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ppiankov/vedcheck/internal/cache"
	"github.com/ppiankov/vedcheck/internal/extract"
	"github.com/ppiankov/vedcheck/internal/logging"
	"github.com/ppiankov/vedcheck/internal/model"
	"github.com/ppiankov/vedcheck/internal/worker"
	"golang.org/x/sync/singleflight"
)

// CardLookup fetches the record behind an immunity card URL
type CardLookup interface {
	Lookup(ctx context.Context, url string) (*model.CardRecord, error)
}

// ScrapeLookup reads card records from the public lookup page
type ScrapeLookup struct {
	fetcher *Fetcher
	parser  extract.CellParser
	cache   cache.Cache
	limiter *worker.Limiter
	group   singleflight.Group
	logger  *slog.Logger
}

// NewScrapeLookup creates a lookup. cache and limiter may be nil.
func NewScrapeLookup(fetcher *Fetcher, parser extract.CellParser, c cache.Cache, limiter *worker.Limiter, logger *slog.Logger) *ScrapeLookup {
	if c == nil {
		c = cache.Noop{}
	}
	return &ScrapeLookup{
		fetcher: fetcher,
		parser:  parser,
		cache:   c,
		limiter: limiter,
		logger:  logging.OrDiscard(logger),
	}
}

// Lookup fetches and parses the card page at url. Concurrent lookups of the
// same url share one request.
func (l *ScrapeLookup) Lookup(ctx context.Context, url string) (*model.CardRecord, error) {
	key := cache.CacheKey(url)
	if rec, ok := l.cache.Get(key); ok {
		l.logger.Debug("card lookup served from cache", "url", url)
		return rec, nil
	}

	v, err, shared := l.group.Do(key, func() (any, error) {
		return l.lookup(ctx, url)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		l.logger.Debug("card lookup shared with a concurrent request", "url", url)
	}

	rec := *v.(*model.CardRecord)
	l.cache.Set(key, &rec, 0)
	return &rec, nil
}

func (l *ScrapeLookup) lookup(ctx context.Context, url string) (*model.CardRecord, error) {
	if err := l.limiter.Wait(ctx, url); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}

	result, err := l.fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}

	cells, err := l.parser.Cells(result.Body)
	if err != nil {
		return nil, fmt.Errorf("parse lookup page: %w", err)
	}

	rec, err := extract.CardRecordFromCells(cells)
	if err != nil {
		return nil, err
	}
	rec.FetchedAt = result.FetchedAt

	l.logger.Debug("card lookup complete", "url", url, "parser", l.parser.Name(), "cells", len(cells))
	return rec, nil
}
