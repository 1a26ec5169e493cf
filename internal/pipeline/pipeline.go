// Package pipeline resolves scanned tokens into immunity proofs.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ppiankov/vedcheck/internal/cache"
	"github.com/ppiankov/vedcheck/internal/extract"
	"github.com/ppiankov/vedcheck/internal/logging"
	"github.com/ppiankov/vedcheck/internal/model"
	"github.com/ppiankov/vedcheck/internal/token"
	"github.com/ppiankov/vedcheck/internal/worker"
)

// Pipeline orchestrates decode, classification and resolution
type Pipeline struct {
	parser   *token.Parser
	resolver *Resolver
	logger   *slog.Logger
}

// NewPipeline creates a pipeline wired from cfg
func NewPipeline(cfg *model.Config, logger *slog.Logger) (*Pipeline, error) {
	logger = logging.OrDiscard(logger)

	parser, err := extract.NewCellParser(cfg.Lookup.Parser)
	if err != nil {
		return nil, err
	}

	lookup := NewScrapeLookup(
		NewFetcher(cfg.Lookup),
		parser,
		cache.New(cfg.Cache),
		worker.NewLimiter(cfg.Lookup.RequestsPerSecond, cfg.Lookup.Burst),
		logger,
	)

	return New(token.NewParser(cfg.Lookup.Issuer, logger), NewResolver(lookup, logger), logger), nil
}

// New assembles a pipeline from its parts
func New(parser *token.Parser, resolver *Resolver, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		parser:   parser,
		resolver: resolver,
		logger:   logging.OrDiscard(logger),
	}
}

// Parse decodes and classifies raw; nil token means nothing was scanned
func (p *Pipeline) Parse(raw string) (*model.Token, error) {
	return p.parser.Parse(raw)
}

// Resolve builds the proof for a classified token
func (p *Pipeline) Resolve(ctx context.Context, tok *model.Token) (*model.Proof, error) {
	return p.resolver.Resolve(ctx, tok)
}

// Verify runs the whole pipeline on raw. A nil proof with nil error means
// the text carried no token.
func (p *Pipeline) Verify(ctx context.Context, raw string) (*model.Proof, error) {
	tok, err := p.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	if tok == nil {
		return nil, nil
	}

	proof, err := p.Resolve(ctx, tok)
	if err != nil {
		return nil, err
	}

	p.logger.Debug("proof resolved", "kind", proof.Kind, "valid", proof.IsValid)
	return proof, nil
}
