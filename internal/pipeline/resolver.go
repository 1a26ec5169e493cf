package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ppiankov/vedcheck/internal/logging"
	"github.com/ppiankov/vedcheck/internal/model"
)

// Date layouts of the lookup page and of proofs
const (
	PageDateLayout  = "2006.01.02"
	ProofDateLayout = "2006-01-02"
)

// pageDateLayouts also accept single-digit month and day
var pageDateLayouts = []string{PageDateLayout, "2006.1.2"}

// ValidMarker is searched for in the validity cell of a card
const ValidMarker = "valid"

// Resolver turns classified tokens into proofs
type Resolver struct {
	lookup CardLookup
	logger *slog.Logger
}

// NewResolver creates a resolver using lookup for card tokens
func NewResolver(lookup CardLookup, logger *slog.Logger) *Resolver {
	return &Resolver{
		lookup: lookup,
		logger: logging.OrDiscard(logger),
	}
}

// Resolve builds the proof for tok. App tokens never touch the network.
func (r *Resolver) Resolve(ctx context.Context, tok *model.Token) (*model.Proof, error) {
	switch tok.Kind {
	case model.KindApp:
		return resolveApp(tok), nil
	case model.KindCard:
		return r.resolveCard(ctx, tok)
	default:
		return nil, fmt.Errorf("%w: kind %q", model.ErrUnrecognizedToken, tok.Kind)
	}
}

// resolveApp trusts the token as-is; its signature is not checked
func resolveApp(tok *model.Token) *model.Proof {
	return &model.Proof{
		Kind:            model.KindApp,
		LastValidAt:     tok.Timestamp,
		Name:            tok.CitizenName,
		VaccinationDate: tok.VaccinationDate,
		NationalID:      tok.NationalID,
		IsValid:         true,
	}
}

func (r *Resolver) resolveCard(ctx context.Context, tok *model.Token) (*model.Proof, error) {
	if r.lookup == nil {
		return nil, &model.ProofResolutionError{URL: tok.Raw, Err: fmt.Errorf("no card lookup configured")}
	}

	rec, err := r.lookup.Lookup(ctx, tok.Raw)
	if err != nil {
		return nil, &model.ProofResolutionError{URL: tok.Raw, Err: err}
	}

	vaccinationDate, ok := ReformatDate(rec.VaccinationDate)
	if !ok {
		r.logger.Debug("keeping unparseable vaccination date", "value", rec.VaccinationDate)
	}

	fetchedAt := rec.FetchedAt
	if fetchedAt.IsZero() {
		fetchedAt = fetchNow()
	}

	return &model.Proof{
		Kind:            model.KindCard,
		LastValidAt:     model.FormatTimestamp(fetchedAt),
		Name:            rec.Name,
		VaccinationDate: vaccinationDate,
		PersonalID:      rec.PersonalID,
		PassportID:      rec.PassportID,
		IsValid:         strings.Contains(rec.Validity, ValidMarker),
	}, nil
}

// ReformatDate converts a yyyy.MM.dd date to yyyy-MM-dd. On failure the
// input is returned unchanged with ok=false.
func ReformatDate(s string) (string, bool) {
	trimmed := strings.TrimSpace(s)
	for _, layout := range pageDateLayouts {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return t.Format(ProofDateLayout), true
		}
	}
	return s, false
}
