package token

import (
	"encoding/json"
	"fmt"

	"github.com/ppiankov/vedcheck/internal/model"
)

var (
	appKeys  = []string{model.ClaimTimestamp, model.ClaimCitizenName, model.ClaimID, model.ClaimVaccinationDate}
	cardKeys = []string{model.ClaimID, model.ClaimIssuer}
)

// HasKeys reports whether claims contains every named key
func HasKeys(claims model.Claims, keys ...string) bool {
	if claims == nil {
		return false
	}
	for _, key := range keys {
		if _, ok := claims[key]; !ok {
			return false
		}
	}
	return true
}

// Classifier decides which token shape a claims payload has
type Classifier struct {
	issuer string
}

// NewClassifier creates a classifier accepting cards from issuer
func NewClassifier(issuer string) *Classifier {
	if issuer == "" {
		issuer = model.DefaultIssuer
	}
	return &Classifier{issuer: issuer}
}

// Classify tags claims as an app or card token. App fields are tested first.
func (c *Classifier) Classify(raw string, claims model.Claims) (*model.Token, error) {
	if HasKeys(claims, appKeys...) {
		return &model.Token{
			Kind:            model.KindApp,
			Raw:             raw,
			Timestamp:       claimString(claims, model.ClaimTimestamp),
			CitizenName:     claimString(claims, model.ClaimCitizenName),
			NationalID:      claimString(claims, model.ClaimID),
			VaccinationDate: claimString(claims, model.ClaimVaccinationDate),
		}, nil
	}

	if HasKeys(claims, cardKeys...) {
		issuer := claimString(claims, model.ClaimIssuer)
		if issuer != c.issuer {
			return nil, fmt.Errorf("%w: issuer %q", model.ErrUnrecognizedToken, issuer)
		}
		return &model.Token{
			Kind:    model.KindCard,
			Raw:     raw,
			ID:      claimString(claims, model.ClaimID),
			Issuer:  issuer,
			Subject: claimString(claims, model.ClaimSubject),
		}, nil
	}

	return nil, model.ErrUnrecognizedToken
}

// claimString renders a claim value as text
func claimString(claims model.Claims, key string) string {
	switch v := claims[key].(type) {
	case nil:
		return ""
	case string:
		return v
	case json.Number:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}
