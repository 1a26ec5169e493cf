package token

import (
	"log/slog"

	"github.com/ppiankov/vedcheck/internal/model"
)

// Parser runs decoding and classification in one step
type Parser struct {
	decoder    *Decoder
	classifier *Classifier
}

// NewParser creates a parser accepting cards from issuer
func NewParser(issuer string, logger *slog.Logger) *Parser {
	return &Parser{
		decoder:    NewDecoder(logger),
		classifier: NewClassifier(issuer),
	}
}

// Parse decodes and classifies raw. A nil token with nil error means the
// text carried no token.
func (p *Parser) Parse(raw string) (*model.Token, error) {
	claims, err := p.decoder.Decode(raw)
	if err != nil {
		return nil, err
	}
	if claims == nil {
		return nil, nil
	}
	return p.classifier.Classify(raw, claims)
}

// Claims exposes the decoder for callers that only want the payload
func (p *Parser) Claims(raw string) (model.Claims, error) {
	return p.decoder.Decode(raw)
}
