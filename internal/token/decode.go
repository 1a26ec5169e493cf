// Package token turns scanned text into a classified EESZT token.
package token

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/ppiankov/vedcheck/internal/logging"
	"github.com/ppiankov/vedcheck/internal/model"
)

// Separator splits the token from any URL prefix in the scanned text
const Separator = "/"

// Decoder extracts the claims payload from scanned text
type Decoder struct {
	parser *jwt.Parser
	logger *slog.Logger
}

// NewDecoder creates a new decoder
func NewDecoder(logger *slog.Logger) *Decoder {
	return &Decoder{
		parser: jwt.NewParser(jwt.WithPaddingAllowed()),
		logger: logging.OrDiscard(logger),
	}
}

// Segment returns the text after the last separator
func Segment(raw string) string {
	raw = strings.TrimSpace(raw)
	if idx := strings.LastIndex(raw, Separator); idx >= 0 {
		return raw[idx+len(Separator):]
	}
	return raw
}

// Decode reads the claims of the compact JWT at the end of raw.
// It returns nil claims and nil error when there is no token at all.
// The signature is never checked.
func (d *Decoder) Decode(raw string) (model.Claims, error) {
	d.logger.Debug("decoding scanned text", "raw", raw)

	segment := Segment(raw)
	if segment == "" {
		return nil, nil
	}

	// Header and signature are never looked at, only the payload in between
	parts := strings.Split(segment, ".")
	if len(parts) != 3 {
		return nil, fmt.Errorf("decode token: %w: want 3 segments, got %d", jwt.ErrTokenMalformed, len(parts))
	}

	payload, err := d.parser.DecodeSegment(parts[1])
	if err != nil {
		return nil, fmt.Errorf("decode token: %w: payload: %w", jwt.ErrTokenMalformed, err)
	}

	claims := jwt.MapClaims{}
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.UseNumber()
	if err := dec.Decode(&claims); err != nil {
		return nil, fmt.Errorf("decode token: %w: claims: %w", jwt.ErrTokenMalformed, err)
	}

	return model.Claims(claims), nil
}
