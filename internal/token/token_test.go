package token

import (
	"encoding/base64"
	"errors"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/ppiankov/vedcheck/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signed(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-key"))
	require.NoError(t, err)
	return s
}

func rawSegments(header, payload string) string {
	enc := base64.RawURLEncoding
	return enc.EncodeToString([]byte(header)) + "." + enc.EncodeToString([]byte(payload)) + ".c2ln"
}

func TestSegment(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"https://example/abc.def.ghi", "abc.def.ghi"},
		{"abc.def.ghi", "abc.def.ghi"},
		{"  https://a/b/c  ", "c"},
		{"https://example/", ""},
		{"", ""},
		{"/", ""},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, Segment(tt.raw))
		})
	}
}

func TestDecode_AbsentWithoutFinalSegment(t *testing.T) {
	d := NewDecoder(nil)
	for _, raw := range []string{"", "   ", "/", "https://example/", "a/b/"} {
		claims, err := d.Decode(raw)
		assert.NoError(t, err, raw)
		assert.Nil(t, claims, raw)
	}
}

func TestDecode_ReadsClaimsWithoutVerifying(t *testing.T) {
	tok := signed(t, jwt.MapClaims{"ts": "2021-06-01T00:00:00Z", "n": "Jane Doe", "id": "123", "vd": "2021-05-01"})
	// Tamper with the signature: decoding must not care
	tok = tok[:len(tok)-2] + "xx"

	claims, err := NewDecoder(nil).Decode("https://example/" + tok)
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", claims["n"])
	assert.Equal(t, "123", claims["id"])
}

func TestDecode_UnknownAlgStillDecodes(t *testing.T) {
	raw := rawSegments(`{"alg":"XX99"}`, `{"id":"card-1","iss":"EESZT"}`)

	claims, err := NewDecoder(nil).Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, "EESZT", claims["iss"])
}

func TestDecode_IgnoresUnreadableHeader(t *testing.T) {
	raw := rawSegments("not json", `{"ts":"2021-06-01T00:00:00Z","n":"Jane Doe","id":"123","vd":"2021-05-01"}`)

	tok, err := NewParser("", nil).Parse("https://example/" + raw)
	require.NoError(t, err)
	assert.Equal(t, model.KindApp, tok.Kind)
	assert.Equal(t, "Jane Doe", tok.CitizenName)
}

func TestDecode_PaddedPayload(t *testing.T) {
	enc := base64.URLEncoding
	raw := "x." + enc.EncodeToString([]byte(`{"id":"card-1","iss":"EESZT"}`)) + ".sig"

	claims, err := NewDecoder(nil).Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, "card-1", claims["id"])
}

func TestDecode_Malformed(t *testing.T) {
	d := NewDecoder(nil)
	for _, raw := range []string{"not-a-token", "https://example/abc.def.ghi", "a.b", rawSegments("{}", "[1,2]")} {
		_, err := d.Decode(raw)
		assert.ErrorIs(t, err, jwt.ErrTokenMalformed, raw)
	}
}

func TestDecode_KeepsNumbersExact(t *testing.T) {
	raw := rawSegments(`{"alg":"RS256"}`, `{"ts":"2021-06-01T00:00:00Z","n":"A","id":123456789012,"vd":"2021-05-01"}`)

	tok, err := NewParser("", nil).Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "123456789012", tok.NationalID)
}

func TestHasKeys(t *testing.T) {
	claims := model.Claims{"a": 1, "b": nil}

	assert.True(t, HasKeys(claims, "a"))
	assert.True(t, HasKeys(claims, "a", "b"))
	assert.False(t, HasKeys(claims, "a", "c"))
	assert.True(t, HasKeys(claims))
	assert.False(t, HasKeys(nil, "a"))
}

func TestClassify_App(t *testing.T) {
	claims := model.Claims{
		"ts": "2021-06-01T00:00:00Z", "n": "Jane Doe", "id": "123", "vd": "2021-05-01",
		"iss": "somebody-else", "extra": true,
	}

	tok, err := NewClassifier("").Classify("raw", claims)
	require.NoError(t, err)
	assert.Equal(t, model.KindApp, tok.Kind)
	assert.Equal(t, "2021-06-01T00:00:00Z", tok.Timestamp)
	assert.Equal(t, "Jane Doe", tok.CitizenName)
	assert.Equal(t, "123", tok.NationalID)
	assert.Equal(t, "2021-05-01", tok.VaccinationDate)
	assert.Equal(t, "raw", tok.Raw)
	assert.False(t, tok.NeedsLookup())
}

func TestClassify_Card(t *testing.T) {
	claims := model.Claims{"id": "card-1", "iss": "EESZT", "sub": "x"}

	tok, err := NewClassifier("").Classify("https://lookup/abc", claims)
	require.NoError(t, err)
	assert.Equal(t, model.KindCard, tok.Kind)
	assert.Equal(t, "card-1", tok.ID)
	assert.Equal(t, "EESZT", tok.Issuer)
	assert.Equal(t, "x", tok.Subject)
	assert.True(t, tok.NeedsLookup())
}

func TestClassify_CardWrongIssuer(t *testing.T) {
	for _, iss := range []string{"eeszt", "OTHER", ""} {
		_, err := NewClassifier("").Classify("raw", model.Claims{"id": "1", "iss": iss})
		assert.True(t, errors.Is(err, model.ErrUnrecognizedToken), "issuer %q", iss)
	}
}

func TestClassify_CustomIssuer(t *testing.T) {
	tok, err := NewClassifier("TEST").Classify("raw", model.Claims{"id": "1", "iss": "TEST"})
	require.NoError(t, err)
	assert.Equal(t, model.KindCard, tok.Kind)
}

func TestClassify_Unrecognized(t *testing.T) {
	for _, claims := range []model.Claims{
		{},
		{"id": "1"},
		{"ts": "x", "n": "y", "vd": "z"},
		{"iss": "EESZT"},
	} {
		_, err := NewClassifier("").Classify("raw", claims)
		assert.ErrorIs(t, err, model.ErrUnrecognizedToken)
	}
}

func TestParse_Scenario(t *testing.T) {
	tok := signed(t, jwt.MapClaims{"ts": "2021-06-01T00:00:00Z", "n": "Jane Doe", "id": "123", "vd": "2021-05-01"})
	raw := "https://example/" + tok

	got, err := NewParser("", nil).Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, model.KindApp, got.Kind)
	assert.Equal(t, raw, got.Raw)
}

func TestParse_Absent(t *testing.T) {
	got, err := NewParser("", nil).Parse("https://example/")
	assert.NoError(t, err)
	assert.Nil(t, got)
}
