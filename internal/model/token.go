package model

// Claims is the decoded claims payload of a scanned token
type Claims map[string]any

// TokenKind discriminates the two supported token shapes
type TokenKind string

const (
	KindApp  TokenKind = "app"  // Self-contained token issued by the EESZT app
	KindCard TokenKind = "card" // Immunity card token, proof lives behind a lookup URL
)

// Claim keys used by the supported token shapes
const (
	ClaimTimestamp       = "ts"
	ClaimCitizenName     = "n"
	ClaimID              = "id"
	ClaimVaccinationDate = "vd"
	ClaimIssuer          = "iss"
	ClaimSubject         = "sub"
)

// DefaultIssuer is the only issuer accepted for card tokens
const DefaultIssuer = "EESZT"

// Token is a classified token. Only the fields of its Kind are populated.
type Token struct {
	Kind TokenKind `json:"kind"`
	Raw  string    `json:"raw"` // Full scanned text (lookup URL for cards)

	// App tokens
	Timestamp       string `json:"timestamp,omitempty"`        // ISO date-time
	CitizenName     string `json:"citizen_name,omitempty"`
	NationalID      string `json:"national_id,omitempty"`      // TAJ number
	VaccinationDate string `json:"vaccination_date,omitempty"` // ISO date

	// Card tokens
	ID      string `json:"id,omitempty"`
	Issuer  string `json:"issuer,omitempty"`
	Subject string `json:"subject,omitempty"`
}

// NeedsLookup reports whether the proof must be fetched remotely
func (t *Token) NeedsLookup() bool {
	return t.Kind == KindCard
}
