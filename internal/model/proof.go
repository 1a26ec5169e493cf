package model

import "time"

// Proof is the normalized, presentation-ready verification result
type Proof struct {
	Kind            TokenKind `json:"kind"`
	LastValidAt     string    `json:"last_valid_at"`    // ISO date-time
	Name            string    `json:"name"`
	VaccinationDate string    `json:"vaccination_date"` // yyyy-MM-dd, or raw text when unparseable
	IsValid         bool      `json:"is_valid"`

	// Exactly one identity group is set: NationalID for app tokens,
	// PersonalID and PassportID for cards.
	NationalID string `json:"national_id,omitempty"`
	PersonalID string `json:"personal_id,omitempty"`
	PassportID string `json:"passport_id,omitempty"`
}

// CardRecord is what a remote lookup yields for an immunity card
type CardRecord struct {
	Name            string    `json:"name"`
	VaccinationDate string    `json:"vaccination_date"` // As printed on the page (yyyy.MM.dd)
	PersonalID      string    `json:"personal_id"`
	PassportID      string    `json:"passport_id"`
	Validity        string    `json:"validity"`
	FetchedAt       time.Time `json:"fetched_at"`
}

// TimestampLayout matches the ISO-8601 form used for LastValidAt
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// FormatTimestamp renders t the way LastValidAt is stored
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}
