package pipeline

import (
	"fmt"
	"strings"
	"testing"

	"github.com/golang-jwt/jwt/v5"
)

// cardPage renders a lookup page with the fields at their table positions
func cardPage(name, date, personalID, passportID, validity string) string {
	cells := []string{
		"Card number", "AB123456",
		"Name", name,
		"Vaccination date", date,
		"Vaccine", "Comirnaty",
		"Personal ID", personalID,
		"Passport", passportID,
		"Status", validity,
	}

	var b strings.Builder
	b.WriteString(`<html><body><table><tbody class="table-data">`)
	for _, c := range cells {
		fmt.Fprintf(&b, `<tr><td class="table-cell">%s</td></tr>`, c)
	}
	b.WriteString(`</tbody></table></body></html>`)
	return b.String()
}

func signedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-key"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return s
}
