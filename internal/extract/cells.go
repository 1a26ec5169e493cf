// Package extract pulls the result cells out of a card lookup page.
package extract

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ppiankov/vedcheck/internal/model"
)

// Markers of the result table on the lookup page
const (
	TableOpen  = `<tbody class="table-data">`
	TableClose = `</tbody>`
	TableClass = "table-data"
	CellClass  = "table-cell"
)

// Positions of the fields inside the result table
const (
	CellName            = 3
	CellVaccinationDate = 5
	CellPersonalID      = 9
	CellPassportID      = 11
	CellValidity        = 13
)

// CellParser returns the ordered cell texts of the result table
type CellParser interface {
	Name() string
	Cells(page string) ([]string, error)
}

// NewCellParser returns the parser registered under name
func NewCellParser(name string) (CellParser, error) {
	switch strings.ToLower(name) {
	case "", model.ParserDelimiter:
		return NewDelimiterParser(), nil
	case model.ParserHTML:
		return NewHTMLParser(), nil
	default:
		return nil, fmt.Errorf("unknown lookup parser %q (want %s or %s)", name, model.ParserDelimiter, model.ParserHTML)
	}
}

var cellPattern = regexp.MustCompile(`(?s)<td class="table-cell">(.*?)</td>`)

// DelimiterParser slices the table body by its tags and matches cells with
// a pattern. It never builds a document tree.
type DelimiterParser struct{}

// NewDelimiterParser creates a new delimiter parser
func NewDelimiterParser() *DelimiterParser {
	return &DelimiterParser{}
}

// Name returns the parser name
func (p *DelimiterParser) Name() string {
	return model.ParserDelimiter
}

// Cells extracts cell texts between the table body tags
func (p *DelimiterParser) Cells(page string) ([]string, error) {
	start := strings.Index(page, TableOpen)
	if start < 0 {
		return nil, model.ErrNoResultTable
	}

	body := page[start:]
	if end := strings.Index(body, TableClose); end >= 0 {
		body = body[:end+len(TableClose)]
	}

	matches := cellPattern.FindAllStringSubmatch(body, -1)
	cells := make([]string, 0, len(matches))
	for _, m := range matches {
		cells = append(cells, strings.TrimSpace(m[1]))
	}

	return cells, nil
}

// CardRecordFromCells maps table cells onto a card record
func CardRecordFromCells(cells []string) (*model.CardRecord, error) {
	if len(cells) <= CellValidity {
		return nil, fmt.Errorf("%w: got %d, need %d", model.ErrMissingCell, len(cells), CellValidity+1)
	}

	return &model.CardRecord{
		Name:            cells[CellName],
		VaccinationDate: cells[CellVaccinationDate],
		PersonalID:      cells[CellPersonalID],
		PassportID:      cells[CellPassportID],
		Validity:        cells[CellValidity],
	}, nil
}
