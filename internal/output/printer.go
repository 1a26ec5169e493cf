// Package output renders proofs, claims and session transitions for the
// terminal.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/ppiankov/vedcheck/internal/model"
	"github.com/ppiankov/vedcheck/internal/session"
	"github.com/ppiankov/vedcheck/internal/worker"
)

var (
	headerColor  = color.New(color.FgCyan, color.Bold)
	labelColor   = color.New(color.FgYellow)
	dimColor     = color.New(color.Faint)
	successColor = color.New(color.FgGreen, color.Bold)
	errorColor   = color.New(color.FgRed, color.Bold)
	warnColor    = color.New(color.FgYellow, color.Bold)
)

// Verdicts shown for a scan
const (
	VerdictValid   = "VALID"
	VerdictInvalid = "INVALID"
	VerdictUnknown = "UNKNOWN"
)

// Options controls rendering
type Options struct {
	JSON    bool
	Verbose bool
}

// Printer writes human or JSON output to w
type Printer struct {
	w    io.Writer
	opts Options
}

// New creates a printer
func New(w io.Writer, opts Options) *Printer {
	return &Printer{w: w, opts: opts}
}

// Verdict names the outcome of a proof; nil means unknown
func Verdict(proof *model.Proof) string {
	switch {
	case proof == nil:
		return VerdictUnknown
	case proof.IsValid:
		return VerdictValid
	default:
		return VerdictInvalid
	}
}

// JSON writes v as indented JSON
func (p *Printer) JSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal output: %w", err)
	}
	_, err = fmt.Fprintln(p.w, string(data))
	return err
}

// Proof prints a resolved proof
func (p *Printer) Proof(proof *model.Proof) error {
	if p.opts.JSON {
		return p.JSON(proof)
	}

	p.verdict(Verdict(proof))
	if proof == nil {
		return nil
	}

	p.field("Name", proof.Name)
	p.field("Vaccinated", proof.VaccinationDate)
	switch proof.Kind {
	case model.KindApp:
		p.field("TAJ", proof.NationalID)
	case model.KindCard:
		p.field("Personal ID", proof.PersonalID)
		p.field("Passport", proof.PassportID)
	}
	p.field("Checked", PrettyTimestamp(proof.LastValidAt))
	if p.opts.Verbose {
		dimColor.Fprintf(p.w, "  kind=%s last_valid_at=%s\n", proof.Kind, proof.LastValidAt)
	}
	return nil
}

// Claims prints a decoded token and its claims
func (p *Printer) Claims(tok *model.Token, claims model.Claims) error {
	if p.opts.JSON {
		return p.JSON(map[string]any{
			"kind":   tok.Kind,
			"token":  tok,
			"claims": claims,
		})
	}

	headerColor.Fprintf(p.w, "%s token\n", strings.ToUpper(string(tok.Kind)))
	headerColor.Fprintln(p.w, strings.Repeat("─", 40))

	keys := make([]string, 0, len(claims))
	for k := range claims {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		p.field(k, fmt.Sprint(claims[k]))
	}
	if tok.NeedsLookup() {
		dimColor.Fprintf(p.w, "  lookup: %s\n", tok.Raw)
	}
	return nil
}

// Snapshot prints one session transition
func (p *Printer) Snapshot(s session.Snapshot) error {
	if p.opts.JSON {
		return p.JSON(s)
	}

	stamp := dimColor.Sprint(s.At.Format("15:04:05.000"))
	switch {
	case s.State == session.Idle:
		fmt.Fprintf(p.w, "%s ready to scan\n", stamp)
	case s.Loading():
		fmt.Fprintf(p.w, "%s checking %s\n", stamp, shortID(s.ScanID))
	case s.Unknown:
		fmt.Fprintf(p.w, "%s ", stamp)
		p.verdict(VerdictUnknown)
		if s.Offline {
			warnColor.Fprintln(p.w, "  no internet connection?")
		}
	default:
		fmt.Fprintf(p.w, "%s ", stamp)
		return p.Proof(s.Proof)
	}
	return nil
}

// BatchResult prints one line for a batch entry
func (p *Printer) BatchResult(r *worker.VerifyResult) {
	switch {
	case r.Error != nil:
		errorColor.Fprint(p.w, "✗ ")
		fmt.Fprintf(p.w, "%s: %v\n", truncate(r.Raw, 60), r.Error)
	case r.Proof == nil:
		dimColor.Fprintf(p.w, "- %s: no token\n", truncate(r.Raw, 60))
	case r.Proof.IsValid:
		successColor.Fprint(p.w, "✓ ")
		fmt.Fprintf(p.w, "%s (%s)\n", r.Proof.Name, r.Proof.VaccinationDate)
	default:
		errorColor.Fprint(p.w, "✗ ")
		fmt.Fprintf(p.w, "%s: %s\n", r.Proof.Name, VerdictInvalid)
	}
}

// BatchSummary tallies batch results
type BatchSummary struct {
	Total   int `json:"total"`
	Valid   int `json:"valid"`
	Invalid int `json:"invalid"`
	Failed  int `json:"failed"`
	Empty   int `json:"empty"`
}

// Summarize counts outcomes of results
func Summarize(results []*worker.VerifyResult) BatchSummary {
	s := BatchSummary{Total: len(results)}
	for _, r := range results {
		switch {
		case r.Error != nil:
			s.Failed++
		case r.Proof == nil:
			s.Empty++
		case r.Proof.IsValid:
			s.Valid++
		default:
			s.Invalid++
		}
	}
	return s
}

// Summary prints batch totals
func (p *Printer) Summary(s BatchSummary) {
	fmt.Fprintln(p.w)
	headerColor.Fprintln(p.w, "Batch complete")
	p.field("Total", fmt.Sprint(s.Total))
	p.field("Valid", fmt.Sprint(s.Valid))
	p.field("Invalid", fmt.Sprint(s.Invalid))
	p.field("Failed", fmt.Sprint(s.Failed))
	if s.Empty > 0 {
		p.field("No token", fmt.Sprint(s.Empty))
	}
}

func (p *Printer) verdict(v string) {
	switch v {
	case VerdictValid:
		successColor.Fprintln(p.w, v)
	case VerdictInvalid:
		errorColor.Fprintln(p.w, v)
	default:
		warnColor.Fprintln(p.w, v)
	}
}

func (p *Printer) field(label, value string) {
	labelColor.Fprintf(p.w, "  %s: ", label)
	fmt.Fprintln(p.w, value)
}

// PrettyTimestamp renders an ISO timestamp in local time, or returns it
// unchanged when it does not parse
func PrettyTimestamp(ts string) string {
	t, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return ts
	}
	return t.Local().Format("2006-01-02 15:04")
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// truncate shortens s to at most n runes
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
