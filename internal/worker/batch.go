package worker

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ppiankov/vedcheck/internal/model"
)

// Verifier turns one scanned text into a proof
type Verifier interface {
	Verify(ctx context.Context, raw string) (*model.Proof, error)
}

// VerifyJob verifies a single scanned text
type VerifyJob struct {
	Index    int
	Raw      string
	Verifier Verifier
}

// Execute runs the verification
func (j *VerifyJob) Execute(ctx context.Context) Result {
	proof, err := j.Verifier.Verify(ctx, j.Raw)
	return &VerifyResult{
		Index: j.Index,
		Raw:   j.Raw,
		Proof: proof,
		Error: err,
	}
}

// VerifyResult is the outcome for one scanned text. A nil Proof with nil
// Error means the text carried no token.
type VerifyResult struct {
	Index int
	Raw   string
	Proof *model.Proof
	Error error
}

// Err returns the verification error
func (r *VerifyResult) Err() error {
	return r.Error
}

// BatchProcessor verifies many scanned texts concurrently
type BatchProcessor struct {
	verifier    Verifier
	concurrency int
}

// NewBatchProcessor creates a batch processor
func NewBatchProcessor(verifier Verifier, concurrency int) *BatchProcessor {
	return &BatchProcessor{
		verifier:    verifier,
		concurrency: concurrency,
	}
}

// ProcessTokens verifies raws and returns results in input order. Texts
// not submitted before ctx ends get ctx's error.
func (b *BatchProcessor) ProcessTokens(ctx context.Context, raws []string) []*VerifyResult {
	out := make([]*VerifyResult, len(raws))
	if len(raws) == 0 {
		return out
	}

	pool := NewPool(ctx, b.concurrency)
	pool.Start()

	interrupted := false
	for i, raw := range raws {
		if !pool.Submit(&VerifyJob{Index: i, Raw: raw, Verifier: b.verifier}) {
			interrupted = true
			break
		}
	}

	var results []Result
	if interrupted {
		results = pool.Shutdown()
	} else {
		results = pool.Wait()
	}

	for _, r := range results {
		vr := r.(*VerifyResult)
		out[vr.Index] = vr
	}

	for i, raw := range raws {
		if out[i] == nil {
			err := ctx.Err()
			if err == nil {
				err = context.Canceled
			}
			out[i] = &VerifyResult{Index: i, Raw: raw, Error: err}
		}
	}

	return out
}

// ProcessFile verifies every scanned text listed in filePath
func (b *BatchProcessor) ProcessFile(ctx context.Context, filePath string) ([]*VerifyResult, error) {
	raws, err := ReadLinesFromFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read scans: %w", err)
	}

	return b.ProcessTokens(ctx, raws), nil
}

// ReadLinesFromFile reads scanned texts from a file, one per line
func ReadLinesFromFile(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	return ReadLines(file)
}

// ReadLines reads scanned texts from r, skipping blank lines, comments and
// duplicates
func ReadLines(r io.Reader) ([]string, error) {
	var lines []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if !seen[line] {
			seen[line] = true
			lines = append(lines, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan lines: %w", err)
	}

	return lines, nil
}
