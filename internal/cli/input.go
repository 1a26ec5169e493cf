package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ppiankov/vedcheck/internal/qr"
	"github.com/ppiankov/vedcheck/internal/worker"
)

// errNoInput is returned when neither an argument, an image nor stdin
// carries a scanned text
var errNoInput = errors.New("no scanned text given (pass it as an argument, with --qr, or on stdin)")

// scannedText picks the scanned text from, in order: a QR image (stdin when
// qrPath is "-"), the first argument, the first line of stdin
func scannedText(args []string, qrPath string, stdin io.Reader) (string, error) {
	if qrPath == "-" {
		text, err := qr.Read(stdin)
		if err != nil {
			return "", fmt.Errorf("scan stdin: %w", err)
		}
		return text, nil
	}
	if qrPath != "" {
		text, err := qr.ScanFile(qrPath)
		if err != nil {
			return "", fmt.Errorf("scan %s: %w", qrPath, err)
		}
		return text, nil
	}

	if len(args) > 0 && strings.TrimSpace(args[0]) != "" && args[0] != "-" {
		return args[0], nil
	}

	lines, err := worker.ReadLines(stdin)
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	if len(lines) == 0 {
		return "", errNoInput
	}
	return lines[0], nil
}
