package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ppiankov/vedcheck/internal/output"
	"github.com/ppiankov/vedcheck/internal/pipeline"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	verifyQR      string
	verifyTimeout time.Duration
)

// errNotValid is returned when a proof is resolved but not valid
var errNotValid = errors.New("proof is not valid")

var verifyCmd = &cobra.Command{
	Use:   "verify [scanned-text]",
	Short: "Verify a scanned immunity proof",
	Long: `Verify decodes a scanned token, looks up immunity cards on the EESZT
page and prints the resulting proof. The exit status is non-zero unless
the proof is VALID.

Example:
  vedcheck verify 'https://example.test/card/eyJhbGciOi...'
  vedcheck verify --qr card.png --json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)
	verifyCmd.Flags().StringVar(&verifyQR, "qr", "", "read the scanned text from a QR code image (- for stdin)")
	verifyCmd.Flags().DurationVar(&verifyTimeout, "timeout", 30*time.Second, "overall verification timeout")
}

func runVerify(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return err
	}

	raw, err := scannedText(args, verifyQR, cmd.InOrStdin())
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), verifyTimeout)
	defer cancel()

	p, err := pipeline.NewPipeline(cfg, newLogger(cfg))
	if err != nil {
		return err
	}

	proof, err := p.Verify(ctx, raw)
	if err != nil {
		return fmt.Errorf("verify failed: %w", err)
	}
	if proof == nil {
		return fmt.Errorf("%q carries no token", raw)
	}

	if err := newPrinter(cmd.OutOrStdout()).Proof(proof); err != nil {
		return err
	}
	if output.Verdict(proof) != output.VerdictValid {
		return errNotValid
	}
	return nil
}
