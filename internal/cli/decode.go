package cli

import (
	"fmt"

	"github.com/ppiankov/vedcheck/internal/token"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var decodeQR string

var decodeCmd = &cobra.Command{
	Use:   "decode [scanned-text]",
	Short: "Decode and classify a scanned token without any lookup",
	Long: `Decode reads the claims of a scanned token and reports which shape it
has. No network request is made.

Example:
  vedcheck decode 'https://example.test/card/eyJhbGciOi...'
  vedcheck decode --qr card.png
  echo 'eyJhbGciOi...' | vedcheck decode`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDecode,
}

func init() {
	rootCmd.AddCommand(decodeCmd)
	decodeCmd.Flags().StringVar(&decodeQR, "qr", "", "read the scanned text from a QR code image (- for stdin)")
}

func runDecode(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return err
	}

	raw, err := scannedText(args, decodeQR, cmd.InOrStdin())
	if err != nil {
		return err
	}

	parser := token.NewParser(cfg.Lookup.Issuer, newLogger(cfg))

	claims, err := parser.Claims(raw)
	if err != nil {
		return err
	}
	if claims == nil {
		return fmt.Errorf("%q carries no token", raw)
	}

	tok, err := parser.Parse(raw)
	if err != nil {
		return err
	}

	return newPrinter(cmd.OutOrStdout()).Claims(tok, claims)
}
