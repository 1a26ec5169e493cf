// Package qr reads scanned text out of photos or screenshots of a proof QR
// code.
package qr

import (
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"strings"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/qrcode"
)

var (
	// ErrNoCode means no QR code could be located in the image
	ErrNoCode = errors.New("no QR code in image")

	// ErrEmptyCode means a QR code was found but carries only whitespace
	ErrEmptyCode = errors.New("QR code carries no text")
)

// binarizers are tried in order. The hybrid one suits screenshots, the
// global histogram one copes better with unevenly lit photos of cards.
var binarizers = []func(gozxing.LuminanceSource) gozxing.Binarizer{
	gozxing.NewHybridBinarizer,
	gozxing.NewGlobalHistgramBinarizer,
}

// ScanFile reads the QR code text from a PNG or JPEG file
func ScanFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open image: %w", err)
	}
	defer f.Close()

	return Read(f)
}

// Read decodes an image from r and returns the QR code text in it
func Read(r io.Reader) (string, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return "", fmt.Errorf("decode image: %w", err)
	}

	text, err := Decode(img)
	if err != nil {
		return "", fmt.Errorf("%s image: %w", format, err)
	}
	return text, nil
}

// Decode returns the trimmed QR code text found in img
func Decode(img image.Image) (string, error) {
	src := gozxing.NewLuminanceSourceFromImage(img)
	hints := map[gozxing.DecodeHintType]interface{}{
		gozxing.DecodeHintType_TRY_HARDER:    true,
		gozxing.DecodeHintType_CHARACTER_SET: "UTF-8",
	}
	reader := qrcode.NewQRCodeReader()

	var lastErr error
	for _, binarizer := range binarizers {
		bmp, err := gozxing.NewBinaryBitmap(binarizer(src))
		if err != nil {
			return "", fmt.Errorf("create bitmap: %w", err)
		}

		result, err := reader.Decode(bmp, hints)
		if err != nil {
			lastErr = err
			reader.Reset()
			continue
		}

		text := strings.TrimSpace(result.GetText())
		if text == "" {
			return "", ErrEmptyCode
		}
		return text, nil
	}

	return "", fmt.Errorf("%w: %w", ErrNoCode, lastErr)
}
