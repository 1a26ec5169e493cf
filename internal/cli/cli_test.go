package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/golang-jwt/jwt/v5"
	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/qrcode"
	"github.com/spf13/viper"

	"github.com/ppiankov/vedcheck/internal/model"
)

// run executes the root command with args and stdin, returning stdout
func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	t.Setenv("HOME", t.TempDir())
	viper.Reset()
	color.NoColor = true
	cfgFile, verbose, jsonOut, noColor = "", false, false, false
	decodeQR, verifyQR = "", ""
	verifyTimeout = 30 * time.Second
	watchDebounce, watchDwell = 0, 0
	concurrency, batchTimeout = 0, 10*time.Minute

	var out, errOut bytes.Buffer
	rootCmd.SetArgs(args)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)

	err := rootCmd.Execute()
	return out.String(), err
}

func signedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-key"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return s
}

func appToken(t *testing.T) string {
	return signedToken(t, jwt.MapClaims{
		"ts": "2021-06-01T10:00:00.000Z",
		"n":  "Teszt Elek",
		"id": "123456789",
		"vd": "2021-05-04",
	})
}

func cardServer(t *testing.T, validity string) *httptest.Server {
	t.Helper()
	cells := []string{
		"Card number", "AB123456",
		"Name", "Minta Anna",
		"Vaccination date", "2021.05.04",
		"Vaccine", "Comirnaty",
		"Personal ID", "123456AB",
		"Passport", "HU1234567",
		"Status", validity,
	}
	var b strings.Builder
	b.WriteString(`<html><body><table><tbody class="table-data">`)
	for _, c := range cells {
		fmt.Fprintf(&b, `<tr><td class="table-cell">%s</td></tr>`, c)
	}
	b.WriteString(`</tbody></table></body></html>`)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(b.String()))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func cardURL(t *testing.T, srv *httptest.Server) string {
	return srv.URL + "/card/" + signedToken(t, jwt.MapClaims{"id": "42", "iss": "EESZT"})
}

func TestVersion(t *testing.T) {
	out, err := run(t, "", "version")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "vedcheck "+version) {
		t.Errorf("unexpected output: %q", out)
	}
}

func TestDecode_AppToken(t *testing.T) {
	out, err := run(t, "", "decode", appToken(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{"APP token", "n: Teszt Elek", "id: 123456789"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestDecode_FromStdinAsJSON(t *testing.T) {
	raw := "https://example.test/card/" + signedToken(t, jwt.MapClaims{"id": "42", "iss": "EESZT"})

	out, err := run(t, "\n"+raw+"\n", "decode", "--json")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var got struct {
		Kind   model.TokenKind `json:"kind"`
		Token  model.Token     `json:"token"`
		Claims map[string]any  `json:"claims"`
	}
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, out)
	}
	if got.Kind != model.KindCard || got.Token.Raw != raw || got.Token.ID != "42" {
		t.Errorf("unexpected decode result: %+v", got)
	}
}

func TestDecode_NoToken(t *testing.T) {
	if _, err := run(t, "", "decode", "https://example.test/"); err == nil {
		t.Fatal("expected error for text without token")
	}
}

func TestDecode_NoInput(t *testing.T) {
	_, err := run(t, "", "decode")
	if !errors.Is(err, errNoInput) {
		t.Fatalf("expected errNoInput, got %v", err)
	}
}

// qrPNG renders content as a QR code PNG
func qrPNG(t *testing.T, content string) []byte {
	t.Helper()
	matrix, err := qrcode.NewQRCodeWriter().Encode(content, gozxing.BarcodeFormat_QR_CODE, 400, 400, nil)
	if err != nil {
		t.Fatalf("encode QR: %v", err)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, matrix); err != nil {
		t.Fatalf("encode PNG: %v", err)
	}
	return buf.Bytes()
}

func TestDecode_QRFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "card.png")
	if err := os.WriteFile(path, qrPNG(t, appToken(t)), 0o600); err != nil {
		t.Fatal(err)
	}

	out, err := run(t, "", "decode", "--qr", path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "APP token") {
		t.Errorf("unexpected output:\n%s", out)
	}
}

func TestDecode_QRFromStdin(t *testing.T) {
	out, err := run(t, string(qrPNG(t, appToken(t))), "decode", "--qr", "-")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "n: Teszt Elek") {
		t.Errorf("unexpected output:\n%s", out)
	}
}

func TestDecode_QRFromStdinNotAnImage(t *testing.T) {
	_, err := run(t, appToken(t), "decode", "--qr", "-")
	if err == nil || !strings.Contains(err.Error(), "scan stdin") {
		t.Fatalf("expected stdin scan error, got %v", err)
	}
}

func TestVerify_AppToken(t *testing.T) {
	out, err := run(t, "", "verify", appToken(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{"VALID", "Name: Teszt Elek", "TAJ: 123456789", "Vaccinated: 2021-05-04"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestVerify_CardValid(t *testing.T) {
	srv := cardServer(t, "Érvényes / valid")

	out, err := run(t, "", "verify", "--json", cardURL(t, srv))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var proof model.Proof
	if err := json.Unmarshal([]byte(out), &proof); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, out)
	}
	if !proof.IsValid || proof.Name != "Minta Anna" || proof.VaccinationDate != "2021-05-04" || proof.PassportID != "HU1234567" {
		t.Errorf("unexpected proof: %+v", proof)
	}
}

func TestVerify_CardNotValid(t *testing.T) {
	srv := cardServer(t, "Lejárt")

	out, err := run(t, "", "verify", cardURL(t, srv))
	if !errors.Is(err, errNotValid) {
		t.Fatalf("expected errNotValid, got %v", err)
	}
	if !strings.Contains(out, "INVALID") {
		t.Errorf("expected INVALID verdict:\n%s", out)
	}
}

func TestVerify_Unrecognized(t *testing.T) {
	raw := signedToken(t, jwt.MapClaims{"id": "42", "iss": "SOMEONE"})

	_, err := run(t, "", "verify", raw)
	if !errors.Is(err, model.ErrUnrecognizedToken) {
		t.Fatalf("expected unrecognized token error, got %v", err)
	}
}

func TestWatch_RendersSession(t *testing.T) {
	tok := appToken(t)
	stdin := strings.Join([]string{tok, tok, "", "https://example.test/"}, "\n")

	out, err := run(t, stdin, "watch")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(out, "ready to scan") {
		t.Errorf("expected idle line:\n%s", out)
	}
	if got := strings.Count(out, "checking"); got != 1 {
		t.Errorf("expected exactly one verification, got %d:\n%s", got, out)
	}
	if !strings.Contains(out, "Teszt Elek") {
		t.Errorf("expected proof output:\n%s", out)
	}
}

func TestWatch_ClearCommand(t *testing.T) {
	tok := appToken(t)
	stdin := strings.Join([]string{tok, ClearCommand, tok}, "\n")

	out, err := run(t, stdin, "watch")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := strings.Count(out, "checking"); got != 2 {
		t.Errorf("expected a second verification after clear, got %d:\n%s", got, out)
	}
}

func TestBatch(t *testing.T) {
	srv := cardServer(t, "valid")

	path := filepath.Join(t.TempDir(), "scans.txt")
	content := strings.Join([]string{
		"# morning shift",
		appToken(t),
		cardURL(t, srv),
		"garbage",
	}, "\n")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	out, err := run(t, "", "batch", "--json", path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var got struct {
		Results []batchEntry `json:"results"`
		Summary struct {
			Total  int `json:"total"`
			Valid  int `json:"valid"`
			Failed int `json:"failed"`
		} `json:"summary"`
	}
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, out)
	}
	if got.Summary.Total != 3 || got.Summary.Valid != 2 || got.Summary.Failed != 1 {
		t.Errorf("unexpected summary: %+v", got.Summary)
	}
	if len(got.Results) != 3 || got.Results[2].Verdict != "UNKNOWN" || got.Results[2].Error == "" {
		t.Errorf("unexpected results: %+v", got.Results)
	}
}

func TestConfigInitAndShow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	if _, err := run(t, "", "config", "init", "--config", path); err != nil {
		t.Fatalf("config init: %v", err)
	}
	if _, err := run(t, "", "config", "init", "--config", path); err == nil {
		t.Error("expected error when config already exists")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "debounce: 1s") {
		t.Errorf("durations should be written in Go syntax:\n%s", data)
	}

	edited := strings.Replace(string(data), "dwell: 5s", "dwell: 3s", 1)
	if err := os.WriteFile(path, []byte(edited), 0o600); err != nil {
		t.Fatal(err)
	}

	out, err := run(t, "", "config", "show", "--json", "--config", path)
	if err != nil {
		t.Fatalf("config show: %v", err)
	}

	var cfg model.Config
	if err := json.Unmarshal([]byte(out), &cfg); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, out)
	}
	if cfg.Session.Dwell != 3*time.Second || cfg.Session.Debounce != time.Second {
		t.Errorf("unexpected session config: %+v", cfg.Session)
	}
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("VEDCHECK_LOOKUP_TIMEOUT", "42s")
	t.Setenv("VEDCHECK_LOG_LEVEL", "error")
	t.Setenv("VEDCHECK_LOOKUP_NO_PROXY", "localhost,.internal")
	viper.Reset()
	cfgFile, verbose = "", false

	initConfig()
	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Lookup.Timeout != 42*time.Second {
		t.Errorf("expected env timeout, got %v", cfg.Lookup.Timeout)
	}
	if cfg.Log.Level != "error" {
		t.Errorf("expected env log level, got %q", cfg.Log.Level)
	}
	if cfg.Lookup.NoProxy != "localhost,.internal" {
		t.Errorf("expected env no_proxy, got %q", cfg.Lookup.NoProxy)
	}
	if cfg.Lookup.Issuer != model.DefaultIssuer {
		t.Errorf("expected default issuer, got %q", cfg.Lookup.Issuer)
	}
}
