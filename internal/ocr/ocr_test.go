package ocr

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/chaz8081/scraper/internal/config"
	"github.com/chaz8081/scraper/internal/textmetrics"
)

// ensureTesseractAvailable checks that the tesseract binary is reachable.
func ensureTesseractAvailable(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("tesseract"); err != nil {
		t.Skip("tesseract not installed in PATH")
	}
}

// renderText draws text in black on a white canvas and returns it PNG-encoded.
func renderText(t *testing.T, text string) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 200, 80))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)

	d := &font.Drawer{
		Dst:  img,
		Src:  image.Black,
		Face: basicfont.Face7x13,
		Dot:  fixed.P(10, 50),
	}
	d.DrawString(text)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func TestExtract(t *testing.T) {
	ensureTesseractAvailable(t)

	path := filepath.Join(t.TempDir(), "hello.png")
	if err := os.WriteFile(path, renderText(t, "HELLO"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg := config.Default().OCR
	cfg.DPI = 300
	cfg.Scale = 3

	text, err := New(cfg).Extract(context.Background(), path)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if !strings.Contains(strings.ToUpper(text), "HELLO") {
		if cer := textmetrics.ComputeCER("HELLO", text); cer.Rate > 0.2 {
			t.Errorf("Extract() = %q, want HELLO (CER %.2f)", text, cer.Rate)
		}
	}
}

func TestExtractMissingFile(t *testing.T) {
	_, err := New(config.Default().OCR).Extract(context.Background(), filepath.Join(t.TempDir(), "none.png"))
	if err == nil {
		t.Error("Extract() of a missing file should fail")
	}
}

func TestRecognizeCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := New(config.Default().OCR).Recognize(ctx, nil); err == nil {
		t.Error("Recognize() with a cancelled context should fail")
	}
}

func TestUpscale(t *testing.T) {
	data := renderText(t, "HI")

	t.Run("factor 1 is a no-op", func(t *testing.T) {
		got, err := Upscale(data, 1)
		if err != nil {
			t.Fatalf("Upscale() error = %v", err)
		}
		if !bytes.Equal(got, data) {
			t.Error("Upscale(1) should return the input bytes")
		}
	})

	t.Run("factor 2 doubles dimensions", func(t *testing.T) {
		got, err := Upscale(data, 2)
		if err != nil {
			t.Fatalf("Upscale() error = %v", err)
		}
		img, err := png.Decode(bytes.NewReader(got))
		if err != nil {
			t.Fatalf("decode scaled image: %v", err)
		}
		if b := img.Bounds(); b.Dx() != 400 || b.Dy() != 160 {
			t.Errorf("scaled size = %dx%d, want 400x160", b.Dx(), b.Dy())
		}
	})

	t.Run("undecodable input", func(t *testing.T) {
		if _, err := Upscale([]byte("not an image"), 2); err == nil {
			t.Error("Upscale() of garbage should fail")
		}
	})
}
