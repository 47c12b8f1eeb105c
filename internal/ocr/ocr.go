// Package ocr recognises text in PNG and JPEG images with Tesseract.
package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"
	"log/slog"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/otiai10/gosseract/v2"
	"golang.org/x/image/draw"

	"github.com/chaz8081/scraper/internal/config"
)

// Engine runs Tesseract with the configured languages and variables.
type Engine struct {
	cfg           config.OCRConfig
	clientFactory func() *gosseract.Client
}

// New creates an Engine.
func New(cfg config.OCRConfig) *Engine {
	return &Engine{cfg: cfg, clientFactory: gosseract.NewClient}
}

// Extract reads the image at path and returns its recognised text.
func (e *Engine) Extract(ctx context.Context, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("ocr: %w", err)
	}
	return e.Recognize(ctx, data)
}

// Recognize returns the text in an encoded PNG or JPEG image, trimmed of
// surrounding whitespace.
func (e *Engine) Recognize(ctx context.Context, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	data, err := Upscale(data, e.cfg.Scale)
	if err != nil {
		return "", fmt.Errorf("ocr: %w", err)
	}

	c := e.clientFactory()
	defer c.Close()

	if err := e.configure(c); err != nil {
		return "", fmt.Errorf("ocr: %w", err)
	}
	if err := c.SetImageFromBytes(data); err != nil {
		return "", fmt.Errorf("ocr: set image: %w", err)
	}

	text, err := c.Text()
	if err != nil {
		return "", fmt.Errorf("ocr: recognize text: %w", err)
	}
	slog.Debug("ocr complete", "chars", len(text), "languages", e.cfg.Languages)
	return strings.TrimSpace(text), nil
}

func (e *Engine) configure(c *gosseract.Client) error {
	if len(e.cfg.Languages) > 0 {
		if err := c.SetLanguage(e.cfg.Languages...); err != nil {
			return fmt.Errorf("set languages: %w", err)
		}
	}
	if e.cfg.PSM > 0 {
		if err := c.SetPageSegMode(gosseract.PageSegMode(e.cfg.PSM)); err != nil {
			return fmt.Errorf("set page segmentation mode: %w", err)
		}
	}
	if e.cfg.DPI > 0 {
		if err := c.SetVariable(gosseract.SettableVariable("user_defined_dpi"), strconv.Itoa(e.cfg.DPI)); err != nil {
			return fmt.Errorf("set dpi: %w", err)
		}
	}
	for k, v := range e.cfg.Variables {
		if err := c.SetVariable(gosseract.SettableVariable(k), v); err != nil {
			return fmt.Errorf("set variable %s: %w", k, err)
		}
	}
	return nil
}

// Upscale enlarges an encoded image by factor with Catmull-Rom resampling
// and returns it PNG-encoded. A factor of 1 or less returns data unchanged.
func Upscale(data []byte, factor float64) ([]byte, error) {
	if factor <= 1 {
		return data, nil
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	b := src.Bounds()
	w := int(math.Round(float64(b.Dx()) * factor))
	h := int(math.Round(float64(b.Dy()) * factor))
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, fmt.Errorf("encode scaled image: %w", err)
	}
	return buf.Bytes(), nil
}
