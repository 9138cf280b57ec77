package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// ErrConverterMissing is returned when the SVG converter is not installed.
var ErrConverterMissing = errors.New("rsvg-convert not found; install librsvg (brew install librsvg, apt install librsvg2-bin)")

// ConvertCommand is the program that converts SVG to other formats. It must
// accept rsvg-convert's "-f <format>" flag and read SVG from stdin.
var ConvertCommand = "rsvg-convert"

// ToPDF converts an SVG document to PDF.
func ToPDF(ctx context.Context, svg []byte) ([]byte, error) {
	return convertSVG(ctx, svg, "pdf")
}

func convertSVG(ctx context.Context, svg []byte, format string) ([]byte, error) {
	bin, err := exec.LookPath(ConvertCommand)
	if err != nil {
		return nil, fmt.Errorf("%s export: %w", format, ErrConverterMissing)
	}

	var out, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, bin, "-f", format)
	cmd.Stdin = bytes.NewReader(svg)
	cmd.Stdout = &out
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%s: %w: %s", ConvertCommand, err, msg)
		}
		return nil, fmt.Errorf("%s: %w", ConvertCommand, err)
	}
	return out.Bytes(), nil
}
