// Package text loads the font faces used for node titles.
package text

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/flopp/go-findfont"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/text/unicode/norm"

	"github.com/hubastard/netcanvas/engine/errors"
)

const DefaultSize = 12

// LoadFace returns a face for the font at path, or the bundled Go Regular
// face when path is empty. A bare name such as "DejaVuSans" is looked up in
// the system font directories. TrueType files go through freetype; everything
// else through opentype.
func LoadFace(path string, size float64) (font.Face, error) {
	if size <= 0 {
		size = DefaultSize
	}
	if path == "" {
		return opentypeFace(goregular.TTF, size)
	}
	path = resolve(path)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "font %s", path)
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "read font %s", path)
	}
	if strings.EqualFold(filepath.Ext(path), ".ttf") {
		ft, err := truetype.Parse(data)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse font %s", path)
		}
		return truetype.NewFace(ft, &truetype.Options{Size: size, DPI: 72, Hinting: font.HintingFull}), nil
	}
	return opentypeFace(data, size)
}

func resolve(name string) string {
	if strings.ContainsAny(name, `/\`) {
		return name
	}
	if _, err := os.Stat(name); err == nil {
		return name
	}
	if found, err := findfont.Find(name); err == nil {
		return found
	}
	return name
}

func opentypeFace(data []byte, size float64) (font.Face, error) {
	ft, err := opentype.Parse(data)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse font")
	}
	face, err := opentype.NewFace(ft, &opentype.FaceOptions{
		Size: size, DPI: 72, Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "new face")
	}
	return face, nil
}

// Width is the advance of s in pixels.
func Width(face font.Face, s string) float64 {
	return float64(font.MeasureString(face, s)) / 64
}

// Truncate NFC-normalizes s, then shortens it with a trailing ellipsis until
// it fits maxWidth. A cut never separates a letter from its combining accent.
func Truncate(face font.Face, s string, maxWidth float64) string {
	s = norm.NFC.String(s)
	if maxWidth <= 0 || Width(face, s) <= maxWidth {
		return s
	}
	const ellipsis = "…"
	runes := []rune(s)
	for n := len(runes) - 1; n > 0; n-- {
		cut := string(runes[:n]) + ellipsis
		if Width(face, cut) <= maxWidth {
			return cut
		}
	}
	return ellipsis
}
