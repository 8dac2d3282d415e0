// Package assets loads icon images from disk into an icon registry.
package assets

import (
	"fmt"
	"image"
	"image/draw"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"

	"github.com/hubastard/netcanvas/engine/errors"
	"github.com/hubastard/netcanvas/engine/icons"
)

// MaxIconSize bounds the longer side of a registered raster icon. Icons are
// drawn at node size, so bigger sources are downscaled once at load.
const MaxIconSize = 256

// LoadPNG decodes the PNG at path into a tightly packed RGBA image.
func LoadPNG(path string) (*image.RGBA, error) {
	img, err := gg.LoadPNG(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "icon %s", path)
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode png %s", path)
	}
	return imageToRGBA(img), nil
}

// LoadIconDir registers every *.png in dir under its base name, so
// "icons/firewall.png" becomes icon "firewall". It returns the names loaded.
func LoadIconDir(dir string, reg *icons.Registry) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "icon dir %s", dir)
		}
		return nil, fmt.Errorf("read icon dir: %w", err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".png") {
			continue
		}
		img, err := LoadPNG(filepath.Join(dir, e.Name()))
		if err != nil {
			return names, err
		}
		if b := img.Bounds(); b.Dx() > MaxIconSize || b.Dy() > MaxIconSize {
			img = imageToRGBA(imaging.Fit(img, MaxIconSize, MaxIconSize, imaging.Lanczos))
		}
		name := strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))
		reg.RegisterImage(name, img)
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func imageToRGBA(img image.Image) *image.RGBA {
	if m, ok := img.(*image.RGBA); ok && m.Stride == m.Rect.Dx()*4 && m.Rect.Min == (image.Point{}) {
		return m
	}
	dst := image.NewRGBA(image.Rect(0, 0, img.Bounds().Dx(), img.Bounds().Dy()))
	draw.Draw(dst, dst.Bounds(), img, img.Bounds().Min, draw.Src)
	return dst
}
