package boardimg

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"strings"
	"sync"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"

	"github.com/park285/cheese-match/internal/rules"
)

// Glyph bodies on a 45x45 canvas. Fill and stroke come from the enclosing group.
var glyphs = map[byte]string{
	'p': `<circle cx="22.5" cy="14" r="6"/>` +
		`<path d="M19 20 L26 20 L31 36 L14 36 Z"/>` +
		`<rect x="11" y="36" width="23" height="4"/>`,
	'r': `<path d="M11 9 L15 9 L15 12 L20 12 L20 9 L25 9 L25 12 L30 12 L30 9 L34 9 L34 16 L30 19 L30 32 L15 32 L15 19 L11 16 Z"/>` +
		`<rect x="10" y="32" width="25" height="7"/>`,
	'n': `<path d="M14 38 L14 30 C14 24 20 21 21 17 L13 22 L10 18 L20 8 L24 6 C31 8 34 16 33 26 L33 38 Z"/>` +
		`<circle cx="22" cy="13" r="1.5"/>`,
	'b': `<circle cx="22.5" cy="8" r="3"/>` +
		`<path d="M22.5 11 C29 16 31 22 28 29 L17 29 C14 22 16 16 22.5 11 Z"/>` +
		`<rect x="15" y="29" width="15" height="4"/>` +
		`<rect x="10" y="34" width="25" height="5"/>`,
	'q': `<path d="M9 14 L14 30 L16 12 L20 28 L22.5 9 L25 28 L29 12 L31 30 L36 14 L33 33 L12 33 Z"/>` +
		`<rect x="11" y="33" width="23" height="6"/>`,
	'k': `<rect x="21" y="4" width="3" height="10"/>` +
		`<rect x="17.5" y="7" width="10" height="3"/>` +
		`<path d="M22.5 15 C30 13 37 17 34 26 L31 33 L14 33 L11 26 C8 17 15 13 22.5 15 Z"/>` +
		`<rect x="12" y="33" width="21" height="6"/>`,
}

type glyphKey struct {
	piece rules.Piece
	size  int
}

var (
	glyphCache   = map[glyphKey]image.Image{}
	glyphCacheMu sync.RWMutex
)

func pieceSVG(p rules.Piece) (string, error) {
	body, ok := glyphs[p.Kind]
	if !ok {
		return "", fmt.Errorf("no glyph for piece %q", p.Kind)
	}
	fill, stroke := "#ffffff", "#1c1f2e"
	if p.Color == rules.Black {
		fill, stroke = "#1c1f2e", "#e9e9e9"
	}
	var b strings.Builder
	b.WriteString(`<svg xmlns="http://www.w3.org/2000/svg" width="45" height="45" viewBox="0 0 45 45">`)
	fmt.Fprintf(&b, `<g fill="%s" stroke="%s" stroke-width="1.5" stroke-linejoin="round">`, fill, stroke)
	b.WriteString(body)
	b.WriteString(`</g></svg>`)
	return b.String(), nil
}

func renderPiece(p rules.Piece, size int) (image.Image, error) {
	key := glyphKey{piece: p, size: size}

	glyphCacheMu.RLock()
	if img, ok := glyphCache[key]; ok {
		glyphCacheMu.RUnlock()
		return img, nil
	}
	glyphCacheMu.RUnlock()

	src, err := pieceSVG(p)
	if err != nil {
		return nil, err
	}
	icon, err := oksvg.ReadIconStream(strings.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("parse piece svg: %w", err)
	}
	icon.SetTarget(0, 0, float64(size), float64(size))

	img := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.Transparent), image.Point{}, draw.Src)
	scanner := rasterx.NewScannerGV(size, size, img, img.Bounds())
	icon.Draw(rasterx.NewDasher(size, size, scanner), 1.0)

	glyphCacheMu.Lock()
	glyphCache[key] = img
	glyphCacheMu.Unlock()
	return img, nil
}
