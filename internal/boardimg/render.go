// Package boardimg draws a PNG snapshot of a match board.
package boardimg

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	imagedraw "image/draw"
	"image/png"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/park285/cheese-match/internal/rules"
)

const (
	SquareSize   = 64
	sideMargin   = 24
	captionSpace = 32
	boardSize    = SquareSize * 8
)

// Options decorate the board. Zero squares are ignored.
type Options struct {
	LastFrom     rules.Square
	LastTo       rules.Square
	Selected     rules.Square
	Destinations []rules.Square
	Caption      string
	// Flip draws rank 1 at the top, for a human playing black.
	Flip bool
}

var (
	lightSquare     = color.RGBA{233, 207, 163, 255}
	darkSquare      = color.RGBA{187, 136, 96, 255}
	lastMoveFill    = color.NRGBA{R: 255, G: 228, B: 120, A: 140}
	selectedFill    = color.NRGBA{R: 148, G: 207, B: 255, A: 160}
	destinationDot  = color.NRGBA{R: 28, G: 31, B: 46, A: 110}
	backgroundColor = color.RGBA{28, 31, 46, 255}
	captionColor    = color.NRGBA{R: 236, G: 239, B: 255, A: 255}
	coordinateColor = color.NRGBA{R: 8, G: 214, B: 120, A: 255}
)

// Bounds is the size of every rendered image.
func Bounds() image.Rectangle {
	return image.Rect(0, 0, boardSize+sideMargin*2, boardSize+captionSpace+sideMargin*2)
}

func origin() image.Point {
	return image.Point{X: sideMargin, Y: sideMargin + captionSpace}
}

// SquareRect is the pixel rectangle of sq under the given orientation.
func SquareRect(sq rules.Square, flip bool) image.Rectangle {
	row, col := cell(sq, flip)
	o := origin()
	x := o.X + col*SquareSize
	y := o.Y + row*SquareSize
	return image.Rect(x, y, x+SquareSize, y+SquareSize)
}

func cell(sq rules.Square, flip bool) (row, col int) {
	s := string(sq)
	col = int(s[0] - 'a')
	row = int('8' - s[1])
	if flip {
		row, col = 7-row, 7-col
	}
	return row, col
}

// SquareColor is the background of sq; a1 is dark.
func SquareColor(sq rules.Square) color.RGBA {
	s := string(sq)
	if (int(s[0]-'a')+int(s[1]-'1'))%2 == 0 {
		return darkSquare
	}
	return lightSquare
}

// Render encodes the board and its decorations as PNG.
func Render(ctx context.Context, b rules.Board, opts Options) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	img := image.NewRGBA(Bounds())
	imagedraw.Draw(img, img.Bounds(), image.NewUniform(backgroundColor), image.Point{}, imagedraw.Src)

	for row := 0; row < 8; row++ {
		for col := 0; col < 8; col++ {
			sq := rules.SquareAt(row, col)
			imagedraw.Draw(img, SquareRect(sq, opts.Flip), image.NewUniform(SquareColor(sq)), image.Point{}, imagedraw.Src)
		}
	}
	for _, sq := range []rules.Square{opts.LastFrom, opts.LastTo} {
		overlay(img, sq, opts.Flip, lastMoveFill)
	}
	overlay(img, opts.Selected, opts.Flip, selectedFill)

	for row := 0; row < 8; row++ {
		for col := 0; col < 8; col++ {
			p := b[row][col]
			if p.Empty() {
				continue
			}
			glyph, err := renderPiece(p, SquareSize)
			if err != nil {
				return nil, err
			}
			rect := SquareRect(rules.SquareAt(row, col), opts.Flip)
			imagedraw.Draw(img, rect, glyph, image.Point{}, imagedraw.Over)
		}
	}
	for _, sq := range opts.Destinations {
		if !valid(sq) {
			continue
		}
		r := SquareRect(sq, opts.Flip)
		center := image.Point{X: r.Min.X + SquareSize/2, Y: r.Min.Y + SquareSize/2}
		drawDisc(img, center, SquareSize/8, destinationDot)
	}

	drawLabels(img, opts)

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func valid(sq rules.Square) bool {
	_, err := rules.ParseSquare(string(sq))
	return err == nil
}

func overlay(img *image.RGBA, sq rules.Square, flip bool, clr color.Color) {
	if !valid(sq) {
		return
	}
	imagedraw.Draw(img, SquareRect(sq, flip), image.NewUniform(clr), image.Point{}, imagedraw.Over)
}

func drawLabels(img *image.RGBA, opts Options) {
	face := basicfont.Face7x13
	drawer := &font.Drawer{Dst: img, Face: face, Src: image.NewUniform(coordinateColor)}
	ascent := face.Metrics().Ascent.Ceil()
	o := origin()

	for i := 0; i < 8; i++ {
		file := string(rune('a' + i))
		rank := string(rune('8' - i))
		if opts.Flip {
			file = string(rune('h' - i))
			rank = string(rune('1' + i))
		}
		centerText(drawer, rank, o.X-sideMargin/2, o.Y+i*SquareSize+SquareSize/2+ascent/2)
		centerText(drawer, file, o.X+i*SquareSize+SquareSize/2, o.Y+boardSize+ascent+4)
	}

	if caption := strings.TrimSpace(opts.Caption); caption != "" {
		drawer.Src = image.NewUniform(captionColor)
		centerText(drawer, caption, img.Bounds().Dx()/2, sideMargin+captionSpace/2)
	}
}

func centerText(drawer *font.Drawer, text string, centerX, baseline int) {
	width := drawer.MeasureString(text).Round()
	drawer.Dot = fixed.P(centerX-width/2, baseline)
	drawer.DrawString(text)
}

func drawDisc(img *image.RGBA, center image.Point, radius int, clr color.Color) {
	r2 := radius * radius
	fill := image.NewUniform(clr)
	for y := -radius; y <= radius; y++ {
		for x := -radius; x <= radius; x++ {
			if x*x+y*y > r2 {
				continue
			}
			p := image.Point{X: center.X + x, Y: center.Y + y}
			imagedraw.Draw(img, image.Rectangle{Min: p, Max: p.Add(image.Pt(1, 1))}, fill, image.Point{}, imagedraw.Over)
		}
	}
}
