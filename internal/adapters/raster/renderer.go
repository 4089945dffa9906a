// Package raster draws the downloadable 1200x800 PNG certificate.
package raster

import (
	"context"
	"fmt"
	"image"
	"io"
	"os"
	"strings"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/csg33k/pledge-wall/internal/certificate"
	"github.com/csg33k/pledge-wall/internal/domain"
)

// Renderer satisfies ports.CertificateRenderer. It is safe for concurrent
// use: font faces are created per render because truetype faces cache glyphs
// without locking.
type Renderer struct {
	regular *truetype.Font
	bold    *truetype.Font
}

type Option func(*options)

type options struct {
	regularPath string
	boldPath    string
}

// WithFontFiles overrides the embedded Go fonts with TTF files on disk.
// An empty path keeps the default for that weight.
func WithFontFiles(regular, bold string) Option {
	return func(o *options) {
		o.regularPath = strings.TrimSpace(regular)
		o.boldPath = strings.TrimSpace(bold)
	}
}

func New(opts ...Option) (*Renderer, error) {
	var o options
	for _, fn := range opts {
		fn(&o)
	}
	regular, err := loadFont(o.regularPath, goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("load regular font: %w", err)
	}
	bold, err := loadFont(o.boldPath, gobold.TTF)
	if err != nil {
		return nil, fmt.Errorf("load bold font: %w", err)
	}
	return &Renderer{regular: regular, bold: bold}, nil
}

func loadFont(path string, fallback []byte) (*truetype.Font, error) {
	raw := fallback
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read font file: %w", err)
		}
		raw = b
	}
	return truetype.Parse(raw)
}

func (r *Renderer) ContentType() string { return "image/png" }
func (r *Renderer) Extension() string   { return "png" }

// Render encodes the certificate as PNG into w.
func (r *Renderer) Render(ctx context.Context, c certificate.Certificate, w io.Writer) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dc, err := r.draw(c)
	if err != nil {
		return err
	}
	if err := dc.EncodePNG(w); err != nil {
		return fmt.Errorf("%w: encode png: %v", domain.ErrRender, err)
	}
	return nil
}

// Image returns the drawn certificate without encoding it.
func (r *Renderer) Image(c certificate.Certificate) (image.Image, error) {
	dc, err := r.draw(c)
	if err != nil {
		return nil, err
	}
	return dc.Image(), nil
}

func (r *Renderer) draw(c certificate.Certificate) (dc *gg.Context, err error) {
	defer func() {
		if p := recover(); p != nil {
			dc, err = nil, fmt.Errorf("%w: %v", domain.ErrRender, p)
		}
	}()

	const w, h = float64(certificate.Width), float64(certificate.Height)
	dc = gg.NewContext(certificate.Width, certificate.Height)

	dc.SetHexColor(certificate.ColorBackground)
	dc.DrawRectangle(0, 0, w, h)
	dc.Fill()

	inset := float64(certificate.BorderInset)
	dc.SetHexColor(certificate.ColorBorder)
	dc.SetLineWidth(certificate.BorderWidth)
	dc.DrawRectangle(inset, inset, w-2*inset, h-2*inset)
	dc.Stroke()

	lines := []struct {
		text  string
		font  *truetype.Font
		size  float64
		color string
		y     float64
	}{
		{certificate.Title, r.bold, certificate.SizeTitle, certificate.ColorTitle, certificate.TitleY},
		{certificate.Subtitle, r.regular, certificate.SizeSubtitle, certificate.ColorSubtitle, certificate.SubtitleY},
		{certificate.Preamble, r.regular, certificate.SizeBody, certificate.ColorBody, certificate.PreambleY},
		{c.Name, r.bold, certificate.SizeName, certificate.ColorTitle, certificate.NameY},
		{certificate.Tagline, r.regular, certificate.SizeBody, certificate.ColorBody, certificate.TaglineY},
		{c.PledgedLine(), r.regular, certificate.SizePledged, certificate.ColorMuted, certificate.PledgedY},
		{c.Date, r.regular, certificate.SizeDate, certificate.ColorDate, certificate.DateY},
	}
	for _, l := range lines {
		dc.SetFontFace(face(l.font, l.size))
		dc.SetHexColor(l.color)
		dc.DrawStringAnchored(l.text, w/2, l.y, 0.5, 0)
	}

	r.drawRating(dc, c.Hearts)
	return dc, nil
}

// drawRating centres "Love for Planet:" plus n hearts on one baseline.
func (r *Renderer) drawRating(dc *gg.Context, n int) {
	const (
		size = float64(certificate.SizeRating)
		gap  = size * 0.25
	)
	dc.SetFontFace(face(r.bold, size))
	dc.SetHexColor(certificate.ColorHeart)

	label := certificate.Rating
	tw, _ := dc.MeasureString(label)
	total := tw
	if n > 0 {
		total += gap + float64(n)*size + float64(n-1)*gap
	}
	x := float64(certificate.Width)/2 - total/2
	y := float64(certificate.RatingY)
	dc.DrawString(label, x, y)

	x += tw + gap
	for i := 0; i < n; i++ {
		drawHeart(dc, x+size/2, y-size*0.35, size)
		x += size + gap
	}
}

// drawHeart fills a heart of width size centred on (cx, cy).
func drawHeart(dc *gg.Context, cx, cy, size float64) {
	s := size
	dc.MoveTo(cx, cy+s*0.45)
	dc.CubicTo(cx-s*0.6, cy+s*0.05, cx-s*0.55, cy-s*0.5, cx, cy-s*0.2)
	dc.CubicTo(cx+s*0.55, cy-s*0.5, cx+s*0.6, cy+s*0.05, cx, cy+s*0.45)
	dc.ClosePath()
	dc.Fill()
}

func face(f *truetype.Font, px float64) font.Face {
	return truetype.NewFace(f, &truetype.Options{
		Size:    px,
		DPI:     72,
		Hinting: font.HintingNone,
	})
}
