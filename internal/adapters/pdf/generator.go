// Package pdf generates the certificate as a single-page PDF. The page is
// 1200x800 points so the raster layout coordinates carry over unchanged.
package pdf

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/go-pdf/fpdf"

	"github.com/csg33k/pledge-wall/internal/certificate"
	"github.com/csg33k/pledge-wall/internal/domain"
)

type Generator struct{}

func New() *Generator { return &Generator{} }

func (g *Generator) ContentType() string { return "application/pdf" }
func (g *Generator) Extension() string   { return "pdf" }

// Render writes the certificate PDF to w. Satisfies ports.CertificateRenderer.
func (g *Generator) Render(ctx context.Context, c certificate.Certificate, w io.Writer) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           fpdf.SizeType{Wd: certificate.Width, Ht: certificate.Height},
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetTitle(certificate.Title, true)
	pdf.AddPage()
	drawCertificate(pdf, c)

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrRender, err)
	}
	return nil
}

func drawCertificate(pdf *fpdf.Fpdf, c certificate.Certificate) {
	const pageW, pageH = float64(certificate.Width), float64(certificate.Height)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	// ── Frame ────────────────────────────────────────────────────────────────
	setFill(pdf, certificate.ColorBackground)
	pdf.Rect(0, 0, pageW, pageH, "F")

	inset := float64(certificate.BorderInset)
	setDraw(pdf, certificate.ColorBorder)
	pdf.SetLineWidth(certificate.BorderWidth)
	pdf.Rect(inset, inset, pageW-2*inset, pageH-2*inset, "D")

	// ── Text lines ───────────────────────────────────────────────────────────
	centered := func(text, style string, size float64, hex string, y float64) {
		pdf.SetFont("Helvetica", style, size)
		setText(pdf, hex)
		s := tr(text)
		pdf.Text(pageW/2-pdf.GetStringWidth(s)/2, y, s)
	}
	centered(certificate.Title, "B", certificate.SizeTitle, certificate.ColorTitle, certificate.TitleY)
	centered(certificate.Subtitle, "", certificate.SizeSubtitle, certificate.ColorSubtitle, certificate.SubtitleY)
	centered(certificate.Preamble, "", certificate.SizeBody, certificate.ColorBody, certificate.PreambleY)
	centered(c.Name, "B", certificate.SizeName, certificate.ColorTitle, certificate.NameY)
	centered(certificate.Tagline, "", certificate.SizeBody, certificate.ColorBody, certificate.TaglineY)
	centered(c.PledgedLine(), "", certificate.SizePledged, certificate.ColorMuted, certificate.PledgedY)
	centered(c.Date, "", certificate.SizeDate, certificate.ColorDate, certificate.DateY)

	// ── Rating ───────────────────────────────────────────────────────────────
	const size = float64(certificate.SizeRating)
	const gap = size * 0.25
	pdf.SetFont("Helvetica", "B", size)
	setText(pdf, certificate.ColorHeart)
	setFill(pdf, certificate.ColorHeart)
	tw := pdf.GetStringWidth(certificate.Rating)
	total := tw
	if c.Hearts > 0 {
		total += gap + float64(c.Hearts)*size + float64(c.Hearts-1)*gap
	}
	x := pageW/2 - total/2
	y := float64(certificate.RatingY)
	pdf.Text(x, y, certificate.Rating)
	x += tw + gap
	for i := 0; i < c.Hearts; i++ {
		drawHeart(pdf, x+size/2, y-size*0.35, size)
		x += size + gap
	}
}

// drawHeart fills a heart of width size centred on (cx, cy): two lobes and
// a downward point.
func drawHeart(pdf *fpdf.Fpdf, cx, cy, size float64) {
	r := size * 0.26
	pdf.Circle(cx-r, cy-r*0.4, r, "F")
	pdf.Circle(cx+r, cy-r*0.4, r, "F")
	pdf.Polygon([]fpdf.PointType{
		{X: cx - 2*r, Y: cy - r*0.2},
		{X: cx + 2*r, Y: cy - r*0.2},
		{X: cx, Y: cy + size*0.45},
	}, "F")
}

// ── Helpers ──────────────────────────────────────────────────────────────────

func setFill(pdf *fpdf.Fpdf, hex string) {
	r, g, b := hexRGB(hex)
	pdf.SetFillColor(r, g, b)
}

func setDraw(pdf *fpdf.Fpdf, hex string) {
	r, g, b := hexRGB(hex)
	pdf.SetDrawColor(r, g, b)
}

func setText(pdf *fpdf.Fpdf, hex string) {
	r, g, b := hexRGB(hex)
	pdf.SetTextColor(r, g, b)
}

// hexRGB parses "#rrggbb"; malformed input yields black.
func hexRGB(hex string) (int, int, int) {
	hex = strings.TrimPrefix(hex, "#")
	if len(hex) != 6 {
		return 0, 0, 0
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return 0, 0, 0
	}
	return int(v >> 16 & 0xff), int(v >> 8 & 0xff), int(v & 0xff)
}
