package pdf

import (
	"bytes"
	"context"
	"testing"

	"github.com/csg33k/pledge-wall/internal/certificate"
)

func TestRenderPDF(t *testing.T) {
	g := New()
	var buf bytes.Buffer
	c := certificate.Certificate{Name: "Ada Lovelace", Commitments: 7, Hearts: 5, Date: "March 7, 2026"}
	if err := g.Render(context.Background(), c, &buf); err != nil {
		t.Fatalf("Render: %v", err)
	}
	out := buf.Bytes()
	if !bytes.HasPrefix(out, []byte("%PDF-")) {
		t.Fatalf("output is not a PDF: %q", out[:min(len(out), 16)])
	}
	if !bytes.Contains(out, []byte("1200.00 800.00")) {
		t.Error("page is not 1200x800 points")
	}
	if g.Extension() != "pdf" || g.ContentType() != "application/pdf" {
		t.Error("unexpected content metadata")
	}
}

func TestHexRGB(t *testing.T) {
	cases := []struct {
		in      string
		r, g, b int
	}{
		{"#eff6ff", 0xef, 0xf6, 0xff},
		{"2563eb", 0x25, 0x63, 0xeb},
		{"#zzz", 0, 0, 0},
		{"#gggggg", 0, 0, 0},
	}
	for _, tc := range cases {
		r, g, b := hexRGB(tc.in)
		if r != tc.r || g != tc.g || b != tc.b {
			t.Errorf("hexRGB(%q) = %d,%d,%d", tc.in, r, g, b)
		}
	}
}
