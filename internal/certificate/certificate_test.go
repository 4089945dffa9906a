package certificate_test

import (
	"testing"
	"time"

	"github.com/csg33k/pledge-wall/internal/certificate"
	"github.com/csg33k/pledge-wall/internal/domain"
)

func TestHeartRatingClamps(t *testing.T) {
	cases := map[int]int{0: 0, 1: 1, 2: 2, 3: 3, 4: 4, 5: 5, 6: 5, 50: 5, -1: 0}
	for in, want := range cases {
		if got := certificate.HeartRating(in); got != want {
			t.Errorf("HeartRating(%d) = %d want %d", in, got, want)
		}
	}
}

func TestFilename(t *testing.T) {
	cases := []struct {
		name, ext, want string
	}{
		{"Ada Lovelace", "png", "climate-pledge-certificate-Ada-Lovelace.png"},
		{"Ada   King\tLovelace", "png", "climate-pledge-certificate-Ada-King-Lovelace.png"},
		{" Grace Hopper ", "pdf", "climate-pledge-certificate--Grace-Hopper-.pdf"},
		{"Plato", "png", "climate-pledge-certificate-Plato.png"},
	}
	for _, tc := range cases {
		if got := certificate.Filename(tc.name, tc.ext); got != tc.want {
			t.Errorf("Filename(%q) = %q want %q", tc.name, got, tc.want)
		}
	}
}

func TestNew(t *testing.T) {
	d := domain.Draft{
		Name:        "Ada Lovelace",
		Commitments: []string{"Compost organic waste regularly", "Cycle or walk for short distances"},
	}
	now := time.Date(2026, time.March, 7, 15, 4, 0, 0, time.UTC)
	c := certificate.New(d, now)
	if c.Name != "Ada Lovelace" || c.Commitments != 2 || c.Hearts != 2 {
		t.Fatalf("unexpected certificate %+v", c)
	}
	if c.Date != "March 7, 2026" {
		t.Errorf("Date = %q", c.Date)
	}
	if c.PledgedLine() != "Has pledged 2 climate-positive actions" {
		t.Errorf("PledgedLine = %q", c.PledgedLine())
	}
}
