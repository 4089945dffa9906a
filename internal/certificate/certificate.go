// Package certificate derives the printable content of a pledge certificate
// from a submitted draft. Drawing lives in the raster and pdf adapters; both
// consume the Certificate value and the Layout constants defined here.
package certificate

import (
	"fmt"
	"regexp"
	"time"

	"github.com/csg33k/pledge-wall/internal/domain"
)

const (
	Title    = "CLIMATE ACTION PLEDGE"
	Subtitle = "Certificate of Commitment"
	Preamble = "This certifies that"
	Tagline  = "is Cool Enough to Care!"
	Rating   = "Love for Planet:"

	DateLayout     = "January 2, 2006"
	FilenamePrefix = "climate-pledge-certificate-"
)

// Certificate is the read-only content shared by preview, PNG and PDF.
type Certificate struct {
	Name        string
	Commitments int
	Hearts      int
	Date        string
}

// New builds the certificate for a submitted draft, dated now.
func New(d domain.Draft, now time.Time) Certificate {
	n := len(d.Commitments)
	return Certificate{
		Name:        d.Name,
		Commitments: n,
		Hearts:      HeartRating(n),
		Date:        now.Format(DateLayout),
	}
}

// HeartRating caps the commitment count at domain.MaxHearts.
func HeartRating(n int) int {
	return max(0, min(n, domain.MaxHearts))
}

// PledgedLine is the summary sentence under the tagline.
func (c Certificate) PledgedLine() string {
	return fmt.Sprintf("Has pledged %d climate-positive actions", c.Commitments)
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// Filename returns the download name: every whitespace run in name becomes
// a single hyphen.
func Filename(name, ext string) string {
	return FilenamePrefix + whitespaceRun.ReplaceAllString(name, "-") + "." + ext
}

// Layout of the 1200x800 export. Y values are text baselines.
const (
	Width       = 1200
	Height      = 800
	BorderInset = 40
	BorderWidth = 8

	TitleY    = 120
	SubtitleY = 180
	PreambleY = 280
	NameY     = 350
	TaglineY  = 420
	PledgedY  = 480
	RatingY   = 560
	DateY     = 680
)

// Colors, as hex strings.
const (
	ColorBackground = "#eff6ff"
	ColorBorder     = "#2563eb"
	ColorTitle      = "#1e40af"
	ColorSubtitle   = "#0ea5e9"
	ColorBody       = "#374151"
	ColorMuted      = "#6b7280"
	ColorHeart      = "#d97706"
	ColorDate       = "#9ca3af"
)

// Font sizes in pixels.
const (
	SizeTitle    = 48
	SizeSubtitle = 32
	SizeBody     = 28
	SizeName     = 44
	SizePledged  = 24
	SizeRating   = 36
	SizeDate     = 20
)
