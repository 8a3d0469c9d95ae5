package qr

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/skip2/go-qrcode"

	"reviewpasta/internal/adapters/observability"
	"reviewpasta/internal/domain"
)

type Format string

const (
	FormatPNG Format = "png"
	FormatSVG Format = "svg"
)

func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatPNG:
		return FormatPNG, nil
	case FormatSVG:
		return FormatSVG, nil
	default:
		return "", errors.Wrapf(domain.ErrInvalidQRFormat, "format %q", s)
	}
}

func (f Format) ContentType() string {
	if f == FormatSVG {
		return "image/svg+xml"
	}
	return "image/png"
}

// Sizes are the square edge lengths, in pixels, that can be requested.
var Sizes = []int{256, 512, 1024}

func ValidSize(size int) bool {
	for _, s := range Sizes {
		if s == size {
			return true
		}
	}
	return false
}

// Encoder renders review URLs as QR symbols, black on white, with the high
// (~30%) error-correction level so printed codes survive some damage.
type Encoder struct {
	level qrcode.RecoveryLevel
}

func NewEncoder() *Encoder {
	return &Encoder{level: qrcode.Highest}
}

// EncodeRaster returns a size×size PNG.
func (e *Encoder) EncodeRaster(targetURL string, size int) ([]byte, error) {
	q, err := e.symbol(targetURL, size)
	if err != nil {
		observability.ObserveQR(string(FormatPNG), err)
		return nil, err
	}
	png, err := q.PNG(size)
	observability.ObserveQR(string(FormatPNG), err)
	if err != nil {
		return nil, errors.Wrap(err, "render png")
	}
	return png, nil
}

// EncodeVector returns an SVG document whose viewBox is the module grid
// (quiet zone included) scaled to size×size.
func (e *Encoder) EncodeVector(targetURL string, size int) (string, error) {
	q, err := e.symbol(targetURL, size)
	observability.ObserveQR(string(FormatSVG), err)
	if err != nil {
		return "", err
	}
	return renderSVG(q.Bitmap(), size), nil
}

// Encode dispatches on format.
func (e *Encoder) Encode(targetURL string, size int, format Format) ([]byte, error) {
	switch format {
	case FormatPNG:
		return e.EncodeRaster(targetURL, size)
	case FormatSVG:
		svg, err := e.EncodeVector(targetURL, size)
		if err != nil {
			return nil, err
		}
		return []byte(svg), nil
	default:
		return nil, errors.Wrapf(domain.ErrInvalidQRFormat, "format %q", format)
	}
}

func (e *Encoder) symbol(targetURL string, size int) (*qrcode.QRCode, error) {
	if !ValidSize(size) {
		return nil, errors.Wrapf(domain.ErrInvalidQRSize, "size %d", size)
	}
	q, err := qrcode.New(targetURL, e.level)
	if err != nil {
		// go-qrcode only fails here when the payload does not fit any version.
		return nil, errors.Mark(errors.Wrap(err, "encode qr"), domain.ErrEncoding)
	}
	return q, nil
}

func renderSVG(bitmap [][]bool, size int) string {
	n := len(bitmap)
	var b strings.Builder
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %d %d" width="%d" height="%d" shape-rendering="crispEdges">`, n, n, size, size)
	fmt.Fprintf(&b, `<rect width="%d" height="%d" fill="#FFFFFF"/>`, n, n)
	b.WriteString(`<path fill="#000000" d="`)
	for y, row := range bitmap {
		// one horizontal run per stretch of dark modules
		for x := 0; x < len(row); {
			if !row[x] {
				x++
				continue
			}
			start := x
			for x < len(row) && row[x] {
				x++
			}
			fmt.Fprintf(&b, "M%d %dh%dv1h-%dz", start, y, x-start, x-start)
		}
	}
	b.WriteString(`"/></svg>`)
	return b.String()
}
