package utils

import (
	"bytes"
	"crypto/rand"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"math/big"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/nfnt/resize"
	"golang.org/x/text/unicode/norm"
)

const (
	dayFormat    = "2 Jan 2006"
	thumbQuality = 85
)

// DateRange formats two unix timestamps as "5 Mar 2024 - 8 Mar 2024". Ranges of
// at most a day collapse to a single date; a zero bound gives "".
func DateRange(from, to int64) string {
	if from == 0 || to == 0 {
		return ""
	}
	start := time.Unix(from, 0).Format(dayFormat)
	if to-from <= 86400 {
		return start
	}
	return start + " - " + time.Unix(to, 0).Format(dayFormat)
}

// RandBase62 encodes n random bytes in base62
func RandBase62(n int) string {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		panic(err)
	}
	return new(big.Int).SetBytes(buf).Text(62)
}

// RandPassword returns a random password of exactly size base62 characters
func RandPassword(size int) string {
	var b strings.Builder
	for b.Len() < size {
		b.WriteString(RandBase62(16))
	}
	return b.String()[:size]
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify turns a title into a URL path segment: "Hello, Wörld!" -> "hello-world"
func Slugify(s string) string {
	var b strings.Builder
	for _, r := range norm.NFKD.String(strings.ToLower(s)) {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		b.WriteRune(r)
	}
	return strings.Trim(nonSlug.ReplaceAllString(b.String(), "-"), "-")
}

// Thumbnail describes a JPEG written by CreateThumb and the image it was made from
type Thumbnail struct {
	Width        uint16
	Height       uint16
	SourceWidth  uint16
	SourceHeight uint16
	Size         int64
}

// CreateThumb decodes a GIF, JPEG or PNG image and writes a JPEG copy that fits
// into a size x size box, keeping the aspect ratio
func CreateThumb(size uint, reader io.Reader, writer io.Writer) (Thumbnail, error) {
	src, _, err := image.Decode(reader)
	if err != nil {
		return Thumbnail{}, err
	}
	dst := resize.Thumbnail(size, size, src, resize.Lanczos3)
	var buf bytes.Buffer
	if err = jpeg.Encode(&buf, dst, &jpeg.Options{Quality: thumbQuality}); err != nil {
		return Thumbnail{}, err
	}
	t := Thumbnail{
		Width:        uint16(dst.Bounds().Dx()),
		Height:       uint16(dst.Bounds().Dy()),
		SourceWidth:  uint16(src.Bounds().Dx()),
		SourceHeight: uint16(src.Bounds().Dy()),
	}
	t.Size, err = buf.WriteTo(writer)
	return t, err
}
