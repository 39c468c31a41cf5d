package raster

import (
	"image"

	"github.com/disintegration/imaging"
	qrcode "github.com/skip2/go-qrcode"
	xdraw "golang.org/x/image/draw"

	"github.com/matzehuels/proxysheet/pkg/errors"
)

// MinMarkerSize is the smallest QR marker worth printing, in pixels.
const MinMarkerSize = 64

// DrawMarker draws a QR code encoding text into the square at the top-left
// of area. The square's side is the smaller of area's dimensions.
func DrawMarker(dst xdraw.Image, area image.Rectangle, text string) error {
	size := min(area.Dx(), area.Dy())
	if size < MinMarkerSize {
		return errors.New(errors.ErrCodeInvalidTemplate, "marker area %v smaller than %dpx", area, MinMarkerSize)
	}
	if !area.In(dst.Bounds()) {
		return errors.New(errors.ErrCodeInvalidTemplate, "marker area %v outside page %v", area, dst.Bounds())
	}
	q, err := qrcode.New(text, qrcode.Medium)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "encode marker %q", text)
	}
	// Image may return more pixels than asked for when the code needs them.
	img := q.Image(size)
	if b := img.Bounds(); b.Dx() != size || b.Dy() != size {
		img = imaging.Resize(img, size, size, imaging.NearestNeighbor)
	}
	r := image.Rect(area.Min.X, area.Min.Y, area.Min.X+size, area.Min.Y+size)
	xdraw.Draw(dst, r, img, img.Bounds().Min, xdraw.Src)
	return nil
}
