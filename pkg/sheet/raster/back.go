package raster

import (
	"image"
	"image/color"
	"sync"

	"github.com/fogleman/gg"
)

// Default back dimensions, a standard card at 300 DPI minus bleed.
const (
	backWidth  = 745
	backHeight = 1040
)

var (
	// BackBackground is the outer color of the default back.
	BackBackground = color.NRGBA{R: 0x24, G: 0x1c, B: 0x17, A: 0xff}
	// BackFrame is the color of the inner frame.
	BackFrame = color.NRGBA{R: 0xb8, G: 0x8a, B: 0x3e, A: 0xff}
	// BackEmblem is the fill of the central oval.
	BackEmblem = color.NRGBA{R: 0x8c, G: 0x3b, B: 0x1f, A: 0xff}
)

var (
	defaultBackOnce sync.Once
	defaultBack     image.Image
)

// DefaultBack returns the built-in card back. The image is drawn once and
// shared; callers must not modify it.
func DefaultBack() image.Image {
	defaultBackOnce.Do(func() {
		defaultBack = drawDefaultBack()
	})
	return defaultBack
}

func drawDefaultBack() image.Image {
	dc := gg.NewContext(backWidth, backHeight)
	w, h := float64(backWidth), float64(backHeight)

	dc.SetColor(BackBackground)
	dc.Clear()

	dc.SetColor(BackFrame)
	dc.SetLineWidth(14)
	dc.DrawRoundedRectangle(48, 48, w-96, h-96, 28)
	dc.Stroke()

	dc.SetColor(BackEmblem)
	dc.DrawEllipse(w/2, h/2, w*0.32, h*0.36)
	dc.Fill()

	dc.SetColor(BackFrame)
	dc.SetLineWidth(8)
	dc.DrawEllipse(w/2, h/2, w*0.32, h*0.36)
	dc.Stroke()

	return dc.Image()
}
