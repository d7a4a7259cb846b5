package certificate

import (
	"bytes"
	"fmt"
	"image/color"
	"math"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
)

// RenderPreview draws the certificate layout as a PNG, one pixel per point.
func RenderPreview(d Data) ([]byte, error) {
	fonts, err := previewFonts()
	if err != nil {
		return nil, err
	}
	l := BuildLayout(d)

	dc := gg.NewContext(int(math.Round(l.Width)), int(math.Round(l.Height)))
	dc.SetColor(color.White)
	dc.Clear()

	setColor(dc, l.Border.Color)
	dc.SetLineWidth(l.Border.Width)
	dc.DrawRectangle(l.Border.Inset, l.Border.Inset, l.Width-2*l.Border.Inset, l.Height-2*l.Border.Inset)
	dc.Stroke()

	for _, ln := range l.Lines {
		setColor(dc, ln.Color)
		dc.SetLineWidth(ln.Width)
		dc.DrawLine(ln.X1, ln.Y1, ln.X2, ln.Y2)
		dc.Stroke()
	}

	for _, t := range l.Texts {
		setColor(dc, t.Color)
		dc.SetFontFace(truetype.NewFace(fonts[t.Font.Style], &truetype.Options{Size: t.Font.Size}))
		dc.DrawStringAnchored(t.Value, t.CenterX, t.Y, 0.5, 0)
	}

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("render certificate preview: %w", err)
	}
	return buf.Bytes(), nil
}

func setColor(dc *gg.Context, c Color) {
	dc.SetRGB255(c.R, c.G, c.B)
}
