package certificate

import (
	"strconv"
	"strings"
)

// A4 landscape, in points.
const (
	pageWidth  = 841.89
	pageHeight = 595.28
)

// DateLayout is the completion date format printed on the certificate.
const DateLayout = "January 02, 2006"

type Color struct {
	R, G, B int
}

// hexColor parses "#rrggbb"; malformed input yields black.
func hexColor(s string) Color {
	s = strings.TrimPrefix(s, "#")
	if len(s) != 6 {
		return Color{}
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return Color{}
	}
	return Color{R: int(v >> 16 & 0xff), G: int(v >> 8 & 0xff), B: int(v & 0xff)}
}

var (
	colorIndigo    = hexColor("#4f46e5")
	colorGrayDark  = hexColor("#374151")
	colorGrayLight = hexColor("#6b7280")
)

// Font names a style of the embedded family.
type Font struct {
	Family string
	Style  string
	Size   float64
}

// Text is drawn horizontally centred on CenterX with its baseline at Y.
type Text struct {
	Value   string
	Font    Font
	Color   Color
	CenterX float64
	Y       float64
}

type Line struct {
	X1, Y1, X2, Y2 float64
	Width          float64
	Color          Color
}

type Frame struct {
	Inset float64
	Width float64
	Color Color
}

// Layout is the whole page as plain values. Coordinates are in points with
// the origin at the top-left corner.
type Layout struct {
	Width, Height float64
	Border        Frame
	Texts         []Text
	Lines         []Line
}

// BuildLayout places every element of the certificate for d.
func BuildLayout(d Data) Layout {
	w, h := pageWidth, pageHeight
	cx := w / 2
	left, right := w/4, 3*w/4
	signatureY := h - 110

	return Layout{
		Width:  w,
		Height: h,
		Border: Frame{Inset: 30, Width: 2, Color: colorIndigo},
		Texts: []Text{
			{Value: "Certificate of Completion", Font: Font{fontFamily, "B", 44}, Color: colorGrayDark, CenterX: cx, Y: 100},
			{Value: d.Recipient, Font: Font{fontFamily, "B", 36}, Color: colorIndigo, CenterX: cx, Y: 210},
			{Value: "has successfully completed the course", Font: Font{fontFamily, "", 22}, Color: colorGrayDark, CenterX: cx, Y: 280},
			{Value: "“" + d.CourseTitle + "”", Font: Font{fontFamily, "B", 30}, Color: colorIndigo, CenterX: cx, Y: 320},
			{Value: "This certificate is presented in recognition of the dedication, hard work,", Font: Font{fontFamily, "I", 16}, Color: colorGrayLight, CenterX: cx, Y: 390},
			{Value: "and commitment demonstrated in successfully completing this course.", Font: Font{fontFamily, "I", 16}, Color: colorGrayLight, CenterX: cx, Y: 410},

			{Value: "Instructor", Font: Font{fontFamily, "I", 16}, Color: colorGrayDark, CenterX: left, Y: signatureY + 30},
			{Value: d.Issuer, Font: Font{fontFamily, "I", 16}, Color: colorGrayDark, CenterX: right, Y: signatureY + 30},
			{Value: d.Instructor, Font: Font{fontFamily, "I", 14}, Color: colorGrayLight, CenterX: left, Y: signatureY + 50},
			{Value: d.CompletedAt.Format(DateLayout), Font: Font{fontFamily, "I", 14}, Color: colorGrayLight, CenterX: right, Y: signatureY + 50},
		},
		Lines: []Line{
			{X1: cx - 150, Y1: 125, X2: cx + 150, Y2: 125, Width: 2, Color: colorIndigo},
			{X1: left - 80, Y1: signatureY, X2: left + 80, Y2: signatureY, Width: 2, Color: colorIndigo},
			{X1: right - 80, Y1: signatureY, X2: right + 80, Y2: signatureY, Width: 2, Color: colorIndigo},
		},
	}
}
