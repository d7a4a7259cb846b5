package certificate

import (
	"fmt"
	"sync"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/goregular"
)

// fontFamily is the embedded TrueType family. It covers Latin, Cyrillic and
// Greek.
const fontFamily = "Go"

type fontFile struct {
	style string
	ttf   []byte
}

// Registered in order so the PDF font resource names stay stable.
var fontFiles = []fontFile{
	{style: "", ttf: goregular.TTF},
	{style: "B", ttf: gobold.TTF},
	{style: "I", ttf: goitalic.TTF},
}

var (
	parseOnce   sync.Once
	parsedFonts map[string]*truetype.Font
	parseErr    error
)

// previewFonts parses the embedded fonts once for the PNG renderer.
func previewFonts() (map[string]*truetype.Font, error) {
	parseOnce.Do(func() {
		parsed := make(map[string]*truetype.Font, len(fontFiles))
		for _, f := range fontFiles {
			ft, err := truetype.Parse(f.ttf)
			if err != nil {
				parseErr = fmt.Errorf("parse font %q: %w", f.style, err)
				return
			}
			parsed[f.style] = ft
		}
		parsedFonts = parsed
	})
	return parsedFonts, parseErr
}
