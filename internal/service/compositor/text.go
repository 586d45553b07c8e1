package compositor

import (
	"image"
	"image/color"
	"math"
	"strings"
	"webcapture/internal/model"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

const (
	// MinFontSize keeps the caption legible on small previews.
	MinFontSize = 12.0
	// fontDivisor and paddingDivisor scale text with the output width.
	fontDivisor    = 35.0
	paddingDivisor = 20.0
	lineSpacing    = 1.4
)

// Measurer returns the advance width of a string in pixels.
type Measurer interface {
	Width(s string) float64
}

type faceMeasurer struct {
	face font.Face
}

func (m faceMeasurer) Width(s string) float64 {
	return fixedToFloat(font.MeasureString(m.face, s))
}

func fixedToFloat(v fixed.Int26_6) float64 {
	return float64(v) / 64
}

func floatToFixed(v float64) fixed.Int26_6 {
	return fixed.Int26_6(math.Round(v * 64))
}

// Metrics are the text sizes derived from the output width.
type Metrics struct {
	FontSize   float64
	Padding    float64
	LineHeight float64
}

// MetricsFor scales font size and padding proportionally to width.
func MetricsFor(width int) Metrics {
	fontSize := math.Max(MinFontSize, float64(width)/fontDivisor)
	return Metrics{
		FontSize:   fontSize,
		Padding:    float64(width) / paddingDivisor,
		LineHeight: fontSize * lineSpacing,
	}
}

// Wrap splits text into lines no wider than maxWidth by adding whole words
// greedily. A word wider than maxWidth gets a line of its own and is never
// split. Empty text yields one empty line.
func Wrap(text string, maxWidth float64, m Measurer) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return []string{""}
	}

	var lines []string
	line := words[0]
	for _, word := range words[1:] {
		candidate := line + " " + word
		if m.Width(candidate) <= maxWidth {
			line = candidate
			continue
		}
		lines = append(lines, line)
		line = word
	}
	return append(lines, line)
}

// Justify returns the x offset of each word so the first word starts at 0 and
// the last one ends exactly at width. The leftover space is split evenly
// between the gaps. A single word stays at 0.
func Justify(words []string, width float64, m Measurer) []float64 {
	offsets := make([]float64, len(words))
	if len(words) < 2 {
		return offsets
	}

	total := 0.0
	widths := make([]float64, len(words))
	for i, w := range words {
		widths[i] = m.Width(w)
		total += widths[i]
	}
	gap := (width - total) / float64(len(words)-1)

	x := 0.0
	for i := range words {
		offsets[i] = x
		x += widths[i] + gap
	}
	return offsets
}

// PlacedWord is a run of text with its left edge in output pixels.
type PlacedWord struct {
	Text string
	X    float64
}

// TextLine is one rendered line of the overlay.
type TextLine struct {
	Text      string
	Words     []PlacedWord
	Justified bool
	Baseline  float64
}

// TextBlock is the whole overlay, anchored bottom-left.
type TextBlock struct {
	Lines   []TextLine
	Top     float64
	Height  float64
	Metrics Metrics
}

// Texts returns the line strings top to bottom.
func (b TextBlock) Texts() []string {
	out := make([]string, len(b.Lines))
	for i, l := range b.Lines {
		out[i] = l.Text
	}
	return out
}

// LayoutOverlay places the wrapped location lines and the caption line in the
// bottom-left corner of a size surface. The block grows upward, so more
// location lines push it up instead of off the bottom edge.
func LayoutOverlay(o model.LockedOverlay, size image.Point, m Measurer, metrics Metrics, ascent float64) TextBlock {
	available := float64(size.X) - 2*metrics.Padding
	wrapped := Wrap(o.Location, available, m)

	lines := make([]TextLine, 0, len(wrapped)+1)
	for i, text := range wrapped {
		words := strings.Fields(text)
		if i < len(wrapped)-1 && len(words) > 1 {
			offsets := Justify(words, available, m)
			placed := make([]PlacedWord, len(words))
			for j, w := range words {
				placed[j] = PlacedWord{Text: w, X: metrics.Padding + offsets[j]}
			}
			lines = append(lines, TextLine{Text: text, Words: placed, Justified: true})
			continue
		}
		lines = append(lines, TextLine{Text: text, Words: []PlacedWord{{Text: text, X: metrics.Padding}}})
	}

	caption := o.Caption()
	lines = append(lines, TextLine{Text: caption, Words: []PlacedWord{{Text: caption, X: metrics.Padding}}})

	height := float64(len(lines)) * metrics.LineHeight
	top := float64(size.Y) - metrics.Padding - height
	// Center the glyph box inside each line box.
	leading := (metrics.LineHeight - metrics.FontSize) / 2
	for i := range lines {
		lines[i].Baseline = top + float64(i)*metrics.LineHeight + leading + ascent
	}

	return TextBlock{Lines: lines, Top: top, Height: height, Metrics: metrics}
}

var shadowColor = color.RGBA{A: 204}

// DrawBlock burns block into dst: a dark offset shadow first, then white text.
func DrawBlock(dst draw.Image, block TextBlock, face font.Face) {
	offset := math.Max(1, math.Round(block.Metrics.FontSize/12))
	shadow := image.NewUniform(shadowColor)

	for _, line := range block.Lines {
		for _, word := range line.Words {
			if word.Text == "" {
				continue
			}
			drawString(dst, face, shadow, word.Text, word.X+offset, line.Baseline+offset)
			drawString(dst, face, image.White, word.Text, word.X, line.Baseline)
		}
	}
}

func drawString(dst draw.Image, face font.Face, src image.Image, text string, x, y float64) {
	d := &font.Drawer{
		Dst:  dst,
		Src:  src,
		Face: face,
		Dot:  fixed.Point26_6{X: floatToFixed(x), Y: floatToFixed(y)},
	}
	d.DrawString(text)
}
