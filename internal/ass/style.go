// SPDX-License-Identifier: MIT

package ass

import (
	"errors"
	"fmt"
)

// Align anchors a subtitle to one of the nine numpad positions.
type Align string

// Supported anchors. The zero value resolves to AlignBottomCenter.
const (
	AlignBottomLeft   Align = "bottom-left"
	AlignBottomCenter Align = "bottom-center"
	AlignBottomRight  Align = "bottom-right"
	AlignMiddleLeft   Align = "middle-left"
	AlignMiddleCenter Align = "middle-center"
	AlignMiddleRight  Align = "middle-right"
	AlignTopLeft      Align = "top-left"
	AlignTopCenter    Align = "top-center"
	AlignTopRight     Align = "top-right"
)

// alignmentCodes maps anchors onto the ASS numpad scheme.
var alignmentCodes = map[Align]int{
	AlignBottomLeft:   1,
	AlignBottomCenter: 2,
	AlignBottomRight:  3,
	AlignMiddleLeft:   4,
	AlignMiddleCenter: 5,
	AlignMiddleRight:  6,
	AlignTopLeft:      7,
	AlignTopCenter:    8,
	AlignTopRight:     9,
}

// Preset is a named size/outline shorthand. Explicit style fields override
// whatever the preset provides.
type Preset string

const (
	PresetDefault Preset = "default"
	PresetKaraoke Preset = "karaoke"
	PresetMinimal Preset = "minimal"
)

var presetBases = map[Preset]struct {
	fontSizePx int
	strokePx   int
}{
	PresetDefault: {fontSizePx: 28, strokePx: 3},
	PresetKaraoke: {fontSizePx: 36, strokePx: 4},
	PresetMinimal: {fontSizePx: 22, strokePx: 0},
}

// FontFamilies is the closed set of families available in the bundled
// fonts directory. Anything else cannot resolve deterministically at burn
// time and is rejected up front.
var FontFamilies = []string{"Inter", "Arial", "Georgia", "Helvetica", "Times New Roman"}

// ErrInvalidStyle reports a style descriptor that fails validation.
var ErrInvalidStyle = errors.New("invalid style")

// Style is the wire form of a style descriptor. Optional numeric fields are
// pointers so an explicit zero is distinguishable from an omitted field.
type Style struct {
	Preset         Preset   `json:"preset,omitempty"`
	FontFamily     string   `json:"font_family,omitempty"`
	FontSizePx     *int     `json:"font_size_px,omitempty"`
	Color          string   `json:"color,omitempty"`
	Bold           bool     `json:"bold,omitempty"`
	Italic         bool     `json:"italic,omitempty"`
	StrokePx       *int     `json:"stroke_px,omitempty"`
	StrokeColor    string   `json:"stroke_color,omitempty"`
	Align          Align    `json:"align,omitempty"`
	PosX           *float64 `json:"pos_x,omitempty"`
	PosY           *float64 `json:"pos_y,omitempty"`
	MaxWidthPct    *int     `json:"max_width_pct,omitempty"`
	OutlineSamples *int     `json:"outline_samples,omitempty"`
	Opacity        *int     `json:"opacity,omitempty"`
	Rotation       int      `json:"rotation,omitempty"`
	ShadowPx       int      `json:"shadow_px,omitempty"`
}

// ResolvedStyle is a Style with every default applied and every bound
// checked. This is the only form the document builder accepts.
type ResolvedStyle struct {
	FontFamily  string
	FontSizePx  int
	Color       string
	Bold        bool
	Italic      bool
	StrokePx    int
	StrokeColor string
	Align       Align
	PosX        *float64
	PosY        *float64
	// MaxWidthPct is advisory: the document is emitted with WrapStyle 2
	// (no wrapping), the preview alone honors it.
	MaxWidthPct int
	// OutlineSamples is consumed by the preview renderer only.
	OutlineSamples int
	Opacity        int
	Rotation       int
	// ShadowPx is carried for schema compatibility and always renders as 0.
	ShadowPx int
}

// DefaultStyle returns the fully resolved default descriptor.
func DefaultStyle() ResolvedStyle {
	r, _ := Style{}.Resolve()
	return r
}

// Resolve applies the preset, fills defaults and validates bounds.
func (s Style) Resolve() (ResolvedStyle, error) {
	preset := s.Preset
	if preset == "" {
		preset = PresetDefault
	}
	base, ok := presetBases[preset]
	if !ok {
		return ResolvedStyle{}, fmt.Errorf("%w: unknown preset %q", ErrInvalidStyle, s.Preset)
	}

	r := ResolvedStyle{
		FontFamily:     "Inter",
		FontSizePx:     base.fontSizePx,
		Color:          "#FFFFFF",
		Bold:           s.Bold,
		Italic:         s.Italic,
		StrokePx:       base.strokePx,
		StrokeColor:    "#000000",
		Align:          AlignBottomCenter,
		PosX:           s.PosX,
		PosY:           s.PosY,
		MaxWidthPct:    90,
		OutlineSamples: 16,
		Opacity:        100,
		Rotation:       s.Rotation,
		ShadowPx:       0,
	}

	if s.FontFamily != "" {
		r.FontFamily = s.FontFamily
	}
	if s.FontSizePx != nil {
		r.FontSizePx = *s.FontSizePx
	}
	if s.Color != "" {
		r.Color = s.Color
	}
	if s.StrokePx != nil {
		r.StrokePx = *s.StrokePx
	}
	if s.StrokeColor != "" {
		r.StrokeColor = s.StrokeColor
	}
	if s.Align != "" {
		r.Align = s.Align
	}
	if s.MaxWidthPct != nil {
		r.MaxWidthPct = *s.MaxWidthPct
	}
	if s.OutlineSamples != nil {
		r.OutlineSamples = *s.OutlineSamples
	}
	if s.Opacity != nil {
		r.Opacity = *s.Opacity
	}

	if err := r.validate(); err != nil {
		return ResolvedStyle{}, err
	}
	return r, nil
}

func (r ResolvedStyle) validate() error {
	if !fontAllowed(r.FontFamily) {
		return fmt.Errorf("%w: font family %q is not bundled", ErrInvalidStyle, r.FontFamily)
	}
	if r.FontSizePx < 8 || r.FontSizePx > 200 {
		return fmt.Errorf("%w: font_size_px %d out of range 8..200", ErrInvalidStyle, r.FontSizePx)
	}
	if r.StrokePx < 0 || r.StrokePx > 16 {
		return fmt.Errorf("%w: stroke_px %d out of range 0..16", ErrInvalidStyle, r.StrokePx)
	}
	if r.MaxWidthPct < 10 || r.MaxWidthPct > 100 {
		return fmt.Errorf("%w: max_width_pct %d out of range 10..100", ErrInvalidStyle, r.MaxWidthPct)
	}
	if r.Opacity < 0 || r.Opacity > 100 {
		return fmt.Errorf("%w: opacity %d out of range 0..100", ErrInvalidStyle, r.Opacity)
	}
	if r.Rotation < 0 || r.Rotation > 359 {
		return fmt.Errorf("%w: rotation %d out of range 0..359", ErrInvalidStyle, r.Rotation)
	}
	if (r.PosX == nil) != (r.PosY == nil) {
		return fmt.Errorf("%w: pos_x and pos_y must be set together", ErrInvalidStyle)
	}
	if _, ok := alignmentCodes[r.Align]; !ok {
		return fmt.Errorf("%w: unknown align %q", ErrInvalidStyle, r.Align)
	}
	if _, err := ColorFromCSS(r.Color, r.Opacity); err != nil {
		return err
	}
	if _, err := ColorFromCSS(r.StrokeColor, 100); err != nil {
		return err
	}
	return nil
}

func fontAllowed(family string) bool {
	for _, f := range FontFamilies {
		if f == family {
			return true
		}
	}
	return false
}

// AlignmentCode returns the numpad code for the resolved anchor.
func (r ResolvedStyle) AlignmentCode() int {
	return alignmentCodes[r.Align]
}
