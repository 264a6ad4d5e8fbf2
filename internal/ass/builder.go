// SPDX-License-Identifier: MIT

package ass

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/feldrik/lyricburn/internal/model"
)

// stylesFormat is the canonical v4+ style field order.
const stylesFormat = "Format: Name, Fontname, Fontsize, PrimaryColour, SecondaryColour, OutlineColour, BackColour, Bold, Italic, Underline, StrikeOut, ScaleX, ScaleY, Spacing, Angle, BorderStyle, Outline, Shadow, Alignment, MarginL, MarginR, MarginV, Encoding"

// eventsFormat is the canonical event field order; Text is the tail and may
// contain commas.
const eventsFormat = "Format: Layer, Start, End, Style, Name, MarginL, MarginR, MarginV, Effect, Text"

// BuildDocument emits a complete ASS v4+ script for the given segments.
// Segments are rendered in input order; the store guarantees they arrive
// sorted and disjoint. PlayRes must be the probed source resolution - the
// preview derives its scale from the same pair, which is what keeps drag
// coordinates and burned pixels in agreement.
//
// Output contract: UTF-8, no BOM, "\n" line endings.
func BuildDocument(segments []model.Segment, style ResolvedStyle, playResX, playResY int) (string, error) {
	if playResX <= 0 || playResY <= 0 {
		return "", fmt.Errorf("invalid PlayRes %dx%d", playResX, playResY)
	}

	primary, err := ColorFromCSS(style.Color, style.Opacity)
	if err != nil {
		return "", err
	}
	outline, err := ColorFromCSS(style.StrokeColor, 100)
	if err != nil {
		return "", err
	}

	var b strings.Builder

	b.WriteString("[Script Info]\n")
	b.WriteString("ScriptType: v4.00+\n")
	fmt.Fprintf(&b, "PlayResX: %d\n", playResX)
	fmt.Fprintf(&b, "PlayResY: %d\n", playResY)
	b.WriteString("WrapStyle: 2\n")
	b.WriteString("ScaledBorderAndShadow: yes\n")
	b.WriteString("\n")

	b.WriteString("[V4+ Styles]\n")
	b.WriteString(stylesFormat + "\n")
	fmt.Fprintf(&b, "Style: Default,%s,%d,%s,&H000000FF,%s,&H00000000,%d,%d,0,0,100,100,0,0,1,%d,0,%d,0,0,0,1\n",
		style.FontFamily,
		style.FontSizePx,
		primary,
		outline,
		assBool(style.Bold),
		assBool(style.Italic),
		style.StrokePx,
		style.AlignmentCode(),
	)
	b.WriteString("\n")

	b.WriteString("[Events]\n")
	b.WriteString(eventsFormat + "\n")

	override := overrideTag(style)
	for _, seg := range segments {
		fmt.Fprintf(&b, "Dialogue: 0,%s,%s,Default,,0,0,0,,%s%s\n",
			FormatTime(seg.Start),
			FormatTime(seg.End),
			override,
			EscapeText(seg.Text),
		)
	}

	return b.String(), nil
}

// overrideTag builds the inline override prefix. \pos wins over the style
// row's numpad anchor; \frz rotates about the anchor point.
func overrideTag(style ResolvedStyle) string {
	var tags []string
	if style.PosX != nil && style.PosY != nil {
		tags = append(tags, fmt.Sprintf(`\pos(%s,%s)`, formatCoord(*style.PosX), formatCoord(*style.PosY)))
	}
	if style.Rotation != 0 {
		tags = append(tags, fmt.Sprintf(`\frz%d`, style.Rotation))
	}
	if len(tags) == 0 {
		return ""
	}
	return "{" + strings.Join(tags, "") + "}"
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// assBool renders a boolean in the -1/0 convention the styles section uses.
func assBool(v bool) int {
	if v {
		return -1
	}
	return 0
}
