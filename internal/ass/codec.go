// SPDX-License-Identifier: MIT

// Package ass emits Advanced SubStation Alpha subtitle documents whose
// PlayRes matches the source video, so that client-side preview geometry
// and the burned output agree pixel for pixel.
package ass

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrInvalidColor reports a color value that is not #RGB or #RRGGBB.
var ErrInvalidColor = errors.New("invalid color")

// FormatTime renders seconds as an ASS timestamp "H:MM:SS.CC". Negative
// input clamps to zero and centiseconds are truncated, never rounded, so
// an event can never start ahead of its audio.
func FormatTime(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	// The epsilon absorbs binary float noise (2.55*100 == 254.999...),
	// it is far below the half-centisecond that would change rounding.
	cs := int64(math.Floor(seconds*100 + 1e-6))
	c := cs % 100
	total := cs / 100
	s := total % 60
	m := (total / 60) % 60
	h := total / 3600
	return fmt.Sprintf("%d:%02d:%02d.%02d", h, m, s, c)
}

// ColorFromCSS converts a CSS hex color (#RGB or #RRGGBB) into the ASS
// &HAABBGGRR form. ASS stores blue-green-red with an inverse alpha byte:
// alphaPct 100 (fully opaque) becomes AA=00.
func ColorFromCSS(hex string, alphaPct int) (string, error) {
	c, ok := strings.CutPrefix(strings.TrimSpace(hex), "#")
	if !ok {
		return "", fmt.Errorf("%w: %q missing '#' prefix", ErrInvalidColor, hex)
	}
	if len(c) == 3 {
		c = expandShorthand(c)
	}
	if len(c) != 6 {
		return "", fmt.Errorf("%w: %q has %d hex digits, want 3 or 6", ErrInvalidColor, hex, len(c))
	}
	var rgb [3]uint64
	for i := range rgb {
		v, err := strconv.ParseUint(c[2*i:2*i+2], 16, 8)
		if err != nil {
			return "", fmt.Errorf("%w: %q", ErrInvalidColor, hex)
		}
		rgb[i] = v
	}
	r, g, b := rgb[0], rgb[1], rgb[2]
	if alphaPct < 0 {
		alphaPct = 0
	} else if alphaPct > 100 {
		alphaPct = 100
	}
	a := uint8(math.Round(float64(100-alphaPct) * 255 / 100))
	return fmt.Sprintf("&H%02X%02X%02X%02X", a, b, g, r), nil
}

func expandShorthand(c string) string {
	var sb strings.Builder
	for _, ch := range c {
		sb.WriteRune(ch)
		sb.WriteRune(ch)
	}
	return sb.String()
}

// EscapeText escapes segment text for the Dialogue tail field. Commas are
// preserved: the Text field is the tail of the comma-separated row.
func EscapeText(text string) string {
	text = strings.ReplaceAll(text, "\r", "")
	text = strings.ReplaceAll(text, `\`, `\\`)
	text = strings.ReplaceAll(text, "{", `\{`)
	text = strings.ReplaceAll(text, "}", `\}`)
	text = strings.ReplaceAll(text, "\n", `\N`)
	return text
}
