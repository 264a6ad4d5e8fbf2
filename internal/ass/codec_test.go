// SPDX-License-Identifier: MIT

package ass

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatTime(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{0, "0:00:00.00"},
		{65.239, "0:01:05.23"},
		{3723.999, "1:02:03.99"},
		{3665.2399, "1:01:05.23"},
		{2.5, "0:00:02.50"},
		{5.0, "0:00:05.00"},
		{2.55, "0:00:02.55"},
		{-3, "0:00:00.00"},
		{35999.99, "9:59:59.99"},
		{36000, "10:00:00.00"},
	}
	for _, tc := range cases {
		t.Run(tc.want, func(t *testing.T) {
			assert.Equal(t, tc.want, FormatTime(tc.in))
		})
	}
}

func TestFormatTimeTruncatesCentiseconds(t *testing.T) {
	// .239 and .999 must not round up.
	assert.Equal(t, "0:00:01.23", FormatTime(1.239))
	assert.Equal(t, "0:00:01.99", FormatTime(1.999))
}

func TestFormatTimeMonotonic(t *testing.T) {
	prev := FormatTime(0)
	for i := 1; i < 10000; i++ {
		cur := FormatTime(float64(i) * 0.037)
		assert.LessOrEqual(t, prev, cur, "timestamps must be monotonic at step %d", i)
		prev = cur
	}
}

func TestColorFromCSS(t *testing.T) {
	cases := []struct {
		hex   string
		alpha int
		want  string
	}{
		{"#6D5AE6", 100, "&H00E65A6D"},
		{"#FFFFFF", 50, "&H80FFFFFF"},
		{"#FFFFFF", 100, "&H00FFFFFF"},
		{"#000000", 100, "&H00000000"},
		{"#36CE5C", 100, "&H005CCE36"},
		{"#fff", 100, "&H00FFFFFF"},
		{"#abc", 100, "&H00CCBBAA"},
		{"#FFFFFF", 0, "&HFFFFFFFF"},
	}
	for _, tc := range cases {
		t.Run(fmt.Sprintf("%s_%d", tc.hex, tc.alpha), func(t *testing.T) {
			got, err := ColorFromCSS(tc.hex, tc.alpha)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestColorFromCSSRoundtrip(t *testing.T) {
	// css_hex_to_ass("#RRGGBB", 100) == "&H00BBGGRR"
	got, err := ColorFromCSS("#123456", 100)
	require.NoError(t, err)
	assert.Equal(t, "&H00563412", got)
}

func TestColorFromCSSInvalid(t *testing.T) {
	for _, hex := range []string{"", "FFFFFF", "#FFFF", "#GGHHII", "#12345", "#1234567", "rgba(0,0,0,0.85)"} {
		_, err := ColorFromCSS(hex, 100)
		assert.ErrorIs(t, err, ErrInvalidColor, "input %q", hex)
	}
}

func TestEscapeText(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"hello", "hello"},
		{"a{b}c", `a\{b\}c`},
		{`back\slash`, `back\\slash`},
		{"line1\nline2", `line1\Nline2`},
		{"cr\r\nlf", `cr\Nlf`},
		{"commas, are, kept", "commas, are, kept"},
		{"", ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, EscapeText(tc.in), "input %q", tc.in)
	}
}
