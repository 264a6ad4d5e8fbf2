// SPDX-License-Identifier: MIT

package render

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTailBufferKeepsEverythingUnderCapacity(t *testing.T) {
	tb := NewTailBuffer(16)
	n, err := tb.Write([]byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, "hello", tb.String())
}

func TestTailBufferKeepsOnlyTail(t *testing.T) {
	tb := NewTailBuffer(8)
	_, _ = tb.Write([]byte("0123456789"))
	assert.Equal(t, "23456789", tb.String())
	assert.Equal(t, 8, tb.Len())
}

func TestTailBufferAccumulatesAcrossWrites(t *testing.T) {
	tb := NewTailBuffer(6)
	_, _ = tb.Write([]byte("abc"))
	_, _ = tb.Write([]byte("def"))
	_, _ = tb.Write([]byte("gh"))
	assert.Equal(t, "cdefgh", tb.String())
}

func TestTailBufferSingleOversizedWrite(t *testing.T) {
	tb := NewTailBuffer(4)
	big := strings.Repeat("x", 100) + "tail"
	n, err := tb.Write([]byte(big))
	require.NoError(t, err)
	assert.Equal(t, len(big), n)
	assert.Equal(t, "tail", tb.String())
}
