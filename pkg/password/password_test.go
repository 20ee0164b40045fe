package password

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateLength(t *testing.T) {
	p, err := Generate(24)
	require.NoError(t, err)
	assert.Len(t, p, 24)
}

func TestGenerateDefaultLengthOnTooShort(t *testing.T) {
	p, err := Generate(2)
	require.NoError(t, err)
	assert.Len(t, p, DefaultLength)
}

func TestGenerateCoversAllClasses(t *testing.T) {
	for i := 0; i < 50; i++ {
		p, err := Generate(DefaultLength)
		require.NoError(t, err)
		assert.True(t, strings.ContainsAny(p, lower), "missing lowercase: %s", p)
		assert.True(t, strings.ContainsAny(p, upper), "missing uppercase: %s", p)
		assert.True(t, strings.ContainsAny(p, digits), "missing digit: %s", p)
		assert.True(t, strings.ContainsAny(p, symbols), "missing symbol: %s", p)
	}
}

func TestGenerateExcludesAmbiguousGlyphs(t *testing.T) {
	for i := 0; i < 50; i++ {
		p, err := Generate(DefaultLength)
		require.NoError(t, err)
		assert.False(t, strings.ContainsAny(p, "lIO01"), "ambiguous glyph in %s", p)
	}
}

func TestGenerateIsNotConstant(t *testing.T) {
	a, err := Generate(DefaultLength)
	require.NoError(t, err)
	b, err := Generate(DefaultLength)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}
