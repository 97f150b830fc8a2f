package styles

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestThemeNames(t *testing.T) {
	names := ThemeNames()
	assert.Equal(t, []string{"catppuccin-latte", "gruvbox", "tokyo-night"}, names)
	assert.Contains(t, names, DefaultTheme)
}

func TestSetTheme(t *testing.T) {
	t.Cleanup(func() { SetTheme(themes[DefaultTheme]) })

	p, ok := GetPalette("gruvbox")
	require.True(t, ok)
	SetTheme(p)

	assert.Equal(t, p, CurrentPalette)
	assert.Equal(t, p.Error, QuadrantColor("do"))
	assert.Equal(t, p.Muted, QuadrantColor("eliminate"))

	_, ok = GetPalette("nope")
	assert.False(t, ok)
}

func TestColorForString(t *testing.T) {
	assert.Equal(t, ColorForString("bug"), ColorForString("bug"))
	assert.Contains(t, ColorPool, ColorForString("reading"))
}
