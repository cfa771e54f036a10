package chaincontrol

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevels_DistinctOrdinals(t *testing.T) {
	seen := map[int]string{}
	for i, level := range Levels() {
		assert.Equal(t, i, level.Level, "levels must be listed in ascending order")
		_, dup := seen[level.Level]
		assert.False(t, dup, "ordinal %d is shared", level.Level)
		seen[level.Level] = level.Code
	}
	assert.Len(t, seen, 4)
}

func TestParseLevel(t *testing.T) {
	level, ok := ParseLevel("R2")
	assert.True(t, ok)
	assert.Equal(t, LevelR2, level)

	level, ok = ParseLevel(" r-3 ")
	assert.True(t, ok)
	assert.Equal(t, LevelR3, level)

	level, ok = ParseLevel("none")
	assert.True(t, ok)
	assert.Equal(t, LevelNone, level)

	level, ok = ParseLevel("R9")
	assert.False(t, ok)
	assert.Equal(t, LevelNone, level)
}

func TestChainLevel_Predicates(t *testing.T) {
	assert.False(t, LevelNone.IsRestricted())
	assert.True(t, LevelR1.IsRestricted())
	assert.False(t, LevelR2.IsClosure())
	assert.True(t, LevelR3.IsClosure())
	assert.Equal(t, "R1", LevelR1.String())
}
