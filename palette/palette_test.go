package palette_test

import (
	"testing"

	"github.com/programme-lv/arena/palette"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClamping(t *testing.T) {
	p := palette.New(3)

	assert.False(t, p.Previous())
	assert.Equal(t, 0, p.Active())

	assert.True(t, p.Next())
	assert.True(t, p.Next())
	assert.Equal(t, 2, p.Active())
	assert.False(t, p.Next())
	assert.Equal(t, 2, p.Active())

	assert.True(t, p.Previous())
	assert.Equal(t, 1, p.Active())
}

func TestJumpTo(t *testing.T) {
	p := palette.New(4)
	for i := 0; i < 4; i++ {
		require.NoError(t, p.JumpTo(i))
		assert.Equal(t, i, p.Active())
	}

	require.NoError(t, p.JumpTo(1))
	for _, i := range []int{-1, 4, 100} {
		err := p.JumpTo(i)
		assert.ErrorIs(t, err, palette.ErrIndexOutOfRange)
		assert.Equal(t, 1, p.Active())
	}
}

func TestLockedPaletteStillBrowses(t *testing.T) {
	p := palette.New(2)
	p.Lock()
	assert.True(t, p.Locked())
	assert.True(t, p.Next())
	assert.Equal(t, 1, p.Active())
}

func TestCells(t *testing.T) {
	p := palette.New(3)
	require.NoError(t, p.JumpTo(2))
	cells := p.Cells(func(i int) bool { return i == 0 })

	require.Len(t, cells, 3)
	assert.Equal(t, palette.StatusAnswered, cells[0].Status)
	assert.Equal(t, palette.StatusUnanswered, cells[1].Status)
	assert.True(t, cells[2].Active)
	assert.False(t, cells[0].Active)
}

func TestEmptyPalette(t *testing.T) {
	p := palette.New(0)
	assert.False(t, p.Next())
	assert.False(t, p.Previous())
	assert.ErrorIs(t, p.JumpTo(0), palette.ErrIndexOutOfRange)
}
