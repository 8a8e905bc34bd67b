package symbol

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"rebcore/internal/arena"
)

func TestInternIsCanonical(t *testing.T) {
	tbl := NewTable(arena.New(64))
	a := tbl.Intern("foo")
	b := tbl.Intern("foo")
	require.Equal(t, a, b)
	require.Equal(t, "foo", tbl.Spelling(a))
}

func TestInternDistinctSpellings(t *testing.T) {
	tbl := NewTable(arena.New(64))
	a := tbl.Intern("foo")
	b := tbl.Intern("bar")
	require.NotEqual(t, a, b)
}

func TestConcurrentInternCollapsesToOneID(t *testing.T) {
	tbl := NewTable(arena.New(64))
	var wg sync.WaitGroup
	ids := make([]ID, 64)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ids[i] = tbl.Intern("shared")
		}(i)
	}
	wg.Wait()
	for _, id := range ids {
		require.Equal(t, ids[0], id)
	}
}

func TestHitchChainPrependsAndLinks(t *testing.T) {
	tbl := NewTable(arena.New(64))
	id := tbl.Intern("x")
	first := tbl.AddPatch(id, 10)
	second := tbl.AddPatch(id, 20)
	require.Equal(t, second, tbl.HitchHead(id))
	require.NotEqual(t, first, second)
}

func TestMarkAndClear(t *testing.T) {
	tbl := NewTable(arena.New(64))
	id := tbl.Intern("y")
	require.False(t, tbl.IsMarked(id))
	tbl.Mark(id)
	require.True(t, tbl.IsMarked(id))
	tbl.ClearAllMarks()
	require.False(t, tbl.IsMarked(id))
}
