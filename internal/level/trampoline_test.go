package level

import (
	"testing"

	"github.com/stretchr/testify/require"

	"rebcore/internal/cell"
)

func TestRunSingleLevelOut(t *testing.T) {
	out := cell.Cell{}
	lvl := New(nil, &out, nil)
	lvl.Executor = func(l *Level) Bounce {
		*l.Out = cell.Integer(5)
		return Out()
	}
	tr := NewTrampoline(lvl)
	result, done, err := tr.Run()
	require.NoError(t, err)
	require.True(t, done)
	require.Equal(t, int64(5), result.AsInteger())
}

func TestContinuePushesSublevel(t *testing.T) {
	var out cell.Cell
	parent := New(nil, &out, nil)
	parent.Executor = func(l *Level) Bounce {
		if l.State == 0 {
			l.State = 1
			child := New(nil, l.Out, nil)
			child.Executor = func(c *Level) Bounce {
				*c.Out = cell.Integer(99)
				return Out()
			}
			l.Thread.Push(child)
			return Continue()
		}
		return Out()
	}
	tr := NewTrampoline(parent)
	result, done, err := tr.Run()
	require.NoError(t, err)
	require.True(t, done)
	require.Equal(t, int64(99), result.AsInteger())
}

func TestDelegateSkipsParentReentry(t *testing.T) {
	var out cell.Cell
	reentered := false
	parent := New(nil, &out, nil)
	parent.Executor = func(l *Level) Bounce {
		if l.State == 0 {
			l.State = 1
			child := New(nil, l.Out, nil)
			child.Executor = func(c *Level) Bounce {
				*c.Out = cell.Integer(7)
				return Out()
			}
			l.Thread.Push(child)
			return Delegate()
		}
		reentered = true
		return Out()
	}
	tr := NewTrampoline(parent)
	result, done, err := tr.Run()
	require.NoError(t, err)
	require.True(t, done)
	require.Equal(t, int64(7), result.AsInteger())
	require.False(t, reentered, "a delegated level must not be re-entered")
}

func TestUncaughtThrowBecomesError(t *testing.T) {
	var out cell.Cell
	lvl := New(nil, &out, nil)
	lvl.Executor = func(l *Level) Bounce {
		return Thrown(cell.Logic(true), cell.Integer(1))
	}
	tr := NewTrampoline(lvl)
	_, done, err := tr.Run()
	require.True(t, done)
	require.Error(t, err)
}

func TestCatchesThrowsReentersForCleanup(t *testing.T) {
	var out cell.Cell
	cleanedUp := false
	catcher := New(nil, &out, nil)
	catcher.Set(FlagCatchesThrows)
	catcher.Executor = func(l *Level) Bounce {
		if l.Throwing {
			cleanedUp = true
			*l.Out = l.ThrowArg
			return Out()
		}
		child := New(nil, l.Out, nil)
		child.Executor = func(c *Level) Bounce {
			return Thrown(cell.Logic(true), cell.Integer(42))
		}
		l.Thread.Push(child)
		return Continue()
	}
	tr := NewTrampoline(catcher)
	result, done, err := tr.Run()
	require.NoError(t, err)
	require.True(t, done)
	require.True(t, cleanedUp)
	require.Equal(t, int64(42), result.AsInteger())
}
