package pool

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/piecework/pkg/piecework/piece"
)

func monitorCtor(name string, init func(context.Context) error) piece.Constructor {
	return func(env piece.Env) (piece.Piece, error) {
		return piece.NewMonitor(env, piece.MonitorOptions{Name: name, Init: init})
	}
}

func commandCtor(name string, aliases ...string) piece.Constructor {
	return func(env piece.Env) (piece.Piece, error) {
		return piece.NewCommand(env, piece.CommandOptions{Name: name, Aliases: aliases})
	}
}

func TestPool_InitRegistersInOrder(t *testing.T) {
	var initOrder []string
	hook := func(name string) func(context.Context) error {
		return func(context.Context) error {
			initOrder = append(initOrder, name)
			return nil
		}
	}

	p := New[*piece.Monitor]("monitors", nil, Static(
		monitorCtor("b", hook("b")),
		monitorCtor("a", hook("a")),
		monitorCtor("c", hook("c")),
	))

	require.NoError(t, p.Init(context.Background()))

	assert.Equal(t, []string{"b", "a", "c"}, p.Keys())
	assert.Equal(t, []string{"b", "a", "c"}, initOrder)
	assert.Equal(t, 3, p.Len())

	for _, m := range p.All() {
		assert.True(t, m.Loaded(), m.Name())
		assert.Equal(t, "monitors", m.Pool())
	}
}

func TestPool_LastWriteWins(t *testing.T) {
	p := New[*piece.Monitor]("monitors", nil, nil)

	first, err := p.Register(monitorCtor("audit", nil))
	require.NoError(t, err)
	_, err = p.Register(monitorCtor("other", nil))
	require.NoError(t, err)
	second, err := p.Register(monitorCtor("audit", nil))
	require.NoError(t, err)

	got, ok := p.Get("audit")
	require.True(t, ok)
	assert.Same(t, second, got)
	assert.NotSame(t, first, got)
	assert.Equal(t, 2, p.Len())
	assert.Equal(t, []string{"audit", "other"}, p.Keys(), "replacement keeps position")
}

func TestPool_GetMissing(t *testing.T) {
	calls := 0
	p := New[*piece.Monitor]("monitors", nil, SourceFunc(func(context.Context) ([]Definition, error) {
		calls++
		return nil, nil
	}))

	_, ok := p.Get("missing")
	assert.False(t, ok)
	assert.Zero(t, calls, "Get never discovers or constructs")
}

func TestPool_ConstructionErrorPropagates(t *testing.T) {
	boom := errors.New("bad definition")
	p := New[*piece.Monitor]("monitors", nil, StaticSource{
		{Origin: "good.yaml", New: monitorCtor("good", nil)},
		{Origin: "broken.yaml", New: func(piece.Env) (piece.Piece, error) { return nil, boom }},
	})

	err := p.Init(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)

	var le *LoadError
	require.True(t, errors.As(err, &le))
	assert.Equal(t, "construct", le.Phase)
	assert.Equal(t, "broken.yaml", le.Origin)
	assert.Contains(t, err.Error(), `"broken.yaml"`)
}

func TestPool_InitHookErrorNamesPiece(t *testing.T) {
	boom := errors.New("missing token")
	p := New[*piece.Monitor]("monitors", nil, Static(
		monitorCtor("fine", nil),
		monitorCtor("needy", func(context.Context) error { return boom }),
	))

	err := p.Init(context.Background())
	require.ErrorIs(t, err, boom)

	var le *LoadError
	require.True(t, errors.As(err, &le))
	assert.Equal(t, "needy", le.Piece)
	assert.Equal(t, "init", le.Phase)
}

func TestPool_InitHookMayDisable(t *testing.T) {
	var task *piece.Task
	p := New[*piece.Task]("tasks", nil, Static(func(env piece.Env) (piece.Piece, error) {
		var err error
		task, err = piece.NewTask(env, piece.TaskOptions{
			Name: "sweeper",
			Init: func(context.Context) error {
				task.Disable()
				return nil
			},
		})
		return task, err
	}))

	require.NoError(t, p.Init(context.Background()))
	assert.False(t, task.Enabled())
	assert.Empty(t, p.Enabled())
	assert.Len(t, p.All(), 1)
}

func TestPool_KindMismatch(t *testing.T) {
	p := New[*piece.Monitor]("monitors", nil, nil)

	_, err := p.Register(commandCtor("ping"))
	assert.ErrorIs(t, err, ErrKindMismatch)
	assert.Zero(t, p.Len())
}

func TestPool_NilPiece(t *testing.T) {
	p := New[*piece.Monitor]("monitors", nil, nil)

	_, err := p.Register(func(piece.Env) (piece.Piece, error) { return nil, nil })
	assert.ErrorIs(t, err, ErrNilPiece)
}

func TestPool_DiscoverError(t *testing.T) {
	boom := errors.New("read dir")
	p := New[*piece.Monitor]("monitors", nil, SourceFunc(func(context.Context) ([]Definition, error) {
		return nil, boom
	}))

	assert.ErrorIs(t, p.Init(context.Background()), boom)
}

func TestPool_InitHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := New[*piece.Monitor]("monitors", nil, Static(monitorCtor("a", nil)))
	assert.ErrorIs(t, p.Init(ctx), context.Canceled)
	assert.Zero(t, p.Len())
}

func TestPool_RemoveRunsHooks(t *testing.T) {
	var removed []string
	p := New[*piece.Monitor]("monitors", nil, nil, WithOnRemove(func(pc piece.Piece) {
		removed = append(removed, pc.Name())
	}))

	_, err := p.Register(monitorCtor("a", nil))
	require.NoError(t, err)
	_, err = p.Register(monitorCtor("a", nil))
	require.NoError(t, err)

	m, ok := p.Remove("a")
	require.True(t, ok)
	assert.Equal(t, "a", m.Name())

	_, ok = p.Remove("a")
	assert.False(t, ok)

	assert.Equal(t, []string{"a", "a"}, removed, "replace and remove both fire")
}

func TestPool_Each(t *testing.T) {
	p := New[*piece.Monitor]("monitors", nil, Static(
		monitorCtor("a", nil), monitorCtor("b", nil), monitorCtor("c", nil),
	))
	require.NoError(t, p.Init(context.Background()))

	var seen []string
	p.Each(func(m *piece.Monitor) bool {
		seen = append(seen, m.Name())
		return m.Name() != "b"
	})
	assert.Equal(t, []string{"a", "b"}, seen)
}

func TestChain(t *testing.T) {
	boom := errors.New("boom")
	src := Chain(
		Static(monitorCtor("core", nil)),
		nil,
		Static(monitorCtor("user", nil), monitorCtor("core", nil)),
	)

	p := New[*piece.Monitor]("monitors", nil, src)
	require.NoError(t, p.Init(context.Background()))
	assert.Equal(t, []string{"core", "user"}, p.Keys())

	failing := Chain(Static(monitorCtor("a", nil)), SourceFunc(func(context.Context) ([]Definition, error) {
		return nil, boom
	}))
	_, err := failing.Discover(context.Background())
	assert.ErrorIs(t, err, boom)
}
