package transform

import (
	"context"
	stderrors "errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"markprep/internal/core/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type upper struct{ id int }

func (u *upper) Transform(_ context.Context, in Input) (Result, error) {
	return Result{Code: strings.ToUpper(in.Content), Dependencies: in.Config.Strings("deps")}, nil
}

func countingFactory(count *int32) Factory {
	return func() (Transformer, error) {
		n := atomic.AddInt32(count, 1)
		return &upper{id: int(n)}, nil
	}
}

func TestRunNamed(t *testing.T) {
	r := NewRegistry()
	var loads int32
	r.Register("upper", countingFactory(&loads))

	res, err := r.Run(context.Background(), Named{Name: "upper", Config: Config{"deps": []any{"a.css"}}}, Source{Content: "abc", Filename: "x.svelte"})
	require.NoError(t, err)
	assert.Equal(t, "ABC", res.Code)
	assert.Equal(t, []string{"a.css"}, res.Dependencies)
	assert.True(t, r.Loaded("upper"))
}

func TestRunLoadsOnce(t *testing.T) {
	r := NewRegistry()
	var loads int32
	r.Register("upper", countingFactory(&loads))
	assert.False(t, r.Loaded("upper"))

	for i := 0; i < 3; i++ {
		_, err := r.Run(context.Background(), Named{Name: "upper"}, Source{Content: "x"})
		require.NoError(t, err)
	}
	assert.EqualValues(t, 1, atomic.LoadInt32(&loads))
}

func TestRunConcurrentFirstUseLoadsOnce(t *testing.T) {
	r := NewRegistry()
	var loads int32
	r.Register("upper", countingFactory(&loads))

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := r.Run(context.Background(), Named{Name: "upper"}, Source{Content: "x"})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.EqualValues(t, 1, atomic.LoadInt32(&loads))
}

func TestRunMissingTransformer(t *testing.T) {
	r := NewRegistry()
	_, err := r.Run(context.Background(), Named{Name: "missing-transformer"}, Source{Content: "x", Filename: "a.svelte"})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeTransformFailed))
	assert.Contains(t, err.Error(), "'missing-transformer'")
	assert.True(t, strings.HasPrefix(err.Error(), errors.Prefix))
	assert.False(t, r.Loaded("missing-transformer"))
}

func TestRunWrapsExecutionFailure(t *testing.T) {
	cause := stderrors.New("unexpected token at 1:4")
	r := NewRegistry()
	r.RegisterTransformer("broken", TransformerFunc(func(context.Context, Input) (Result, error) {
		return Result{}, cause
	}))

	_, err := r.Run(context.Background(), Named{Name: "broken"}, Source{})
	require.Error(t, err)
	assert.Equal(t, "[markprep] Error transforming 'broken'. Message:\nunexpected token at 1:4", err.Error())
	assert.False(t, stderrors.Is(err, cause), "original failure must not leak")
}

func TestRunWrapsLoadFailureAndRetries(t *testing.T) {
	r := NewRegistry()
	attempts := 0
	r.Register("flaky", func() (Transformer, error) {
		attempts++
		if attempts == 1 {
			return nil, stderrors.New("module missing")
		}
		return &upper{}, nil
	})

	_, err := r.Run(context.Background(), Named{Name: "flaky"}, Source{Content: "a"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "module missing")
	assert.False(t, r.Loaded("flaky"))

	res, err := r.Run(context.Background(), Named{Name: "flaky"}, Source{Content: "a"})
	require.NoError(t, err)
	assert.Equal(t, "A", res.Code)
	assert.Equal(t, 2, attempts)
}

func TestRunRecoversPanics(t *testing.T) {
	r := NewRegistry()
	r.RegisterTransformer("panicky", TransformerFunc(func(context.Context, Input) (Result, error) {
		panic("kaboom")
	}))
	r.Register("bad-load", func() (Transformer, error) { panic("init failed") })

	_, err := r.Run(context.Background(), Named{Name: "panicky"}, Source{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "kaboom")

	_, err = r.Run(context.Background(), Named{Name: "bad-load"}, Source{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "init failed")
	assert.True(t, errors.IsCode(err, errors.CodeTransformFailed))
}

func TestRunOverrideBypassesRegistry(t *testing.T) {
	r := NewRegistry()
	var got Source
	override := Override{Fn: func(_ context.Context, src Source) (Result, error) {
		got = src
		return Result{Code: "overridden"}, nil
	}}

	res, err := r.Run(context.Background(), override, Source{Content: "body", Filename: "App.svelte"})
	require.NoError(t, err)
	assert.Equal(t, "overridden", res.Code)
	assert.Equal(t, Source{Content: "body", Filename: "App.svelte"}, got)
	assert.Empty(t, r.Names())
}

func TestRunOverrideErrorIsReturnedAsIs(t *testing.T) {
	cause := stderrors.New("custom failure")
	r := NewRegistry()
	_, err := r.Run(context.Background(), Override{Fn: func(context.Context, Source) (Result, error) {
		return Result{}, cause
	}}, Source{})
	assert.Same(t, cause, err)
}

func TestRunInvalidDispatch(t *testing.T) {
	r := NewRegistry()

	_, err := r.Run(context.Background(), nil, Source{})
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), errors.Prefix))

	_, err = r.Run(context.Background(), Override{}, Source{})
	require.Error(t, err)
}

func TestRegisterAfterLoadKeepsCachedInstance(t *testing.T) {
	r := NewRegistry()
	first := &upper{id: 1}
	r.RegisterTransformer("upper", first)
	_, err := r.Run(context.Background(), Named{Name: "upper"}, Source{})
	require.NoError(t, err)

	var loads int32
	r.Register("upper", countingFactory(&loads))
	_, err = r.Run(context.Background(), Named{Name: "upper"}, Source{})
	require.NoError(t, err)
	assert.EqualValues(t, 0, atomic.LoadInt32(&loads))
}

func TestNamesAndHas(t *testing.T) {
	r := NewRegistry()
	r.RegisterTransformer("b", &upper{})
	r.RegisterTransformer("a", &upper{})
	assert.Equal(t, []string{"a", "b"}, r.Names())
	assert.True(t, r.Has("a"))
	assert.False(t, r.Has("c"))
}

func TestConfigHelpers(t *testing.T) {
	cfg := Config{"mode": "strict", "on": true, "list": []any{"a", 1, "b"}, "typed": []string{"x"}}
	assert.Equal(t, "strict", cfg.Get("mode", "loose"))
	assert.Equal(t, "loose", cfg.Get("missing", "loose"))
	assert.True(t, cfg.Bool("on", false))
	assert.True(t, cfg.Bool("missing", true))
	assert.Equal(t, []string{"a", "b"}, cfg.Strings("list"))
	assert.Equal(t, []string{"x"}, cfg.Strings("typed"))
	assert.Nil(t, cfg.Strings("mode"))

	merged := Merge(Config{"a": 1, "b": 1}, nil, Config{"b": 2})
	assert.Equal(t, Config{"a": 1, "b": 2}, merged)
}
