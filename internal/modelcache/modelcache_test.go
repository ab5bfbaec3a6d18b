package modelcache

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reactionlab/kinfer/internal/engine"
)

func TestHashIsDeterministic(t *testing.T) {
	assert.Equal(t, Hash("model {}"), Hash("model {}"))
	assert.NotEqual(t, Hash("model {}"), Hash("model { }"))
	assert.Len(t, Hash("model {}"), 64)
}

func TestFilename(t *testing.T) {
	h := Hash("model {}")
	assert.Equal(t, "cached-rxn_ord-"+h+".gob", Filename("rxn_ord", h))
	assert.Equal(t, "cached-model-"+h+".gob", Filename("", h))
}

func TestFilenameDistinctTextsDistinctNames(t *testing.T) {
	a := Filename("m", Hash("model { a }"))
	b := Filename("m", Hash("model { b }"))
	assert.NotEqual(t, a, b)
}

func TestGetMissCompilesAndPersists(t *testing.T) {
	dir := t.TempDir()
	fake := engine.NewFake()
	cache := New(dir, fake)

	model, hit, err := cache.Get(context.Background(), "model {}", "rxn_ord")
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 1, fake.CompileCalls)
	assert.Equal(t, Hash("model {}"), model.Artifact().CodeHash)

	path := filepath.Join(dir, Filename("rxn_ord", Hash("model {}")))
	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestGetHitSkipsCompile(t *testing.T) {
	dir := t.TempDir()
	fake := engine.NewFake()
	cache := New(dir, fake)

	_, hit, err := cache.Get(context.Background(), "model {}", "rxn_ord")
	require.NoError(t, err)
	require.False(t, hit)

	model, hit, err := cache.Get(context.Background(), "model {}", "rxn_ord")
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 1, fake.CompileCalls, "second Get must not recompile")
	assert.Equal(t, 1, fake.LoadCalls)
	assert.Equal(t, "model {}", model.Artifact().StanCode)
}

func TestGetDistinctTextsCompileSeparately(t *testing.T) {
	dir := t.TempDir()
	fake := engine.NewFake()
	cache := New(dir, fake)

	_, _, err := cache.Get(context.Background(), "model { a }", "m")
	require.NoError(t, err)
	_, hit, err := cache.Get(context.Background(), "model { b }", "m")
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 2, fake.CompileCalls)
}

func TestGetCorruptCacheFileRecompiles(t *testing.T) {
	dir := t.TempDir()
	fake := engine.NewFake()
	cache := New(dir, fake)

	path := filepath.Join(dir, Filename("m", Hash("model {}")))
	require.NoError(t, os.WriteFile(path, []byte("not a gob stream"), 0o644))

	_, hit, err := cache.Get(context.Background(), "model {}", "m")
	require.NoError(t, err, "corrupt cache must fall back to recompilation")
	assert.False(t, hit)
	assert.Equal(t, 1, fake.CompileCalls)
}

func TestGetCompileErrorSurfaces(t *testing.T) {
	dir := t.TempDir()
	fake := engine.NewFake()
	fake.CompileErr = os.ErrPermission
	cache := New(dir, fake)

	_, _, err := cache.Get(context.Background(), "model {}", "m")
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrPermission)
}
