package ml

import (
	"context"
	"strings"
	"testing"
	"time"

	"house-pricer/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModelManager_Register(t *testing.T) {
	store, err := storage.New(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	manager := NewModelManager(store)

	current, err := manager.GetCurrentVersion()
	require.NoError(t, err)
	assert.Nil(t, current)

	ds := testDataset(t, false)
	opts := testFitOptions(t.TempDir())
	p, err := FitOrLoad(context.Background(), ds, opts)
	require.NoError(t, err)

	require.NoError(t, manager.Register(p, opts.ModelPath, opts.ScalerPath))

	current, err = manager.GetCurrentVersion()
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.Equal(t, p.Report().Version, current.Version)
	assert.Equal(t, ds.Schema.Fingerprint(), current.Fingerprint)
	assert.Equal(t, opts.ModelPath, current.ModelPath)
	assert.Equal(t, p.Report().TestR2, current.TestR2)

	cached, err := FitOrLoad(context.Background(), ds, opts)
	require.NoError(t, err)
	require.NoError(t, manager.Register(cached, opts.ModelPath, opts.ScalerPath))

	versions, err := manager.ListVersions()
	require.NoError(t, err)
	assert.Len(t, versions, 1, "re-registering a cached model does not add a version")
}

func TestModelManager_RefitsKeepSeparateVersions(t *testing.T) {
	store, err := storage.New(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	manager := NewModelManager(store)
	ds := testDataset(t, false)
	opts := testFitOptions(t.TempDir())
	opts.Force = true
	opts.Boost.Rounds = 5

	first, err := FitOrLoad(context.Background(), ds, opts)
	require.NoError(t, err)
	second, err := FitOrLoad(context.Background(), ds, opts)
	require.NoError(t, err)
	require.NotEqual(t, first.Report().Version, second.Report().Version)

	require.NoError(t, manager.Register(first, opts.ModelPath, opts.ScalerPath))
	require.NoError(t, manager.Register(second, opts.ModelPath, opts.ScalerPath))

	versions, err := manager.ListVersions()
	require.NoError(t, err)
	assert.Len(t, versions, 2)

	current, err := manager.GetCurrentVersion()
	require.NoError(t, err)
	assert.Equal(t, second.Report().Version, current.Version)
}

func TestNewVersion(t *testing.T) {
	at := time.Date(2026, 3, 4, 5, 6, 7, 123456789, time.UTC)

	a, b := newVersion(at), newVersion(at)
	assert.NotEqual(t, a, b, "same instant still yields distinct versions")
	assert.True(t, strings.HasPrefix(a, "20260304-050607.123456-"), a)

	later := newVersion(at.Add(time.Millisecond))
	assert.Less(t, a[:len(versionLayout)], later[:len(versionLayout)])
}
