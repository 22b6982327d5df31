package main

import (
	"bytes"
	"errors"
	"net/url"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kailas-cloud/metasearch/internal/config"
	"github.com/kailas-cloud/metasearch/internal/db"
	"github.com/kailas-cloud/metasearch/internal/domain"
	"github.com/kailas-cloud/metasearch/internal/version"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "metasearch", cmd.Use)

	for _, name := range []string{"serve", "query", "stats", "version"} {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err)
			assert.Equal(t, name, sub.Name())
		})
	}

	agg, _, err := cmd.Find([]string{"stats", "aggregate"})
	require.NoError(t, err)
	assert.Equal(t, "aggregate", agg.Name())
	assert.Equal(t, "status", agg.Flags().Lookup("field").DefValue)
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd.PersistentFlags().Lookup("config"))
	env := cmd.PersistentFlags().Lookup("env")
	require.NotNil(t, env)
	assert.Equal(t, config.GetEnv(), env.DefValue)
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "metasearch "+version.Version)
	assert.Contains(t, out, version.Commit)
}

func TestQuery_UnknownEntity(t *testing.T) {
	_, err := execute(t, "query", "widgets")
	assert.True(t, errors.Is(err, domain.ErrUnknownEntity))
}

func TestQuery_BadArgument(t *testing.T) {
	_, err := execute(t, "query", "granules", "status")
	assert.True(t, errors.Is(err, domain.ErrInvalidParameter))
}

func TestQuery_InvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("http:\n  port: 0\n"), 0o600))

	_, err := execute(t, "query", "granules", "--config", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load config")
}

func TestStats_BadTimeFlag(t *testing.T) {
	_, err := execute(t, "stats", "--from", "last tuesday")
	assert.True(t, errors.Is(err, domain.ErrInvalidParameter))
}

func TestParseKV(t *testing.T) {
	values, err := parseKV([]string{"status=completed", "collectionId__in=A___1,B___2", "status=failed", "infix="})
	require.NoError(t, err)
	assert.Equal(t, url.Values{
		"status":           {"completed", "failed"},
		"collectionId__in": {"A___1,B___2"},
		"infix":            {""},
	}, values)

	_, err = parseKV([]string{"=x"})
	assert.Error(t, err)
}

func TestParseTimeFlag(t *testing.T) {
	got, err := parseTimeFlag("from", "1000")
	require.NoError(t, err)
	assert.True(t, got.Equal(time.UnixMilli(1000)))

	got, err = parseTimeFlag("to", "2024-02-01T00:00:00Z")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), got)

	got, err = parseTimeFlag("to", "")
	require.NoError(t, err)
	assert.True(t, got.IsZero())
}

func TestBackendFlag(t *testing.T) {
	assert.Equal(t, db.BackendSnapshot, backendFlag(true))
	assert.Equal(t, db.BackendLive, backendFlag(false))
}

func TestParseOptions(t *testing.T) {
	opts := parseOptions(config.SearchConfig{DefaultLimit: 20, MaxLimit: 200, StrictFields: true})
	assert.Equal(t, 20, opts.DefaultLimit)
	assert.Equal(t, 200, opts.MaxLimit)
	assert.True(t, opts.Strict)
}

func TestCacheStoreConfig_PassesCredentials(t *testing.T) {
	got := cacheStoreConfig(config.CacheConfig{
		Addrs:    []string{"redis-a:6379", "redis-b:6379"},
		Username: "metasearch",
		Password: "secret",
		DB:       2,
	})
	assert.Equal(t, []string{"redis-a:6379", "redis-b:6379"}, got.Addrs)
	assert.Equal(t, "metasearch", got.Username)
	assert.Equal(t, "secret", got.Password)
	assert.Equal(t, 2, got.DB)
}
