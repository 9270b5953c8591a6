/*
 * Copyright (c) 2025-present unTill Software Development Group B.V.
 */

package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/voedger/fieldflow/pkg/fielddef"
)

func TestBasicUsage(t *testing.T) {
	require := require.New(t)

	t.Run("Should run scenario on in-memory storage", func(t *testing.T) {
		err := execRootCmd([]string{"fieldflow", "run", "testdata/orders.yaml", "-c", "testdata/config.yaml"}, "1.0.0")
		require.NoError(err)
	})

	t.Run("Should run scenario on durable storage", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "data")
		err := execRootCmd([]string{"fieldflow", "run", "testdata/orders.yaml", "--data", dir}, "1.0.0")
		require.NoError(err)
		require.FileExists(filepath.Join(dir, storageName+".db"))
	})

	t.Run("Should check definitions", func(t *testing.T) {
		err := execRootCmd([]string{"fieldflow", "check", "testdata/orders.yaml"}, "1.0.0")
		require.NoError(err)
	})

	t.Run("Should reject definitions with unresolved references", func(t *testing.T) {
		err := execRootCmd([]string{"fieldflow", "check", "testdata/unresolved.yaml"}, "1.0.0")
		require.ErrorIs(err, fielddef.ErrReferenceMissingError)
	})
}

func TestFailedExpectations(t *testing.T) {
	require := require.New(t)

	s, err := readScenario("testdata/orders.yaml")
	require.NoError(err)
	s.Expect[0].Value = 31

	cfg, err := readConfig(&fieldflowParams{})
	require.NoError(err)
	e, _, cleanup, err := openEngine(context.Background(), cfg)
	require.NoError(err)
	defer cleanup()

	out := &bytes.Buffer{}
	r := newRunner(e)
	require.NoError(r.run(context.Background(), s, out))
	require.Equal(1, r.failed)
	require.Contains(out.String(), "fldTotal[first]")

	out.Reset()
	require.NoError(r.print(context.Background(), s, out))
	require.Contains(out.String(), "Label: First: 20")
}

func TestReadConfig(t *testing.T) {
	require := require.New(t)

	cfg, err := readConfig(&fieldflowParams{ConfigFile: "testdata/config.yaml", DataDir: "override"})
	require.NoError(err)
	require.Equal(100, cfg.MaxArraySize)
	require.Equal(4, cfg.Parallelism)
	require.Equal(1048576, cfg.StorageCacheBytes)
	require.Equal("override", cfg.DataDir)

	t.Run("Should reject unknown keys", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.yaml")
		require.NoError(os.WriteFile(path, []byte("unknownKey: 1\n"), 0o600))
		_, err := readConfig(&fieldflowParams{ConfigFile: path})
		require.Error(err)
	})
}
