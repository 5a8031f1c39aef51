// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package fsutil

import (
	"os"
	"os/user"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExpandHome(t *testing.T) {
	usr, err := user.Current()
	require.NoError(t, err)

	got, err := ExpandHome("~/data/x.npy")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(usr.HomeDir, "data/x.npy"), got)

	got, err = ExpandHome("~")
	require.NoError(t, err)
	require.Equal(t, filepath.Clean(usr.HomeDir), got)

	got, err = ExpandHome("/tmp/~x.npy")
	require.NoError(t, err)
	require.Equal(t, "/tmp/~x.npy", got)

	_, err = ExpandHome("~no_such_user_for_sure/x.npy")
	require.Error(t, err)
}

func TestOutputPath(t *testing.T) {
	dir := t.TempDir()
	existing := filepath.Join(dir, "existing.npy")
	require.NoError(t, os.WriteFile(existing, []byte("x"), 0o644))

	exists, err := FileExists(existing)
	require.NoError(t, err)
	require.True(t, exists)

	_, err = OutputPath(existing, false)
	require.ErrorContains(t, err, "already exists")
	got, err := OutputPath(existing, true)
	require.NoError(t, err)
	require.Equal(t, existing, got)

	fresh := filepath.Join(dir, "new.npy")
	got, err = OutputPath(fresh, false)
	require.NoError(t, err)
	require.Equal(t, fresh, got)

	_, err = OutputPath(filepath.Join(dir, "missing", "new.npy"), false)
	require.ErrorContains(t, err, "doesn't exist")
}
