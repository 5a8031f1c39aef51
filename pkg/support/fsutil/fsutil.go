// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package fsutil resolves the file paths given on the command line.
package fsutil

import (
	"os"
	"os/user"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// FileExists returns whether the file exists, or an error if the file system couldn't tell.
func FileExists(filePath string) (bool, error) {
	_, err := os.Stat(filePath)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, errors.Wrapf(err, "failed to stat %q", filePath)
}

// ExpandHome replaces a leading "~" or "~user" in filePath by the home directory of the current (or named) user.
// Other paths are returned unchanged.
func ExpandHome(filePath string) (string, error) {
	if !strings.HasPrefix(filePath, "~") {
		return filePath, nil
	}
	userName, rest, _ := strings.Cut(filePath[1:], "/")
	var usr *user.User
	var err error
	if userName == "" {
		usr, err = user.Current()
	} else {
		usr, err = user.Lookup(userName)
	}
	if err != nil {
		return "", errors.Wrapf(err, "failed to find the home directory in path %q", filePath)
	}
	return filepath.Join(usr.HomeDir, rest), nil
}

// OutputPath expands filePath with ExpandHome and checks that it can be created: it must not exist
// unless overwrite is set, and its directory must exist.
func OutputPath(filePath string, overwrite bool) (string, error) {
	filePath, err := ExpandHome(filePath)
	if err != nil {
		return "", err
	}
	exists, err := FileExists(filePath)
	if err != nil {
		return "", err
	}
	if exists && !overwrite {
		return "", errors.Errorf("output file %q already exists", filePath)
	}
	dirExists, err := FileExists(filepath.Dir(filePath))
	if err != nil {
		return "", err
	}
	if !dirExists {
		return "", errors.Errorf("directory of output file %q doesn't exist", filePath)
	}
	return filePath, nil
}
