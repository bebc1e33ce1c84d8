// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package backend

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrExecutableNotFound is returned when the backend binary cannot be
// located.
var ErrExecutableNotFound = errors.New("backend executable not found")

// Locate resolves the backend executable path.
//
// Description:
//
//	A name containing a path separator is taken as an explicit path and
//	only checked for existence. A bare name is looked up next to the
//	running binary, following symlinks on the binary itself first so an
//	installed symlink still finds its siblings. PATH is deliberately not
//	consulted.
func Locate(name string) (string, error) {
	if strings.ContainsRune(name, os.PathSeparator) {
		if !isExecutableFile(name) {
			return "", fmt.Errorf("%w: %s", ErrExecutableNotFound, name)
		}
		return name, nil
	}

	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("locate running binary: %w", err)
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}

	return locateIn(filepath.Dir(exe), name)
}

// locateIn looks for an executable file called name inside dir.
func locateIn(dir, name string) (string, error) {
	candidate := filepath.Join(dir, name)
	if !isExecutableFile(candidate) {
		return "", fmt.Errorf("%w: %s", ErrExecutableNotFound, candidate)
	}
	return candidate, nil
}

func isExecutableFile(path string) bool {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false
	}
	return info.Mode()&0o111 != 0
}
