// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package renderer

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch mirrors filesystem changes under the project root into the graph
// and projection until ctx is done.
//
// Description:
//
//	Watches are placed on every project directory (the notifier is not
//	recursive), with new directories picked up as they appear. Created
//	files join the graph, removed or renamed files leave it, and writes
//	re-read the file from disk. Editor-driven changes arrive through
//	Update/SetContent instead; this path covers branch switches,
//	generators, and other out-of-editor churn.
func (r *Renderer) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := addWatchDirs(watcher, r.root); err != nil {
		return fmt.Errorf("watch project dirs: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("file watcher error", slog.Any("error", err))
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			r.handleFsEvent(ctx, watcher, event)
		}
	}
}

func addWatchDirs(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if skipDir(d.Name()) && path != root {
			return filepath.SkipDir
		}
		return watcher.Add(path)
	})
}

func (r *Renderer) handleFsEvent(ctx context.Context, watcher *fsnotify.Watcher, event fsnotify.Event) {
	path := filepath.Clean(event.Name)
	switch {
	case event.Has(fsnotify.Create):
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			if skipDir(filepath.Base(path)) {
				return
			}
			if err := addWatchDirs(watcher, path); err != nil {
				slog.Warn("watch new dir failed", slog.String("dir", path), slog.Any("error", err))
			}
			return
		}
		if err := r.CreateFile(ctx, path); err != nil {
			slog.Warn("project file create failed", slog.String("file", path), slog.Any("error", err))
		}
	case event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename):
		if err := r.RemoveFile(path); err != nil {
			slog.Warn("project file remove failed", slog.String("file", path), slog.Any("error", err))
		}
	case event.Has(fsnotify.Write):
		if !isSourceFile(path) {
			return
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return
		}
		if _, err := r.SetContent(ctx, path, string(content)); err != nil {
			slog.Warn("project file reload failed", slog.String("file", path), slog.Any("error", err))
		}
	}
}
