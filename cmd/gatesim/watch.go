// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package main

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// debounce is the quiet period after a file change before simulations re-run.
const debounce = 100 * time.Millisecond

func newWatchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "watch file...",
		Short: "Run all simulations each time a netfile changes",
		Args:  cobra.MinimumNArgs(1),
		RunE: a.runE(func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			run := func() {
				if err := a.test(cmd.Context(), w, args); err != nil {
					fmt.Fprintln(w, err)
				}
			}
			run()
			return watch(cmd.Context(), args, a.log, run)
		}),
	}
}

// watch calls f each time one of files is written, until ctx is done.
// Watching the parent directories catches editors that replace files on save.
//
func watch(ctx context.Context, files []string, log *slog.Logger, f func()) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "failed to create file watcher")
	}
	defer w.Close()

	watched := make(map[string]bool)
	for _, fn := range files {
		abs, err := filepath.Abs(fn)
		if err != nil {
			return errors.WithStack(err)
		}
		watched[abs] = true
		dir := filepath.Dir(abs)
		if err = w.Add(dir); err != nil {
			return errors.Wrapf(err, "failed to watch %s", dir)
		}
	}

	var (
		timer   *time.Timer
		pending <-chan time.Time
	)
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !watched[filepath.Clean(ev.Name)] || !(ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create)) {
				continue
			}
			log.Debug("netfile changed", slog.String("file", ev.Name), slog.String("op", ev.Op.String()))
			if timer == nil {
				timer = time.NewTimer(debounce)
			} else {
				timer.Reset(debounce)
			}
			pending = timer.C
		case <-pending:
			pending = nil
			f()
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Warn("file watcher error", slog.String("error", err.Error()))
		}
	}
}
