package app

import (
	"context"
	"path/filepath"

	coreerrors "javakg/internal/core/errors"
	"javakg/internal/core/watcher"
	"javakg/internal/shared/util"
)

// Watch runs once and then again after every debounced batch of source or
// build-file changes, until ctx is done. Unchanged files are served from the
// record cache. onResult sees every run, failed ones included.
func (a *App) Watch(ctx context.Context, onResult func(*Result, error)) error {
	if onResult == nil {
		onResult = func(*Result, error) {}
	}
	root, err := filepath.Abs(a.Config.Source.Root)
	if err != nil {
		return coreerrors.Wrap(err, coreerrors.CodeValidationError, "resolve root")
	}

	res, err := a.Run(ctx)
	onResult(res, err)
	if err != nil && (coreerrors.IsCode(err, coreerrors.CodeNotFound) || coreerrors.IsCode(err, coreerrors.CodeAborted)) {
		return err
	}

	trigger := make(chan struct{}, 1)
	w, err := watcher.NewWatcher(a.Config.Watch.Debounce, a.Config.Source.ExcludeDirs, a.Config.Source.ExcludeFiles, func(paths []string) {
		rels := make([]string, 0, len(paths))
		for _, p := range paths {
			rels = append(rels, util.RelSlashPath(root, p))
		}
		a.Forget(rels...)
		a.Logger.Info("changes detected", "files", len(paths))
		select {
		case trigger <- struct{}{}:
		default:
		}
	})
	if err != nil {
		return coreerrors.Wrap(err, coreerrors.CodeValidationError, "create watcher")
	}
	defer w.Close()

	names := append([]string{"gradle.properties"}, a.Config.Source.BuildFiles...)
	w.SetFilters(a.Config.Source.Extensions, names)
	if err := w.Watch([]string{root}); err != nil {
		return coreerrors.AddContext(coreerrors.Wrap(err, coreerrors.CodeIO, "watch root"), coreerrors.CtxPath, root)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-trigger:
			res, err := a.Run(ctx)
			if ctx.Err() != nil {
				return nil
			}
			onResult(res, err)
		}
	}
}
