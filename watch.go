package vhook

import (
	"context"

	"github.com/pboyd/vhook/config"
)

// WatchConfig reloads dir/vhook.yaml whenever it changes and applies its
// per-hook enabled flags to r. Stop the returned watcher, or cancel ctx, to
// end it.
func WatchConfig(ctx context.Context, r *Registry, dir string) (*config.Watcher, error) {
	w := config.NewWatcher(dir, r.ApplyConfig, r.logger)
	if err := w.Start(ctx); err != nil {
		return nil, err
	}
	return w, nil
}
