package config

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch reloads the config file at path whenever it changes and passes the
// new Config to onChange. It runs until ctx is cancelled.
//
// The parent directory is watched rather than the file itself so that editors
// which save by renaming a temp file over the original keep triggering reloads.
// A file that fails to load is logged and onChange is not called; the caller
// keeps whatever config it already had.
func Watch(ctx context.Context, path string, onChange func(*Config)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return err
	}

	slog.Info("config: watching for changes", "path", abs)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			cfg, err := Load(abs)
			if err != nil {
				slog.Error("config: reload failed, keeping previous config",
					"path", abs, "err", err)
				continue
			}
			slog.Info("config: reloaded", "path", abs)
			onChange(cfg)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Error("config: watcher error", "err", err)
		}
	}
}

// RestartRequired lists the settings that differ between prev and next and
// only take effect after a restart. The log level is applied live, so it is
// never reported.
func RestartRequired(prev, next *Config) []string {
	var out []string
	if prev.Server.HTTPPort != next.Server.HTTPPort {
		out = append(out, "server.http_port")
	}
	if prev.Server.GRPCPort != next.Server.GRPCPort {
		out = append(out, "server.grpc_port")
	}
	if prev.Server.RequestTimeout != next.Server.RequestTimeout {
		out = append(out, "server.request_timeout")
	}
	if !equalStrings(prev.Server.CORSOrigins, next.Server.CORSOrigins) {
		out = append(out, "server.cors_origins")
	}
	if prev.Server.UIDir != next.Server.UIDir {
		out = append(out, "server.ui_dir")
	}
	if prev.Store != next.Store {
		out = append(out, "store")
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
