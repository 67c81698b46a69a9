// Package app wires the daemon together: profile registry, keyboard
// interceptor, recording session, recognition pipeline and dispatcher.
package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/aaronpeng2020/spext/internal/audio/mute"
	"github.com/aaronpeng2020/spext/internal/config"
	"github.com/aaronpeng2020/spext/internal/dispatch"
	"github.com/aaronpeng2020/spext/internal/hotkey"
	"github.com/aaronpeng2020/spext/internal/notify"
	"github.com/aaronpeng2020/spext/internal/pipeline"
	"github.com/aaronpeng2020/spext/internal/profile"
	"github.com/aaronpeng2020/spext/internal/record"
	"github.com/aaronpeng2020/spext/internal/textinput"
)

// Run starts the hotkey daemon and blocks until ctx is canceled.
func Run(ctx context.Context, cfg config.Config, log *zap.Logger) error {
	registry, err := openRegistry(cfg, log)
	if err != nil {
		return err
	}

	keymap := hotkey.NewKeymap(log)
	bound := keymap.Replace(bindingsOf(registry.Enabled()))
	log.Info("hotkeys bound", zap.Int("count", bound))

	// keep the keymap in sync with profile edits, on disk or via API
	changes := registry.Subscribe()
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-changes:
				n := keymap.Replace(bindingsOf(registry.Enabled()))
				log.Info("hotkeys rebound", zap.Int("count", n))
			}
		}
	}()

	watcher := profile.NewWatcher(registry.Registry, registry.Path(), log)
	go func() {
		if err := watcher.Run(ctx); err != nil && ctx.Err() == nil {
			log.Warn("profile watcher stopped", zap.Error(err))
		}
	}()

	httpClient := pipeline.NewHTTPClient(cfg)
	muter := mute.New(mute.WASAPI{}, log)
	dispatcher := dispatch.New(dispatch.Options{
		Recorder: record.NewSession(record.PortAudioSource{}, record.Format{
			SampleRate: cfg.SAMPLING_RATE,
			BitDepth:   cfg.SAMPLING_RATE_DEPTH,
			Channels:   cfg.Channels,
		}, log, cfg.RECORD_DEBUG),
		Recognizer:         pipeline.New(cfg, httpClient, log),
		Typer:              textinput.New(log),
		Muter:              muter,
		Notifier:           notify.New(cfg.Notification, log),
		Profiles:           registry,
		MuteWhileRecording: cfg.MuteWhileRecording,
		TypeFailureMarker:  cfg.RequestFailedNotification,
	}, log)

	interceptor := hotkey.NewInterceptor(keymap, log, cfg.HOTKEY_DEBUG)
	if err := interceptor.Start(); err != nil {
		return fmt.Errorf("install keyboard hook: %w", err)
	}
	defer func() {
		_ = interceptor.Close()
		// never leave the system muted, whatever state we died in: put the
		// snapshot back, then force anything still silent up to audible
		_ = muter.Restore()
		_ = muter.ForceRestore()
	}()

	log.Info("ready, waiting for hotkeys")
	dispatcher.Run(ctx, interceptor.Events())
	return nil
}

// RunFileMode transcribes an existing audio file under a profile's settings
// and writes the result next to it (or to outputPath when given).
func RunFileMode(ctx context.Context, cfg config.Config, log *zap.Logger, inputPath, outputPath, profileID string) error {
	audio, err := os.ReadFile(inputPath)
	if err != nil {
		return fmt.Errorf("read %s: %w", inputPath, err)
	}

	registry, err := openRegistry(cfg, log)
	if err != nil {
		return err
	}
	prof := registry.Active()
	if profileID != "" {
		prof = registry.ByID(profileID)
		if prof == nil {
			return fmt.Errorf("profile %q not found", profileID)
		}
	}
	if prof == nil {
		return fmt.Errorf("no active profile configured")
	}

	pipe := pipeline.New(cfg, pipeline.NewHTTPClient(cfg), log)
	text, err := pipe.Process(ctx, audio, prof)
	if err != nil {
		return err
	}

	outPath := outputPath
	if outPath == "" {
		base := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))
		outPath = filepath.Join(".", base+".txt")
	}
	if err := os.WriteFile(outPath, []byte(text), 0644); err != nil {
		return fmt.Errorf("write %s: %w", outPath, err)
	}
	log.Info("transcription written",
		zap.String("input", inputPath),
		zap.String("output", outPath),
		zap.String("profile", prof.Name))
	return nil
}

func openRegistry(cfg config.Config, log *zap.Logger) (*registryWithPath, error) {
	dir, err := config.ResolveProfileDir(&cfg)
	if err != nil {
		return nil, err
	}
	store := profile.NewStore(dir, log)
	reg, err := profile.NewRegistry(store, log)
	if err != nil {
		return nil, fmt.Errorf("load profiles: %w", err)
	}
	return &registryWithPath{Registry: reg, path: store.Path()}, nil
}

type registryWithPath struct {
	*profile.Registry
	path string
}

func (r *registryWithPath) Path() string { return r.path }

func bindingsOf(profiles []*profile.HotkeyProfile) []hotkey.Binding {
	out := make([]hotkey.Binding, 0, len(profiles))
	for _, p := range profiles {
		out = append(out, hotkey.Binding{ProfileID: p.ID, Spec: p.Hotkey})
	}
	return out
}
