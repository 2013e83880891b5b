// Package main provides the soundbox daemon entry point.
package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"sync"
	"syscall"

	"github.com/adrg/xdg"
	"github.com/alecthomas/kingpin/v2"
	"github.com/joho/godotenv"
	zlog "github.com/rs/zerolog/log"

	"github.com/gimelg/accessible-soundbox/internal/app/buttons"
	"github.com/gimelg/accessible-soundbox/internal/app/media"
	"github.com/gimelg/accessible-soundbox/internal/app/playback"
	"github.com/gimelg/accessible-soundbox/internal/infra/blockdev"
	"github.com/gimelg/accessible-soundbox/internal/infra/config"
	"github.com/gimelg/accessible-soundbox/internal/infra/engine"
	"github.com/gimelg/accessible-soundbox/internal/infra/logger"
	"github.com/gimelg/accessible-soundbox/internal/infra/oplog"
	"github.com/gimelg/accessible-soundbox/internal/infra/speech"
	"github.com/gimelg/accessible-soundbox/internal/infra/system"
)

var (
	app        = kingpin.New("soundboxd", "Button-driven audiobook appliance daemon")
	configPath = app.Flag("config", "Path to config file").Default(defaultConfigPath()).String()
	verbose    = app.Flag("verbose", "Enable verbose (DEBUG) logging").Short('v').Bool()
	logfile    = app.Flag("logfile", "Path to log file (default: stdout)").String()
)

func defaultConfigPath() string {
	if p, err := xdg.SearchConfigFile("soundbox/config.yaml"); err == nil {
		return p
	}
	return "/etc/soundbox/config.yaml"
}

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	kingpin.MustParse(app.Parse(os.Args[1:]))

	loggerConfig := logger.Config{
		Output: "stdout",
		Level:  "info",
	}
	if *verbose {
		loggerConfig.Level = "debug"
	}
	if *logfile != "" {
		loggerConfig.Output = *logfile
	}
	if err := logger.Init(loggerConfig); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}

	zlog.Info().Msgf("Loading config from %s", *configPath)
	cfg, err := config.Load(*configPath)
	if err != nil {
		zlog.Fatal().Msgf("Failed to load config: %v", err)
	}

	if err := run(cfg); err != nil {
		zlog.Error().Msgf("Daemon error: %v", err)
		os.Exit(1)
	}
}

// run executes the main daemon logic. Using a separate function ensures
// defer statements are executed even when returning with an error.
func run(cfg *config.Config) error {
	olog, err := oplog.Open(cfg.OpLog.File)
	if err != nil {
		zlog.Warn().Err(err).Msg("operation log unavailable, continuing without it")
		olog = oplog.NewNop()
	}
	defer olog.Close()

	// Playback state never survives a power cycle: the device always boots
	// silent, whatever was playing when the plug was pulled.
	store := playback.NewStore(cfg.Content.StateFile)
	if err := store.Clear(); err != nil {
		return fmt.Errorf("failed to reset playback state: %w", err)
	}

	eng := engine.New(cfg.Engine.Endpoint, cfg.EngineWriteTimeout())
	if wait := cfg.EngineStartupWait(); wait > 0 {
		waitCtx, cancelWait := context.WithTimeout(context.Background(), wait)
		if err := eng.WaitForEndpoint(waitCtx); err != nil {
			zlog.Warn().Err(err).Str("endpoint", cfg.Engine.Endpoint).
				Msg("engine endpoint not present, commands will fail until it appears")
		}
		cancelWait()
	}

	speaker, err := speech.NewFromConfig(cfg.Speech)
	if err != nil {
		return fmt.Errorf("failed to create speaker: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup

	// Button presses funnel through a single dispatcher so concurrent presses
	// are applied one at a time, in arrival order.
	dispatcher := playback.NewDispatcher(8)
	defer dispatcher.Close()

	controller := playback.NewController(store, eng, cfg.Content.Dir, cfg.Content.PlaylistFile)

	if cfg.Buttons.Disabled {
		zlog.Info().Msg("buttons disabled by config")
	} else if provider, err := buttons.NewGPIOProvider(buttons.PinConfig{
		PlayPause: cfg.Buttons.PlayPausePin,
		Next:      cfg.Buttons.NextPin,
		Prev:      cfg.Buttons.PrevPin,
	}); err != nil {
		zlog.Warn().Err(err).Msg("gpio unavailable, running without buttons")
	} else {
		defer provider.Close()
		listener := buttons.NewListener(provider, dispatcher.Enqueue, controller, cfg.ButtonMinInterval())
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = provider.Start(ctx)
		}()
		go func() {
			defer wg.Done()
			_ = listener.Run(ctx)
		}()
	}

	mounter := blockdev.ExecMounter{}
	pass := media.NewPass(cfg, speaker, system.LogindRestarter{},
		func(ctx context.Context) { mounter.Flush(ctx) }, olog)
	watcher := media.NewWatcher(blockdev.LsblkEnumerator{}, mounter, pass,
		cfg.PollInterval(), cfg.Sync.Mountpoint, olog)
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = watcher.Run(ctx)
	}()

	executeHooks(cfg.Hooks.OnStarted, "on_started")
	zlog.Info().Msg("Soundbox started")

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	zlog.Info().Str("signal", sig.String()).Msg("Received shutdown signal...")

	// Cancel and wait: an in-flight media pass finishes before we return, so
	// a caregiver's half-processed stick is never left mounted.
	cancel()
	wg.Wait()
	dispatcher.Close()

	zlog.Info().Msg("Soundbox stopped")

	executeHooks(cfg.Hooks.OnStopped, "on_stopped")

	return nil
}

// executeHooks runs a list of shell commands.
func executeHooks(hooks []string, stage string) {
	if len(hooks) == 0 {
		return
	}

	zlog.Info().Msgf("Executing %s hooks (%d commands)", stage, len(hooks))

	for _, hook := range hooks {
		zlog.Info().Msgf("Executing hook: %s", hook)
		// Use sh -c to allow shell features like redirection or pipes
		cmd := exec.Command("sh", "-c", hook)
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr

		if err := cmd.Run(); err != nil {
			zlog.Error().Err(err).Msgf("Failed to execute hook: %s", hook)
		}
	}
}
