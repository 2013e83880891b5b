// Package main provides the operator CLI for bench testing a soundbox.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/adrg/xdg"
	"github.com/alecthomas/kingpin/v2"
	"github.com/joho/godotenv"

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
	app        = kingpin.New("soundboxctl", "Soundbox bench-testing client")
	configPath = app.Flag("config", "Path to config file").Default(defaultConfigPath()).String()

	// press command
	pressCmd    = app.Command("press", "Simulate a button press")
	pressButton = pressCmd.Arg("button", "Button name").Required().Enum("play-pause", "next", "prev")

	// state command
	stateCmd = app.Command("state", "Print the persisted playback state")

	// sync-once command
	syncOnceCmd = app.Command("sync-once", "Run a single removable-media detection pass")

	// speak command
	speakCmd  = app.Command("speak", "Speak a message through the configured voice")
	speakText = speakCmd.Arg("text", "Text to speak").Required().String()
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

	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	if err := logger.Init(logger.Config{Output: "stderr", Level: "warn"}); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	switch command {
	case pressCmd.FullCommand():
		press(cfg, *pressButton)
	case stateCmd.FullCommand():
		printState(cfg)
	case syncOnceCmd.FullCommand():
		syncOnce(cfg)
	case speakCmd.FullCommand():
		speak(cfg, *speakText)
	}
}

// press applies one button press against the daemon's engine endpoint and
// state file. Intended for bench setups without physical buttons; running it
// next to a live daemon races that daemon's own presses.
func press(cfg *config.Config, button string) {
	store := playback.NewStore(cfg.Content.StateFile)
	eng := engine.New(cfg.Engine.Endpoint, cfg.EngineWriteTimeout())
	controller := playback.NewController(store, eng, cfg.Content.Dir, cfg.Content.PlaylistFile)

	var err error
	switch button {
	case "play-pause":
		err = controller.PlayPause()
	case "next":
		err = controller.Next()
	case "prev":
		err = controller.Prev()
	}
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Pressed %s\n", button)
}

func printState(cfg *config.Config) {
	store := playback.NewStore(cfg.Content.StateFile)
	state, ok, err := store.Get()
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	if !ok {
		fmt.Println("STOPPED (no state file)")
		return
	}
	fmt.Println(state)
}

func syncOnce(cfg *config.Config) {
	speaker, err := speech.NewFromConfig(cfg.Speech)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	mounter := blockdev.ExecMounter{}
	pass := media.NewPass(cfg, speaker, system.LogindRestarter{},
		func(ctx context.Context) { mounter.Flush(ctx) }, oplog.NewNop())
	watcher := media.NewWatcher(blockdev.LsblkEnumerator{}, mounter, pass,
		cfg.PollInterval(), cfg.Sync.Mountpoint, oplog.NewNop())

	watcher.Tick(context.Background())
	fmt.Println("Sync pass complete")
}

func speak(cfg *config.Config, text string) {
	speaker, err := speech.NewFromConfig(cfg.Speech)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	blocking, ok := speaker.(speech.Blocking)
	if !ok {
		fmt.Println("Configured speaker cannot speak synchronously")
		return
	}
	if err := blocking.SaySync(text); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}
