// Package main provides the playdeck terminal player entry point.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kingpin/v2"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/cockroachdb/errors"
	"github.com/joho/godotenv"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/playdeck/internal/app/menu"
	"github.com/osa030/playdeck/internal/app/playback"
	"github.com/osa030/playdeck/internal/app/widget"
	"github.com/osa030/playdeck/internal/domain/playlist"
	"github.com/osa030/playdeck/internal/infra/config"
	"github.com/osa030/playdeck/internal/infra/deckapi"
	"github.com/osa030/playdeck/internal/infra/logger"
	"github.com/osa030/playdeck/internal/infra/mpv"
	"github.com/osa030/playdeck/internal/ui"
)

const defaultConfigPath = "config/playdeck.yaml"

var (
	app        = kingpin.New("playdeck", "playdeck terminal playlist player")
	configPath = app.Flag("config", "Path to config file").Default(defaultConfigPath).String()
	verbose    = app.Flag("verbose", "Enable verbose (DEBUG) logging").Short('v').Bool()
	logfile    = app.Flag("logfile", "Path to log file (default: user cache dir)").String()
	server     = app.Flag("server", "Server URL, overrides client.server_url").String()

	// play command (default)
	playCmd      = app.Command("play", "Open a playlist in the player (default)").Default()
	playPlaylist = playCmd.Arg("playlist", "Playlist name (default: first playlist)").String()

	// list command
	listCmd = app.Command("list", "List playlists and exit")

	// random command
	randomCmd = app.Command("random", "Print a random track and exit")
)

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	// The terminal belongs to the UI, so logs go to a file unless told otherwise.
	loggerConfig := logger.Config{Level: "info"}
	if *verbose {
		loggerConfig.Level = "debug"
	}
	file := *logfile
	if file == "" {
		defaultFile, err := logger.DefaultFile()
		if err != nil {
			panic(fmt.Sprintf("Failed to resolve log file: %v", err))
		}
		file = defaultFile
	}
	loggerConfig.Output = file
	loggerConfig.File = file
	if err := logger.Init(loggerConfig); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *server != "" {
		cfg.Client.ServerURL = *server
	}

	client, err := deckapi.New(deckapi.Config{
		BaseURL: cfg.Client.ServerURL,
		Timeout: cfg.Client.Timeout(),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create API client: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch command {
	case listCmd.FullCommand():
		err = listPlaylists(ctx, client)
	case randomCmd.FullCommand():
		err = printRandomTrack(ctx, client)
	default:
		err = run(ctx, cfg, client, *playPlaylist)
	}
	if err != nil {
		zlog.Error().Msgf("playdeck: %v", err)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig loads the config file. A missing default file falls back to defaults.
func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil && path == defaultConfigPath && errors.Is(err, os.ErrNotExist) {
		zlog.Info().Msgf("Config file %s not found, using defaults", path)
		return config.Default()
	}
	return cfg, err
}

// run opens the playlist in the terminal UI until the user quits.
func run(ctx context.Context, cfg *config.Config, client *deckapi.Client, name string) error {
	names, err := client.Playlists(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to list playlists")
	}
	if len(names) == 0 {
		return errors.New("server has no playlists")
	}
	if name == "" {
		name = names[0]
	} else if name, err = playlist.Resolve(names, name); err != nil {
		return err
	}

	engine, err := mpv.New(mpv.Config{
		Path:      cfg.Player.MPVPath,
		SocketDir: cfg.Player.SocketDir,
		WatchURL:  cfg.Player.WatchURL,
		Settings:  cfg.Player.Settings,
	})
	if err != nil {
		return errors.Wrap(err, "failed to create mpv engine")
	}

	widgetConfig := widget.Config{
		Playback: playback.Config{
			Interval:         cfg.Progress.Interval(),
			ThresholdPercent: cfg.Progress.ThresholdPercent,
			Player: playback.Options{
				Height:   cfg.Player.Height,
				Width:    cfg.Player.Width,
				Autoplay: cfg.Player.AutoplayEnabled(),
				Controls: cfg.Player.Controls,
			},
		},
		Menu: menu.Config{
			TriggerClass: cfg.Menu.TriggerClass,
			MenuClass:    cfg.Menu.MenuClass,
		},
	}
	newWidget := func() *widget.Widget {
		return widget.New(widgetConfig, engine, client)
	}

	zlog.Info().Msgf("Opening playlist %s from %s", name, cfg.Client.ServerURL)
	program := tea.NewProgram(
		ui.New(ctx, client, newWidget, name),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(ctx),
	)
	final, err := program.Run()
	if m, ok := final.(ui.Model); ok {
		m.Close()
	}
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return errors.Wrap(err, "terminal UI failed")
	}
	return nil
}

func listPlaylists(ctx context.Context, client *deckapi.Client) error {
	names, err := client.Playlists(ctx)
	if err != nil {
		return err
	}
	fmt.Println("Playlists:")
	for _, name := range names {
		fmt.Printf("  %s\n", name)
	}
	return nil
}

func printRandomTrack(ctx context.Context, client *deckapi.Client) error {
	t, err := client.RandomTrack(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("%s - %s (%s)\n", t.Artist, t.Title, t.Date)
	fmt.Printf("  url:   %s\n", t.URL)
	fmt.Printf("  plays: %d\n", t.PlayCount)
	return nil
}
