package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/kalambet/prefs/internal/config"
	"github.com/kalambet/prefs/internal/setting"
	"github.com/kalambet/prefs/internal/store"
)

var version = "dev"

var (
	noColor     bool
	flagBackend string
	flagPath    string
	flagCodec   string
)

var rootCmd = &cobra.Command{
	Use:   "prefs",
	Short: "Typed settings on top of the platform settings store",
	Long: `prefs reads and writes structured values in a key-value settings store.

Values are JSON on the command line and are persisted with the configured
codec (json, cbor or yaml). Setting a value to null removes the key.

Examples:
  prefs set launchCount 5
  prefs get launchCount
  prefs set userName '"Alice"'
  prefs set userName null
  prefs --backend sqlite --path ./prefs.db list`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.BoolVar(&noColor, "no-color", os.Getenv("NO_COLOR") != "", "disable colored output")
	pf.StringVar(&flagBackend, "backend", "", "store backend (platform, memory, file, defaults, sqlite, bolt)")
	pf.StringVar(&flagPath, "path", "", "store file path for file, sqlite and bolt backends")
	pf.StringVar(&flagCodec, "codec", "", "value codec (json, cbor, yaml)")

	rootCmd.AddCommand(getCmd, setCmd, rmCmd, listCmd, serveCmd, configCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		printError("%v", err)
		os.Exit(1)
	}
}

// loadConfig, configStore and openUserStore are swapped out by tests.
var (
	loadConfig    = config.Load
	configStore   = store.StandardConfig
	openUserStore = store.Open
)

// session is what a settings command works against.
type session struct {
	cfg   config.Config
	store store.Store
	codec setting.Codec
	close func()
}

// openSession loads config, applies global flags, configures logging and
// opens the selected store. Callers must call close.
func openSession() (*session, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if flagBackend != "" {
		cfg.Store.Backend = flagBackend
	}
	if flagPath != "" {
		cfg.Store.Path = flagPath
	}
	if flagCodec != "" {
		cfg.Store.Codec = flagCodec
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	closeLog, err := setupLogging(cfg.Log)
	if err != nil {
		return nil, err
	}

	codec, err := setting.CodecByName(cfg.Store.Codec)
	if err != nil {
		closeLog()
		return nil, err
	}

	st, err := openUserStore(cfg.StoreOptions())
	if err != nil {
		closeLog()
		return nil, fmt.Errorf("opening %s store: %w", cfg.Store.Backend, err)
	}
	slog.Debug("store opened", "backend", cfg.Store.Backend, "path", cfg.Store.Path, "codec", codec.Name())

	return &session{
		cfg:   cfg,
		store: st,
		codec: codec,
		close: func() {
			st.Close()
			closeLog()
		},
	}, nil
}
