package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/kalambet/prefs/internal/config"
	"github.com/kalambet/prefs/internal/setting"
	"github.com/kalambet/prefs/internal/store"
)

// setupCLI points the commands at a file store in a temp dir and an
// in-memory config store. It returns the settings file path and the config
// store.
func setupCLI(t *testing.T) (string, *store.Memory) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "settings.json")
	cfgStore := store.NewMemory()

	cfg := config.Config{
		Store:  config.StoreConfig{Backend: "file", Path: path, Codec: "json"},
		Server: config.ServerConfig{Port: 4100},
		Log:    config.LogConfig{Level: "error"},
	}

	oldLoad, oldStore, oldLogger := loadConfig, configStore, slog.Default()
	loadConfig = func() (config.Config, error) { return cfg, nil }
	configStore = func() (store.Store, error) { return cfgStore, nil }
	t.Cleanup(func() {
		loadConfig, configStore = oldLoad, oldStore
		slog.SetDefault(oldLogger)
	})
	return path, cfgStore
}

func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
		resetFlags(rootCmd)
	}()
	err := rootCmd.Execute()
	return out.String(), err
}

func mustExecute(t *testing.T, args ...string) string {
	t.Helper()
	out, err := execute(t, args...)
	if err != nil {
		t.Fatalf("prefs %s: %v", strings.Join(args, " "), err)
	}
	return out
}

func TestSetGet_LaunchCount(t *testing.T) {
	setupCLI(t)

	if _, err := execute(t, "get", "launchCount"); err == nil {
		t.Fatal("get of unset key: expected error")
	}
	if out := mustExecute(t, "get", "launchCount", "--default", "0"); strings.TrimSpace(out) != "0" {
		t.Errorf("get with default = %q, want 0", out)
	}

	mustExecute(t, "set", "launchCount", "5")
	if out := mustExecute(t, "get", "launchCount"); strings.TrimSpace(out) != "5" {
		t.Errorf("get = %q, want 5", out)
	}

	// --default does not mask a stored value.
	if out := mustExecute(t, "get", "launchCount", "--default", "0"); strings.TrimSpace(out) != "5" {
		t.Errorf("get with default = %q, want 5", out)
	}
}

func TestSetNull_RemovesKey(t *testing.T) {
	path, _ := setupCLI(t)

	mustExecute(t, "set", "userName", `"Alice"`)
	if out := mustExecute(t, "get", "userName"); strings.TrimSpace(out) != `"Alice"` {
		t.Errorf("get = %q, want \"Alice\"", out)
	}

	mustExecute(t, "set", "userName", "null")
	_, err := execute(t, "get", "userName")
	if err == nil || !strings.Contains(err.Error(), "not set") {
		t.Errorf("get after null = %v, want not set error", err)
	}

	f, err := store.OpenFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := f.Read("userName"); ok {
		t.Error("settings file still contains userName")
	}
}

func TestSet_StructuredAndPlainValues(t *testing.T) {
	setupCLI(t)

	mustExecute(t, "set", "editor", `{"theme":"dark","tabs":4}`)
	out := mustExecute(t, "get", "editor")
	var got map[string]any
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("get output is not JSON: %q", out)
	}
	if got["theme"] != "dark" || got["tabs"] != float64(4) {
		t.Errorf("editor = %v", got)
	}

	mustExecute(t, "set", "greeting", "hello world")
	if out := mustExecute(t, "get", "greeting"); strings.TrimSpace(out) != `"hello world"` {
		t.Errorf("get greeting = %q", out)
	}
}

func TestListAndRm(t *testing.T) {
	setupCLI(t)

	mustExecute(t, "set", "b", "2")
	mustExecute(t, "set", "a", "1")
	mustExecute(t, "set", "c", "true")

	if out := mustExecute(t, "list"); out != "a\nb\nc\n" {
		t.Errorf("list = %q", out)
	}

	out := mustExecute(t, "list", "--values")
	var values map[string]any
	if err := json.Unmarshal([]byte(out), &values); err != nil {
		t.Fatalf("list --values is not JSON: %q", out)
	}
	if values["a"] != float64(1) || values["c"] != true {
		t.Errorf("list --values = %v", values)
	}

	mustExecute(t, "rm", "a", "c", "missing")
	if out := mustExecute(t, "list"); out != "b\n" {
		t.Errorf("list after rm = %q", out)
	}
}

// unreadableStore fails every read.
type unreadableStore struct{ *store.Memory }

func (unreadableStore) Read(string) ([]byte, bool, error) {
	return nil, false, errors.New("store offline")
}

func TestRm_ReadFailure(t *testing.T) {
	setupCLI(t)
	mem := store.NewMemory()
	mem.Write("k", []byte("1"))

	old := openUserStore
	openUserStore = func(store.Options) (store.Store, error) { return unreadableStore{mem}, nil }
	t.Cleanup(func() { openUserStore = old })

	_, err := execute(t, "rm", "k")
	if err == nil || !strings.Contains(err.Error(), "store offline") {
		t.Errorf("rm with failing store = %v, want read error", err)
	}
	if _, ok, _ := mem.Read("k"); !ok {
		t.Error("rm removed the key after a failed read")
	}
}

func TestSet_ConfigKeyNamesAreUserSettings(t *testing.T) {
	if runtime.GOOS == "darwin" {
		t.Skip("platform store is UserDefaults on macOS")
	}
	setupCLI(t)
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	configStore = store.Config

	mustExecute(t, "--backend", "platform", "set", "store.backend", `"bogus"`)
	mustExecute(t, "config", "set", "log.level", "debug")

	cfgStore, err := store.Config()
	if err != nil {
		t.Fatal(err)
	}
	defer cfgStore.Close()
	if _, ok, _ := cfgStore.Read("store.backend"); ok {
		t.Error("user set wrote store.backend into the config store")
	}

	// Later commands still validate and the user store holds only user keys.
	if out := mustExecute(t, "--backend", "platform", "list"); out != "store.backend\n" {
		t.Errorf("list = %q, want only the user key", out)
	}
	if out := mustExecute(t, "--backend", "platform", "get", "store.backend"); strings.TrimSpace(out) != `"bogus"` {
		t.Errorf("get = %q", out)
	}

	_, err = execute(t, "--path", store.DefaultConfigPath(), "list")
	if !errors.Is(err, store.ErrReserved) {
		t.Errorf("list on the config file = %v, want ErrReserved", err)
	}
}

func TestCodecFlag(t *testing.T) {
	path, _ := setupCLI(t)

	mustExecute(t, "--codec", "cbor", "set", "launchCount", "7")

	f, err := store.OpenFile(path)
	if err != nil {
		t.Fatal(err)
	}
	raw, ok, _ := f.Read("launchCount")
	if !ok {
		t.Fatal("launchCount not stored")
	}
	// Command-line numbers are JSON numbers, so they are stored as floats.
	var n float64
	if err := setting.CBOR.Unmarshal(raw, &n); err != nil || n != 7 {
		t.Errorf("stored bytes %x decode as CBOR to %v, %v", raw, n, err)
	}

	if out := mustExecute(t, "--codec", "cbor", "get", "launchCount"); strings.TrimSpace(out) != "7" {
		t.Errorf("get = %q, want 7", out)
	}
}

func TestBackendFlag(t *testing.T) {
	setupCLI(t)
	db := filepath.Join(t.TempDir(), "prefs.db")

	mustExecute(t, "--backend", "sqlite", "--path", db, "set", "launchCount", "3")
	if out := mustExecute(t, "--backend", "sqlite", "--path", db, "get", "launchCount"); strings.TrimSpace(out) != "3" {
		t.Errorf("get = %q, want 3", out)
	}
	if _, err := os.Stat(db); err != nil {
		t.Errorf("sqlite database not created: %v", err)
	}
}

func TestInvalidFlags(t *testing.T) {
	setupCLI(t)

	if _, err := execute(t, "--backend", "redis", "list"); err == nil {
		t.Error("unknown backend: expected error")
	}
	if _, err := execute(t, "--codec", "xml", "list"); err == nil {
		t.Error("unknown codec: expected error")
	}
}

func TestConfigCommands(t *testing.T) {
	_, cfgStore := setupCLI(t)

	mustExecute(t, "config", "set", "log.level", "debug")
	raw, ok, _ := cfgStore.Read("log.level")
	if !ok || string(raw) != `"debug"` {
		t.Errorf("config store log.level = %q, %v", raw, ok)
	}

	if _, err := execute(t, "config", "set", "server.port", "abc"); err == nil {
		t.Error("config set with bad port: expected error")
	}
	if _, err := execute(t, "config", "set", "server.token", "x"); err == nil {
		t.Error("config set of secret: expected error")
	}

	mustExecute(t, "config", "unset", "log.level")
	if _, ok, _ := cfgStore.Read("log.level"); ok {
		t.Error("log.level still stored after unset")
	}

	out := mustExecute(t, "--no-color", "config", "show")
	if !strings.Contains(out, "store.backend = file") {
		t.Errorf("config show = %q", out)
	}
	if strings.Contains(out, "server.token") {
		t.Error("config show printed the secret key")
	}

	keys := mustExecute(t, "config", "keys")
	if !strings.Contains(keys, "log.file") {
		t.Errorf("config keys = %q", keys)
	}
}

func TestParseValue(t *testing.T) {
	tests := []struct {
		in       string
		want     any
		wantNone bool
	}{
		{"5", float64(5), false},
		{`"Alice"`, "Alice", false},
		{"Alice", "Alice", false},
		{"true", true, false},
		{"null", nil, true},
		{"{broken", "{broken", false},
	}
	for _, tt := range tests {
		v := parseValue(tt.in)
		if v.IsNone() != tt.wantNone {
			t.Errorf("parseValue(%q).IsNone() = %v", tt.in, v.IsNone())
			continue
		}
		if got, _ := v.Get(); got != tt.want {
			t.Errorf("parseValue(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNoColorFlag(t *testing.T) {
	old := noColor
	defer func() { noColor = old }()

	noColor = true
	result := colorize(colorGreen, "test message")
	if result != "test message" {
		t.Errorf("colorize with noColor=true = %q, want plain text", result)
	}

	noColor = false
	result = colorize(colorGreen, "test message")
	if !strings.Contains(result, "\033[") {
		t.Errorf("colorize with noColor=false should contain ANSI codes, got %q", result)
	}
}

func TestSetupLogging_File(t *testing.T) {
	old := slog.Default()
	defer slog.SetDefault(old)

	path := filepath.Join(t.TempDir(), "prefs.log")
	closeLog, err := setupLogging(config.LogConfig{Level: "debug", File: path})
	if err != nil {
		t.Fatalf("setupLogging: %v", err)
	}
	slog.Debug("hello from test", "key", "launchCount")
	closeLog()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var line map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(data), &line); err != nil {
		t.Fatalf("log file is not JSON lines: %q", data)
	}
	if line["msg"] != "hello from test" || line["key"] != "launchCount" {
		t.Errorf("log line = %v", line)
	}
}

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]slog.Level{
		"debug": slog.LevelDebug,
		"WARN":  slog.LevelWarn,
		"error": slog.LevelError,
		"info":  slog.LevelInfo,
		"":      slog.LevelInfo,
	} {
		if got := parseLevel(in); got != want {
			t.Errorf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestRunServer(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- runServer(ctx, ln, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, "ok")
		}))
	}()

	resp, err := http.Get("http://" + ln.Addr().String() + "/health")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil && !errors.Is(err, context.Canceled) {
			t.Errorf("runServer returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("runServer did not return after cancel")
	}
}
