package main

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/kalambet/prefs/internal/config"
	"github.com/kalambet/prefs/internal/setting"
)

// parseValue reads a command-line value as JSON, falling back to a plain
// string so that `prefs set userName Alice` works without quoting.
func parseValue(arg string) setting.Optional[any] {
	var v setting.Optional[any]
	if err := json.Unmarshal([]byte(arg), &v); err != nil {
		return setting.Some[any](arg)
	}
	return v
}

func bindSetting(s *session, key string, def setting.Optional[any]) (*setting.Setting[setting.Optional[any]], error) {
	return setting.New(key, def, s.store,
		setting.WithCodec(s.codec),
		setting.WithLogger(slog.Default()),
	)
}

// --- get ---

var getCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Print a setting as JSON",
	Long: `Print a setting as JSON.

The --default value is printed when the key is absent or its stored bytes
cannot be decoded. Without --default an absent key is an error.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		key := args[0]
		defRaw, _ := cmd.Flags().GetString("default")

		def := setting.None[any]()
		if cmd.Flags().Changed("default") {
			def = parseValue(defRaw)
		}

		s, err := openSession()
		if err != nil {
			return err
		}
		defer s.close()

		st, err := bindSetting(s, key, def)
		if err != nil {
			return err
		}
		if !st.IsSet() && !cmd.Flags().Changed("default") {
			return fmt.Errorf("%s is not set", key)
		}

		v, _ := st.Get().Get()
		return printValue(cmd.OutOrStdout(), v)
	},
}

func init() {
	getCmd.Flags().String("default", "", "JSON value to print when the key is absent")
}

// --- set ---

var setCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Store a JSON value (null removes the key)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, raw := args[0], args[1]
		v := parseValue(raw)

		s, err := openSession()
		if err != nil {
			return err
		}
		defer s.close()

		st, err := bindSetting(s, key, setting.None[any]())
		if err != nil {
			return err
		}
		if err := st.Save(v); err != nil {
			return fmt.Errorf("saving %s: %w", key, err)
		}

		if v.IsNone() {
			printSuccess("Removed %s", key)
		} else {
			printSuccess("Set %s = %s", key, raw)
		}
		return nil
	},
}

// --- rm ---

var rmCmd = &cobra.Command{
	Use:     "rm <key>...",
	Aliases: []string{"delete"},
	Short:   "Remove settings",
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession()
		if err != nil {
			return err
		}
		defer s.close()

		for _, key := range args {
			_, ok, err := s.store.Read(key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", key, err)
			}
			if !ok {
				printWarning("%s was not set", key)
				continue
			}
			if err := s.store.Remove(key); err != nil {
				return fmt.Errorf("removing %s: %w", key, err)
			}
			printSuccess("Removed %s", key)
		}
		return nil
	},
}

// --- list ---

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored keys",
	RunE: func(cmd *cobra.Command, args []string) error {
		withValues, _ := cmd.Flags().GetBool("values")

		s, err := openSession()
		if err != nil {
			return err
		}
		defer s.close()

		keys, err := s.store.Keys()
		if err != nil {
			return fmt.Errorf("listing keys: %w", err)
		}

		out := cmd.OutOrStdout()
		if !withValues {
			for _, k := range keys {
				fmt.Fprintln(out, k)
			}
			return nil
		}

		values := make(map[string]any, len(keys))
		for _, k := range keys {
			st, err := bindSetting(s, k, setting.None[any]())
			if err != nil {
				return err
			}
			values[k], _ = st.Get().Get()
		}
		return printValue(out, values)
	},
}

func init() {
	listCmd.Flags().Bool("values", false, "print a JSON object of keys and decoded values")
}

// --- config ---

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or update prefs configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		for _, k := range config.ShowAll(cfg) {
			fmt.Fprintf(out, "  %s = %s\n", colorize(colorBold, k.Key), k.Value)
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]

		b, err := configStore()
		if err != nil {
			return err
		}
		if err := config.SetKey(b, key, value); err != nil {
			return err
		}

		printSuccess("Set %s = %s", key, value)
		return nil
	},
}

var configUnsetCmd = &cobra.Command{
	Use:   "unset <key>",
	Short: "Restore the default for a configuration value",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := configStore()
		if err != nil {
			return err
		}
		if err := config.UnsetKey(b, args[0]); err != nil {
			return err
		}

		printSuccess("Unset %s", args[0])
		return nil
	},
}

var configKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List configuration keys",
	Run: func(cmd *cobra.Command, args []string) {
		for _, k := range config.ValidKeys() {
			fmt.Fprintln(cmd.OutOrStdout(), k)
		}
	},
}

func init() {
	configCmd.AddCommand(configShowCmd, configSetCmd, configUnsetCmd, configKeysCmd)
}
