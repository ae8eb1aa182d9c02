package cli

import (
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mrz1836/paylink/internal/config"
	"github.com/mrz1836/paylink/internal/output"
	plerr "github.com/mrz1836/paylink/pkg/errors"
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level flag variables
var configForce bool

// configKeys lists every settable key in display order.
//
//nolint:gochecknoglobals // read-only lookup table
var configKeys = []string{
	"home",
	"catalog.file",
	"callback.timeout_seconds",
	"callback.rate_per_second",
	"callback.burst",
	"callback.max_response_bytes",
	"payment.timeout_seconds",
	"payment.retry_attempts",
	"server.listen",
	"server.shutdown_timeout_seconds",
	"tracking.enabled",
	"output.default_format",
	"output.color",
	"output.verbose",
	"logging.level",
	"logging.file",
}

// configCmd is the parent command for configuration operations.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long: `View and modify paylink configuration settings.

Settings live in <home>/config.yaml. PAYLINK_* environment variables and
command-line flags override the file.`,
}

// configInitCmd initializes the configuration.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	Long: `Create a default configuration file at ~/.paylink/config.yaml.

If a configuration file already exists, this command will not overwrite it
unless --force is specified.`,
	Example: `  paylink config init
  paylink config init --force
  paylink --home /srv/paylink config init`,
	Args: cobra.NoArgs,
	RunE: runConfigInit,
}

// configShowCmd shows the current configuration.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  `Display the effective configuration after environment and flag overrides.`,
	Example: `  paylink config show
  paylink config show -o json`,
	Args: cobra.NoArgs,
	RunE: runConfigShow,
}

// configGetCmd gets a specific configuration value.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a configuration value",
	Long: `Print one configuration value using dot notation.

Run "paylink config show" to list every key.`,
	Example: `  paylink config get server.listen
  paylink config get callback.timeout_seconds`,
	Args: cobra.ExactArgs(1),
	RunE: runConfigGet,
}

// configSetCmd sets a configuration value.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: `Update one configuration value in the config file using dot notation.

Values are validated before the file is written.`,
	Example: `  paylink config set server.listen 0.0.0.0:8402
  paylink config set catalog.file ~/.paylink/wallets.yaml
  paylink config set tracking.enabled false`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.GroupID = groupConfig
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)

	configInitCmd.Flags().BoolVar(&configForce, "force", false, "overwrite existing configuration")

	enrichParentLong(configCmd)
}

func runConfigInit(cmd *cobra.Command, _ []string) error {
	cc := GetCmdContext(cmd)
	configPath := config.Path(expandHome(cc.config().GetHome()))

	if _, err := os.Stat(configPath); err == nil {
		if !configForce {
			return plerr.WithSuggestion(
				plerr.ErrGeneral,
				fmt.Sprintf("configuration already exists at %s. Use --force to overwrite.", configPath),
			)
		}
		output.Warn(cmd.ErrOrStderr(), "overwriting existing configuration at %s", configPath)
	}

	defaultCfg := config.Defaults()
	defaultCfg.Home = cc.config().GetHome()

	if err := config.Save(defaultCfg, configPath); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	w := cmd.OutOrStdout()
	out(w, "Configuration initialized at %s\n", configPath)
	outln(w)
	outln(w, "Edit this file to configure:")
	outln(w, "  - catalog.file: Wallet catalog YAML (empty uses the built-in catalog)")
	outln(w, "  - callback.timeout_seconds: Payment callback timeout")
	outln(w, "  - server.listen: Address for paylink serve")
	outln(w, "  - logging.level: Log level (off/error/debug)")

	return nil
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	cc := GetCmdContext(cmd)
	c := cc.config()

	values := make(map[string]string, len(configKeys))
	for _, key := range configKeys {
		v, err := getConfigValue(c, key)
		if err != nil {
			return err
		}
		values[key] = v
	}

	return formatterFor(cmd, cc).Emit(values, func(w io.Writer) error {
		return displayConfigText(w, values)
	})
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	key := args[0]

	value, err := getConfigValue(GetCmdContext(cmd).config(), key)
	if err != nil {
		return plerr.WithSuggestion(err, "run 'paylink config show' to list the keys")
	}

	outln(cmd.OutOrStdout(), value)
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	key, value := args[0], args[1]
	cc := GetCmdContext(cmd)

	configPath := config.Path(expandHome(cc.config().GetHome()))
	current, err := config.Load(configPath)
	if err != nil {
		// If file doesn't exist, start with defaults
		current = config.Defaults()
		current.Home = cc.config().GetHome()
	}

	if err := setConfigValue(current, key, value); err != nil {
		return err
	}

	if err := config.Save(current, configPath); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	out(cmd.OutOrStdout(), "Set %s = %s\n", key, value)
	return nil
}

// getConfigValue retrieves a value from the config using dot notation.
func getConfigValue(c *config.Config, key string) (string, error) {
	switch key {
	case "home":
		return c.Home, nil
	case "catalog.file":
		return c.Catalog.File, nil
	case "callback.timeout_seconds":
		return strconv.Itoa(c.Callback.TimeoutSeconds), nil
	case "callback.rate_per_second":
		return strconv.FormatFloat(c.Callback.RatePerSecond, 'f', -1, 64), nil
	case "callback.burst":
		return strconv.Itoa(c.Callback.Burst), nil
	case "callback.max_response_bytes":
		return strconv.FormatInt(c.Callback.MaxResponseBytes, 10), nil
	case "payment.timeout_seconds":
		return strconv.Itoa(c.Payment.TimeoutSeconds), nil
	case "payment.retry_attempts":
		return strconv.Itoa(c.Payment.RetryAttempts), nil
	case "server.listen":
		return c.Server.Listen, nil
	case "server.shutdown_timeout_seconds":
		return strconv.Itoa(c.Server.ShutdownTimeoutSeconds), nil
	case "tracking.enabled":
		return strconv.FormatBool(c.Tracking.Enabled), nil
	case "output.default_format":
		return c.Output.DefaultFormat, nil
	case "output.color":
		return c.Output.Color, nil
	case "output.verbose":
		return strconv.FormatBool(c.Output.Verbose), nil
	case "logging.level":
		return c.Logging.Level, nil
	case "logging.file":
		return c.Logging.File, nil
	default:
		return "", unknownConfigKey(key)
	}
}

// setConfigValue validates value and stores it under key.
func setConfigValue(c *config.Config, key, value string) error {
	var err error
	switch key {
	case "home":
		c.Home = value
	case "catalog.file":
		c.Catalog.File = value
	case "callback.timeout_seconds":
		c.Callback.TimeoutSeconds, err = parsePositiveInt(key, value)
	case "callback.rate_per_second":
		c.Callback.RatePerSecond, err = parsePositiveFloat(key, value)
	case "callback.burst":
		c.Callback.Burst, err = parsePositiveInt(key, value)
	case "callback.max_response_bytes":
		var n int
		n, err = parsePositiveInt(key, value)
		c.Callback.MaxResponseBytes = int64(n)
	case "payment.timeout_seconds":
		c.Payment.TimeoutSeconds, err = parsePositiveInt(key, value)
	case "payment.retry_attempts":
		c.Payment.RetryAttempts, err = parsePositiveInt(key, value)
	case "server.listen":
		if strings.TrimSpace(value) == "" {
			return invalidValue(key, value, "host:port")
		}
		c.Server.Listen = value
	case "server.shutdown_timeout_seconds":
		c.Server.ShutdownTimeoutSeconds, err = parsePositiveInt(key, value)
	case "tracking.enabled":
		c.Tracking.Enabled, err = parseBoolValue(key, value)
	case "output.default_format":
		if !slices.Contains([]string{"text", "json", "auto"}, value) {
			return invalidValue(key, value, "text, json, or auto")
		}
		c.Output.DefaultFormat = value
	case "output.color":
		if !slices.Contains([]string{"auto", "always", "never"}, value) {
			return invalidValue(key, value, "auto, always, or never")
		}
		c.Output.Color = value
	case "output.verbose":
		c.Output.Verbose, err = parseBoolValue(key, value)
	case "logging.level":
		if !slices.Contains([]string{"off", "error", "debug"}, value) {
			return invalidValue(key, value, "off, error, or debug")
		}
		c.Logging.Level = value
	case "logging.file":
		c.Logging.File = value
	default:
		return unknownConfigKey(key)
	}
	return err
}

func parsePositiveInt(key, value string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || n <= 0 {
		return 0, invalidValue(key, value, "a positive integer")
	}
	return n, nil
}

func parsePositiveFloat(key, value string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil || f <= 0 {
		return 0, invalidValue(key, value, "a positive number")
	}
	return f, nil
}

func parseBoolValue(key, value string) (bool, error) {
	b, err := strconv.ParseBool(strings.TrimSpace(value))
	if err != nil {
		return false, invalidValue(key, value, "true or false")
	}
	return b, nil
}

func unknownConfigKey(key string) error {
	return plerr.WithDetails(plerr.ErrUnknownConfigKey, map[string]string{"key": key})
}

func invalidValue(key, value, valid string) error {
	return plerr.WithDetails(plerr.ErrInvalidValue, map[string]string{
		"key":   key,
		"value": value,
		"valid": valid,
	})
}

// displayConfigText shows the config as a key/value table.
func displayConfigText(w io.Writer, values map[string]string) error {
	t := output.NewTable("KEY", "VALUE")
	for _, key := range configKeys {
		t.AddRow(key, valueOr(values[key], "(not set)"))
	}
	return t.Render(w)
}
