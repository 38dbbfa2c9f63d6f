package cli

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/guiyumin/igget/internal/core/config"
	"github.com/guiyumin/igget/internal/core/i18n"
	"github.com/spf13/cobra"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage igget configuration",
	Long:  "View and modify igget settings",
}

// igget config show - show current config
var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadOrDefault()
		t := i18n.T(cfg.Language)

		path := config.SavePath()
		if !config.Exists() {
			path += " " + t.Config.Default
		}
		fmt.Printf("%s: %s\n\n", color.New(color.Bold).Sprint(t.Config.Path), path)

		shown := *cfg
		if shown.Server.APIKey != "" {
			shown.Server.APIKey = maskSecret(shown.Server.APIKey)
		}
		out, err := yaml.Marshal(&shown)
		if err != nil {
			return err
		}
		fmt.Print(string(out))
		return nil
	},
}

// igget config path - show config file path
var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show config file path",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(config.SavePath())
	},
}

const configKeysHelp = `Supported keys:
  language                  Message language (en, vi)
  log_level                 debug, info, warn, error
  log_format                text or json
  output_dir                Default download directory
  server.port               Server listen port
  server.api_key            Server API key (empty disables auth)
  server.request_timeout    Deadline for a whole resolve, e.g. 45s
  instagram.strategies      Comma-separated strategy order
  instagram.timeouts.NAME   Per-strategy timeout, e.g. instagram.timeouts.page 20s
  instagram.user_agent      Browser user agent for page requests
  instagram.app_id          X-IG-App-ID header value
  instagram.graphql_doc_id  GraphQL query document id
  download.timeout          Deadline for one asset transfer
  download.platform         Filename prefix for relayed assets`

// igget config set KEY VALUE - set a config value
var configSetCmd = &cobra.Command{
	Use:   "set <key> [value]",
	Short: "Set a configuration value",
	Long: `Set a configuration value in config.yml.

` + configKeysHelp + `

Without a value, the value is read from the terminal without echo
(useful for server.api_key).

Examples:
  igget config set language vi
  igget config set instagram.strategies embed,graphql,oembed
  igget config set server.api_key`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key := args[0]

		var value string
		if len(args) == 2 {
			value = args[1]
		} else {
			v, err := readSecret(key)
			if err != nil {
				return err
			}
			value = v
		}

		cfg := config.LoadOrDefault()
		if err := setConfigValue(cfg, key, value); err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		if err := config.Save(cfg); err != nil {
			return fmt.Errorf("failed to save config: %w", err)
		}

		if key == "server.api_key" {
			value = maskSecret(value)
		}
		fmt.Printf("Set %s = %s\n", key, value)
		return nil
	},
}

// igget config get KEY - get a config value
var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a configuration value",
	Long: `Get a configuration value from config.yml.

` + configKeysHelp,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		value, err := getConfigValue(config.LoadOrDefault(), args[0])
		if err != nil {
			return err
		}
		fmt.Println(value)
		return nil
	},
}

// igget config unset KEY - reset a config value to its default
var configUnsetCmd = &cobra.Command{
	Use:   "unset <key>",
	Short: "Reset a configuration value to its default",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		key := args[0]
		cfg := config.LoadOrDefault()

		defaults := config.DefaultConfig()
		value, err := getConfigValue(defaults, key)
		if err != nil {
			return err
		}
		if key == "server.api_key" {
			value = ""
		}
		if err := setConfigValue(cfg, key, value); err != nil {
			return err
		}
		if err := config.Save(cfg); err != nil {
			return fmt.Errorf("failed to save config: %w", err)
		}

		fmt.Printf("Unset %s\n", key)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configUnsetCmd)
	rootCmd.AddCommand(configCmd)
}

// setConfigValue sets a config value by key
func setConfigValue(cfg *config.Config, key, value string) error {
	if name, ok := strings.CutPrefix(key, "instagram.timeouts."); ok {
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration: %s", value)
		}
		if cfg.Instagram.Timeouts == nil {
			cfg.Instagram.Timeouts = make(map[string]time.Duration)
		}
		cfg.Instagram.Timeouts[name] = d
		return nil
	}

	switch key {
	case "language":
		cfg.Language = value
	case "log_level":
		cfg.LogLevel = value
	case "log_format":
		cfg.LogFormat = value
	case "output_dir":
		cfg.OutputDir = value
	case "server.port":
		port, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid port number: %s", value)
		}
		cfg.Server.Port = port
	case "server.api_key":
		cfg.Server.APIKey = value
	case "server.request_timeout":
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration: %s", value)
		}
		cfg.Server.RequestTimeout = d
	case "instagram.strategies":
		var names []string
		for _, name := range strings.Split(value, ",") {
			if name = strings.TrimSpace(name); name != "" {
				names = append(names, name)
			}
		}
		cfg.Instagram.Strategies = names
	case "instagram.user_agent":
		cfg.Instagram.UserAgent = value
	case "instagram.app_id":
		cfg.Instagram.AppID = value
	case "instagram.graphql_doc_id":
		cfg.Instagram.GraphQLDocID = value
	case "download.timeout":
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration: %s", value)
		}
		cfg.Download.Timeout = d
	case "download.platform":
		cfg.Download.Platform = value
	default:
		return fmt.Errorf("unknown config key: %s\nRun 'igget config set --help' to see supported keys", key)
	}
	return nil
}

// getConfigValue gets a config value by key
func getConfigValue(cfg *config.Config, key string) (string, error) {
	if name, ok := strings.CutPrefix(key, "instagram.timeouts."); ok {
		d, ok := cfg.Instagram.Timeouts[name]
		if !ok {
			return "", fmt.Errorf("no timeout set for strategy %q", name)
		}
		return d.String(), nil
	}

	switch key {
	case "language":
		return cfg.Language, nil
	case "log_level":
		return cfg.LogLevel, nil
	case "log_format":
		return cfg.LogFormat, nil
	case "output_dir":
		return cfg.OutputDir, nil
	case "server.port":
		return strconv.Itoa(cfg.Server.Port), nil
	case "server.api_key":
		return cfg.Server.APIKey, nil
	case "server.request_timeout":
		return cfg.Server.RequestTimeout.String(), nil
	case "instagram.strategies":
		return strings.Join(cfg.Instagram.Strategies, ","), nil
	case "instagram.user_agent":
		return cfg.Instagram.UserAgent, nil
	case "instagram.app_id":
		return cfg.Instagram.AppID, nil
	case "instagram.graphql_doc_id":
		return cfg.Instagram.GraphQLDocID, nil
	case "download.timeout":
		return cfg.Download.Timeout.String(), nil
	case "download.platform":
		return cfg.Download.Platform, nil
	}
	return "", fmt.Errorf("unknown config key: %s", key)
}

func readSecret(key string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", fmt.Errorf("missing value for %s", key)
	}
	fmt.Printf("%s: ", key)
	b, err := term.ReadPassword(fd)
	fmt.Println()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(b)), nil
}

func maskSecret(s string) string {
	if len(s) <= 4 {
		return strings.Repeat("*", len(s))
	}
	return s[:2] + strings.Repeat("*", len(s)-4) + s[len(s)-2:]
}
