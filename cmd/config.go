package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/assignwatch/assignwatch/config"
)

// NewCmdConfig creates the config command with subcommands.
func NewCmdConfig() *cobra.Command {
	var outputFormat string

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or manage configuration",
		Long: `Show or manage configuration.

When run without arguments, shows the current merged configuration.

Subcommands:
  init  Create a starter config file
  path  Show config file locations
  show  Show current merged config (same as bare 'assignwatch config')`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigShow(outputFormat)
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "output", "o", "yaml", "Output format (yaml, json)")

	cmd.AddCommand(NewCmdConfigInit())
	cmd.AddCommand(NewCmdConfigPath())
	cmd.AddCommand(NewCmdConfigShow())

	return cmd
}

// NewCmdConfigInit creates the config init subcommand.
func NewCmdConfigInit() *cobra.Command {
	var local bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a starter config file",
		Long: `Create a starter config file with the common settings.

By default the file goes to the global location. Use --local to create
./.assignwatch.yaml for the current directory only.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigInit(local)
		},
	}

	cmd.Flags().BoolVar(&local, "local", false, "Create local config file (./.assignwatch.yaml)")

	return cmd
}

// NewCmdConfigPath creates the config path subcommand.
func NewCmdConfigPath() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Show config file locations",
		RunE:  runConfigPath,
	}
}

// NewCmdConfigShow creates the config show subcommand.
func NewCmdConfigShow() *cobra.Command {
	var outputFormat string

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show current merged configuration",
		Long:  `Show the current configuration after merging global and local configs.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigShow(outputFormat)
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "output", "o", "yaml", "Output format (yaml, json)")

	return cmd
}

const starterConfig = `# assignwatch configuration
default_repo: ""       # owner/name watched when --repo is not given
default_format: table  # table or json

# policy:
#   claim_risk_threshold: 45
#   stale_days: 7
`

func runConfigInit(local bool) error {
	targetPath := config.ConfigPath()
	location := "global"
	if local {
		targetPath = config.LocalConfigPath()
		location = "local"
	}

	if _, err := os.Stat(targetPath); err == nil {
		return fmt.Errorf("config file already exists: %s\nUse 'assignwatch config show' to view current config", targetPath)
	}

	if !local {
		if err := os.MkdirAll(config.DefaultConfigDir(), 0755); err != nil {
			return err
		}
	}
	if err := os.WriteFile(targetPath, []byte(starterConfig), 0644); err != nil {
		return err
	}

	fmt.Printf("Created %s config file: %s\n", location, targetPath)
	return nil
}

func runConfigPath(_ *cobra.Command, _ []string) error {
	globalPath := config.ConfigPath()
	localPath := config.LocalConfigPath()

	fmt.Println("Configuration file locations:")
	fmt.Println()
	fmt.Printf("  Global: %s (%s)\n", globalPath, existsLabel(globalPath))
	fmt.Printf("  Local:  %s (%s)\n", localPath, existsLabel(localPath))
	fmt.Println()
	fmt.Println("Load order: global then local (local overrides global)")

	return nil
}

func existsLabel(path string) string {
	if _, err := os.Stat(path); err == nil {
		return "exists"
	}
	return "not found"
}

func runConfigShow(format string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	switch format {
	case "yaml":
		data, err := yaml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("failed to marshal config to YAML: %w", err)
		}
		fmt.Print(string(data))
	case "json":
		data, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal config to JSON: %w", err)
		}
		fmt.Println(string(data))
	default:
		return fmt.Errorf("invalid format: %s (must be yaml or json)", format)
	}

	return nil
}
