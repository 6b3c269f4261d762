/*
Copyright © 2025 hfrost
*/

package main

import (
	"errors"
	"fmt"
	"os"
	"reflect"

	"github.com/fatih/structs"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v2"
)

var (
	// Store the result of binding cobra flags
	Config string
	Debug  bool

	BaseURL      string
	AuthUsername string
	AuthToken    string
	LocalStore   string

	ParsedConfig YamlConfig
)

// Build the cobra command that handles our command line tool.
var rootCmd = &cobra.Command{
	Use:   "confluence-pdf-dump",
	Short: "Download a Confluence space as local PDF files",
	Long: `
Keep an offline, greppable PDF copy of a Confluence space.  Pages are exported
through the instance's own PDF renderer where possible, and converted locally
from their HTML export view where it isn't.
`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// You can bind cobra and config in a few locations, but PersistentPreRunE
		// on the root command works well
		if err := initializeConfig(cmd); err != nil {
			return fmt.Errorf("confluence-pdf-dump: failed to initialise config: %w", err)
		}
		return nil
	},
}

func init() {
	// Define cobra flags, the default value has the lowest (least significant) precedence
	rootCmd.PersistentFlags().StringVar(&Config, "config", "", "config file location (default: ~/.config/confluence-pdf-dump.yaml, respects CONFLUENCE_PDF_DUMP_CONFIG)")
	rootCmd.PersistentFlags().BoolVar(&Debug, "debug", false, "display debug output")
	rootCmd.PersistentFlags().StringVar(&BaseURL, "base-url", "", "your Confluence base URL, e.g. https://ORG.atlassian.net")
	rootCmd.PersistentFlags().StringVar(&AuthUsername, "auth-username", "", "your Atlassian username")
	rootCmd.PersistentFlags().StringVar(&AuthToken, "auth-token", "", "your Atlassian API token (prefer CONFLUENCE_API_TOKEN over this flag)")
	rootCmd.PersistentFlags().StringVar(&LocalStore, "store", "", "location to save exported PDFs")
}

func initializeConfig(cmd *cobra.Command) error {
	explicit := Config != ""
	if Config == "" {
		// Did the user provide an ENV?
		envConfig := os.Getenv("CONFLUENCE_PDF_DUMP_CONFIG")
		if envConfig != "" {
			Config = envConfig
			explicit = true
		} else {
			// As fallback, search for config in home XDG-ish directory
			Config = "~/.config/confluence-pdf-dump.yaml"
		}
	}
	config, err := homedir.Expand(Config)
	if err != nil {
		return fmt.Errorf("confluence-pdf-dump: unable to expand homedir: %w", err)
	}
	Config = config

	if _, err := os.Stat(Config); errors.Is(err, os.ErrNotExist) {
		if explicit {
			return fmt.Errorf("confluence-pdf-dump: specified config file does not exist: %w", err)
		}
		// No config file is fine; flags and environment variables carry the day.
		return nil
	}

	yamlFile, err := os.ReadFile(Config)
	if err != nil {
		return fmt.Errorf("confluence-pdf-dump: error reading config file: %w", err)
	}

	// I'd like to bark if a user sets a key we don't recognise:
	if err := yaml.UnmarshalStrict(yamlFile, &ParsedConfig); err != nil {
		return fmt.Errorf("confluence-pdf-dump: issue parsing config file: %w", err)
	}

	// Bind the current command's flags to the parsed config
	if err := bindFlags(cmd, ParsedConfig); err != nil {
		return fmt.Errorf("confluence-pdf-dump: failed to bind flags: %w", err)
	}

	return nil
}

type YamlConfig struct {
	AlwaysDownload *bool `yaml:"always-download"`
	WithVCR        *bool `yaml:"with-vcr"`
	Prune          *bool `yaml:"prune"`

	StorePath    string `yaml:"store"`
	BaseURL      string `yaml:"base-url"`
	AuthUsername string `yaml:"auth-username"`
	Space        string `yaml:"space"`

	Workers *int `yaml:"workers"`
	Limit   *int `yaml:"limit"`
}

// Bind each cobra flag to its associated config file key.  Flags the user set
// on the command line always win.
func bindFlags(cmd *cobra.Command, v YamlConfig) error {
	for _, field := range structs.Fields(v) {
		key := field.Tag("yaml")
		if key == "" {
			return fmt.Errorf("confluence-pdf-dump: could not retrieve struct tag 'yaml'")
		}
		if flag := cmd.Flag(key); flag == nil {
			// hmm... the flag is unknown.  but that can legitimately happen if
			// you're running e.g. `list spaces` which has no `always-download`
			// flag but your YAML file does define that key...
			continue
		}
		if !cmd.Flags().Changed(key) {
			switch field.Kind() {
			case reflect.Ptr:
				switch p := field.Value().(type) {
				case *bool:
					if p != nil {
						cmd.Flags().Set(key, fmt.Sprintf("%v", *p))
					}
				case *int:
					if p != nil {
						cmd.Flags().Set(key, fmt.Sprintf("%d", *p))
					}
				default:
					return fmt.Errorf("confluence-pdf-dump: found unrecognised field: %+v", field)
				}

			case reflect.String:
				s, ok := field.Value().(string)
				if !ok {
					return fmt.Errorf("confluence-pdf-dump: found unrecognised field: %+v", field)
				}
				if s != "" {
					cmd.Flags().Set(key, s)
				}

			default:
				return fmt.Errorf("confluence-pdf-dump: found unrecognised field: %+v", field)
			}
		}
	}

	return nil
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		return fmt.Errorf("confluence-pdf-dump: execution error: %w", err)
	}

	return nil
}
