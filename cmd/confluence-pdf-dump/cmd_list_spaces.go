/*
Copyright © 2025 hfrost
*/
package main

import (
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hfrost/confluence-pdf-dump/confluence"
	"github.com/hfrost/confluence-pdf-dump/internal/creds"
)

var listSpacesUsage = strings.TrimSpace(`
If you want to find out what spaces your Confluence wiki has, use this command.
`)

var IncludePersonal bool

var listSpacesCmd = &cobra.Command{
	Use:   "spaces",
	Short: "Print list of spaces",
	Long:  listSpacesUsage,
	Args:  cobra.ExactArgs(0),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := creds.ResolveConnection(
			creds.Static{
				BaseURL:  BaseURL,
				Username: AuthUsername,
				APIToken: AuthToken,
			},
			creds.Env{},
			creds.Prompt{SkipSpace: true},
		)
		if err != nil {
			return fmt.Errorf("cmd: %w", err)
		}

		api, err := confluence.NewAPI(c.BaseURL, c.Username, c.APIToken)
		if err != nil {
			return fmt.Errorf("cmd: couldn't instantiate Confluence API: %w", err)
		}

		ctx := cmd.Context()

		log.Printf("Listing Confluence spaces on %s...\n", c.BaseURL)
		spaces, err := api.ListAllSpaces(ctx, IncludePersonal)
		if err != nil {
			return fmt.Errorf("cmd: couldn't list Confluence spaces: %w", err)
		}

		log.Printf("Found %d spaces on '%s'.\n", len(spaces), c.BaseURL)

		sort.Slice(spaces, func(i, j int) bool { return spaces[i].Key < spaces[j].Key })

		fmt.Printf("spaces:\n")
		for _, space := range spaces {
			fmt.Printf("  - %s: %s\n", space.Key, space.Name)
		}

		return nil
	},
}

func init() {
	listCmd.AddCommand(listSpacesCmd)

	listSpacesCmd.Flags().BoolVar(&IncludePersonal, "include-personal-spaces", false, "list individuals' personal spaces")
}
