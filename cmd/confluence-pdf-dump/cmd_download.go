/*
Copyright © 2025 hfrost
*/
package main

import (
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"gopkg.in/dnaeon/go-vcr.v3/cassette"
	"gopkg.in/dnaeon/go-vcr.v3/recorder"

	"github.com/hfrost/confluence-pdf-dump/confluence"
	"github.com/hfrost/confluence-pdf-dump/internal/creds"
	"github.com/hfrost/confluence-pdf-dump/localdump"
)

// downloadCmd represents the download command
var downloadCmd = &cobra.Command{
	Use:   "download",
	Short: "Export every page of a Confluence space to local PDFs",
	Long: `
Enumerate a Confluence space and save one PDF per page under
<store>/confluence_<SPACE_KEY>/.  Unchanged pages are skipped on subsequent
runs; pages the instance refuses to export natively are converted locally from
their HTML export view.
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		debugLog("  AlwaysDownload: %v\n", AlwaysDownload)
		return runDownload(cmd)
	},
}

var (
	Space          string
	AlwaysDownload bool
	WithVCR        bool
	Prune          bool
	Workers        int
	Limit          int
)

func init() {
	rootCmd.AddCommand(downloadCmd)

	downloadCmd.Flags().StringVar(&Space, "space", "", "key of the space to export (or set CONFLUENCE_SPACE_KEY)")
	downloadCmd.Flags().BoolVarP(&AlwaysDownload, "always-download", "f", false, "always download pages, skipping version check")
	downloadCmd.Flags().BoolVar(&WithVCR, "with-vcr", false, "use go-vcr to cache responses")
	downloadCmd.Flags().BoolVar(&Prune, "prune", false, "delete local PDFs whose page no longer exists remotely")
	downloadCmd.Flags().IntVar(&Workers, "workers", 1, "number of concurrent page exports")
	downloadCmd.Flags().IntVar(&Limit, "limit", 0, "listing page size (0 for the default)")
}

func runDownload(cmd *cobra.Command) error {
	if LocalStore == "" {
		return fmt.Errorf("cmd: no location set for local store of PDFs, use --store or set it in your config file")
	}

	storePath, err := homedir.Expand(LocalStore)
	if err != nil {
		return fmt.Errorf("cmd: couldn't expand homedir: %w", err)
	}

	if _, err := os.Stat(storePath); err != nil {
		return fmt.Errorf("cmd: couldn't stat store path %s: %w", storePath, err)
	}

	c, err := creds.Resolve(
		creds.Static{
			BaseURL:  BaseURL,
			Username: AuthUsername,
			APIToken: AuthToken,
			SpaceKey: Space,
		},
		creds.Env{},
		creds.Prompt{},
	)
	if err != nil {
		return fmt.Errorf("cmd: %w", err)
	}

	api, err := confluence.NewAPI(c.BaseURL, c.Username, c.APIToken)
	if err != nil {
		return fmt.Errorf("cmd: Confluence API creation failed: %w", err)
	}

	if WithVCR {
		// set up VCR recordings.
		opts := &recorder.Options{
			CassetteName:       "fixtures/confluence-stuff",
			Mode:               recorder.ModeReplayWithNewEpisodes,
			SkipRequestLatency: true,
			RealTransport:      http.DefaultTransport,
		}
		r, err := recorder.NewWithOptions(opts)
		if err != nil {
			return fmt.Errorf("cmd: couldn't set up go-vcr recording: %w", err)
		}

		defer r.Stop() // Make sure recorder is stopped once done with it

		// Add a hook which removes Authorization headers from all requests
		hook := func(i *cassette.Interaction) error {
			delete(i.Request.Headers, "Authorization")
			return nil
		}
		r.AddHook(hook, recorder.AfterCaptureHook)
		r.SetReplayableInteractions(true)

		api.Client = r.GetDefaultClient()
	}

	ctx := cmd.Context()

	// Fail fast on bad credentials before walking the whole space.
	currentUser, err := api.CurrentUser(ctx)
	if err != nil {
		return fmt.Errorf("cmd: couldn't query current user: %w", err)
	}
	fmt.Printf("Logged in to %s as '%s (%s)'...\n", c.BaseURL, currentUser.DisplayName, currentUser.AccountID)

	var logger *log.Logger
	if Debug {
		logger = log.New(os.Stderr, "[confluence-pdf-dump] ", log.LstdFlags)
	}

	downloader := &localdump.SpaceDownloader{
		API:            api,
		StorePath:      storePath,
		SpaceKey:       c.SpaceKey,
		Workers:        Workers,
		PageLimit:      Limit,
		AlwaysDownload: AlwaysDownload,
		Prune:          Prune,
		Logger:         logger,
	}

	summary, err := downloader.Run(ctx)
	if err != nil {
		return fmt.Errorf("cmd: download failed: %w", err)
	}

	fmt.Printf("Space %s: %d pages, %d downloaded, %d skipped, %d errored.\n",
		c.SpaceKey, summary.Pages, summary.Downloaded, summary.Skipped, summary.Errored)

	for _, rec := range summary.Records {
		if rec.Status != localdump.Errored {
			continue
		}
		fmt.Printf("  failed (%s): %s (page %s): %v\n", rec.ErrorKind, rec.Title, rec.PageID, rec.Err)
	}

	return nil
}
