/*
Copyright © 2025 hfrost
*/
package main

import (
	"fmt"
	"runtime/debug"
	"strings"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Args:  cobra.ExactArgs(0),
	RunE: func(cmd *cobra.Command, args []string) error {
		info, ok := debug.ReadBuildInfo()
		if !ok {
			return fmt.Errorf("cmd_version: could not read build info")
		}
		fmt.Printf("confluence-pdf-dump version %s\n", describeBuild(info))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

// describeBuild summarises build info as "<tag>-rev-<sha>[-dirty]", falling
// back to "devel" when built outside version control.  The tag is only present
// for `go install url/tool@version` builds.
func describeBuild(info *debug.BuildInfo) string {
	var revision string
	dirty := false
	for _, kv := range info.Settings {
		switch kv.Key {
		case "vcs.revision":
			revision = kv.Value
		case "vcs.modified":
			dirty = kv.Value == "true"
		}
	}

	parts := []string{}
	if v := info.Main.Version; v != "" && v != "(devel)" && v != "unknown" {
		parts = append(parts, v)
	}
	if revision != "" {
		parts = append(parts, "rev", revision)
		if dirty {
			parts = append(parts, "dirty")
		}
	}
	if len(parts) == 0 {
		return "devel"
	}
	return strings.Join(parts, "-")
}
