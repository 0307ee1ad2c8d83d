package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jamesainslie/tfiles/pkg/files/torrentfile"
)

var magnetCmd = &cobra.Command{
	Use:   "magnet <uri>",
	Short: "Decode a magnet link",
	Long:  `Print the info hash, display name and trackers of a magnet link.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runMagnet,
}

func init() {
	rootCmd.AddCommand(magnetCmd)
}

func runMagnet(cmd *cobra.Command, args []string) error {
	link, err := torrentfile.ParseMagnetLink(args[0])
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "info hash: %s\n", link.InfoHashV1)
	if link.DisplayName != "" {
		fmt.Fprintf(w, "name:      %s\n", link.DisplayName)
	}
	for i, tier := range link.Trackers {
		fmt.Fprintf(w, "tracker %d: %s\n", i+1, strings.Join(tier, ", "))
	}
	return nil
}
