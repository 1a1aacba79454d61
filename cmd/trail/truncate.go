package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var truncateCmd = &cobra.Command{
	Use:   "truncate <subject>",
	Short: "Keep only the newest N events of a subject",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		subject := args[0]
		keep, _ := cmd.Flags().GetInt("keep")

		dests, err := archiveDestinations(cmd.Context(), cmd)
		if err != nil {
			return err
		}
		if len(dests) > 0 {
			entries, err := ix.Retrieve(cmd.Context(), subject)
			if err != nil {
				return err
			}
			if len(entries) > keep {
				if err := archiveSpan(cmd.Context(), subject, entries[:len(entries)-keep], dests); err != nil {
					return fmt.Errorf("archiving before truncate: %w", err)
				}
			}
		}

		if err := ix.Truncate(cmd.Context(), subject, keep); err != nil {
			return err
		}
		fmt.Printf("truncated %q to %d events\n", subject, keep)
		return nil
	},
}

func init() {
	truncateCmd.Flags().IntP("keep", "k", 0, "number of newest events to keep")
	truncateCmd.MarkFlagRequired("keep")
	addArchiveFlags(truncateCmd)
}
