package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/trail/internal/model"
)

var purgeCmd = &cobra.Command{
	Use:   "purge <subject>",
	Short: "Remove a subject's events up to and including a boundary event",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		subject := args[0]
		uptoID, _ := cmd.Flags().GetString("to")

		dests, err := archiveDestinations(cmd.Context(), cmd)
		if err != nil {
			return err
		}
		if len(dests) > 0 {
			entries, err := ix.Retrieve(cmd.Context(), subject)
			if err != nil {
				return err
			}
			if span := spanThrough(entries, uptoID); span != nil {
				if err := archiveSpan(cmd.Context(), subject, span, dests); err != nil {
					return fmt.Errorf("archiving before purge: %w", err)
				}
			}
		}

		if err := ix.Purge(cmd.Context(), subject, uptoID); err != nil {
			return err
		}
		fmt.Printf("purged %q through %s\n", subject, uptoID)
		return nil
	},
}

// spanThrough returns the prefix of entries ending at the boundary ID, or
// nil when the boundary is absent. Absence is not an error here: Purge
// itself decides that against the authoritative index.
func spanThrough(entries []model.Entry, uptoID string) []model.Entry {
	for i, e := range entries {
		if e.ID == uptoID {
			return entries[:i+1]
		}
	}
	return nil
}

func init() {
	purgeCmd.Flags().String("to", "", "boundary event ID (inclusive)")
	purgeCmd.MarkFlagRequired("to")
	addArchiveFlags(purgeCmd)
}
