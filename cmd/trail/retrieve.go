package main

import (
	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/trail/internal/model"
)

var retrieveCmd = &cobra.Command{
	Use:   "retrieve <subject>...",
	Short: "Print events indexed under the given subjects, oldest first",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		bySubject := make(map[string][]model.Entry, len(args))
		for _, subject := range args {
			entries, err := ix.Retrieve(cmd.Context(), subject)
			if err != nil {
				return err
			}
			bySubject[subject] = entries
		}

		if jsonOutput {
			printJSON(bySubject)
			return nil
		}
		for _, subject := range args {
			printEntries(subject, bySubject[subject])
		}
		return nil
	},
}
