package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

var subjectsCmd = &cobra.Command{
	Use:   "subjects",
	Short: "List every subject that has ever been logged to",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		subjects, err := ix.Subjects(cmd.Context())
		if err != nil {
			return err
		}
		sort.Strings(subjects)

		if jsonOutput {
			printJSON(subjects)
			return nil
		}
		for _, s := range subjects {
			fmt.Println(s)
		}
		return nil
	},
}
