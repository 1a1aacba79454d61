package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/trail/internal/ingest"
	"github.com/alfredjeanlab/trail/internal/model"
)

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "Record an event under one or more subjects",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		fromStdin, _ := cmd.Flags().GetBool("stdin")
		if fromStdin {
			return logFromStdin(cmd)
		}

		subjects, _ := cmd.Flags().GetStringSlice("subject")
		id, _ := cmd.Flags().GetString("id")
		data, _ := cmd.Flags().GetString("data")
		if len(subjects) == 0 {
			return fmt.Errorf("at least one --subject is required")
		}

		e := &model.Event{ID: id, Data: data, Subjects: subjects}
		if err := ix.Log(cmd.Context(), e); err != nil {
			return err
		}

		if jsonOutput {
			printJSON(e)
		} else {
			fmt.Println(e.ID)
		}
		return nil
	},
}

// logFromStdin reads one JSON event per line and feeds them through the
// background queue, so a slow store applies backpressure to the reader
// instead of ballooning memory.
func logFromStdin(cmd *cobra.Command) error {
	q := ingest.Start(ix, cfg.QueueSize, logger)

	var lines, bad int
	sc := bufio.NewScanner(os.Stdin)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for sc.Scan() {
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		lines++
		var e model.Event
		if err := json.Unmarshal(line, &e); err != nil {
			bad++
			logger.Warn("skipping malformed event", "line", lines, "error", err)
			continue
		}
		if err := q.Enqueue(cmd.Context(), &e); err != nil {
			q.Close()
			return err
		}
	}
	q.Close()
	q.Wait()

	if err := sc.Err(); err != nil {
		return fmt.Errorf("reading stdin: %w", err)
	}
	if bad > 0 {
		return fmt.Errorf("%d of %d lines were malformed", bad, lines)
	}
	fmt.Fprintf(os.Stderr, "queued %d events\n", lines)
	return nil
}

func init() {
	logCmd.Flags().StringSliceP("subject", "s", nil, "subject to index under (repeatable)")
	logCmd.Flags().String("id", "", "event ID (generated when omitted)")
	logCmd.Flags().StringP("data", "d", "", "event payload")
	logCmd.Flags().Bool("stdin", false, "read JSON events from stdin, one per line")
}
