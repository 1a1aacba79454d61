package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/trail/internal/archive"
)

var exportCmd = &cobra.Command{
	Use:   "export <subject>",
	Short: "Export a subject's events as JSONL without pruning",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		subject := args[0]

		var dests []archive.Destination
		if path, _ := cmd.Flags().GetString("file"); path != "" {
			dests = append(dests, archive.NewFileDestination(path))
		}
		bucket, _ := cmd.Flags().GetString("s3-bucket")
		if bucket == "" {
			bucket = cfg.ArchiveS3Bucket
		}
		if wantS3, _ := cmd.Flags().GetBool("s3"); wantS3 || cmd.Flags().Changed("s3-bucket") {
			if bucket == "" {
				return fmt.Errorf("--s3 requires --s3-bucket or TRAIL_ARCHIVE_S3_BUCKET")
			}
			key, _ := cmd.Flags().GetString("s3-key")
			if key == "" {
				key = cfg.ArchiveS3Key
			}
			d, err := archive.NewS3Destination(cmd.Context(), bucket, key, cfg.ArchiveS3Region, cfg.ArchiveS3Endpoint)
			if err != nil {
				return err
			}
			dests = append(dests, d)
		}
		if len(dests) == 0 {
			return fmt.Errorf("no destination: pass --file or --s3")
		}

		entries, err := ix.Retrieve(cmd.Context(), subject)
		if err != nil {
			return err
		}
		if err := archive.NewExporter(dests, logger).Export(cmd.Context(), subject, entries); err != nil {
			return err
		}
		fmt.Printf("exported %d entries from %q\n", len(entries), subject)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringP("file", "f", "", "output file path")
	exportCmd.Flags().Bool("s3", false, "upload to S3 using TRAIL_ARCHIVE_S3_* settings")
	exportCmd.Flags().String("s3-bucket", "", "S3 bucket (default TRAIL_ARCHIVE_S3_BUCKET)")
	exportCmd.Flags().String("s3-key", "", "S3 object key (default TRAIL_ARCHIVE_S3_KEY)")
}
