package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/trail/internal/archive"
	"github.com/alfredjeanlab/trail/internal/model"
)

// addArchiveFlags registers the shared destination flags on a prune command.
func addArchiveFlags(cmd *cobra.Command) {
	cmd.Flags().String("archive-file", "", "write removed entries to this file before pruning")
	cmd.Flags().String("archive-s3-bucket", "", "write removed entries to this S3 bucket before pruning (default TRAIL_ARCHIVE_S3_BUCKET)")
	cmd.Flags().String("archive-s3-key", "", "S3 object key (default TRAIL_ARCHIVE_S3_KEY)")
}

// archiveDestinations builds the destinations a prune command asked for.
// An empty slice means no archiving was requested.
func archiveDestinations(ctx context.Context, cmd *cobra.Command) ([]archive.Destination, error) {
	var dests []archive.Destination

	if path, _ := cmd.Flags().GetString("archive-file"); path != "" {
		dests = append(dests, archive.NewFileDestination(path))
	}

	bucket, _ := cmd.Flags().GetString("archive-s3-bucket")
	if bucket == "" {
		bucket = cfg.ArchiveS3Bucket
	}
	if bucket != "" {
		key, _ := cmd.Flags().GetString("archive-s3-key")
		if key == "" {
			key = cfg.ArchiveS3Key
		}
		d, err := archive.NewS3Destination(ctx, bucket, key, cfg.ArchiveS3Region, cfg.ArchiveS3Endpoint)
		if err != nil {
			return nil, err
		}
		dests = append(dests, d)
	}
	return dests, nil
}

// archiveSpan exports entries before the prune runs. The export and the
// prune are separate operations: a concurrent writer can append between
// them, so the archive is a best-effort snapshot, never an exact mirror of
// what the prune removes.
func archiveSpan(ctx context.Context, subject string, entries []model.Entry, dests []archive.Destination) error {
	if len(dests) == 0 || len(entries) == 0 {
		return nil
	}
	return archive.NewExporter(dests, logger).Export(ctx, subject, entries)
}
