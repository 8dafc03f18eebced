package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jikamens/b2sweeper/b2"
)

var cancelUnfinished bool

// unfinishedCmd represents the unfinished command
var unfinishedCmd = &cobra.Command{
	Use:   "unfinished",
	Short: "List unfinished large file uploads",
	Long: `List large file uploads that were started but never finished. These
hold storage until they are finished or canceled; pass --cancel to cancel
them.`,
	PreRunE: initializeApp,
	RunE:    runUnfinished,
}

func init() {
	rootCmd.AddCommand(unfinishedCmd)

	unfinishedCmd.Flags().StringVar(&listPrefix, "prefix", "", "only consider files whose names start with this prefix")
	unfinishedCmd.Flags().BoolVar(&cancelUnfinished, "cancel", false, "cancel the unfinished uploads")
	unfinishedCmd.Flags().BoolVar(&noConfirm, "no-confirm", false, "skip confirmation prompt")
}

func runUnfinished(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	bucket, err := resolveBucket(ctx)
	if err != nil {
		return err
	}

	var unfinished []b2.FileVersion
	opts := b2.ListOptions{Prefix: listPrefix}
	for file, err := range client.ListUnfinishedLargeFiles(ctx, bucket.BucketID, opts) {
		if err != nil {
			return err
		}
		unfinished = append(unfinished, file)
		fmt.Printf("• %s (ID: %s, started %s)\n",
			file.FileName, file.FileID, file.Uploaded().Format("2006-01-02 15:04:05"))
	}

	if len(unfinished) == 0 {
		fmt.Println("No unfinished large files.")
		return nil
	}

	if !cancelUnfinished {
		fmt.Printf("\n%d unfinished large files. Pass --cancel to cancel them.\n", len(unfinished))
		return nil
	}

	if cfg.Safety.DryRun {
		logger.Info().Int("count", len(unfinished)).Msg("Dry run, nothing canceled")
		return nil
	}

	if cfg.Safety.ConfirmDelete && !noConfirm {
		if !confirm(fmt.Sprintf("\nCancel %d unfinished large files in %s?", len(unfinished), bucket.BucketName)) {
			logger.Info().Msg("Cancellation aborted")
			return nil
		}
	}

	for _, file := range unfinished {
		if err := client.CancelLargeFile(ctx, file.FileID); err != nil {
			return fmt.Errorf("failed to cancel %s: %w", file.FileName, err)
		}
		logger.Info().Str("file_name", file.FileName).Msg("Canceled unfinished large file")
	}

	fmt.Printf("\nCanceled %d unfinished large files.\n", len(unfinished))
	return nil
}
