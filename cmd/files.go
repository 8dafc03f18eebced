package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jikamens/b2sweeper/b2"
)

var (
	listVersions bool
	listPrefix   string
	deleteAll    bool
)

// listCmd represents the list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List files in a bucket",
	Long: `List files in a bucket, optionally restricted to a prefix and a filter
expression. With --versions, every stored version of every file is listed
instead of just the most recent one.`,
	PreRunE: initializeApp,
	RunE:    runList,
}

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().StringVarP(&filterExpr, "filter", "f", "", "filter expression")
	listCmd.Flags().StringVarP(&preset, "preset", "p", "", "use a preset filter from config")
	listCmd.Flags().StringVar(&listPrefix, "prefix", "", "only list files whose names start with this prefix")
	listCmd.Flags().BoolVar(&listVersions, "versions", false, "list every file version, not just the latest")
}

func runList(cmd *cobra.Command, args []string) error {
	fileFilter, err := getFilter(false)
	if err != nil {
		return err
	}

	ctx := context.Background()
	bucket, err := resolveBucket(ctx)
	if err != nil {
		return err
	}

	opts := b2.ListOptions{Prefix: listPrefix}
	listing := client.ListFileNames(ctx, bucket.BucketID, opts)
	if listVersions {
		listing = client.ListFileVersions(ctx, bucket.BucketID, opts)
	}

	count := 0
	for file, err := range listing {
		if err != nil {
			return err
		}
		if fileFilter != nil {
			matched, err := fileFilter.Evaluate(file)
			if err != nil {
				return err
			}
			if !matched {
				continue
			}
		}
		count++
		printFile(file)
	}

	if count == 0 {
		fmt.Println("No files found matching the criteria.")
		return nil
	}
	fmt.Printf("\n%d files.\n", count)
	return nil
}

func printFile(file b2.FileVersion) {
	fmt.Printf("• %s", file.FileName)
	if file.Action == b2.ActionHide {
		fmt.Printf(" [HIDDEN]")
	}
	fmt.Println()
	if cfg.Safety.ShowDetails {
		fmt.Printf("  ID: %s\n", file.FileID)
		fmt.Printf("  Size: %d\n", file.ContentLength)
		fmt.Printf("  Uploaded: %s\n", file.Uploaded().Format("2006-01-02 15:04:05"))
	}
}

// deleteCmd represents the delete command
var deleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete file versions matching the filter criteria",
	Long: `Delete file versions from a bucket that match the specified filter
expression. Deletion is permanent; by default a confirmation prompt is
shown and dry-run mode is honored from the config.`,
	PreRunE: initializeApp,
	RunE:    runDelete,
}

func init() {
	rootCmd.AddCommand(deleteCmd)

	deleteCmd.Flags().StringVarP(&filterExpr, "filter", "f", "", "filter expression")
	deleteCmd.Flags().StringVarP(&preset, "preset", "p", "", "use a preset filter from config")
	deleteCmd.Flags().StringVar(&listPrefix, "prefix", "", "only consider files whose names start with this prefix")
	deleteCmd.Flags().BoolVar(&noConfirm, "no-confirm", false, "skip confirmation prompt")
	deleteCmd.Flags().BoolVar(&deleteAll, "all-versions", true, "consider every stored version, not just the latest")
}

func runDelete(cmd *cobra.Command, args []string) error {
	fileFilter, err := getFilter(true)
	if err != nil {
		return err
	}

	logger.Info().Str("filter", fileFilter.String()).Msg("Searching file versions to delete")

	ctx := context.Background()
	bucket, err := resolveBucket(ctx)
	if err != nil {
		return err
	}

	opts := b2.ListOptions{Prefix: listPrefix}
	listing := client.ListFileNames(ctx, bucket.BucketID, opts)
	if deleteAll {
		listing = client.ListFileVersions(ctx, bucket.BucketID, opts)
	}

	var matched []b2.FileVersion
	for file, err := range listing {
		if err != nil {
			return err
		}
		ok, err := fileFilter.Evaluate(file)
		if err != nil {
			return err
		}
		if ok {
			matched = append(matched, file)
		}
	}

	if len(matched) == 0 {
		fmt.Println("No file versions found matching the filter criteria.")
		return nil
	}

	fmt.Printf("\nFound %d file versions to delete:\n", len(matched))
	fmt.Println(strings.Repeat("-", 80))
	for _, file := range matched {
		printFile(file)
	}

	if cfg.Safety.DryRun {
		logger.Info().Int("count", len(matched)).Msg("Dry run, nothing deleted")
		return nil
	}

	if cfg.Safety.ConfirmDelete && !noConfirm {
		if !confirm(fmt.Sprintf("\nPermanently delete %d file versions from %s?", len(matched), bucket.BucketName)) {
			logger.Info().Msg("Deletion cancelled")
			return nil
		}
	}

	result := client.DeleteFileVersions(ctx, matched)
	fmt.Printf("\nDeleted %d of %d file versions.\n", len(result.Successful), result.Requested)
	if len(result.Failed) > 0 {
		for _, failure := range result.Failed {
			logger.Error().Err(failure.Err).Str("file_name", failure.FileName).Msg("Deletion failed")
		}
		return fmt.Errorf("%d deletions failed", len(result.Failed))
	}
	return nil
}
