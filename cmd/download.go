package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var downloadOutput string

// downloadCmd represents the download command
var downloadCmd = &cobra.Command{
	Use:     "download <file-id>",
	Short:   "Download a file by id",
	Long:    `Download the raw contents of a file version by its file id.`,
	Args:    cobra.ExactArgs(1),
	PreRunE: initializeApp,
	RunE:    runDownload,
}

func init() {
	rootCmd.AddCommand(downloadCmd)

	downloadCmd.Flags().StringVarP(&downloadOutput, "output", "o", "", "write to file instead of stdout")
}

func runDownload(cmd *cobra.Command, args []string) error {
	fileID := args[0]
	ctx := context.Background()

	info, err := client.GetFileInfo(ctx, fileID)
	if err != nil {
		return fmt.Errorf("failed to get file info: %w", err)
	}
	logger.Debug().
		Str("file_name", info.FileName).
		Int64("size", info.ContentLength).
		Msg("Downloading file")

	content, err := client.DownloadFileByID(ctx, fileID)
	if err != nil {
		return fmt.Errorf("failed to download file: %w", err)
	}

	if downloadOutput == "" {
		_, err := os.Stdout.Write(content)
		return err
	}

	if err := os.WriteFile(downloadOutput, content, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", downloadOutput, err)
	}
	logger.Info().
		Str("file_name", info.FileName).
		Str("output", downloadOutput).
		Int("bytes", len(content)).
		Msg("Downloaded file")
	return nil
}
