package b2

import (
	"context"
	"encoding/json"
	"fmt"
	"iter"
)

// Default page sizes requested from the listing endpoints.
const (
	defaultPageSize          = 1000
	defaultLargeFilePageSize = 100
)

// ListBuckets returns the account's buckets, optionally filtered by exact
// name and/or bucket types ("allPublic", "allPrivate", "snapshot").
func (c *Client) ListBuckets(ctx context.Context, bucketName string, bucketTypes ...string) ([]Bucket, error) {
	params := map[string]any{"accountId": c.creds.AccountID}
	if bucketName != "" {
		params["bucketName"] = bucketName
	}
	if len(bucketTypes) > 0 {
		params["bucketTypes"] = bucketTypes
	}

	body, err := c.call(ctx, "b2_list_buckets", params, false)
	if err != nil {
		return nil, err
	}

	var resp listBucketsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse bucket listing: %w", err)
	}
	return resp.Buckets, nil
}

// ListFileNames lazily lists the most recent version of every file in the
// bucket, in file name order.
func (c *Client) ListFileNames(ctx context.Context, bucketID string, opts ListOptions) iter.Seq2[FileVersion, error] {
	params := map[string]any{
		"bucketId":     bucketID,
		"maxFileCount": opts.pageSize(defaultPageSize),
	}
	if opts.StartFileName != "" {
		params["startFileName"] = opts.StartFileName
	}
	if opts.Prefix != "" {
		params["prefix"] = opts.Prefix
	}
	if opts.Delimiter != "" {
		params["delimiter"] = opts.Delimiter
	}
	return paginate[FileVersion](ctx, c, "b2_list_file_names", params, cursorByName)
}

// ListFileVersions lazily lists every version of every file in the
// bucket, in file name order with the newest version of each file first.
func (c *Client) ListFileVersions(ctx context.Context, bucketID string, opts ListOptions) iter.Seq2[FileVersion, error] {
	params := map[string]any{
		"bucketId":     bucketID,
		"maxFileCount": opts.pageSize(defaultPageSize),
	}
	if opts.StartFileName != "" {
		params["startFileName"] = opts.StartFileName
	}
	if opts.StartFileID != "" {
		params["startFileId"] = opts.StartFileID
	}
	if opts.Prefix != "" {
		params["prefix"] = opts.Prefix
	}
	if opts.Delimiter != "" {
		params["delimiter"] = opts.Delimiter
	}
	return paginate[FileVersion](ctx, c, "b2_list_file_versions", params, cursorByNameAndID)
}

// ListUnfinishedLargeFiles lazily lists large file uploads that were
// started but never finished or canceled.
func (c *Client) ListUnfinishedLargeFiles(ctx context.Context, bucketID string, opts ListOptions) iter.Seq2[FileVersion, error] {
	params := map[string]any{
		"bucketId":     bucketID,
		"maxFileCount": opts.pageSize(defaultLargeFilePageSize),
	}
	if opts.Prefix != "" {
		params["namePrefix"] = opts.Prefix
	}
	if opts.StartFileID != "" {
		params["startFileId"] = opts.StartFileID
	}
	return paginate[FileVersion](ctx, c, "b2_list_unfinished_large_files", params, cursorByID)
}

// CancelLargeFile cancels an unfinished large file upload and discards
// any parts already uploaded.
func (c *Client) CancelLargeFile(ctx context.Context, fileID string) error {
	_, err := c.call(ctx, "b2_cancel_large_file", map[string]any{"fileId": fileID}, false)
	return err
}

// GetFileInfo fetches the stored metadata for one file version.
func (c *Client) GetFileInfo(ctx context.Context, fileID string) (*FileVersion, error) {
	body, err := c.call(ctx, "b2_get_file_info", map[string]any{"fileId": fileID}, false)
	if err != nil {
		return nil, err
	}

	var file FileVersion
	if err := json.Unmarshal(body, &file); err != nil {
		return nil, fmt.Errorf("failed to parse file info: %w", err)
	}
	return &file, nil
}

// DeleteFileVersion deletes one version of one file. Deleting the most
// recent version exposes the one below it, if any.
func (c *Client) DeleteFileVersion(ctx context.Context, fileName, fileID string) error {
	params := map[string]any{"fileName": fileName, "fileId": fileID}
	_, err := c.call(ctx, "b2_delete_file_version", params, false)
	return err
}

// DownloadFileByID returns the raw contents of a file version.
func (c *Client) DownloadFileByID(ctx context.Context, fileID string) ([]byte, error) {
	return c.call(ctx, "b2_download_file_by_id", map[string]any{"fileId": fileID}, true)
}
