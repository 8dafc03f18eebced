package b2

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// deleteConcurrency caps how many delete calls run at once.
const deleteConcurrency = 5

// DeleteError records the failure to delete one file version.
type DeleteError struct {
	FileName string
	FileID   string
	Err      error
}

// Error implements the error interface
func (e DeleteError) Error() string {
	return fmt.Sprintf("failed to delete %s (%s): %v", e.FileName, e.FileID, e.Err)
}

func (e DeleteError) Unwrap() error {
	return e.Err
}

// BatchDeleteResult summarizes a concurrent deletion pass.
type BatchDeleteResult struct {
	Requested  int
	Successful []string
	Failed     []DeleteError
}

// DeleteFileVersions deletes file versions concurrently, aggregating
// per-version failures instead of stopping at the first one.
func (c *Client) DeleteFileVersions(ctx context.Context, versions []FileVersion) BatchDeleteResult {
	result := BatchDeleteResult{Requested: len(versions)}
	if len(versions) == 0 {
		return result
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(deleteConcurrency)

	successChan := make(chan string, len(versions))
	errorChan := make(chan DeleteError, len(versions))

	for _, v := range versions {
		g.Go(func() error {
			if err := c.DeleteFileVersion(ctx, v.FileName, v.FileID); err != nil {
				c.logger.Warn().
					Err(err).
					Str("file_name", v.FileName).
					Str("file_id", v.FileID).
					Msg("Failed to delete file version")
				errorChan <- DeleteError{FileName: v.FileName, FileID: v.FileID, Err: err}
			} else {
				successChan <- v.FileID
			}
			// Continue processing other versions
			return nil
		})
	}

	g.Wait()
	close(successChan)
	close(errorChan)

	for id := range successChan {
		result.Successful = append(result.Successful, id)
	}
	for delErr := range errorChan {
		result.Failed = append(result.Failed, delErr)
	}

	c.logger.Info().
		Int("requested", result.Requested).
		Int("deleted", len(result.Successful)).
		Int("failed", len(result.Failed)).
		Msg("Batch delete finished")

	return result
}
