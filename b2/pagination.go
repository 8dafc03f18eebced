package b2

import (
	"context"
	"encoding/json"
	"fmt"
	"iter"
	"maps"
)

// listPage is the common shape of every listing response: one page of
// items plus the continuation cursor for the next request. The server
// sends null cursors on the final page, which unmarshal as empty strings.
type listPage[T any] struct {
	Files        []T    `json:"files"`
	NextFileName string `json:"nextFileName"`
	NextFileID   string `json:"nextFileId"`
}

// cursorMode describes which continuation fields a listing endpoint
// echoes back into the next request's parameters.
type cursorMode int

const (
	cursorByName cursorMode = iota
	cursorByNameAndID
	cursorByID
)

// advance folds the page's cursor into params for the next request.
// It reports whether there is a next page.
func (p listPage[T]) advance(params map[string]any, mode cursorMode) bool {
	switch mode {
	case cursorByName, cursorByNameAndID:
		if p.NextFileName == "" {
			return false
		}
		params["startFileName"] = p.NextFileName
		if mode == cursorByNameAndID {
			params["startFileId"] = p.NextFileID
		}
	case cursorByID:
		if p.NextFileID == "" {
			return false
		}
		params["startFileId"] = p.NextFileID
	}
	return true
}

// paginate returns a lazy sequence over a cursor-paginated listing
// endpoint, yielding items in server order. Every invocation clones the
// initial parameters and owns its own cursor state, so a listing can be
// restarted by ranging over it again; an exhausted sequence is not
// resumable. A terminal call error is yielded once and ends the sequence.
func paginate[T any](ctx context.Context, c *Client, endpoint string, params map[string]any, mode cursorMode) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		var zero T
		params = maps.Clone(params)
		for {
			body, err := c.call(ctx, endpoint, params, false)
			if err != nil {
				yield(zero, err)
				return
			}
			var page listPage[T]
			if err := json.Unmarshal(body, &page); err != nil {
				yield(zero, fmt.Errorf("failed to parse %s response: %w", endpoint, err))
				return
			}
			for _, item := range page.Files {
				if !yield(item, nil) {
					return
				}
			}
			if !page.advance(params, mode) {
				return
			}
		}
	}
}
