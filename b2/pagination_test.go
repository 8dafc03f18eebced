package b2

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pagedFiles serves a canned list of files in pages of the requested
// size, using the b2_list_file_names cursor protocol.
func pagedFiles(t *testing.T, names []string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var params struct {
			BucketID      string `json:"bucketId"`
			StartFileName string `json:"startFileName"`
			MaxFileCount  int    `json:"maxFileCount"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&params))
		require.Positive(t, params.MaxFileCount)

		start := 0
		for start < len(names) && names[start] < params.StartFileName {
			start++
		}
		end := min(start+params.MaxFileCount, len(names))

		files := make([]map[string]any, 0, end-start)
		for _, name := range names[start:end] {
			files = append(files, map[string]any{
				"fileId":   "id-" + name,
				"fileName": name,
				"action":   ActionUpload,
			})
		}
		resp := map[string]any{"files": files, "nextFileName": nil}
		if end < len(names) {
			resp["nextFileName"] = names[end]
		}
		json.NewEncoder(w).Encode(resp)
	}
}

func TestListFileNamesPagination(t *testing.T) {
	names := make([]string, 25)
	for i := range names {
		names[i] = fmt.Sprintf("file-%02d", i)
	}
	ts := newTestServer(t, pagedFiles(t, names))
	client := newTestClient(t, ts)

	var got []string
	for file, err := range client.ListFileNames(context.Background(), "b1", ListOptions{MaxFileCount: 10}) {
		require.NoError(t, err)
		got = append(got, file.FileName)
	}

	// Every item exactly once, in server order, across three pages.
	assert.Equal(t, names, got)
	assert.Equal(t, 3, ts.count("b2_list_file_names"))
}

func TestListFileNamesIsLazy(t *testing.T) {
	names := make([]string, 30)
	for i := range names {
		names[i] = fmt.Sprintf("file-%02d", i)
	}
	ts := newTestServer(t, pagedFiles(t, names))
	client := newTestClient(t, ts)

	var got int
	for _, err := range client.ListFileNames(context.Background(), "b1", ListOptions{MaxFileCount: 10}) {
		require.NoError(t, err)
		got++
		if got == 5 {
			break
		}
	}

	// Stopping inside the first page never fetches the second.
	assert.Equal(t, 1, ts.count("b2_list_file_names"))
}

func TestListFileNamesIsRestartable(t *testing.T) {
	names := []string{"a", "b", "c"}
	ts := newTestServer(t, pagedFiles(t, names))
	client := newTestClient(t, ts)

	listing := client.ListFileNames(context.Background(), "b1", ListOptions{MaxFileCount: 2})

	for range 2 {
		var got []string
		for file, err := range listing {
			require.NoError(t, err)
			got = append(got, file.FileName)
		}
		assert.Equal(t, names, got)
	}
}

func TestListFileVersionsFoldsBothCursors(t *testing.T) {
	var seenCursors []string
	ts := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		var params struct {
			StartFileName string `json:"startFileName"`
			StartFileID   string `json:"startFileId"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&params))
		seenCursors = append(seenCursors, params.StartFileName+"/"+params.StartFileID)

		if params.StartFileName == "" {
			fmt.Fprint(w, `{
				"files": [
					{"fileId": "id2", "fileName": "a.txt", "action": "upload"},
					{"fileId": "id1", "fileName": "a.txt", "action": "upload"}
				],
				"nextFileName": "b.txt",
				"nextFileId": "id9"
			}`)
			return
		}
		fmt.Fprint(w, `{
			"files": [{"fileId": "id9", "fileName": "b.txt", "action": "hide"}],
			"nextFileName": null,
			"nextFileId": null
		}`)
	})
	client := newTestClient(t, ts)

	var got []FileVersion
	for file, err := range client.ListFileVersions(context.Background(), "b1", ListOptions{}) {
		require.NoError(t, err)
		got = append(got, file)
	}

	require.Len(t, got, 3)
	assert.Equal(t, []string{"/", "b.txt/id9"}, seenCursors)
	assert.Equal(t, "hide", got[2].Action)
}

func TestListUnfinishedLargeFiles(t *testing.T) {
	ts := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		var params struct {
			NamePrefix   string `json:"namePrefix"`
			StartFileID  string `json:"startFileId"`
			MaxFileCount int    `json:"maxFileCount"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&params))
		assert.Equal(t, "backups/", params.NamePrefix)
		assert.Equal(t, 100, params.MaxFileCount)

		if params.StartFileID == "" {
			fmt.Fprint(w, `{
				"files": [{"fileId": "lf1", "fileName": "backups/one", "action": "start"}],
				"nextFileId": "lf2"
			}`)
			return
		}
		assert.Equal(t, "lf2", params.StartFileID)
		fmt.Fprint(w, `{
			"files": [{"fileId": "lf2", "fileName": "backups/two", "action": "start"}],
			"nextFileId": null
		}`)
	})
	client := newTestClient(t, ts)

	var got []string
	opts := ListOptions{Prefix: "backups/"}
	for file, err := range client.ListUnfinishedLargeFiles(context.Background(), "b1", opts) {
		require.NoError(t, err)
		got = append(got, file.FileID)
	}
	assert.Equal(t, []string{"lf1", "lf2"}, got)
}

func TestPaginationYieldsTerminalError(t *testing.T) {
	ts := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"status":400,"code":"invalid_bucket_id","message":"bad bucket"}`)
	})
	client := newTestClient(t, ts)

	var errs []error
	for _, err := range client.ListFileNames(context.Background(), "nope", ListOptions{}) {
		errs = append(errs, err)
	}

	require.Len(t, errs, 1)
	var apiErr *APIError
	require.ErrorAs(t, errs[0], &apiErr)
	assert.Equal(t, "invalid_bucket_id", apiErr.Code)
}
