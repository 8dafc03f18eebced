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

func TestDeleteFileVersions(t *testing.T) {
	ts := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		var params map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&params))
		if params["fileId"] == "bad" {
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprint(w, `{"status":400,"code":"file_not_present","message":"gone"}`)
			return
		}
		fmt.Fprint(w, "{}")
	})
	client := newTestClient(t, ts)

	versions := []FileVersion{
		{FileName: "a.txt", FileID: "a1"},
		{FileName: "b.txt", FileID: "bad"},
		{FileName: "c.txt", FileID: "c1"},
	}
	result := client.DeleteFileVersions(context.Background(), versions)

	assert.Equal(t, 3, result.Requested)
	assert.ElementsMatch(t, []string{"a1", "c1"}, result.Successful)
	require.Len(t, result.Failed, 1)
	assert.Equal(t, "bad", result.Failed[0].FileID)
	assert.Equal(t, "b.txt", result.Failed[0].FileName)

	var apiErr *APIError
	require.ErrorAs(t, result.Failed[0].Err, &apiErr)
	assert.Equal(t, "file_not_present", apiErr.Code)
}

func TestDeleteFileVersionsEmpty(t *testing.T) {
	ts := newTestServer(t, nil)
	client := newTestClient(t, ts)

	result := client.DeleteFileVersions(context.Background(), nil)
	assert.Zero(t, result.Requested)
	assert.Empty(t, result.Successful)
	assert.Empty(t, result.Failed)
	assert.Zero(t, ts.count("b2_delete_file_version"))
}
