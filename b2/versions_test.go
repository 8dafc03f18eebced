package b2

import (
	"errors"
	"iter"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sliceSeq(versions []FileVersion) iter.Seq2[FileVersion, error] {
	return func(yield func(FileVersion, error) bool) {
		for _, v := range versions {
			if !yield(v, nil) {
				return
			}
		}
	}
}

func TestGroupVersions(t *testing.T) {
	listing := sliceSeq([]FileVersion{
		{FileName: "a.txt", FileID: "a2", Action: ActionUpload},
		{FileName: "a.txt", FileID: "a1", Action: ActionHide},
		{FileName: "b/", FileID: "", Action: ActionFolder},
		{FileName: "b/c.txt", FileID: "c1", Action: ActionUpload},
		{FileName: "d.txt", FileID: "d9", Action: ActionStart},
		{FileName: "e.txt", FileID: "e1", Action: ActionUpload},
	})

	var groups [][]string
	for group, err := range GroupVersions(listing) {
		require.NoError(t, err)
		var ids []string
		for _, v := range group {
			ids = append(ids, v.FileID)
		}
		groups = append(groups, ids)
	}

	// Folder placeholders and unfinished large files are dropped, and
	// consecutive versions of one file come out as one group.
	assert.Equal(t, [][]string{{"a2", "a1"}, {"c1"}, {"e1"}}, groups)
}

func TestGroupVersionsEmpty(t *testing.T) {
	count := 0
	for range GroupVersions(sliceSeq(nil)) {
		count++
	}
	assert.Zero(t, count)
}

func TestGroupVersionsPropagatesError(t *testing.T) {
	wantErr := errors.New("listing failed")
	failing := func(yield func(FileVersion, error) bool) {
		if !yield(FileVersion{FileName: "a.txt", Action: ActionUpload}, nil) {
			return
		}
		yield(FileVersion{}, wantErr)
	}

	var got error
	var groups int
	for _, err := range GroupVersions(failing) {
		if err != nil {
			got = err
			continue
		}
		groups++
	}

	assert.ErrorIs(t, got, wantErr)
	// The partial group before the error is not yielded.
	assert.Zero(t, groups)
}
