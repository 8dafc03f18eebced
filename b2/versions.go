package b2

import "iter"

// GroupVersions folds a file-version listing into groups of versions
// sharing a file name, preserving server order within and across groups.
// Only upload and hide actions are kept; folder placeholders and
// in-progress large files are skipped. An error from the underlying
// listing is yielded once and ends the sequence.
func GroupVersions(versions iter.Seq2[FileVersion, error]) iter.Seq2[[]FileVersion, error] {
	return func(yield func([]FileVersion, error) bool) {
		var group []FileVersion
		for v, err := range versions {
			if err != nil {
				yield(nil, err)
				return
			}
			if v.Action != ActionUpload && v.Action != ActionHide {
				continue
			}
			if len(group) > 0 && group[len(group)-1].FileName != v.FileName {
				if !yield(group, nil) {
					return
				}
				group = nil
			}
			group = append(group, v)
		}
		if len(group) > 0 {
			yield(group, nil)
		}
	}
}
