package syncer

import (
	"io/fs"
	"path/filepath"
	"strings"
)

// ScanOutputTree recursively collects every file under root whose extension is
// in the recognized media set. The result feeds orphan detection: anything
// found here that no current item derives is scheduled for removal.
//
// Unreadable subtrees are skipped rather than failing the scan; a file the
// scan cannot see simply survives until a later pass.
func ScanOutputTree(root string) (map[string]struct{}, error) {
	existing := make(map[string]struct{})
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if recognizedExtension(path) {
			existing[path] = struct{}{}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return existing, nil
}

func recognizedExtension(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range RecognizedExtensions {
		if ext == e {
			return true
		}
	}
	return false
}
