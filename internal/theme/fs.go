// fs.go holds tiny helpers for walking the filesystem when template glob
// patterns such as “**/*.html” are not available in the Go standard library.
// The key export is CollectHTML, which returns a slice of paths for every
// .html file under the supplied directory.
package theme

import (
	"errors"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
)

// CollectHTML walks rootDir recursively and returns a sorted list of
// *.html paths.  A missing rootDir yields (nil, nil) so callers can treat
// "no override" and "empty override" the same way.
//
//	files, _ := CollectHTML(th.ComponentDir("agenda"))
//	tpl.ParseFiles(files...)
func CollectHTML(rootDir string) ([]string, error) {
	if rootDir == "" {
		return nil, nil
	}
	var files []string

	err := filepath.WalkDir(rootDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if strings.HasSuffix(strings.ToLower(d.Name()), ".html") {
			files = append(files, filepath.ToSlash(path))
		}
		return nil
	})
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}
