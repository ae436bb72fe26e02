package indexer

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/codesearch-io/codesearch/internal/lang"
)

// walkFile is one supported-language file discovered during a walk, with
// both its absolute path (for reading) and its repository-relative,
// slash-normalised path (for hashing/storage keys).
type walkFile struct {
	absPath  string
	relPath  string
	language string
}

// walkRepository discovers every regular, non-ignored, supported-language
// file under root, honoring nested .gitignore files and skipping dotfiles
// and the .git directory.
func walkRepository(root string) ([]walkFile, error) {
	matcher := newGitignoreMatcher()
	_ = matcher.addFile(filepath.Join(root, ".gitignore"))

	var files []walkFile
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if path == root {
			return nil
		}

		relPath, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return relErr
		}
		relPath = filepath.ToSlash(relPath)
		base := filepath.Base(path)

		if info.IsDir() {
			if base == ".git" {
				return filepath.SkipDir
			}
			if strings.HasPrefix(base, ".") && base != "." {
				return filepath.SkipDir
			}
			if matcher.match(relPath, true) {
				return filepath.SkipDir
			}
			if nested := filepath.Join(path, ".gitignore"); fileExists(nested) {
				_ = matcher.addFile(nested)
			}
			return nil
		}

		if strings.HasPrefix(base, ".") {
			return nil
		}
		if matcher.match(relPath, false) {
			return nil
		}

		language, ok := lang.FromPath(relPath)
		if !ok {
			return nil
		}

		files = append(files, walkFile{absPath: path, relPath: relPath, language: language})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
