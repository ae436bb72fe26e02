package fusion

import (
	"path"
	"strings"
)

var testDirNames = map[string]struct{}{
	"test": {}, "tests": {}, "spec": {}, "specs": {},
	"__tests__": {}, "__test__": {}, "testdata": {},
}

// isTestFile applies the test-file heuristics from the fusion penalty rule:
// a directory component named test/tests/spec/specs/__tests__/__test__/
// testdata, or a dot-separated middle filename component of test/spec (e.g.
// foo.test.ts), or a stem starting with test_ or ending in _test. The
// literal filename test.go is excluded.
func isTestFile(filePath string) bool {
	normalized := strings.ReplaceAll(filePath, `\`, "/")
	normalized = strings.ToLower(normalized)

	dir, file := path.Split(normalized)
	for _, component := range strings.Split(strings.Trim(dir, "/"), "/") {
		if _, ok := testDirNames[component]; ok {
			return true
		}
	}

	if file == "test.go" {
		return false
	}

	parts := strings.Split(file, ".")
	if len(parts) >= 3 {
		for _, mid := range parts[1 : len(parts)-1] {
			if mid == "test" || mid == "spec" {
				return true
			}
		}
	}

	stem := parts[0]
	if strings.HasPrefix(stem, "test_") || strings.HasSuffix(stem, "_test") {
		return true
	}

	return false
}
