package parse

import (
	"path"
	"strings"
)

var stripExts = []string{".tsx", ".ts", ".jsx", ".js", ".mjs", ".cjs"}

// resolveRequire implements the JS/TS require-resolution post-pass: a
// relative require path is resolved against the referring file's directory
// and looked up in exportsByFile. A single matching export replaces the
// callee symbol; the original local binding becomes the import alias. Zero
// or multiple matches leave the reference unresolved.
func resolveRequire(referringFile, reqPath, localBinding string, exportsByFile map[string][]string) (resolved, alias string, ok bool) {
	if !strings.HasPrefix(reqPath, "./") && !strings.HasPrefix(reqPath, "../") {
		return "", "", false
	}

	dir := path.Dir(referringFile)
	joined := path.Join(dir, reqPath)
	joined = stripKnownExtension(joined)

	exports, found := exportsByFile[joined]
	if !found || len(exports) != 1 {
		return "", "", false
	}

	return exports[0], strings.TrimSpace(localBinding), true
}

func stripKnownExtension(p string) string {
	for _, ext := range stripExts {
		if strings.HasSuffix(p, ext) {
			return strings.TrimSuffix(p, ext)
		}
	}
	return p
}
