package lang

import "testing"

func TestFromPathKnownExtensions(t *testing.T) {
	cases := map[string]string{
		"src/main.rs":      Rust,
		"a/b/c.py":         Python,
		"index.ts":         TypeScript,
		"component.tsx":    TypeScript,
		"app.js":           JavaScript,
		"main.go":          Go,
		"variables.tf":     HCL,
		"Controller.php":   PHP,
		"widget.cpp":       Cpp,
		"header.h":         Cpp,
		"View.swift":       Swift,
		"Main.kt":          Kotlin,
	}
	for path, want := range cases {
		got, ok := FromPath(path)
		if !ok || got != want {
			t.Errorf("FromPath(%q) = (%q, %v), want (%q, true)", path, got, ok, want)
		}
	}
}

func TestFromPathUnsupported(t *testing.T) {
	if _, ok := FromPath("README.md"); ok {
		t.Fatal("expected markdown to be unsupported")
	}
	if _, ok := FromPath("noextension"); ok {
		t.Fatal("expected extensionless path to be unsupported")
	}
}

func TestSupportedHasTenLanguages(t *testing.T) {
	if len(Supported()) != 10 {
		t.Fatalf("expected 10 supported languages, got %d", len(Supported()))
	}
}
