package ignore

import "path/filepath"

// DefaultPatterns returns the built-in exclusion list applied ahead of
// any project .gitignore: version control metadata, dependency and
// build directories, IDE artifacts, common binary and media
// extensions, secret files, and the tool's own index directory.
func DefaultPatterns() []string {
	return []string{
		// Version control
		".git/",
		".gitignore",
		".gitattributes",
		// Dependencies
		"node_modules/",
		"venv/",
		"env/",
		".venv/",
		"__pycache__/",
		"*.pyc",
		"*.pyo",
		"*.pyd",
		".Python",
		"vendor/",
		// Build artifacts
		"dist/",
		"build/",
		"*.egg-info/",
		"target/",
		"*.o",
		"*.so",
		"*.dylib",
		"*.dll",
		// IDE
		".vscode/",
		".idea/",
		"*.swp",
		"*.swo",
		".DS_Store",
		// Binary files
		"*.png",
		"*.jpg",
		"*.jpeg",
		"*.gif",
		"*.ico",
		"*.pdf",
		"*.zip",
		"*.tar",
		"*.gz",
		"*.mp4",
		"*.mp3",
		// Secrets
		".env",
		".env.local",
		"*.key",
		"*.pem",
		"credentials.json",
		// Argos
		".argos/",
	}
}

// BuildSpec compiles the effective exclusion set for a traversal root:
// built-in defaults, then any .gitignore at the root, then caller
// extras, deduplicated with order preserved.
func BuildSpec(root string, extras []string) *Spec {
	return New(MergePatterns(
		DefaultPatterns(),
		LoadGitignore(filepath.Join(root, ".gitignore")),
		extras,
	))
}
