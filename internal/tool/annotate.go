package tool

import "os"

// The Gemini CLI pulls files into its context through @ references inside the
// prompt text: "@path" for a single file, "@path/" for a whole directory tree.

// AnnotateFile returns the file reference token for path.
func AnnotateFile(path string) string { return "@" + path }

// AnnotateDir returns the directory reference token for path. The trailing
// separator tells the CLI to include the directory recursively.
func AnnotateDir(path string) string { return "@" + path + "/" }

// Annotate probes path and picks the matching token style. The probe runs at
// call time and is never cached. Paths that do not exist (or cannot be
// stat-ed) are referenced as files and left for the CLI to report.
func Annotate(path string) string {
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return AnnotateDir(path)
	}
	return AnnotateFile(path)
}

// pathStyle selects how a handler annotates its path list.
type pathStyle int

const (
	pathStyleNone  pathStyle = iota // no path argument
	pathStyleFiles                  // every entry referenced as a file
	pathStyleDirs                   // every entry referenced as a directory
	pathStyleProbe                  // stat each entry, directories get the trailing separator
)

func annotateAll(paths []string, style pathStyle) []string {
	tokens := make([]string, 0, len(paths))
	for _, p := range paths {
		switch style {
		case pathStyleFiles:
			tokens = append(tokens, AnnotateFile(p))
		case pathStyleDirs:
			tokens = append(tokens, AnnotateDir(p))
		case pathStyleProbe:
			tokens = append(tokens, Annotate(p))
		}
	}
	return tokens
}
