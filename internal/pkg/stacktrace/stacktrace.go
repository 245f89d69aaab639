// Package stacktrace shortens goroutine stack dumps for logging.
package stacktrace

import "strings"

const internalDir = "/internal/"

// InternalPaths returns the "internal/<pkg>/<file>.go:<line>" location of
// every frame of stack that lives under an internal directory, outermost
// last.
func InternalPaths(stack []byte) []string {
	var paths []string
	for line := range strings.Lines(string(stack)) {
		loc, _, _ := strings.Cut(strings.TrimSpace(line), " ")
		if !strings.Contains(loc, ".go:") {
			continue
		}
		if i := strings.Index(loc, internalDir); i >= 0 {
			paths = append(paths, loc[i+1:])
		}
	}
	return paths
}
