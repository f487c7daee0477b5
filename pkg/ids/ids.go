// Package ids derives the two stable identifiers the control plane hands
// out for projects and workspaces: ProjectId from the canonicalized
// repository path, and WorkspaceName from the worktree directory name.
package ids

import (
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
)

var nonIdentChar = regexp.MustCompile(`[^a-z0-9-]+`)

// ProjectId returns "<sanitized-basename>-<8 lowercase hex>", the 8 hex
// chars being the leading bytes of SHA-256 over the canonicalized absolute
// path. Equal canonical paths always yield equal IDs.
func ProjectId(path string) string {
	canonical := Canonicalize(path)
	sum := sha256.Sum256([]byte(canonical))
	suffix := hex.EncodeToString(sum[:4])

	base := sanitizeBasename(filepath.Base(canonical))
	if base == "" {
		base = "project"
	}
	return base + "-" + suffix
}

// WorkspaceName is the basename of the worktree directory.
func WorkspaceName(workspacePath string) string {
	return filepath.Base(filepath.Clean(workspacePath))
}

// Canonicalize normalizes path to POSIX separators, collapses repeated
// slashes, and (on case-insensitive hosts) lowercases it, so that
// equivalent paths always hash identically.
func Canonicalize(path string) string {
	p := filepath.ToSlash(path)
	for strings.Contains(p, "//") {
		p = strings.ReplaceAll(p, "//", "/")
	}
	if len(p) > 1 && strings.HasSuffix(p, "/") {
		p = strings.TrimSuffix(p, "/")
	}
	if caseInsensitiveHost() {
		p = strings.ToLower(p)
	}
	return p
}

func caseInsensitiveHost() bool {
	return runtime.GOOS == "windows" || runtime.GOOS == "darwin"
}

func sanitizeBasename(name string) string {
	lowered := strings.ToLower(name)
	sanitized := nonIdentChar.ReplaceAllString(lowered, "-")
	sanitized = strings.Trim(sanitized, "-")
	return sanitized
}
