package buildpipeline

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// progressRootDir picks the directory that display names are made relative to.
func progressRootDir(req *CompileRequest) string {
	if req == nil {
		return ""
	}
	if req.BaseDir != "" {
		return req.BaseDir
	}
	if len(req.Paths) == 1 {
		return req.Paths[0]
	}
	return ""
}

// displayName shortens file to a slash-separated path relative to base. Files outside base
// keep their cleaned path.
func displayName(file, base string) string {
	path := filepath.Clean(file)
	if base != "" {
		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}
		if rel, err := filepath.Rel(base, path); err == nil && rel != "." && !strings.HasPrefix(rel, "..") {
			path = rel
		}
	}
	return filepath.ToSlash(path)
}

// normalizeProgressFiles maps every file to its display name and returns the sorted, deduplicated
// names along with the mapping.
func normalizeProgressFiles(files []string, baseDir string) ([]string, map[string]string) {
	normalized := make([]string, 0, len(files))
	names := make(map[string]string, len(files))
	seen := make(map[string]struct{}, len(files))

	base := strings.TrimSpace(baseDir)
	if base != "" {
		if abs, err := filepath.Abs(base); err == nil {
			base = abs
		}
		// A single script target shows its file name.
		if info, err := os.Stat(base); err == nil && !info.IsDir() {
			base = filepath.Dir(base)
		}
	}

	for _, file := range files {
		if file == "" {
			continue
		}
		name := displayName(file, base)
		names[file] = name
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		normalized = append(normalized, name)
	}
	sort.Strings(normalized)
	return normalized, names
}
