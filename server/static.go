package server

import (
	"os"
	"path/filepath"
	"strings"
)

// isRegularFile reports whether path exists and is not a directory
func isRegularFile(filePath string) bool {
	info, err := os.Stat(filePath)
	return err == nil && !info.IsDir()
}

// readFileContent reads entire file content
func readFileContent(filePath string) ([]byte, bool) {
	content, err := os.ReadFile(filePath)
	if err != nil {
		return nil, false
	}
	return content, true
}

// writeFileContent replaces the file's content, keeping its permissions
func writeFileContent(filePath string, content []byte) error {
	mode := os.FileMode(0o644)
	if info, err := os.Stat(filePath); err == nil {
		mode = info.Mode().Perm()
	}
	return os.WriteFile(filePath, content, mode)
}

// resolveStaticPath joins a request path onto root. It reports false when
// the result would fall outside root.
func resolveStaticPath(root, requestPath string) (string, bool) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", false
	}
	absPath, err := filepath.Abs(filepath.Join(root, filepath.FromSlash(requestPath)))
	if err != nil {
		return "", false
	}
	if absPath != absRoot && !strings.HasPrefix(absPath, absRoot+string(filepath.Separator)) {
		return "", false
	}
	return absPath, true
}
