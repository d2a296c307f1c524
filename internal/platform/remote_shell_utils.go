package platform

import (
	"strings"
)

// shellEscape wraps s in single quotes for the remote shell, closing and
// reopening the quote around any embedded single quote.
func shellEscape(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "'\\''") + "'"
}

// validatePath accepts absolute sysfs/procfs paths built from alphanumerics
// and "-_/.:" only. Directory traversal is rejected. The colon is needed for
// powercap zones such as "intel-rapl:0".
func validatePath(path string) bool {
	if path == "" || !strings.HasPrefix(path, "/") {
		return false
	}
	if strings.Contains(path, "..") {
		return false
	}
	for _, c := range path {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		case c == '-', c == '_', c == '/', c == '.', c == ':':
		default:
			return false
		}
	}
	return true
}
