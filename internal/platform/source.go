package platform

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// fileSource reads procfs and sysfs content from a local or remote Linux host.
// Paths are always absolute host paths such as "/proc/stat".
type fileSource interface {
	ReadFile(path string) (string, error)
	ReadDir(path string) ([]string, error)
}

// localSource reads files from the local filesystem. A non-empty root is
// prepended to every path, which lets tests serve a fake /proc and /sys tree.
type localSource struct {
	root string
}

func newLocalSource(root string) *localSource {
	return &localSource{root: root}
}

func (s *localSource) resolve(path string) string {
	if s.root == "" {
		return path
	}
	return filepath.Join(s.root, path)
}

func (s *localSource) ReadFile(path string) (string, error) {
	data, err := os.ReadFile(s.resolve(path))
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (s *localSource) ReadDir(path string) ([]string, error) {
	entries, err := os.ReadDir(s.resolve(path))
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names, nil
}

// commandRunner defines the interface for running remote commands.
// This allows testing without an actual SSH connection.
type commandRunner interface {
	runCommand(cmd string) (string, error)
}

// remoteSource reads files on a remote host through shell commands.
type remoteSource struct {
	runner commandRunner
}

func newRemoteSource(runner commandRunner) *remoteSource {
	return &remoteSource{runner: runner}
}

func (s *remoteSource) ReadFile(path string) (string, error) {
	if !validatePath(path) {
		return "", fmt.Errorf("refusing unsafe path %q", path)
	}
	return s.runner.runCommand("cat " + shellEscape(path))
}

func (s *remoteSource) ReadDir(path string) ([]string, error) {
	if !validatePath(path) {
		return nil, fmt.Errorf("refusing unsafe path %q", path)
	}
	out, err := s.runner.runCommand("ls -1 " + shellEscape(path))
	if err != nil {
		return nil, err
	}
	var names []string
	for _, line := range strings.Split(out, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			names = append(names, line)
		}
	}
	sort.Strings(names)
	return names, nil
}

// readTrimmed reads a single-value sysfs file.
func readTrimmed(src fileSource, path string) (string, bool) {
	data, err := src.ReadFile(path)
	if err != nil {
		return "", false
	}
	return strings.TrimSpace(data), true
}
