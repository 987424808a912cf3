// Package attach selects files to attach to a task.
package attach

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// Picker is the file-selection collaborator. Each call yields zero or one
// file reference; ok is false when nothing was chosen.
type Picker interface {
	Pick(ctx context.Context) (ref string, ok bool, err error)
}

// PathPicker hands out a fixed queue of paths, one per Pick. The CLI uses it
// for repeated --file flags.
type PathPicker struct {
	queue []string
}

var _ Picker = (*PathPicker)(nil)

// NewPathPicker creates a picker over paths.
func NewPathPicker(paths ...string) *PathPicker {
	return &PathPicker{queue: append([]string(nil), paths...)}
}

// Pick implements Picker.
func (p *PathPicker) Pick(ctx context.Context) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	if len(p.queue) == 0 {
		return "", false, nil
	}
	next := p.queue[0]
	p.queue = p.queue[1:]

	ref, err := Resolve(next)
	if err != nil {
		return "", false, err
	}
	return ref, true, nil
}

// Remaining returns how many paths have not been picked yet.
func (p *PathPicker) Remaining() int {
	return len(p.queue)
}

// Resolve turns path into the absolute reference stored on a task. It must
// name an existing regular file.
func Resolve(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", path, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("stat %s: %w", abs, err)
	}
	if !info.Mode().IsRegular() {
		return "", fmt.Errorf("%s is not a regular file", abs)
	}
	return abs, nil
}
