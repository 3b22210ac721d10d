package source

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Workspace is a private temporary directory for one invocation.
type Workspace struct {
	dir  string
	once sync.Once
	err  error
}

// NewWorkspace creates a temporary directory under parent, or under the
// system temp dir when parent is empty.
func NewWorkspace(parent string) (*Workspace, error) {
	dir, err := os.MkdirTemp(parent, "speakerkit-")
	if err != nil {
		return nil, fmt.Errorf("create workspace: %w", err)
	}
	return &Workspace{dir: dir}, nil
}

// Dir returns the workspace directory.
func (w *Workspace) Dir() string { return w.dir }

// Path returns the path of name inside the workspace.
func (w *Workspace) Path(name string) string {
	return filepath.Join(w.dir, filepath.Base(name))
}

// Close removes the directory and everything in it. It is safe to call
// more than once.
func (w *Workspace) Close() error {
	w.once.Do(func() {
		w.err = os.RemoveAll(w.dir)
	})
	return w.err
}
