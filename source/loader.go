package source

import (
	"context"

	"github.com/kbukum/speakerkit/audio"
	"github.com/kbukum/speakerkit/logger"
)

// Loader runs fetch, convert and decode inside a fresh Workspace.
type Loader struct {
	Fetcher   Fetcher
	Converter Converter
	// TempDir is the parent for workspaces. Empty uses the system default.
	TempDir string
}

// Load returns the canonical buffer for location. The workspace is
// removed before Load returns, on success and on failure.
func (l *Loader) Load(ctx context.Context, location string, log *logger.Logger) (*audio.Buffer, error) {
	log = logger.OrNop(log).WithComponent("source")

	ws, err := NewWorkspace(l.TempDir)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := ws.Close(); cerr != nil {
			log.Warn("workspace cleanup failed", logger.ErrorFields("cleanup", cerr))
		}
	}()

	input := ws.Path("input")
	if err := l.Fetcher.Fetch(ctx, location, input); err != nil {
		return nil, err
	}
	wav := ws.Path("audio.wav")
	if err := l.Converter.Convert(ctx, input, wav); err != nil {
		return nil, err
	}
	buf, err := audio.ReadFile(wav)
	if err != nil {
		return nil, err
	}
	log.Debug("audio loaded", logger.Fields("samples", buf.Len(), "seconds", buf.Seconds()))
	return buf, nil
}
