package media

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"labvault.app/internal/ids"
	"labvault.app/internal/reports"
)

// Local stores uploaded files on disk. Used when no media host is
// configured; URLs are relative to the server's own origin.
type Local struct {
	dir     string
	urlBase string
}

// NewLocal creates the storage directory if needed.
func NewLocal(dir, urlBase string) (*Local, error) {
	if dir == "" {
		return nil, fmt.Errorf("media: directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("media: create dir: %w", err)
	}
	return &Local{dir: dir, urlBase: strings.TrimRight(urlBase, "/")}, nil
}

func (l *Local) Upload(ctx context.Context, data []byte, originalName, fileType string) (reports.MediaObject, error) {
	name := ids.New() + "." + fileType
	if err := os.WriteFile(filepath.Join(l.dir, name), data, 0o644); err != nil {
		return reports.MediaObject{}, fmt.Errorf("media: write file: %w", err)
	}
	return reports.MediaObject{
		URL:      l.urlBase + "/" + name,
		PublicID: name,
	}, nil
}

func (l *Local) Delete(ctx context.Context, publicID, fileType string) error {
	// publicID is a bare generated file name; refuse anything that could
	// escape the storage directory.
	if publicID == "" || strings.ContainsAny(publicID, "/\\") {
		return fmt.Errorf("media: invalid public id %q", publicID)
	}
	err := os.Remove(filepath.Join(l.dir, publicID))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
