package localdir

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/visionops/camsight/internal/core/domain"
)

var contentTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
}

// Source serves the image corpus from a directory on disk, for development
// and air-gapped deployments. Locators are base64 data URLs so the vision
// API can consume them without any reachable file server.
type Source struct {
	dir string
}

func New(dir string) (*Source, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("localdir: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("localdir: %s is not a directory", dir)
	}
	return &Source{dir: dir}, nil
}

func (s *Source) List(ctx context.Context) ([]domain.ImageRef, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("localdir: read %s: %w", s.dir, err)
	}

	var refs []domain.ImageRef
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if _, ok := contentTypes[strings.ToLower(filepath.Ext(name))]; !ok {
			continue
		}
		refs = append(refs, domain.ImageRef{ID: name, DisplayName: name})
	}
	sort.Slice(refs, func(i, j int) bool { return refs[i].ID < refs[j].ID })
	return refs, nil
}

func (s *Source) Resolve(ctx context.Context, id string) (string, error) {
	data, err := os.ReadFile(s.path(id))
	if err != nil {
		return "", fmt.Errorf("localdir: read %s: %w", id, err)
	}
	contentType := contentTypes[strings.ToLower(filepath.Ext(id))]
	if contentType == "" {
		contentType = "image/jpeg"
	}
	return fmt.Sprintf("data:%s;base64,%s", contentType, base64.StdEncoding.EncodeToString(data)), nil
}

func (s *Source) Open(ctx context.Context, id string) (io.ReadCloser, error) {
	f, err := os.Open(s.path(id))
	if err != nil {
		return nil, fmt.Errorf("localdir: open %s: %w", id, err)
	}
	return f, nil
}

// path confines ids to the corpus directory; a traversal attempt resolves to
// a non-existent flattened name instead of escaping.
func (s *Source) path(id string) string {
	return filepath.Join(s.dir, filepath.Base(id))
}
