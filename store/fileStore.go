package store

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// StoredFile describes an evidence file persisted by a FileStore.
type StoredFile struct {
	URL          string `json:"url"`
	ContentType  string `json:"content_type"`
	EvidenceType string `json:"evidence_type"`
	Size         int64  `json:"size"`
	path         string
}

// LocalFileStore writes evidence uploads below a root directory and serves
// them from a URL prefix.
type LocalFileStore struct {
	root      string
	urlPrefix string
}

func NewLocalFileStore(root, urlPrefix string) (*LocalFileStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload dir: %w", err)
	}
	return &LocalFileStore{root: root, urlPrefix: strings.TrimRight(urlPrefix, "/")}, nil
}

// Root is the directory uploads are written to.
func (s *LocalFileStore) Root() string { return s.root }

// Save stores r under <root>/<owner>/<uuid><ext>. The extension and the
// evidence type come from sniffing the content, not from the client name.
func (s *LocalFileStore) Save(ctx context.Context, owner string, r io.Reader) (*StoredFile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	header := make([]byte, 3072)
	n, err := io.ReadFull(r, header)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	header = header[:n]
	mtype := mimetype.Detect(header)

	dir := filepath.Join(s.root, owner)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create evidence dir: %w", err)
	}
	name := uuid.NewString() + mtype.Extension()

	full := filepath.Join(dir, name)
	f, err := os.Create(full)
	if err != nil {
		return nil, fmt.Errorf("failed to create evidence file: %w", err)
	}

	size, err := io.Copy(f, io.MultiReader(bytes.NewReader(header), r))
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(full)
		return nil, fmt.Errorf("failed to write evidence file: %w", err)
	}

	return &StoredFile{
		URL:          path.Join(s.urlPrefix, owner, name),
		ContentType:  mtype.String(),
		EvidenceType: EvidenceTypeFor(mtype),
		Size:         size,
		path:         full,
	}, nil
}

// Remove deletes a file returned by Save. Removing a file that is already
// gone is not an error.
func (s *LocalFileStore) Remove(_ context.Context, f *StoredFile) error {
	if f == nil || f.path == "" {
		return nil
	}
	if err := os.Remove(f.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove evidence file: %w", err)
	}
	return nil
}

// EvidenceTypeFor buckets a detected MIME type into an evidence type.
func EvidenceTypeFor(m *mimetype.MIME) string {
	for cur := m; cur != nil; cur = cur.Parent() {
		switch {
		case strings.HasPrefix(cur.String(), "image/"):
			return "image"
		case strings.HasPrefix(cur.String(), "video/"):
			return "video"
		case strings.HasPrefix(cur.String(), "audio/"):
			return "audio"
		case cur.Is("application/pdf"), strings.HasPrefix(cur.String(), "text/"),
			cur.Is("application/msword"), cur.Is("application/vnd.openxmlformats-officedocument.wordprocessingml.document"):
			return "document"
		}
	}
	return "file"
}
