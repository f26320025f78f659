// Package storage persists uploaded payment receipts and hands back the URL
// the order record should carry. The interface keeps the HTTP layer unaware
// of where bytes live; the local-disk implementation suits single-instance
// deployments, with object stores slotting in behind the same contract.
package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ReceiptStore saves one uploaded receipt and returns its public URL.
type ReceiptStore interface {
	Save(ctx context.Context, orderID uint, filename string, r io.Reader) (string, error)
}

// allowedExtensions limits uploads to common image formats plus PDF.
var allowedExtensions = map[string]struct{}{
	".jpg": {}, ".jpeg": {}, ".png": {}, ".webp": {}, ".pdf": {},
}

// ErrUnsupportedType is returned for uploads outside the allowed formats.
var ErrUnsupportedType = fmt.Errorf("unsupported receipt file type")

// DiskStore writes receipts under a local directory and serves them from a
// configured base URL.
type DiskStore struct {
	dir     string
	baseURL string
}

// NewDiskStore ensures the upload directory exists. baseURL is prefixed onto
// stored filenames to build the returned URL.
func NewDiskStore(dir, baseURL string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &DiskStore{dir: dir, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// Save implements ReceiptStore. The stored name is randomized; the original
// filename only contributes its extension.
func (s *DiskStore) Save(_ context.Context, orderID uint, filename string, r io.Reader) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if _, ok := allowedExtensions[ext]; !ok {
		return "", ErrUnsupportedType
	}

	name := fmt.Sprintf("receipt_%d_%s%s", orderID, uuid.NewString(), ext)
	path := filepath.Join(s.dir, name)

	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		os.Remove(path)
		return "", err
	}
	return s.baseURL + "/" + name, nil
}
