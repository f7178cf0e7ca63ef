// Package wordlist provides the moderation word-list sources.
package wordlist

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
)

const (
	DefaultContainer = "ngwordcontainer"
	DefaultBlob      = "ngwords.txt"

	maxListBytes = 1 << 20
)

// ErrNotConfigured is returned when a source has no connection settings.
var ErrNotConfigured = errors.New("word list source is not configured")

// BlobConfig configures the Azure Blob Storage source.
type BlobConfig struct {
	ConnectionString string
	Container        string
	Blob             string
}

// BlobSource downloads the word list from Azure Blob Storage on every Load.
type BlobSource struct {
	client    *azblob.Client
	container string
	blob      string
}

// NewBlobSource creates a blob source. A missing connection string is not an
// error here: Load reports ErrNotConfigured so the moderation fail policy applies.
func NewBlobSource(cfg BlobConfig) (*BlobSource, error) {
	s := &BlobSource{
		container: cfg.Container,
		blob:      cfg.Blob,
	}
	if s.container == "" {
		s.container = DefaultContainer
	}
	if s.blob == "" {
		s.blob = DefaultBlob
	}

	if cfg.ConnectionString == "" {
		return s, nil
	}

	client, err := azblob.NewClientFromConnectionString(cfg.ConnectionString, nil)
	if err != nil {
		return nil, fmt.Errorf("create blob client: %w", err)
	}
	s.client = client

	return s, nil
}

// Name returns "blob".
func (s *BlobSource) Name() string {
	return "blob"
}

// Load downloads the blob and splits it into lines.
func (s *BlobSource) Load(ctx context.Context) ([]string, error) {
	if s.client == nil {
		return nil, ErrNotConfigured
	}

	resp, err := s.client.DownloadStream(ctx, s.container, s.blob, nil)
	if err != nil {
		return nil, fmt.Errorf("download %s/%s: %w", s.container, s.blob, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxListBytes))
	if err != nil {
		return nil, fmt.Errorf("read %s/%s: %w", s.container, s.blob, err)
	}

	return splitLines(string(data)), nil
}

func splitLines(doc string) []string {
	doc = strings.TrimPrefix(doc, "\ufeff")
	return strings.Split(doc, "\n")
}
