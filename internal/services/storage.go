package services

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

var ErrUploadNotFound = errors.New("upload not found")

// UploadStorage archives original resume uploads.
type UploadStorage interface {
	Save(ctx context.Context, originalFilename string, format Format, data []byte) (string, error)
	Load(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
	PurgeOlderThan(ctx context.Context, cutoff time.Time) (int, error)
}

type localStorage struct {
	uploadPath string
}

func NewLocalStorage(uploadPath string) (UploadStorage, error) {
	s := &localStorage{uploadPath: uploadPath}
	if err := s.ensureUploadDir(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *localStorage) ensureUploadDir() error {
	if err := os.MkdirAll(s.uploadPath, 0755); err != nil {
		return fmt.Errorf("failed to create upload directory: %w", err)
	}

	return nil
}

// Save implements UploadStorage.
func (s *localStorage) Save(_ context.Context, originalFilename string, format Format, data []byte) (string, error) {
	key := NewStorageKey(originalFilename, format)

	if err := os.WriteFile(s.filePath(key), data, 0644); err != nil {
		return "", fmt.Errorf("failed to save file: %w", err)
	}

	return key, nil
}

// Load implements UploadStorage.
func (s *localStorage) Load(_ context.Context, key string) ([]byte, error) {
	data, err := os.ReadFile(s.filePath(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrUploadNotFound
		}
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return data, nil
}

// Delete implements UploadStorage.
func (s *localStorage) Delete(_ context.Context, key string) error {
	if err := os.Remove(s.filePath(key)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

// PurgeOlderThan implements UploadStorage.
func (s *localStorage) PurgeOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	entries, err := os.ReadDir(s.uploadPath)
	if err != nil {
		return 0, fmt.Errorf("failed to list upload directory: %w", err)
	}

	removed := 0
	for _, entry := range entries {
		if ctx.Err() != nil {
			return removed, ctx.Err()
		}
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.Remove(s.filePath(entry.Name())); err != nil {
			return removed, fmt.Errorf("failed to delete file: %w", err)
		}
		removed++
	}

	return removed, nil
}

func (s *localStorage) filePath(key string) string {
	// Keys are generated by NewStorageKey; reject anything that would escape the directory.
	return filepath.Join(s.uploadPath, filepath.Base(key))
}

// NewStorageKey generates a unique object key that keeps the extension of the declared format.
func NewStorageKey(originalFilename string, format Format) string {
	ext := strings.ToLower(filepath.Ext(originalFilename))
	switch format {
	case FormatPDF:
		ext = ".pdf"
	case FormatDOCX:
		ext = ".docx"
	}
	return fmt.Sprintf("resume_%s%s", uuid.New().String(), ext)
}

// ContentTypeForKey returns the MIME type of an archived upload from its key.
func ContentTypeForKey(key string) string {
	switch strings.ToLower(filepath.Ext(key)) {
	case ".pdf":
		return MIMETypePDF
	case ".docx":
		return MIMETypeDOCX
	default:
		return "application/octet-stream"
	}
}
