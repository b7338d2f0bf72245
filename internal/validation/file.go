package validation

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path"
	"path/filepath"
	"strings"
)

// FileConstraints defines validation rules for file uploads
type FileConstraints struct {
	AllowedMimeTypes  map[string]bool
	AllowedExtensions map[string]bool
	MaxSize           int64
}

var (
	// ImageConstraints defines validation rules for image uploads
	ImageConstraints = FileConstraints{
		AllowedMimeTypes: map[string]bool{
			"image/jpeg": true,
			"image/png":  true,
			"image/webp": true,
			"image/gif":  true,
		},
		AllowedExtensions: map[string]bool{
			".jpg":  true,
			".jpeg": true,
			".png":  true,
			".webp": true,
			".gif":  true,
		},
		MaxSize: 8 << 20, // 8MB
	}
)

// ValidateFile accepts header when it satisfies at least one constraint set.
// The error of the last set tried is returned.
func ValidateFile(header *multipart.FileHeader, constraints ...FileConstraints) error {
	if len(constraints) == 0 {
		return errors.New("no file constraints provided")
	}

	var err error
	for _, c := range constraints {
		if err = c.check(header); err == nil {
			return nil
		}
	}
	return err
}

func (c FileConstraints) check(header *multipart.FileHeader) error {
	if header.Size > c.MaxSize {
		return fmt.Errorf("file too large: maximum size is %d MB", c.MaxSize/(1<<20))
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !c.AllowedExtensions[ext] {
		return fmt.Errorf("invalid file extension: %s", ext)
	}

	detected, err := sniff(header)
	if err != nil {
		return err
	}
	if !c.AllowedMimeTypes[detected] {
		return fmt.Errorf("invalid file type (detected: %s)", detected)
	}
	return nil
}

// sniff reports the content type from the first 512 bytes, ignoring the client's header.
func sniff(header *multipart.FileHeader) (string, error) {
	f, err := header.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer func() { _ = f.Close() }()

	head := make([]byte, 512)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read file: %w", err)
	}
	return http.DetectContentType(head[:n]), nil
}

// ValidateImageKey checks that an uploaded storage key names an allowed image
func ValidateImageKey(key string) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	ext := strings.ToLower(path.Ext(key))
	if !ImageConstraints.AllowedExtensions[ext] {
		return errors.New("Image must be a png, jpeg, webp or gif file.")
	}
	return nil
}

// ValidateKey rejects empty keys and keys escaping the bucket prefix
func ValidateKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return errors.New("File key is required.")
	}
	if strings.Contains(key, "..") || strings.HasPrefix(key, "/") || strings.Contains(key, "\\") {
		return errors.New("Invalid file key.")
	}
	return nil
}

// ValidateFilename rejects names that could address another path
func ValidateFilename(name string) error {
	if strings.TrimSpace(name) == "" {
		return errors.New("Filename is required.")
	}
	if strings.Contains(name, "..") || strings.ContainsAny(name, "/\\") {
		return errors.New("Invalid filename.")
	}
	return nil
}
