// Package manifest reads the manifest.json embedded in an uploaded mod archive.
package manifest

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
)

const fileName = "manifest.json"

var ErrManifest = errors.New("manifest.json is missing or invalid")

type Manifest struct {
	ID           string       `json:"id"`
	Version      string       `json:"version"`
	Type         string       `json:"type"`
	Dependencies Dependencies `json:"dependencies"`
	Description  string       `json:"description"`
}

// Dependencies is stored comma-joined; the manifest may carry a string or a list.
type Dependencies string

func (d *Dependencies) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*d = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*d = Dependencies(s)
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return fmt.Errorf("dependencies must be a string or a list of strings")
	}
	*d = Dependencies(strings.Join(list, ","))
	return nil
}

// List splits the comma-joined dependencies, dropping empty entries.
func (d Dependencies) List() []string {
	var out []string
	for _, dep := range strings.Split(string(d), ",") {
		dep = strings.TrimSpace(dep)
		if dep != "" {
			out = append(out, dep)
		}
	}
	return out
}

// Read finds manifest.json in the zip archive and decodes it. The shallowest entry wins
// when the archive nests its content in a folder.
func Read(data []byte) (*Manifest, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrManifest, err)
	}

	var entry *zip.File
	depth := -1
	for _, f := range zr.File {
		if f.FileInfo().IsDir() || !strings.EqualFold(path.Base(f.Name), fileName) {
			continue
		}
		d := strings.Count(strings.Trim(f.Name, "/"), "/")
		if entry == nil || d < depth {
			entry, depth = f, d
		}
	}
	if entry == nil {
		return nil, fmt.Errorf("%w: no %s in archive", ErrManifest, fileName)
	}

	rc, err := entry.Open()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrManifest, err)
	}
	defer rc.Close()

	raw, err := io.ReadAll(io.LimitReader(rc, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrManifest, err)
	}

	var m Manifest
	err = json.Unmarshal(bytes.TrimPrefix(raw, []byte("\xef\xbb\xbf")), &m)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrManifest, err)
	}
	return &m, nil
}
