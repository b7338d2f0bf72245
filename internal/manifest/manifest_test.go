package manifest

import (
	"archive/zip"
	"bytes"
	"errors"
	"testing"
)

func archive(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestRead(t *testing.T) {
	tests := []struct {
		name    string
		files   map[string]string
		want    Manifest
		wantErr bool
	}{
		{
			name: "root manifest with string dependencies",
			files: map[string]string{
				"manifest.json": `{"id":"BetterRope","version":"1.2.0","type":"Mod","dependencies":"RedLoader,SUI"}`,
				"BetterRope.dll": "binary",
			},
			want: Manifest{ID: "BetterRope", Version: "1.2.0", Type: "Mod", Dependencies: "RedLoader,SUI"},
		},
		{
			name: "nested manifest with list dependencies",
			files: map[string]string{
				"BetterRope/manifest.json":        `{"id":"BetterRope","version":"1.0.0","type":"Library","dependencies":["A","B"]}`,
				"BetterRope/assets/manifest.json": `{"id":"Other"}`,
			},
			want: Manifest{ID: "BetterRope", Version: "1.0.0", Type: "Library", Dependencies: "A,B"},
		},
		{
			name:    "missing manifest",
			files:   map[string]string{"readme.txt": "hi"},
			wantErr: true,
		},
		{
			name:    "invalid json",
			files:   map[string]string{"manifest.json": `{"id":`},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Read(archive(t, tt.files))
			if tt.wantErr {
				if !errors.Is(err, ErrManifest) {
					t.Fatalf("Read() error = %v, want ErrManifest", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Read() error = %v", err)
			}
			if *got != tt.want {
				t.Errorf("Read() = %+v, want %+v", *got, tt.want)
			}
		})
	}
}

func TestReadNotAZip(t *testing.T) {
	if _, err := Read([]byte("plain text")); !errors.Is(err, ErrManifest) {
		t.Errorf("Read() error = %v, want ErrManifest", err)
	}
}

func TestDependenciesList(t *testing.T) {
	got := Dependencies(" RedLoader, ,SUI ").List()
	if len(got) != 2 || got[0] != "RedLoader" || got[1] != "SUI" {
		t.Errorf("List() = %v", got)
	}
	if Dependencies("").List() != nil {
		t.Error("empty dependencies should list nothing")
	}
}
