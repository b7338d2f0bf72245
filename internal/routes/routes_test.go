package routes

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sotfmods/api/internal/app"
	"github.com/sotfmods/api/internal/chat"
	"github.com/sotfmods/api/internal/config"
	"github.com/sotfmods/api/internal/db/dbtest"
	"github.com/sotfmods/api/internal/storage"
)

type testServer struct {
	app     *app.App
	store   *storage.Memory
	handler http.Handler
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	cfg := &config.Config{
		AppName:                  "SOTF-Mods",
		AppEnv:                   "development",
		AppURL:                   "http://localhost:3000",
		JWTSecret:                "test-secret",
		SessionExpiry:            time.Hour,
		TokenPasswordResetExpiry: time.Hour,
		EmailFrom:                "noreply@sotf-mods.test",
		S3PresignUploadExpiry:    time.Hour,
		ModFileSizeLimit:         1 << 20,
		TrustedModFileSizeLimit:  4 << 20,
		BuildFileSizeLimit:       1 << 20,
		FeaturedCacheTTL:         time.Minute,
	}
	store := storage.NewMemory("https://cdn.test")
	a := app.Assemble(cfg, dbtest.New(t), store, chat.NewOpenAI("", ""))

	return &testServer{app: a, store: store, handler: SetupRoutes(a)}
}

type response struct {
	Status bool            `json:"status"`
	Data   json.RawMessage `json:"data"`
	Code   string          `json:"code"`
	Error  string          `json:"error"`
}

func (s *testServer) do(t *testing.T, method, path, token, body string) (*httptest.ResponseRecorder, response) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.RemoteAddr = "192.0.2.10:4321"
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	var resp response
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("%s %s: decode body %q: %v", method, path, rec.Body.String(), err)
		}
	}
	return rec, resp
}

func (s *testServer) register(t *testing.T, name, email string) string {
	t.Helper()
	rec, resp := s.do(t, http.MethodPost, "/api/auth/register", "",
		`{"name":"`+name+`","email":"`+email+`","password":"kelvinrocks1"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("register %s: status %d body %s", email, rec.Code, rec.Body.String())
	}
	var session struct {
		Token string `json:"token"`
		Slug  string `json:"slug"`
	}
	if err := json.Unmarshal(resp.Data, &session); err != nil || session.Token == "" {
		t.Fatalf("register %s: no token in %s", email, resp.Data)
	}
	return session.Token
}

// presign asks for an upload URL and returns the key the file must be stored under.
func (s *testServer) presign(t *testing.T, token, filename string) string {
	t.Helper()
	rec, resp := s.do(t, http.MethodPost, "/api/files/presigned-url", token, `{"filename":"`+filename+`"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("presign %s: status %d body %s", filename, rec.Code, rec.Body.String())
	}
	var upload struct {
		FileKey string `json:"fileKey"`
	}
	if err := json.Unmarshal(resp.Data, &upload); err != nil || upload.FileKey == "" {
		t.Fatalf("presign %s: no key in %s", filename, resp.Data)
	}
	return upload.FileKey
}

func modArchive(t *testing.T, manifest string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("BetterKelvin/manifest.json")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.Write([]byte(manifest)); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestAuthFlow(t *testing.T) {
	srv := newTestServer(t)
	token := srv.register(t, "Hazel Puffton", "hazel@example.com")

	rec, resp := srv.do(t, http.MethodGet, "/api/auth/check", token, "")
	if rec.Code != http.StatusOK || !resp.Status {
		t.Fatalf("check: status %d body %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(string(resp.Data), `"email":"hazel@example.com"`) {
		t.Errorf("check data = %s", resp.Data)
	}

	rec, resp = srv.do(t, http.MethodGet, "/api/auth/check", "", "")
	if rec.Code != http.StatusUnauthorized || resp.Code != "UNAUTHORIZED_ERROR" {
		t.Errorf("anonymous check: status %d code %q", rec.Code, resp.Code)
	}

	rec, resp = srv.do(t, http.MethodPost, "/api/auth/login", "", `{"email":`)
	if rec.Code != http.StatusBadRequest || resp.Code != "VALIDATION_ERROR" {
		t.Errorf("bad login body: status %d code %q", rec.Code, resp.Code)
	}

	rec, _ = srv.do(t, http.MethodPost, "/api/auth/logout", token, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("logout: status %d body %s", rec.Code, rec.Body.String())
	}
	rec, _ = srv.do(t, http.MethodGet, "/api/auth/check", token, "")
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("check after logout: status %d, want 401", rec.Code)
	}
}

func TestErrorMapping(t *testing.T) {
	srv := newTestServer(t)
	token := srv.register(t, "Bob Smith", "bob@example.com")

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		body   string
		status int
		code   string
	}{
		{"publish needs login", http.MethodPost, "/api/mods/publish", "", `{}`, http.StatusUnauthorized, "UNAUTHORIZED_ERROR"},
		{"unknown mod", http.MethodGet, "/api/mods/NoSuchMod", "", "", http.StatusNotFound, "NOT_FOUND"},
		{"unknown route", http.MethodGet, "/api/nothing/here", "", "", http.StatusNotFound, "NOT_FOUND"},
		{"approve hidden from users", http.MethodGet, "/api/mods/NoSuchMod/approve", token, "", http.StatusNotFound, "NOT_FOUND"},
		{"chat ids hidden from users", http.MethodGet, "/api/kelvin-gpt/chat/ids", token, "", http.StatusNotFound, "NOT_FOUND"},
		{"empty publish", http.MethodPost, "/api/mods/publish", token, `{}`, http.StatusBadRequest, "VALIDATION_ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, resp := srv.do(t, tt.method, tt.path, tt.token, tt.body)
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.status, rec.Body.String())
			}
			if resp.Status || resp.Code != tt.code {
				t.Errorf("status=%v code=%q, want code %q", resp.Status, resp.Code, tt.code)
			}
		})
	}
}

func TestPublishAndDownload(t *testing.T) {
	srv := newTestServer(t)
	ctx := context.Background()
	token := srv.register(t, "Hazel Puffton", "hazel@example.com")

	zipData := modArchive(t, `{"id":"BetterKelvin","version":"1.0.0","type":"Mod","dependencies":["CoreLib"]}`)
	modKey := srv.presign(t, token, "better-kelvin.zip")
	if err := srv.store.Save(ctx, modKey, bytes.NewReader(zipData), ""); err != nil {
		t.Fatal(err)
	}
	thumbKey := srv.presign(t, token, "thumb.png")
	if err := srv.store.Save(ctx, thumbKey, strings.NewReader("png"), ""); err != nil {
		t.Fatal(err)
	}

	body := `{
		"name": "Better Kelvin",
		"shortDescription": "Makes Kelvin a lot smarter",
		"description": "Kelvin learns new tricks and **listens** better.",
		"modFileKey": "` + modKey + `",
		"thumbnailKey": "` + thumbKey + `",
		"imageKeys": []
	}`
	rec, resp := srv.do(t, http.MethodPost, "/api/mods/publish", token, body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("publish: status %d body %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(string(resp.Data), `"mod_id":"BetterKelvin"`) {
		t.Errorf("publish data = %s", resp.Data)
	}

	rec, resp = srv.do(t, http.MethodGet, "/api/mods/BetterKelvin", "", "")
	if rec.Code != http.StatusOK || !strings.Contains(string(resp.Data), `"description_html"`) {
		t.Fatalf("details: status %d body %s", rec.Code, rec.Body.String())
	}

	rec, resp = srv.do(t, http.MethodGet, "/api/users/hazel-puffton/mods/better-kelvin", "", "")
	if rec.Code != http.StatusOK || !strings.Contains(string(resp.Data), `"mod_id":"BetterKelvin"`) {
		t.Errorf("details by slug: status %d body %s", rec.Code, rec.Body.String())
	}

	rec, _ = srv.do(t, http.MethodGet, "/api/mods/BetterKelvin/download/latest", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("download: status %d body %s", rec.Code, rec.Body.String())
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "Better Kelvin 1.0.0.zip") {
		t.Errorf("Content-Disposition = %q", cd)
	}
	if !bytes.Equal(rec.Body.Bytes(), zipData) {
		t.Errorf("download body is %d bytes, want %d", rec.Body.Len(), len(zipData))
	}

	// Unapproved mods stay out of the default listing until a trusted user approves them.
	rec, resp = srv.do(t, http.MethodGet, "/api/mods", "", "")
	if rec.Code != http.StatusOK || strings.Contains(string(resp.Data), "BetterKelvin") {
		t.Fatalf("list before approval: status %d body %s", rec.Code, rec.Body.String())
	}

	if _, err := srv.app.DB.Exec("UPDATE users SET is_trusted = $1 WHERE slug = $2", true, "hazel-puffton"); err != nil {
		t.Fatal(err)
	}
	rec, _ = srv.do(t, http.MethodGet, "/api/mods/BetterKelvin/approve", token, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("approve: status %d body %s", rec.Code, rec.Body.String())
	}

	rec, resp = srv.do(t, http.MethodGet, "/api/mods", "", "")
	if rec.Code != http.StatusOK || !strings.Contains(string(resp.Data), "BetterKelvin") {
		t.Errorf("list after approval: status %d body %s", rec.Code, rec.Body.String())
	}
}

func TestKelvinPrompt(t *testing.T) {
	srv := newTestServer(t)

	for _, path := range []string{"/api/kelvin-gpt/prompt", "/api/kelvinseek/prompt"} {
		rec, _ := srv.do(t, http.MethodGet, path+"?chat_id=c1&text=build+a+fire", "", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: status %d body %s", path, rec.Code, rec.Body.String())
		}
		if !strings.HasPrefix(rec.Header().Get("Content-Type"), "text/plain") {
			t.Errorf("%s: Content-Type = %q", path, rec.Header().Get("Content-Type"))
		}
		if !strings.HasPrefix(rec.Body.String(), "build.fire|") {
			t.Errorf("%s: body = %q", path, rec.Body.String())
		}
	}

	rec, resp := srv.do(t, http.MethodGet, "/api/kelvin-gpt/prompt?text=hello", "", "")
	if rec.Code != http.StatusBadRequest || resp.Code != "VALIDATION_ERROR" {
		t.Errorf("missing chat_id: status %d code %q", rec.Code, resp.Code)
	}
}

func TestPublicReads(t *testing.T) {
	srv := newTestServer(t)

	rec, resp := srv.do(t, http.MethodGet, "/api/categories", "", "")
	if rec.Code != http.StatusOK || !resp.Status {
		t.Fatalf("categories: status %d body %s", rec.Code, rec.Body.String())
	}
	var categories []map[string]any
	if err := json.Unmarshal(resp.Data, &categories); err != nil || len(categories) == 0 {
		t.Errorf("categories data = %s (%v)", resp.Data, err)
	}

	rec, resp = srv.do(t, http.MethodGet, "/healthz", "", "")
	if rec.Code != http.StatusOK || string(resp.Data) != `"ok"` {
		t.Errorf("healthz: status %d body %s", rec.Code, rec.Body.String())
	}

	rec, _ = srv.do(t, http.MethodGet, "/api/stats", "", "")
	if rec.Code != http.StatusOK {
		t.Errorf("stats: status %d body %s", rec.Code, rec.Body.String())
	}
}

func TestArtifacts(t *testing.T) {
	srv := newTestServer(t)
	hazel := srv.register(t, "Hazel Puffton", "hazel@example.com")
	bob := srv.register(t, "Bob Smith", "bob@example.com")

	upload := `{"artifact_id":"stove","code":"{\"nodes\":[]}","diagram":"{\"links\":[]}"}`
	rec, _ := srv.do(t, http.MethodPost, "/api/artifacts/upload", "", upload)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("anonymous upload: status %d, want 401", rec.Code)
	}

	rec, resp := srv.do(t, http.MethodPost, "/api/artifacts/upload", hazel, upload)
	if rec.Code != http.StatusOK || string(resp.Data) != "true" {
		t.Fatalf("upload: status %d body %s", rec.Code, rec.Body.String())
	}

	rec, resp = srv.do(t, http.MethodPost, "/api/artifacts/upload", bob, upload)
	if rec.Code != http.StatusForbidden || resp.Code != "FORBIDDEN" {
		t.Errorf("upload over another user's artifact: status %d code %q", rec.Code, resp.Code)
	}

	rec, resp = srv.do(t, http.MethodPost, "/api/artifacts/upload", hazel, `{"artifact_id":"stove","code":"{","diagram":"{}"}`)
	if rec.Code != http.StatusBadRequest || resp.Code != "VALIDATION_ERROR" {
		t.Errorf("invalid code: status %d code %q", rec.Code, resp.Code)
	}

	rec, _ = srv.do(t, http.MethodGet, "/api/artifacts/stove/diagram", "", "")
	if rec.Code != http.StatusOK || rec.Body.String() != `{"links":[]}` {
		t.Errorf("diagram: status %d body %s", rec.Code, rec.Body.String())
	}

	rec, resp = srv.do(t, http.MethodGet, "/api/artifacts/lamp/diagram", "", "")
	if rec.Code != http.StatusNotFound || resp.Code != "NOT_FOUND" {
		t.Errorf("unknown artifact: status %d code %q", rec.Code, resp.Code)
	}
}
