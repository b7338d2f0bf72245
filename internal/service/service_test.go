package service

import (
	"archive/zip"
	"bytes"
	"context"
	"path"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/sotfmods/api/internal/db/dbtest"
	"github.com/sotfmods/api/internal/markdown"
	"github.com/sotfmods/api/internal/model"
	"github.com/sotfmods/api/internal/repository"
	"github.com/sotfmods/api/internal/storage"
)

type testEnv struct {
	conn     *sqlx.DB
	store    *storage.Memory
	users    repository.UserRepository
	modsRepo repository.ModRepository
	files    *FileService
	mods     *ModService
	builds   *BuildService
	comments *CommentService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	conn := dbtest.New(t)
	store := storage.NewMemory("https://cdn.test")

	users := repository.NewUserRepository(conn)
	modsRepo := repository.NewModRepository(conn)
	categories := repository.NewCategoryRepository(conn)
	favorites := repository.NewFavoriteRepository(conn)
	files := NewFileService(repository.NewFileRepository(conn), store, time.Hour)

	limits := UploadLimits{ModFile: 4 << 10, TrustedModFile: 1 << 20, BuildFile: 1 << 20}
	mods := NewModService(modsRepo, users, categories, favorites, files, markdown.NewParser(), time.Minute, limits)

	return &testEnv{
		conn:     conn,
		store:    store,
		users:    users,
		modsRepo: modsRepo,
		files:    files,
		mods:     mods,
		builds:   NewBuildService(mods, modsRepo, categories, files, limits.BuildFile),
		comments: NewCommentService(repository.NewCommentRepository(conn), modsRepo, users),
	}
}

func (e *testEnv) user(t *testing.T, userSlug string) *model.User {
	t.Helper()
	now := time.Now().UTC()
	user := &model.User{
		ID:           uuid.New().String(),
		Name:         userSlug,
		Slug:         userSlug,
		Email:        userSlug + "@example.com",
		PasswordHash: "x",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := e.users.Create(user); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

// upload stores an object the way a presigned PUT would.
func (e *testEnv) upload(t *testing.T, key string, data []byte) string {
	t.Helper()
	if err := e.store.Save(context.Background(), key, bytes.NewReader(data), ""); err != nil {
		t.Fatalf("save %s: %v", key, err)
	}
	return key
}

// archive builds a zip holding manifest.json plus an optional incompressible payload.
func archive(t *testing.T, manifest string, padding int) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	w, err := zw.Create("MyMod/manifest.json")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.Write([]byte(manifest)); err != nil {
		t.Fatal(err)
	}

	if padding > 0 {
		w, err = zw.CreateHeader(&zip.FileHeader{Name: "MyMod/payload.bin", Method: zip.Store})
		if err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write(bytes.Repeat([]byte{0xAB}, padding)); err != nil {
			t.Fatal(err)
		}
	}

	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func manifestJSON(id, version, modType string) string {
	return `{"id":"` + id + `","version":"` + version + `","type":"` + modType + `","dependencies":["CoreLib","UILib"]}`
}

// uploadAs stores an object and records it as presigned for user.
func (e *testEnv) uploadAs(t *testing.T, user *model.User, key string, data []byte) string {
	t.Helper()
	e.upload(t, key, data)
	err := repository.NewFileRepository(e.conn).Create(&model.File{
		ID:           uuid.New().String(),
		UserID:       user.ID,
		OwnerType:    model.OwnerTypeUser,
		OwnerID:      user.ID,
		Type:         model.FileTypeUpload,
		Filename:     path.Base(key),
		OriginalName: path.Base(key),
		ContentType:  "application/octet-stream",
		Size:         int64(len(data)),
		Key:          key,
		Public:       true,
		CreatedAt:    time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("record %s: %v", key, err)
	}
	return key
}

func (e *testEnv) publishInput(t *testing.T, owner *model.User, name, modID, version string) PublishInput {
	t.Helper()
	key := "uploads/" + strings.ToLower(modID) + "-" + version + ".zip"
	e.uploadAs(t, owner, key, archive(t, manifestJSON(modID, version, model.ModTypeMod), 0))
	return PublishInput{
		Name:             name,
		ShortDescription: "Adds a useful thing to the game",
		Description:      "A longer description of the mod with **markdown**.",
		ModFileKey:       key,
		ThumbnailKey:     e.upload(t, "uploads/"+strings.ToLower(modID)+"-thumb.png", []byte("png")),
		ImageKeys:        []string{"uploads/gallery-1.png", "uploads/gallery-2.webp"},
	}
}

func (e *testEnv) countRows(t *testing.T, table string) int {
	t.Helper()
	var n int
	if err := e.conn.Get(&n, "SELECT COUNT(*) FROM "+table); err != nil {
		t.Fatalf("count %s: %v", table, err)
	}
	return n
}
