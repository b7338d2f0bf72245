package service

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/sotfmods/api/internal/apperr"
	"github.com/sotfmods/api/internal/model"
	"github.com/sotfmods/api/internal/release"
)

func fieldNames(err error) []string {
	var names []string
	for _, f := range apperr.Fields(err) {
		names = append(names, f.Field)
	}
	return names
}

func hasField(err error, field string) bool {
	for _, f := range apperr.Fields(err) {
		if f.Field == field {
			return true
		}
	}
	return false
}

func TestModServicePublish(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	owner := env.user(t, "hazel")

	mod, err := env.mods.Publish(ctx, owner, env.publishInput(t, owner, "Better Kelvin", "BetterKelvin", "1.0.0"))
	if err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	if mod.IsApproved || mod.Slug != "better-kelvin" || mod.LatestVersion != "1.0.0" {
		t.Errorf("published mod = %+v", mod)
	}
	if mod.Dependencies != "CoreLib,UILib" {
		t.Errorf("Dependencies = %q", mod.Dependencies)
	}
	if mod.ImageURL != "https://cdn.test/uploads/betterkelvin-thumb.png" {
		t.Errorf("ImageURL = %q", mod.ImageURL)
	}

	details, err := env.mods.Details("BetterKelvin", nil)
	if err != nil {
		t.Fatalf("Details() error = %v", err)
	}
	if len(details.Versions) != 1 || !details.Versions[0].IsLatest || details.Versions[0].Changelog != "First release" {
		t.Errorf("versions = %+v", details.Versions)
	}
	if len(details.Images) != 3 || !details.Images[0].IsThumbnail {
		t.Errorf("images = %+v", details.Images)
	}
	if len(details.DependencyList) != 2 {
		t.Errorf("DependencyList = %v", details.DependencyList)
	}
	if details.Author.Slug != "hazel" {
		t.Errorf("Author = %+v", details.Author)
	}

	collisions := []struct {
		name  string
		input PublishInput
		field string
	}{
		{"same name", env.publishInput(t, owner, "Better Kelvin", "OtherId", "1.0.0"), "name"},
		{"same slug", env.publishInput(t, owner, "better kelvin", "OtherId", "1.0.0"), "name"},
		{"same manifest id", env.publishInput(t, owner, "Kelvin Plus", "BetterKelvin", "2.0.0"), "mod_id"},
	}
	for _, tt := range collisions {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.mods.Publish(ctx, owner, tt.input)
			if !hasField(err, tt.field) {
				t.Fatalf("Publish() error = %v, want field %s", err, tt.field)
			}
			if n := env.countRows(t, "mods"); n != 1 {
				t.Errorf("mods = %d, want 1", n)
			}
			if n := env.countRows(t, "mod_versions"); n != 1 {
				t.Errorf("mod_versions = %d, want 1", n)
			}
		})
	}
}

func TestModServicePublishValidation(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	owner := env.user(t, "hazel")

	t.Run("metadata errors are accumulated", func(t *testing.T) {
		_, err := env.mods.Publish(ctx, owner, PublishInput{Name: "x", ShortDescription: "short", Description: ""})
		got := fieldNames(err)
		if len(got) != 3 {
			t.Fatalf("fields = %v, want name, description and shortDescription", got)
		}
	})

	t.Run("missing keys", func(t *testing.T) {
		in := env.publishInput(t, owner, "Valid Name", "ValidId", "1.0.0")
		in.ModFileKey = ""
		in.ThumbnailKey = ""
		_, err := env.mods.Publish(ctx, owner, in)
		if !hasField(err, "modFileKey") || !hasField(err, "thumbnailKey") {
			t.Errorf("fields = %v", fieldNames(err))
		}
	})

	t.Run("too many images", func(t *testing.T) {
		in := env.publishInput(t, owner, "Valid Name", "ValidId", "1.0.0")
		in.ImageKeys = []string{"a.png", "b.png", "c.png", "d.png", "e.png", "f.png"}
		_, err := env.mods.Publish(ctx, owner, in)
		if !hasField(err, "imageKeys") {
			t.Errorf("fields = %v", fieldNames(err))
		}
	})

	manifests := []struct {
		name     string
		manifest string
	}{
		{"id with spaces", manifestJSON("My Mod", "1.0.0", model.ModTypeMod)},
		{"bad type", manifestJSON("MyMod", "1.0.0", "Plugin")},
		{"bad version", manifestJSON("MyMod", "1.0", model.ModTypeMod)},
		{"not json", "{"},
	}
	for _, tt := range manifests {
		t.Run(tt.name, func(t *testing.T) {
			in := env.publishInput(t, owner, "Valid Name", "ValidId", "1.0.0")
			in.ModFileKey = env.uploadAs(t, owner, "uploads/broken.zip", archive(t, tt.manifest, 0))
			_, err := env.mods.Publish(ctx, owner, in)
			if !hasField(err, "modFile") {
				t.Errorf("Publish() error = %v, want field modFile", err)
			}
		})
	}

	t.Run("not a zip", func(t *testing.T) {
		in := env.publishInput(t, owner, "Valid Name", "ValidId", "1.0.0")
		in.ModFileKey = env.uploadAs(t, owner, "uploads/mod.dll", []byte("MZ"))
		_, err := env.mods.Publish(ctx, owner, in)
		if !hasField(err, "modFile") {
			t.Errorf("Publish() error = %v, want field modFile", err)
		}
	})

	if n := env.countRows(t, "mods"); n != 0 {
		t.Errorf("mods = %d after failed publishes, want 0", n)
	}
}

func TestModServiceUploadLimits(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	standard := env.user(t, "hazel")
	trusted := env.user(t, "timmy")
	if err := env.users.SetTrusted(trusted.ID, true); err != nil {
		t.Fatal(err)
	}
	trusted.IsTrusted = true

	large := archive(t, manifestJSON("LargeMod", "1.0.0", model.ModTypeMod), 8<<10)
	in := env.publishInput(t, standard, "Large Mod", "LargeMod", "1.0.0")
	in.ModFileKey = env.uploadAs(t, standard, "uploads/large.zip", large)

	_, err := env.mods.Publish(ctx, standard, in)
	if !hasField(err, "modFileKey") {
		t.Fatalf("standard user error = %v, want size violation", err)
	}

	in.ModFileKey = env.uploadAs(t, trusted, "uploads/large-trusted.zip", large)
	_, err = env.mods.Publish(ctx, trusted, in)
	if err != nil {
		t.Fatalf("trusted user error = %v", err)
	}
}

func TestModServiceRelease(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	owner := env.user(t, "hazel")
	other := env.user(t, "virginia")

	_, err := env.mods.Publish(ctx, owner, env.publishInput(t, owner, "Better Kelvin", "BetterKelvin", "1.0.0"))
	if err != nil {
		t.Fatal(err)
	}

	releaseInput := func(version, manifestVersion string) ReleaseInput {
		key := env.uploadAs(t, owner, "uploads/betterkelvin-"+manifestVersion+".zip", archive(t, manifestJSON("BetterKelvin", manifestVersion, model.ModTypeLibrary), 0))
		return ReleaseInput{Version: version, Changelog: "Fixes", ModFileKey: key}
	}

	rejected := []struct {
		name  string
		input ReleaseInput
		want  error
	}{
		{"older version", releaseInput("0.9.0", "0.9.0"), release.ErrVersionNotAdvancing},
		{"duplicate version", releaseInput("1.0.0", "1.0.0"), release.ErrDuplicateVersion},
		{"invalid version", releaseInput("banana", "1.2.0"), release.ErrInvalidVersion},
	}
	for _, tt := range rejected {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.mods.Release(ctx, owner, "BetterKelvin", tt.input)
			if !errors.Is(err, tt.want) {
				t.Fatalf("Release() error = %v, want %v", err, tt.want)
			}
			if !hasField(err, "version") {
				t.Errorf("fields = %v, want version", fieldNames(err))
			}
			latest, err := env.modsRepo.LatestVersion(mustMod(t, env, "BetterKelvin").ID)
			if err != nil || latest.Version != "1.0.0" {
				t.Errorf("latest = %v, %v; want 1.0.0", latest, err)
			}
		})
	}

	t.Run("not the owner", func(t *testing.T) {
		_, err := env.mods.Release(ctx, other, "BetterKelvin", releaseInput("1.1.0", "1.1.0"))
		if !errors.Is(err, apperr.ErrForbidden) {
			t.Errorf("Release() error = %v, want ErrForbidden", err)
		}
	})

	t.Run("upload keys must belong to the caller", func(t *testing.T) {
		data := archive(t, manifestJSON("BetterKelvin", "1.4.0", model.ModTypeMod), 0)
		tests := []struct {
			name      string
			key       string
			field     string
			forbidden bool
		}{
			{"outside uploads", env.upload(t, "public/avatars/kelvin.zip", data), "modFileKey", false},
			{"never presigned", env.upload(t, "uploads/unrecorded.zip", data), "modFileKey", false},
			{"presigned for someone else", env.uploadAs(t, other, "uploads/virginia.zip", data), "", true},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := env.mods.Release(ctx, owner, "BetterKelvin", ReleaseInput{Changelog: "Fixes", ModFileKey: tt.key})
				if tt.forbidden {
					if !errors.Is(err, apperr.ErrForbidden) {
						t.Errorf("Release(%s) error = %v, want ErrForbidden", tt.key, err)
					}
					return
				}
				if !hasField(err, tt.field) {
					t.Errorf("Release(%s) error = %v, want field %s", tt.key, err, tt.field)
				}
			})
		}

		in := env.publishInput(t, owner, "Stolen Kelvin", "StolenKelvin", "1.0.0")
		in.ModFileKey = env.uploadAs(t, other, "uploads/stolen.zip", archive(t, manifestJSON("StolenKelvin", "1.0.0", model.ModTypeMod), 0))
		if _, err := env.mods.Publish(ctx, owner, in); !errors.Is(err, apperr.ErrForbidden) {
			t.Errorf("Publish() with another user's upload error = %v, want ErrForbidden", err)
		}
	})

	t.Run("manifest id mismatch", func(t *testing.T) {
		key := env.uploadAs(t, owner, "uploads/other.zip", archive(t, manifestJSON("SomethingElse", "1.1.0", model.ModTypeMod), 0))
		_, err := env.mods.Release(ctx, owner, "BetterKelvin", ReleaseInput{Changelog: "Fixes", ModFileKey: key})
		if !hasField(err, "modFile") {
			t.Errorf("Release() error = %v, want field modFile", err)
		}
	})

	t.Run("version differs from manifest", func(t *testing.T) {
		_, err := env.mods.Release(ctx, owner, "BetterKelvin", releaseInput("1.3.0", "1.2.0"))
		if !hasField(err, "version") {
			t.Errorf("Release() error = %v, want field version", err)
		}
	})

	t.Run("newer version becomes latest", func(t *testing.T) {
		in := releaseInput("", "1.1.0")
		v, err := env.mods.Release(ctx, owner, "BetterKelvin", in)
		if err != nil {
			t.Fatalf("Release() error = %v", err)
		}
		if v.Version != "1.1.0" || !v.IsLatest {
			t.Errorf("released = %+v", v)
		}

		mod := mustMod(t, env, "BetterKelvin")
		if mod.LatestVersion != "1.1.0" || mod.Type != model.ModTypeLibrary {
			t.Errorf("mod = %+v", mod)
		}

		versions, err := env.modsRepo.Versions(mod.ID)
		if err != nil {
			t.Fatal(err)
		}
		latest := 0
		for _, v := range versions {
			if v.IsLatest {
				latest++
				if v.Version != "1.1.0" {
					t.Errorf("latest version = %s, want 1.1.0", v.Version)
				}
			}
		}
		if latest != 1 || len(versions) != 2 {
			t.Errorf("got %d versions with %d latest", len(versions), latest)
		}
	})

	t.Run("check", func(t *testing.T) {
		check, err := env.mods.Check("BetterKelvin", "1.0.0")
		if err != nil {
			t.Fatal(err)
		}
		if !check.NewVersionAvailable || check.LatestVersion != "1.1.0" {
			t.Errorf("Check(1.0.0) = %+v", check)
		}
		check, err = env.mods.Check("BetterKelvin", "1.1.0")
		if err != nil {
			t.Fatal(err)
		}
		if check.NewVersionAvailable {
			t.Errorf("Check(1.1.0) = %+v", check)
		}
	})

	t.Run("prefixed version is stored bare", func(t *testing.T) {
		v, err := env.mods.Release(ctx, owner, "BetterKelvin", releaseInput("v1.2.0", "1.2.0"))
		if err != nil {
			t.Fatalf("Release() error = %v", err)
		}
		if v.Version != "1.2.0" {
			t.Errorf("stored version = %q, want 1.2.0", v.Version)
		}
		if mod := mustMod(t, env, "BetterKelvin"); mod.LatestVersion != "1.2.0" {
			t.Errorf("latest version = %q, want 1.2.0", mod.LatestVersion)
		}

		for _, requested := range []string{"1.2.0", "v1.2.0"} {
			dl, err := env.mods.Download(ctx, "BetterKelvin", requested, "10.0.0.2", "")
			if err != nil {
				t.Fatalf("Download(%s) error = %v", requested, err)
			}
			dl.Body.Close()
		}
	})
}

func mustMod(t *testing.T, env *testEnv, modID string) *model.Mod {
	t.Helper()
	mod, err := env.modsRepo.ByModID(modID)
	if err != nil {
		t.Fatalf("ByModID(%s): %v", modID, err)
	}
	return mod
}

func TestModServiceUpdateDetails(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	owner := env.user(t, "hazel")
	_, err := env.mods.Publish(ctx, owner, env.publishInput(t, owner, "Better Kelvin", "BetterKelvin", "1.0.0"))
	if err != nil {
		t.Fatal(err)
	}

	name := "Best Kelvin"
	thumb := "uploads/new-thumb.png"
	mod, err := env.mods.UpdateDetails(ctx, owner, "BetterKelvin", UpdateDetailsInput{Name: &name, ThumbnailKey: &thumb})
	if err != nil {
		t.Fatalf("UpdateDetails() error = %v", err)
	}
	if mod.Name != name || mod.Slug != "better-kelvin" {
		t.Errorf("mod = %+v", mod)
	}

	images, err := env.modsRepo.Images(mod.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(images) != 3 || images[0].URL != "https://cdn.test/uploads/new-thumb.png" {
		t.Errorf("images = %+v", images)
	}

	short := "tiny"
	_, err = env.mods.UpdateDetails(ctx, owner, "BetterKelvin", UpdateDetailsInput{ShortDescription: &short})
	if !hasField(err, "shortDescription") {
		t.Errorf("UpdateDetails() error = %v, want field shortDescription", err)
	}
}

func TestModServiceApproval(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	owner := env.user(t, "hazel")
	reviewer := env.user(t, "timmy")
	reviewer.IsTrusted = true

	_, err := env.mods.Publish(ctx, owner, env.publishInput(t, owner, "Better Kelvin", "BetterKelvin", "1.0.0"))
	if err != nil {
		t.Fatal(err)
	}

	if err := env.mods.SetApproved(owner, "BetterKelvin", true); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("untrusted SetApproved() error = %v, want ErrNotFound", err)
	}
	if err := env.mods.SetApproved(reviewer, "BetterKelvin", true); err != nil {
		t.Fatalf("trusted SetApproved() error = %v", err)
	}
	if !mustMod(t, env, "BetterKelvin").IsApproved {
		t.Error("mod should be approved")
	}

	items, meta, err := env.mods.List(model.ModFilter{Approved: true, Page: 0, Limit: 500})
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 1 || meta.Limit != 100 || meta.Page != 1 || meta.Total != 1 {
		t.Errorf("List() = %d items, meta %+v", len(items), meta)
	}
}

func TestModServiceDownload(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	owner := env.user(t, "hazel")
	_, err := env.mods.Publish(ctx, owner, env.publishInput(t, owner, "Better Kelvin", "BetterKelvin", "1.0.0"))
	if err != nil {
		t.Fatal(err)
	}

	dl, err := env.mods.Download(ctx, "BetterKelvin", "latest", "10.0.0.1", "test-agent")
	if err != nil {
		t.Fatalf("Download() error = %v", err)
	}
	data, err := io.ReadAll(dl.Body)
	dl.Body.Close()
	if err != nil || len(data) == 0 {
		t.Fatalf("read body: %d bytes, %v", len(data), err)
	}
	if dl.Filename != "Better Kelvin 1.0.0.zip" {
		t.Errorf("Filename = %q", dl.Filename)
	}

	if _, err := env.mods.Download(ctx, "BetterKelvin", "9.9.9", "", ""); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("unknown version error = %v, want ErrNotFound", err)
	}

	if mustMod(t, env, "BetterKelvin").Downloads != 0 {
		t.Error("downloads counter must only change on reconciliation")
	}

	stats, err := env.mods.DownloadStats("BetterKelvin", "week", time.Now())
	if err != nil {
		t.Fatal(err)
	}
	if len(stats) != 8 {
		t.Fatalf("week stats = %d days, want 8", len(stats))
	}
	if last := stats[len(stats)-1]; last.Downloads != 1 {
		t.Errorf("today = %+v, want 1 download", last)
	}

	all, err := env.mods.DownloadStats("BetterKelvin", "all", time.Now())
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 1 {
		t.Errorf("all stats = %+v, want a single day", all)
	}

	fallback, err := env.mods.DownloadStats("BetterKelvin", "year", time.Now())
	if err != nil {
		t.Fatalf("unknown period error = %v", err)
	}
	if len(fallback) != 8 {
		t.Errorf("unknown period stats = %d days, want the week's 8", len(fallback))
	}
}

func apperrMessages(err error) []string {
	var msgs []string
	for _, f := range apperr.Fields(err) {
		msgs = append(msgs, f.Message)
	}
	return msgs
}
