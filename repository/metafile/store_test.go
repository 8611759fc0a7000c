package metafile

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/campushub/backend/repository"
)

func TestLoadMissingFileReturnsEmpty(t *testing.T) {
	store := NewStore(t.TempDir(), nil)

	meta, err := store.Load(context.Background(), "u1", repository.MetaPurposeMirror)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if meta == nil || len(meta) != 0 {
		t.Fatalf("missing file should yield an empty map, got %v", meta)
	}
}

func TestLoadCorruptFileReturnsEmpty(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir, nil)

	path := filepath.Join(dir, "user_u1", "mirror_meta.json")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	meta, err := store.Load(context.Background(), "u1", repository.MetaPurposeMirror)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(meta) != 0 {
		t.Fatalf("corrupt file should yield an empty map, got %v", meta)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	store := NewStore(t.TempDir(), nil)
	ctx := context.Background()

	in := map[string]string{"abc123": "event-9", "def456": "event-10"}
	if err := store.Save(ctx, "u1", repository.MetaPurposeStudy, in); err != nil {
		t.Fatalf("Save: %v", err)
	}

	out, err := store.Load(ctx, "u1", repository.MetaPurposeStudy)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(out) != len(in) {
		t.Fatalf("round trip size = %d, want %d", len(out), len(in))
	}
	for key, id := range in {
		if out[key] != id {
			t.Errorf("key %q = %q, want %q", key, out[key], id)
		}
	}
}

func TestSaveIsolatesUserAndPurpose(t *testing.T) {
	store := NewStore(t.TempDir(), nil)
	ctx := context.Background()

	if err := store.Save(ctx, "u1", repository.MetaPurposeMirror, map[string]string{"k": "mirror-event"}); err != nil {
		t.Fatal(err)
	}
	if err := store.Save(ctx, "u1", repository.MetaPurposeStudy, map[string]string{"k": "study-event"}); err != nil {
		t.Fatal(err)
	}
	if err := store.Save(ctx, "u2", repository.MetaPurposeMirror, map[string]string{"k": "other-user"}); err != nil {
		t.Fatal(err)
	}

	mirror, _ := store.Load(ctx, "u1", repository.MetaPurposeMirror)
	study, _ := store.Load(ctx, "u1", repository.MetaPurposeStudy)
	other, _ := store.Load(ctx, "u2", repository.MetaPurposeMirror)

	if mirror["k"] != "mirror-event" || study["k"] != "study-event" || other["k"] != "other-user" {
		t.Fatalf("maps leaked across scopes: mirror=%v study=%v other=%v", mirror, study, other)
	}
}

func TestSaveLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir, nil)

	if err := store.Save(context.Background(), "u1", repository.MetaPurposeMirror, map[string]string{"k": "v"}); err != nil {
		t.Fatal(err)
	}

	entries, err := os.ReadDir(filepath.Join(dir, "user_u1"))
	if err != nil {
		t.Fatal(err)
	}
	for _, entry := range entries {
		if entry.Name() != "mirror_meta.json" {
			t.Errorf("unexpected file left behind: %s", entry.Name())
		}
	}
}
