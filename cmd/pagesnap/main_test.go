package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/unkn0wn-root/pagesnap"
	"github.com/unkn0wn-root/pagesnap/internal/config"
	"github.com/unkn0wn-root/pagesnap/store"
	"github.com/unkn0wn-root/pagesnap/store/memory"
)

// sharedStore keeps one memory store alive across CLI invocations; Close is
// counted instead of forwarded.
type sharedStore struct {
	*memStore
	closes int
}

// memStore aliases memory.Store so the embedded field is not named Store,
// which would shadow the promoted Store method.
type memStore = memory.Store

func (s *sharedStore) Close(context.Context) error {
	s.closes++
	return nil
}

func newSharedStore() *sharedStore { return &sharedStore{memStore: memory.New(memory.Config{})} }

// runCLI executes one command line against st and returns stdout.
func runCLI(t *testing.T, st store.Store, args ...string) (string, error) {
	t.Helper()
	a := &app{openStore: func(config.Config, pagesnap.Logger) (store.Store, error) { return st, nil }}
	root := newRootCmd(a)

	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(append([]string{"--log-level", "error"}, args...))
	err := execute(context.Background(), a, root)
	return out.String(), err
}

func TestCreatePageInspectDelete(t *testing.T) {
	t.Chdir(t.TempDir())
	st := newSharedStore()

	out, err := runCLI(t, st, "create", "3", "1", "4", "1", "5", "--total", "10")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	id := strings.TrimSpace(out)
	if len(id) != pagesnap.CursorIDSize {
		t.Fatalf("create printed %q, want a cursor id", out)
	}

	out, err = runCLI(t, st, "page", id, "--page", "2", "--per-page", "2")
	if err != nil {
		t.Fatalf("page: %v", err)
	}
	if out != "4\n5\n" {
		t.Fatalf("page 2 = %q, want %q", out, "4\n5\n")
	}

	out, err = runCLI(t, st, "inspect", id)
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}
	if !strings.Contains(out, "total:   10") || !strings.Contains(out, "stored:  4") {
		t.Fatalf("inspect output %q", out)
	}

	if out, err = runCLI(t, st, "touch", id); err != nil || !strings.Contains(out, "touched") {
		t.Fatalf("touch = %q, %v", out, err)
	}

	if out, err = runCLI(t, st, "delete", id); err != nil || !strings.Contains(out, "deleted") {
		t.Fatalf("delete = %q, %v", out, err)
	}
	if _, err = runCLI(t, st, "page", id); !errors.Is(err, pagesnap.ErrCursorExpired) {
		t.Fatalf("page after delete err = %v, want ErrCursorExpired", err)
	}
	out, _ = runCLI(t, st, "inspect", id)
	if !strings.Contains(out, "exists:  false") {
		t.Fatalf("inspect after delete = %q", out)
	}
}

func TestCreateFromFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	path := filepath.Join(dir, "ids.txt")
	if err := os.WriteFile(path, []byte("a\n\nb\n  c  \n"), 0o600); err != nil {
		t.Fatal(err)
	}
	st := newSharedStore()

	out, err := runCLI(t, st, "create", "--file", path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	id := strings.TrimSpace(out)
	if total, err := st.TotalCount(t.Context(), id); err != nil || total != 3 {
		t.Fatalf("TotalCount = %d, %v; want 3", total, err)
	}
}

func TestCreateWithoutIDsFails(t *testing.T) {
	t.Chdir(t.TempDir())
	if _, err := runCLI(t, newSharedStore(), "create"); err == nil {
		t.Fatal("create with no ids should fail")
	}
}

func TestEntryCodecByName(t *testing.T) {
	for _, name := range []string{"msgpack", "json", "cbor", "proto"} {
		if _, err := entryCodec(name, 1000); err != nil {
			t.Fatalf("entryCodec(%q): %v", name, err)
		}
	}
	if _, err := entryCodec("xml", 0); !errors.Is(err, store.ErrConfiguration) {
		t.Fatalf("entryCodec(xml) err = %v", err)
	}
}

func TestStoreClosedWhenCommandFails(t *testing.T) {
	t.Chdir(t.TempDir())
	st := newSharedStore()

	if _, err := runCLI(t, st, "page", "missing"); !errors.Is(err, pagesnap.ErrCursorExpired) {
		t.Fatalf("page on missing cursor err = %v, want ErrCursorExpired", err)
	}
	if st.closes != 1 {
		t.Fatalf("store closed %d times after a failing command, want 1", st.closes)
	}

	if _, err := runCLI(t, st, "touch", "missing"); err == nil {
		t.Fatal("touch on missing cursor should fail")
	}
	if st.closes != 2 {
		t.Fatalf("store closed %d times, want 2", st.closes)
	}
}
