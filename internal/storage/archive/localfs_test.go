package archive

import (
	"context"
	"testing"
)

func TestLocalFS_ImplementsStorage(t *testing.T) {
	var _ Storage = (*LocalFS)(nil)
}

func TestLocalFS_WriteRead(t *testing.T) {
	fs, err := NewLocalFS(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalFS: %v", err)
	}

	ctx := context.Background()
	data := []byte(`{"run_id":"r1"}`)

	if err := fs.Write(ctx, "runs/2024-03-15/r1.json", data); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := fs.Read(ctx, "runs/2024-03-15/r1.json")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != string(data) {
		t.Errorf("got %q, want %q", got, data)
	}

	// overwrite
	if err := fs.Write(ctx, "runs/2024-03-15/r1.json", []byte("{}")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, _ = fs.Read(ctx, "runs/2024-03-15/r1.json")
	if string(got) != "{}" {
		t.Errorf("overwrite: got %q", got)
	}
}

func TestLocalFS_Exists(t *testing.T) {
	fs, _ := NewLocalFS(t.TempDir())
	ctx := context.Background()

	exists, err := fs.Exists(ctx, "nonexistent.json")
	if err != nil || exists {
		t.Errorf("Exists(missing) = %v, %v", exists, err)
	}

	fs.Write(ctx, "exists.json", []byte("{}"))
	exists, _ = fs.Exists(ctx, "exists.json")
	if !exists {
		t.Error("expected true for existing file")
	}
}

func TestLocalFS_List(t *testing.T) {
	fs, _ := NewLocalFS(t.TempDir())
	ctx := context.Background()

	fs.Write(ctx, "runs/2024-03-15/b.json", []byte("b"))
	fs.Write(ctx, "runs/2024-03-15/a.json", []byte("a"))
	fs.Write(ctx, "runs/2024-03-18/c.json", []byte("c"))

	paths, err := fs.List(ctx, "runs/2024-03-15")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	want := []string{"runs/2024-03-15/a.json", "runs/2024-03-15/b.json"}
	if len(paths) != len(want) {
		t.Fatalf("got %v, want %v", paths, want)
	}
	for i := range want {
		if paths[i] != want[i] {
			t.Errorf("paths[%d] = %q, want %q", i, paths[i], want[i])
		}
	}

	empty, err := fs.List(ctx, "runs/1999-01-01")
	if err != nil || len(empty) != 0 {
		t.Errorf("List(missing) = %v, %v", empty, err)
	}
}

func TestLocalFS_RejectsEscape(t *testing.T) {
	fs, _ := NewLocalFS(t.TempDir())
	if err := fs.Write(context.Background(), "../outside.json", []byte("x")); err == nil {
		t.Error("expected error for path outside root")
	}
}

func TestNewLocalFS_EmptyPath(t *testing.T) {
	if _, err := NewLocalFS(""); err == nil {
		t.Error("expected error for empty path")
	}
}
