package source

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

func TestFileSetVersioning(t *testing.T) {
	fs := NewFileSet()

	id1 := fs.Add("lib/a.rb", []byte("hello world"), 0)
	id2 := fs.Add("lib/a.rb", []byte("hello universe"), 0)
	if id1 == id2 {
		t.Fatalf("expected a fresh FileID for every Add, got %d twice", id1)
	}

	latest, ok := fs.GetLatest("lib/a.rb")
	if !ok || latest != id2 {
		t.Fatalf("GetLatest = %d,%v; want %d,true", latest, ok, id2)
	}
	if got := string(fs.Get(id1).Content); got != "hello world" {
		t.Errorf("old version content = %q", got)
	}
	if fs.Len() != 2 {
		t.Errorf("Len = %d, want 2", fs.Len())
	}
}

func TestAddVirtualLineIdx(t *testing.T) {
	fs := NewFileSet()
	file := fs.Get(fs.AddVirtual("a.rb", []byte("a\nb\n")))

	expected := []uint32{1, 3}
	if len(file.LineIdx) != len(expected) {
		t.Fatalf("LineIdx = %v, want %v", file.LineIdx, expected)
	}
	for i, val := range expected {
		if file.LineIdx[i] != val {
			t.Errorf("LineIdx[%d] = %d, want %d", i, file.LineIdx[i], val)
		}
	}
	if file.Flags&FileVirtual == 0 {
		t.Error("expected FileVirtual flag")
	}
}

func TestResolve(t *testing.T) {
	fs := NewFileSet()
	id := fs.AddVirtual("x.rb", []byte("class Foo\n  def bar\n  end\nend\n"))

	tests := []struct {
		off  uint32
		want LineCol
	}{
		{0, LineCol{Line: 1, Col: 1}},
		{6, LineCol{Line: 1, Col: 7}},
		{9, LineCol{Line: 1, Col: 10}},
		{12, LineCol{Line: 2, Col: 3}},
		{26, LineCol{Line: 4, Col: 1}},
	}
	for _, tt := range tests {
		start, _ := fs.Resolve(Span{File: id, Start: tt.off, End: tt.off})
		if start != tt.want {
			t.Errorf("Resolve(%d) = %+v, want %+v", tt.off, start, tt.want)
		}
	}
}

func TestGetLine(t *testing.T) {
	fs := NewFileSet()
	file := fs.Get(fs.AddVirtual("x.rb", []byte("one\ntwo\nthree")))

	cases := map[uint32]string{0: "", 1: "one", 2: "two", 3: "three", 4: ""}
	for line, want := range cases {
		if got := file.GetLine(line); got != want {
			t.Errorf("GetLine(%d) = %q, want %q", line, got, want)
		}
	}
}

func TestLoadNormalizes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "crlf.rb")
	content := append([]byte{0xEF, 0xBB, 0xBF}, []byte("class Cafe\u0301\r\nend\r\n")...)
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	fs := NewFileSet()
	id, err := fs.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	file := fs.Get(id)
	if got, want := string(file.Content), "class Caf\u00e9\nend\n"; got != want {
		t.Fatalf("content = %q, want %q", got, want)
	}
	for _, flag := range []FileFlags{FileHadBOM, FileNormalizedCRLF, FileNormalizedNFC} {
		if file.Flags&flag == 0 {
			t.Errorf("flag %d not set (flags=%08b)", flag, file.Flags)
		}
	}
}

func TestRelativePathOutsideBaseFallsBackToAbsolute(t *testing.T) {
	tmp := t.TempDir()
	baseDir := filepath.Join(tmp, "base")
	target := filepath.Join(tmp, "other", "file.rb")

	got, err := RelativePath(target, baseDir)
	if err != nil {
		t.Fatalf("RelativePath: %v", err)
	}
	if want := normalizePath(target); got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestRelativePathInsideBaseStaysRelative(t *testing.T) {
	tmp := t.TempDir()
	target := filepath.Join(tmp, "nested", "file.rb")

	got, err := RelativePath(target, tmp)
	if err != nil {
		t.Fatalf("RelativePath: %v", err)
	}
	if got != "nested/file.rb" {
		t.Fatalf("got %q, want nested/file.rb", got)
	}
}

func TestSpanContains(t *testing.T) {
	fs := NewFileSet()
	file := fs.Get(fs.AddVirtual("a.rb", []byte("class A\nend\n")))
	whole := file.Whole()
	if whole != (Span{File: file.ID, Start: 0, End: 12}) {
		t.Fatalf("Whole = %v", whole)
	}

	tests := []struct {
		sp   Span
		want bool
	}{
		{Span{File: file.ID, Start: 0, End: 5}, true},
		{Span{File: file.ID, Start: 12, End: 12}, true},
		{Span{File: file.ID, Start: 6, End: 13}, false},
		{Span{File: file.ID, Start: 4, End: 3}, false},
		{Span{File: file.ID + 1, Start: 0, End: 1}, false},
	}
	for _, tt := range tests {
		if got := whole.Contains(tt.sp); got != tt.want {
			t.Errorf("%v.Contains(%v) = %v, want %v", whole, tt.sp, got, tt.want)
		}
	}
}

func TestFileSetConcurrentAccess(t *testing.T) {
	fs := NewFileSet()
	base := fs.AddVirtual("base.rb", []byte("class A\nend\n"))

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			fs.AddVirtual(fmt.Sprintf("f%d.rb", i), []byte("x = 1\n"))
		}()
		go func() {
			defer wg.Done()
			if f := fs.Get(base); f == nil || f.GetLine(1) != "class A" {
				t.Errorf("Get(base) = %+v", f)
			}
			_, _ = fs.Resolve(Span{File: base, Start: 8, End: 11})
		}()
	}
	wg.Wait()

	if fs.Len() != 9 {
		t.Fatalf("Len = %d, want 9", fs.Len())
	}
	for i := range 8 {
		if _, ok := fs.GetLatest(fmt.Sprintf("f%d.rb", i)); !ok {
			t.Errorf("f%d.rb missing", i)
		}
	}
}
