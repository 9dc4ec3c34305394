package fsutil

import (
	"os"
	"path/filepath"
	"testing"
)

func TestExpandHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("USERPROFILE", home)

	if got, err := ExpandHome("/etc/ai-router"); err != nil || got != "/etc/ai-router" {
		t.Fatalf("got %q err=%v", got, err)
	}
	if got, err := ExpandHome(""); err != nil || got != "" {
		t.Fatalf("got %q err=%v", got, err)
	}
	p, err := ExpandHome("~")
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if p != home {
		t.Fatalf("expected %q, got %q", home, p)
	}
	exp, err := ExpandHome("~/templates")
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if want := filepath.Join(home, "templates"); exp != want {
		t.Fatalf("expected %q, got %q", want, exp)
	}
}

func TestIsDir(t *testing.T) {
	dir := t.TempDir()
	f := filepath.Join(dir, "a.tmpl")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if !IsDir(dir) || IsDir(f) {
		t.Fatalf("IsDir mismatch")
	}
	if IsDir(filepath.Join(dir, "missing")) {
		t.Fatalf("missing path reported as dir")
	}
}

func TestFileExtension(t *testing.T) {
	cases := map[string]string{
		"speech.wav":     "wav",
		"SPEECH.WAV":     "wav",
		"dir.d/clip.mp3": "mp3",
		"noext":          "",
		"archive.tar.gz": "gz",
		"trailing.":      "",
		"/tmp/x.y/z":     "",
	}
	for in, want := range cases {
		if got := FileExtension(in); got != want {
			t.Fatalf("FileExtension(%q)=%q want %q", in, got, want)
		}
	}
}
