package jpegx

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestReadSignature(t *testing.T) {
	for _, tc := range []struct {
		name string
		in   string
		want bool
	}{
		{name: "jpeg", in: "\xFF\xD8\xFF\xE0", want: true},
		{name: "png", in: "\x89PNG", want: false},
		{name: "short", in: "\xFF", want: false},
		{name: "empty", in: "", want: false},
	} {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ReadSignature(strings.NewReader(tc.in))
			if err != nil {
				t.Fatalf("read signature: %v", err)
			}
			if got != tc.want {
				t.Fatalf("got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestFileHasSignature(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "a.jpg")
	if err := os.WriteFile(p, []byte{0xFF, 0xD8, 0xFF, 0xD9}, 0o600); err != nil {
		t.Fatal(err)
	}
	ok, err := FileHasSignature(p)
	if err != nil || !ok {
		t.Fatalf("expected signature, got %v, %v", ok, err)
	}

	if _, err := FileHasSignature(filepath.Join(dir, "missing.jpg")); !os.IsNotExist(err) {
		t.Fatalf("expected not exist error, got %v", err)
	}
}

func TestIsStandalone(t *testing.T) {
	for _, m := range []byte{MarkerSOI, MarkerEOI, MarkerTEM, 0xD3} {
		if !IsStandalone(m) {
			t.Fatalf("marker %#x should be standalone", m)
		}
	}
	for _, m := range []byte{MarkerAPP1, MarkerSOS, 0xDB} {
		if IsStandalone(m) {
			t.Fatalf("marker %#x should carry a payload", m)
		}
	}
}
