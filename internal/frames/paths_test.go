package frames_test

import (
	"errors"
	"path/filepath"
	"testing"

	"framewise/internal/frames"
	"framewise/internal/testsupport"
)

func TestParseFrameIndex(t *testing.T) {
	cases := []struct {
		name  string
		index int
		ok    bool
	}{
		{"frame_0.jpg", 0, true},
		{"frame_42.jpg", 42, true},
		{"/some/dir/frame_7.jpg", 7, true},
		{"frame_.jpg", 0, false},
		{"frame_-3.jpg", 0, false},
		{"frame_12.png", 0, false},
		{"still_12.jpg", 0, false},
	}
	for _, tc := range cases {
		index, ok := frames.ParseFrameIndex(tc.name)
		if ok != tc.ok || index != tc.index {
			t.Fatalf("%s: got (%d, %v), want (%d, %v)", tc.name, index, ok, tc.index, tc.ok)
		}
	}
}

func TestIndicesSortedAndFiltered(t *testing.T) {
	dir := testsupport.WriteFrameFiles(t, filepath.Join(t.TempDir(), "frames"), 9, 2, 0, 31)

	indices, err := frames.Indices(dir)
	if err != nil {
		t.Fatalf("Indices: %v", err)
	}
	want := []int{0, 2, 9, 31}
	if len(indices) != len(want) {
		t.Fatalf("unexpected indices: %v", indices)
	}
	for i, index := range want {
		if indices[i] != index {
			t.Fatalf("unexpected indices: %v", indices)
		}
	}

	first, err := frames.FirstIndex(dir)
	if err != nil {
		t.Fatalf("FirstIndex: %v", err)
	}
	last, err := frames.LastIndex(dir)
	if err != nil {
		t.Fatalf("LastIndex: %v", err)
	}
	if first != 0 || last != 31 {
		t.Fatalf("unexpected bounds: first=%d last=%d", first, last)
	}
}

func TestFirstIndexEmptyDirectory(t *testing.T) {
	dir := t.TempDir()
	if _, err := frames.FirstIndex(dir); !errors.Is(err, frames.ErrNoFrames) {
		t.Fatalf("expected ErrNoFrames, got %v", err)
	}
	if _, err := frames.LastIndex(dir); !errors.Is(err, frames.ErrNoFrames) {
		t.Fatalf("expected ErrNoFrames, got %v", err)
	}
}
