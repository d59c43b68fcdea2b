package frames

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// ErrNoFrames is returned when a frames directory holds no extracted frames.
var ErrNoFrames = errors.New("no frames found")

const (
	framePrefix = "frame_"
	frameExt    = ".jpg"
)

// FramePath returns the on-disk location of a frame image.
func FramePath(framesDir string, index int) string {
	return filepath.Join(framesDir, fmt.Sprintf("%s%d%s", framePrefix, index, frameExt))
}

// ParseFrameIndex extracts the frame index from a frame file name. The second
// return value is false when the name does not follow the frame_<n>.jpg
// convention.
func ParseFrameIndex(name string) (int, bool) {
	base := filepath.Base(name)
	if !strings.HasPrefix(base, framePrefix) || !strings.HasSuffix(base, frameExt) {
		return 0, false
	}
	digits := strings.TrimSuffix(strings.TrimPrefix(base, framePrefix), frameExt)
	index, err := strconv.Atoi(digits)
	if err != nil || index < 0 {
		return 0, false
	}
	return index, true
}

// Indices returns the sorted frame indices present in a frames directory.
func Indices(framesDir string) ([]int, error) {
	entries, err := os.ReadDir(framesDir)
	if err != nil {
		return nil, fmt.Errorf("read frames directory: %w", err)
	}

	var indices []int
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if index, ok := ParseFrameIndex(entry.Name()); ok {
			indices = append(indices, index)
		}
	}
	sort.Ints(indices)
	return indices, nil
}

// FirstIndex returns the lowest frame index in the frames directory.
func FirstIndex(framesDir string) (int, error) {
	indices, err := Indices(framesDir)
	if err != nil {
		return 0, err
	}
	if len(indices) == 0 {
		return 0, fmt.Errorf("%w in %s", ErrNoFrames, framesDir)
	}
	return indices[0], nil
}

// LastIndex returns the highest frame index in the frames directory.
func LastIndex(framesDir string) (int, error) {
	indices, err := Indices(framesDir)
	if err != nil {
		return 0, err
	}
	if len(indices) == 0 {
		return 0, fmt.Errorf("%w in %s", ErrNoFrames, framesDir)
	}
	return indices[len(indices)-1], nil
}
