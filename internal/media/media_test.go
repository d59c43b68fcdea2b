package media

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"framewise/internal/services"
	"framewise/internal/testsupport"
)

// writeStub installs a shell script as a fake binary and prepends its
// directory to PATH for the duration of the test.
func writeStub(t *testing.T, name, script string) {
	t.Helper()

	binDir := filepath.Join(t.TempDir(), "bin")
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		t.Fatalf("mkdir stub dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(binDir, name), []byte(script), 0o755); err != nil {
		t.Fatalf("write stub %s: %v", name, err)
	}
	t.Setenv("PATH", binDir+string(os.PathListSeparator)+os.Getenv("PATH"))
}

func probeStubScript(rFrameRate string) string {
	return fmt.Sprintf(`#!/bin/sh
cat <<'EOF'
{"streams":[{"codec_type":"video","width":1280,"height":720,"r_frame_rate":"%s"}],"format":{"duration":"12.5"}}
EOF
`, rFrameRate)
}

func TestParseFrameRate(t *testing.T) {
	cases := []struct {
		value   string
		want    float64
		wantErr bool
	}{
		{"30/1", 30, false},
		{"30000/1001", 30000.0 / 1001.0, false},
		{"24", 24, false},
		{"0/1", 0, true},
		{"30/0", 0, true},
		{"", 0, true},
		{"abc", 0, true},
	}
	for _, tc := range cases {
		got, err := parseFrameRate(tc.value)
		if tc.wantErr {
			if err == nil {
				t.Errorf("parseFrameRate(%q) succeeded with %v", tc.value, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("parseFrameRate(%q): %v", tc.value, err)
			continue
		}
		if got != tc.want {
			t.Errorf("parseFrameRate(%q) = %v, want %v", tc.value, got, tc.want)
		}
	}
}

func TestProbeParsesStream(t *testing.T) {
	writeStub(t, "ffprobe", probeStubScript("30000/1001"))

	info, err := Probe(context.Background(), "ffprobe", "/tmp/video.mp4")
	if err != nil {
		t.Fatalf("Probe: %v", err)
	}
	if info.Width != 1280 || info.Height != 720 {
		t.Fatalf("unexpected dimensions: %+v", info)
	}
	if info.FPS < 29.96 || info.FPS > 29.98 {
		t.Fatalf("fps %v, want about 29.97", info.FPS)
	}
	if info.Duration != 12.5 {
		t.Fatalf("duration %v, want 12.5", info.Duration)
	}
}

func TestProbeRejectsMissingVideoStream(t *testing.T) {
	writeStub(t, "ffprobe", "#!/bin/sh\necho '{\"streams\":[],\"format\":{}}'\n")

	_, err := Probe(context.Background(), "ffprobe", "/tmp/audio-only.mp4")
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestSplitExtractsFrames(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}

	videoPath := filepath.Join(testsupport.BaseDir(cfg), "input.mp4")
	testsupport.WriteFile(t, videoPath, 4096)

	writeStub(t, "ffprobe", probeStubScript("30/1"))
	// The fake encoder drops three frames next to the output pattern, which
	// is the last argument.
	writeStub(t, "ffmpeg", `#!/bin/sh
for arg in "$@"; do out="$arg"; done
dir=$(dirname "$out")
for i in 0 1 2; do : > "$dir/frame_$i.jpg"; done
`)

	result, err := Split(context.Background(), cfg, videoPath, 0)
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	if result.Frames != 3 {
		t.Fatalf("extracted %d frames, want 3", result.Frames)
	}
	if result.FPS != 30 {
		t.Fatalf("fps %v, want 30", result.FPS)
	}
}

func TestSplitRefusesNonEmptyFramesDir(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	testsupport.WriteFrameFiles(t, cfg.Paths.FramesDir, 0, 1)

	videoPath := filepath.Join(testsupport.BaseDir(cfg), "input.mp4")
	testsupport.WriteFile(t, videoPath, 4096)

	_, err := Split(context.Background(), cfg, videoPath, 0)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestAssembleRejectsGaps(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	framesDir := t.TempDir()
	testsupport.WriteFrameFiles(t, framesDir, 0, 1, 3)

	err := Assemble(context.Background(), cfg, framesDir, 24, filepath.Join(t.TempDir(), "out.mp4"))
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if err == nil || !strings.Contains(err.Error(), "frame_2.jpg") {
		t.Fatalf("error should name the missing frame: %v", err)
	}
}

func TestAssembleRunsEncoder(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	framesDir := t.TempDir()
	testsupport.WriteFrameFiles(t, framesDir, 0, 1, 2)

	argsFile := filepath.Join(t.TempDir(), "args.txt")
	writeStub(t, "ffmpeg", fmt.Sprintf("#!/bin/sh\necho \"$@\" > %s\n", argsFile))

	outputPath := filepath.Join(t.TempDir(), "out", "annotated.mp4")
	if err := Assemble(context.Background(), cfg, framesDir, 23.976, outputPath); err != nil {
		t.Fatalf("Assemble: %v", err)
	}

	recorded, err := os.ReadFile(argsFile)
	if err != nil {
		t.Fatalf("read recorded args: %v", err)
	}
	for _, want := range []string{"-framerate 23.976", "-c:v " + cfg.Render.Codec, outputPath} {
		if !strings.Contains(string(recorded), want) {
			t.Errorf("encoder args missing %q: %s", want, recorded)
		}
	}
}

func TestSplitHonorsLimit(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	videoPath := filepath.Join(testsupport.BaseDir(cfg), "input.mp4")
	testsupport.WriteFile(t, videoPath, 4096)

	argsFile := filepath.Join(testsupport.BaseDir(cfg), "args.txt")
	writeStub(t, "ffprobe", probeStubScript("30/1"))
	writeStub(t, "ffmpeg", fmt.Sprintf(`#!/bin/sh
echo "$@" > %s
for arg in "$@"; do out="$arg"; done
dir=$(dirname "$out")
: > "$dir/frame_0.jpg"
`, argsFile))

	if _, err := Split(context.Background(), cfg, videoPath, 2*time.Minute); err != nil {
		t.Fatalf("Split: %v", err)
	}
	recorded, err := os.ReadFile(argsFile)
	if err != nil {
		t.Fatalf("read recorded args: %v", err)
	}
	if !strings.Contains(string(recorded), "-t 120.000") {
		t.Fatalf("encoder args missing duration cap: %s", recorded)
	}
}
