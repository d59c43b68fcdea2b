package deps_test

import (
	"context"
	"errors"
	"testing"

	"framewise/internal/deps"
	"framewise/internal/testsupport"
)

func TestCheckBinariesFindsStubs(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())

	statuses := deps.CheckBinaries(cfg)
	if len(statuses) != 2 {
		t.Fatalf("expected 2 checks, got %d", len(statuses))
	}
	for _, status := range statuses {
		if !status.Available {
			t.Errorf("%s unavailable: %s", status.Name, status.Detail)
		}
	}
}

func TestCheckBinariesReportsMissing(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Tools.FFmpeg = "definitely-not-a-real-binary"
	cfg.Tools.FFprobe = ""

	statuses := deps.CheckBinaries(cfg)
	if statuses[0].Available {
		t.Fatalf("missing binary reported available: %+v", statuses[0])
	}
	if statuses[1].Available || statuses[1].Detail != "command not configured" {
		t.Fatalf("unconfigured binary mishandled: %+v", statuses[1])
	}
}

type fakeHealth struct{ err error }

func (f fakeHealth) HealthCheck(context.Context) error { return f.err }

func TestCheckInference(t *testing.T) {
	if status := deps.CheckInference(context.Background(), fakeHealth{}); !status.Available {
		t.Fatalf("healthy service reported unavailable: %+v", status)
	}
	status := deps.CheckInference(context.Background(), fakeHealth{err: errors.New("bad key")})
	if status.Available || status.Detail != "bad key" {
		t.Fatalf("unhealthy service mishandled: %+v", status)
	}
}
