package instance

import "testing"

func TestIDPrefersWorkerID(t *testing.T) {
	t.Setenv("WORKER_ID", "worker-3")
	t.Setenv("DYNO", "web.1")
	if got := ID(); got != "worker-3" {
		t.Fatalf("expected worker-3, got %q", got)
	}
}

func TestIDFallsBackToDyno(t *testing.T) {
	t.Setenv("WORKER_ID", "")
	t.Setenv("DYNO", "web.1")
	if got := ID(); got != "web.1" {
		t.Fatalf("expected web.1, got %q", got)
	}
}

func TestIDNeverEmpty(t *testing.T) {
	t.Setenv("WORKER_ID", "")
	t.Setenv("DYNO", "")
	if ID() == "" {
		t.Fatal("expected a non-empty instance id")
	}
}
