package sysinfo

import (
	"encoding/json"
	"testing"
)

func TestCollectReturnsSnapshot(t *testing.T) {
	snap := Collect()

	// Collection is best-effort, but our own process must be observable.
	if snap.Process == nil {
		t.Fatal("Expected process stats for the current process")
	}
	if snap.Process.PID <= 0 {
		t.Errorf("Expected positive PID, got %d", snap.Process.PID)
	}
	if snap.Process.NumThreads <= 0 {
		t.Errorf("Expected at least one thread, got %d", snap.Process.NumThreads)
	}
}

func TestSnapshotSerializes(t *testing.T) {
	data, err := json.Marshal(Collect())
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	var back map[string]interface{}
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
}
