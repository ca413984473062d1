package opstatus

import (
	"math/big"
	"strings"
	"testing"

	"scorechain/internal/chain"
)

func TestTrackerStartsIdle(t *testing.T) {
	snap := NewTracker().Snapshot()
	if snap.State != StateIdle {
		t.Fatalf("expected idle, got %v", snap.State)
	}
	if snap.InProgress {
		t.Fatal("idle tracker must not report in progress")
	}
}

func TestTrackerWriteLifecycle(t *testing.T) {
	tr := NewTracker()

	tr.StartWrite()
	snap := tr.Snapshot()
	if snap.State != StateWriting || !snap.InProgress {
		t.Fatalf("expected in-progress writing, got %+v", snap)
	}

	tr.WriteSucceeded("0xabc")
	snap = tr.Snapshot()
	if snap.State != StateDone || snap.InProgress {
		t.Fatalf("expected done, got %+v", snap)
	}
	if snap.TxHash != "0xabc" || !strings.Contains(snap.Status, "0xabc") {
		t.Fatalf("expected tx hash in outcome, got %+v", snap)
	}
	if snap.Record != nil {
		t.Fatal("write outcome must not carry a record")
	}
}

func TestTrackerReadLifecycle(t *testing.T) {
	tr := NewTracker()

	tr.StartRead()
	if snap := tr.Snapshot(); snap.State != StateReading || !snap.InProgress {
		t.Fatalf("expected in-progress reading, got %+v", snap)
	}

	record := chain.BorrowerRecord{NID: "123", Name: "Alice", FinalCreditScore: big.NewInt(82)}
	tr.ReadSucceeded(record)
	snap := tr.Snapshot()
	if snap.Record == nil || snap.Record.NID != "123" {
		t.Fatalf("expected record in snapshot, got %+v", snap)
	}
	if snap.TxHash != "" {
		t.Fatal("read outcome must not carry a tx hash")
	}

	tr.ReadFailed("timeout")
	snap = tr.Snapshot()
	if snap.Record != nil {
		t.Fatal("failed read must clear the record")
	}
	if !strings.Contains(snap.Status, "timeout") {
		t.Fatalf("expected failure message in status, got %q", snap.Status)
	}
}

func TestTrackerAcceptsNewOperationFromAnyState(t *testing.T) {
	tr := NewTracker()

	tr.StartWrite()
	tr.StartRead() // overlapping request, no queuing
	if snap := tr.Snapshot(); snap.State != StateReading {
		t.Fatalf("expected reading after overlap, got %+v", snap)
	}

	// Last completion wins.
	tr.WriteSucceeded("0xdef")
	tr.ReadFailed("boom")
	snap := tr.Snapshot()
	if snap.TxHash != "" || !strings.Contains(snap.Status, "boom") {
		t.Fatalf("expected last completion to win, got %+v", snap)
	}
}

func TestSnapshotIsDetached(t *testing.T) {
	tr := NewTracker()
	tr.ReadSucceeded(chain.BorrowerRecord{NID: "123"})

	snap := tr.Snapshot()
	tr.StartWrite()

	if snap.Record == nil || snap.Record.NID != "123" {
		t.Fatalf("snapshot mutated by later transition: %+v", snap)
	}
}
