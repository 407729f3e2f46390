package persistence

import (
	"path/filepath"
	"testing"
)

func newTestAudit(t *testing.T) *LocalAudit {
	t.Helper()
	a, err := OpenLocalAudit(filepath.Join(t.TempDir(), "audit.db"))
	if err != nil {
		t.Fatalf("OpenLocalAudit: %v", err)
	}
	t.Cleanup(func() { a.Close() })
	return a
}

func TestRecordActionAndRecentActionsRoundTrip(t *testing.T) {
	a := newTestAudit(t)
	a.RecordAction("Ethernet0", "toggle", "Active", "issued")
	a.RecordAction("Ethernet0", "probe", "", "")
	a.RecordAction("Ethernet4", "toggle", "Standby", "issued")

	entries, err := a.RecentActions("Ethernet0", 10)
	if err != nil {
		t.Fatalf("RecentActions: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2: %+v", len(entries), entries)
	}
	if entries[0].Action != "toggle" || entries[0].Target != "Active" {
		t.Fatalf("oldest entry = %+v", entries[0])
	}
	if entries[1].Action != "probe" {
		t.Fatalf("newest entry = %+v", entries[1])
	}
}

func TestRecentActionsAllPortsWhenEmptyFilter(t *testing.T) {
	a := newTestAudit(t)
	a.RecordAction("Ethernet0", "toggle", "Active", "")
	a.RecordAction("Ethernet4", "toggle", "Standby", "")

	entries, err := a.RecentActions("", 10)
	if err != nil {
		t.Fatalf("RecentActions: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
}

func TestRecordReconciliationDoesNotError(t *testing.T) {
	a := newTestAudit(t)
	a.RecordReconciliation("Ethernet0", false)
	a.RecordReconciliation("*", true)
}

func TestRecentActionsRespectsLimit(t *testing.T) {
	a := newTestAudit(t)
	for i := 0; i < 5; i++ {
		a.RecordAction("Ethernet0", "probe", "", "")
	}
	entries, err := a.RecentActions("Ethernet0", 2)
	if err != nil {
		t.Fatalf("RecentActions: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
}
