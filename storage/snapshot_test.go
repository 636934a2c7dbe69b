package storage

import (
	"bytes"
	"testing"

	"github.com/chazu/dicelang/vm"
	"github.com/fxamacker/cbor/v2"
)

func TestSnapshotRoundTrip(t *testing.T) {
	src := NewMemoryBackend()
	src.Store(vm.TierPrivate, 5, "a", vm.NewInt(1))
	src.Store(vm.TierServer, 6, "f", mustLiteral(t, "begin k = [2]; (x) -> x + k end"))
	src.Store(vm.TierCore, vm.GlobalOwner, "c", vm.String("core"))

	var buf bytes.Buffer
	n, err := Dump(src, &buf)
	if err != nil || n != 3 {
		t.Fatalf("Dump = %d, %v", n, err)
	}
	dumped := buf.Bytes()

	dst, err := NewFileBackend(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	n, err = Restore(dst, bytes.NewReader(dumped))
	if err != nil || n != 3 {
		t.Fatalf("Restore = %d, %v", n, err)
	}
	v, ok, err := dst.Load(vm.TierServer, 6, "f")
	if err != nil || !ok {
		t.Fatalf("Load f = %v, %v", ok, err)
	}
	if got := vm.EncodeLiteral(v); got != "begin k = [2]; (x) -> x + k end" {
		t.Errorf("restored f = %s", got)
	}

	// Canonical encoding: dumping the restored store gives the same records.
	var again bytes.Buffer
	if _, err := Dump(dst, &again); err != nil {
		t.Fatal(err)
	}
	a, _ := ReadSnapshot(bytes.NewReader(dumped))
	b, _ := ReadSnapshot(bytes.NewReader(again.Bytes()))
	ra, _ := cbor.Marshal(a.Records)
	rb, _ := cbor.Marshal(b.Records)
	if !bytes.Equal(ra, rb) {
		t.Error("records differ after a round trip")
	}
}

func TestRestoreRejectsBadRecords(t *testing.T) {
	tests := []struct {
		name string
		rec  SnapshotRecord
	}{
		{"bad tier", SnapshotRecord{Tier: "attic", Name: "x", Value: "1"}},
		{"bad literal", SnapshotRecord{Tier: "global", Owner: vm.GlobalOwner, Name: "x", Value: "f(1)"}},
	}
	for _, tt := range tests {
		snap := Snapshot{
			Version: SnapshotVersion,
			Records: []SnapshotRecord{
				{Tier: "global", Owner: vm.GlobalOwner, Name: "ok", Value: "1"},
				tt.rec,
			},
		}
		data, err := cborEncMode.Marshal(&snap)
		if err != nil {
			t.Fatal(err)
		}
		dst := NewMemoryBackend()
		if _, err := Restore(dst, bytes.NewReader(data)); err == nil {
			t.Errorf("%s: Restore succeeded", tt.name)
		}
		if _, ok, _ := dst.Load(vm.TierGlobal, vm.GlobalOwner, "ok"); ok {
			t.Errorf("%s: valid record written before the failure", tt.name)
		}
	}

	data, _ := cborEncMode.Marshal(&Snapshot{Version: 99})
	if _, err := Restore(NewMemoryBackend(), bytes.NewReader(data)); err == nil {
		t.Error("Restore accepted an unknown version")
	}
}
