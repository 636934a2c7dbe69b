package storage

import (
	"fmt"
	"io"
	"time"

	"github.com/chazu/dicelang/vm"
	"github.com/fxamacker/cbor/v2"
)

// SnapshotVersion is the snapshot format written by Dump.
const SnapshotVersion = 1

// Snapshot is the CBOR document written by Dump. Values are stored as
// literals so a snapshot can be read without the interpreter.
type Snapshot struct {
	Version int              `cbor:"1,keyasint"`
	Taken   time.Time        `cbor:"2,keyasint"`
	Records []SnapshotRecord `cbor:"3,keyasint"`
}

// SnapshotRecord is one variable in a Snapshot.
type SnapshotRecord struct {
	Tier  string `cbor:"1,keyasint"`
	Owner int64  `cbor:"2,keyasint"`
	Name  string `cbor:"3,keyasint"`
	Value string `cbor:"4,keyasint"`
}

// cborEncMode uses canonical encoding so equal stores give equal snapshots.
var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("storage: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// Dump writes every record of b to w and returns how many were written.
func Dump(b Backend, w io.Writer) (int, error) {
	snap := Snapshot{Version: SnapshotVersion, Taken: time.Now().UTC()}
	err := b.Each(func(r Record) error {
		snap.Records = append(snap.Records, SnapshotRecord{
			Tier:  r.Tier.String(),
			Owner: r.Owner,
			Name:  r.Name,
			Value: vm.EncodeLiteral(r.Value),
		})
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("storage: dump: %w", err)
	}
	if err := cborEncMode.NewEncoder(w).Encode(&snap); err != nil {
		return 0, fmt.Errorf("storage: dump: %w", err)
	}
	return len(snap.Records), nil
}

// ReadSnapshot decodes a snapshot without applying it.
func ReadSnapshot(r io.Reader) (*Snapshot, error) {
	var snap Snapshot
	if err := cbor.NewDecoder(r).Decode(&snap); err != nil {
		return nil, fmt.Errorf("storage: unmarshal snapshot: %w", err)
	}
	if snap.Version != SnapshotVersion {
		return nil, fmt.Errorf("storage: unsupported snapshot version %d", snap.Version)
	}
	return &snap, nil
}

// Restore writes every record of a snapshot into b. All records are
// validated first; nothing is written if any is malformed.
func Restore(b Backend, r io.Reader) (int, error) {
	snap, err := ReadSnapshot(r)
	if err != nil {
		return 0, err
	}
	recs := make([]Record, len(snap.Records))
	for i, sr := range snap.Records {
		tier, err := vm.ParseTier(sr.Tier)
		if err != nil {
			return 0, fmt.Errorf("storage: restore record %d: %w", i, err)
		}
		v, err := vm.DecodeLiteral(sr.Value)
		if err != nil {
			return 0, fmt.Errorf("storage: restore %s %q: %w", sr.Tier, sr.Name, err)
		}
		recs[i] = Record{Tier: tier, Owner: sr.Owner, Name: sr.Name, Value: v}
	}
	for _, rec := range recs {
		if err := b.Store(rec.Tier, rec.Owner, rec.Name, rec.Value); err != nil {
			return 0, fmt.Errorf("storage: restore: %w", err)
		}
	}
	log.Infof("restored %d records from snapshot taken %s", len(recs), snap.Taken.Format(time.RFC3339))
	return len(recs), nil
}
