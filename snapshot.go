package gridprop

import (
	"bytes"
	"compress/gzip"
	"encoding/gob"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/strata-data/gridprop/errors"
	"github.com/strata-data/gridprop/internal/monitoring"
)

// PropSnapshot is a persistable point-in-time copy of a property: metadata
// alongside a gob+gzip blob of values and mask. propdb.Store stores and
// loads these.
type PropSnapshot struct {
	UUID     string
	Name     string
	Date     string
	TakenAt  time.Time
	NCol     int
	NRow     int
	NLay     int
	Discrete bool
	DType    string
	Codes    CodeTable
	Blob     []byte
	Reason   string
	Label    string
}

// SnapshotStore persists property snapshots. Implemented by propdb.Store.
type SnapshotStore interface {
	InsertPropSnapshot(s *PropSnapshot) (int64, error)
}

// snapshotPayload is the gob payload compressed into PropSnapshot.Blob.
type snapshotPayload struct {
	FVals []float64
	IVals []int32
	Mask  []bool
}

// Snapshot captures the property as a PropSnapshot with a fresh UUID.
func (p *GridProperty) Snapshot(reason, label string) (*PropSnapshot, error) {
	blob, err := encodePayload(&snapshotPayload{FVals: p.fvals, IVals: p.ivals, Mask: p.mask})
	if err != nil {
		return nil, errors.Wrapf(err, "snapshot property %q", p.name)
	}
	return &PropSnapshot{
		UUID:     uuid.NewString(),
		Name:     p.name,
		Date:     p.date,
		TakenAt:  time.Now(),
		NCol:     p.ncol,
		NRow:     p.nrow,
		NLay:     p.nlay,
		Discrete: p.discrete,
		DType:    string(p.dtype),
		Codes:    p.codes.Clone(),
		Blob:     blob,
		Reason:   reason,
		Label:    label,
	}, nil
}

// Persist snapshots the property and inserts it through store, returning
// the store row id.
func (p *GridProperty) Persist(store SnapshotStore, reason string) (int64, error) {
	s, err := p.Snapshot(reason, "")
	if err != nil {
		return 0, err
	}
	id, err := store.InsertPropSnapshot(s)
	if err != nil {
		return 0, errors.Wrapf(err, "persist property %q", p.name)
	}
	monitoring.Logf("gridprop: persisted property %q (reason %s, row %d, %d bytes)",
		p.name, reason, id, len(s.Blob))
	return id, nil
}

// FromSnapshot reconstructs a property from a snapshot. The restored
// provenance is "snapshot:<uuid>".
func FromSnapshot(s *PropSnapshot) (*GridProperty, error) {
	payload, err := decodePayload(s.Blob)
	if err != nil {
		return nil, errors.Wrapf(err, "restore snapshot %s", s.UUID)
	}
	p, err := New(s.NCol, s.NRow, s.NLay, Params{Name: s.Name, Date: s.Date, Discrete: s.Discrete})
	if err != nil {
		return nil, errors.Wrapf(err, "restore snapshot %s", s.UUID)
	}
	n := p.Len()
	if len(payload.Mask) != n {
		return nil, errors.NewShapeError("snapshot %s mask has %d cells, want %d", s.UUID, len(payload.Mask), n)
	}
	if s.Discrete {
		if err := p.SetInt32s(payload.IVals); err != nil {
			return nil, errors.Wrapf(err, "restore snapshot %s", s.UUID)
		}
		if err := p.SetCodes(s.Codes); err != nil {
			return nil, errors.Wrapf(err, "restore snapshot %s", s.UUID)
		}
	} else {
		if err := p.SetFloat64s(payload.FVals); err != nil {
			return nil, errors.Wrapf(err, "restore snapshot %s", s.UUID)
		}
	}
	// The mask is not derivable from the values alone (DeriveActnum can
	// mask cells holding plain zeros), so restore it verbatim.
	copy(p.mask, payload.Mask)
	if s.DType != "" && DType(s.DType) != p.dtype {
		if err := p.SetDType(DType(s.DType)); err != nil {
			return nil, errors.Wrapf(err, "restore snapshot %s", s.UUID)
		}
	}
	p.filesrc = "snapshot:" + s.UUID
	return p, nil
}

func encodePayload(payload *snapshotPayload) ([]byte, error) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	if err := gob.NewEncoder(gz).Encode(payload); err != nil {
		return nil, errors.Wrap(err, "gob encode")
	}
	if err := gz.Close(); err != nil {
		return nil, errors.Wrap(err, "gzip close")
	}
	return buf.Bytes(), nil
}

func decodePayload(blob []byte) (*snapshotPayload, error) {
	gz, err := gzip.NewReader(bytes.NewReader(blob))
	if err != nil {
		return nil, errors.Wrap(err, "gzip open")
	}
	var payload snapshotPayload
	if err := gob.NewDecoder(gz).Decode(&payload); err != nil {
		return nil, errors.Wrap(err, "gob decode")
	}
	if _, err := io.Copy(io.Discard, gz); err != nil {
		return nil, errors.Wrap(err, "gzip drain")
	}
	if err := gz.Close(); err != nil {
		return nil, errors.Wrap(err, "gzip close")
	}
	return &payload, nil
}
