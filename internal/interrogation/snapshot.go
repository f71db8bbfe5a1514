package interrogation

import (
	"encoding/json"
	"fmt"
)

// snapshotVersion guards against resuming state written by an incompatible
// build. A mismatch is treated like a missing session.
const snapshotVersion = 1

// Snapshot is the serialized form of one dialog's resumable state: plain
// tagged data only. Behavior is reattached on resume by looking the director
// up in the registry, never deserialized.
type Snapshot struct {
	Version      int       `json:"v"`
	DirectorID   string    `json:"director_id"`
	Flow         FlowState `json:"flow"`
	AccumText    string    `json:"accum_text"`
	LastQuestion string    `json:"last_question"`
	LastHopID    string    `json:"last_hop_id"`
	Started      bool      `json:"started"`
}

// Encode serializes the snapshot.
func (s *Snapshot) Encode() ([]byte, error) {
	s.Version = snapshotVersion
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode session snapshot: %w", err)
	}
	return data, nil
}

// DecodeSnapshot deserializes a snapshot, rejecting unknown versions.
func DecodeSnapshot(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode session snapshot: %w", err)
	}
	if s.Version != snapshotVersion {
		return nil, fmt.Errorf("unsupported session snapshot version %d", s.Version)
	}
	return &s, nil
}
