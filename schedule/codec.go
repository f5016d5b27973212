package schedule

import (
	"encoding/json"
	"fmt"
)

// EncodeRoster serializes a complete roster for persistence.
func EncodeRoster(r Roster) ([]byte, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return json.Marshal(r)
}

// DecodeRoster parses a persisted roster. Undecodable or structurally
// invalid data wraps ErrHistoryCorrupt.
func DecodeRoster(data []byte) (Roster, error) {
	var r Roster
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrHistoryCorrupt, err)
	}
	if err := r.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrHistoryCorrupt, err)
	}
	return r, nil
}
