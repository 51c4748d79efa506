package store

import (
	"encoding/json"
	"fmt"

	"github.com/zamanivault/zamanivault-go/domain/auth"
)

// IdentitySchema is the current schema version for persisted identity
// records. Bump it when the envelope shape changes; records carrying an
// unknown version are treated as absent, never as a fault.
const IdentitySchema = 1

// identityRecord is the versioned envelope written under KeyIdentity.
type identityRecord struct {
	Schema   int           `json:"schema"`
	Identity auth.Identity `json:"identity"`
}

// EncodeIdentity serializes an identity into the versioned record format.
func EncodeIdentity(id auth.Identity) (string, error) {
	data, err := json.Marshal(identityRecord{Schema: IdentitySchema, Identity: id})
	if err != nil {
		return "", fmt.Errorf("marshal identity record: %w", err)
	}
	return string(data), nil
}

// DecodeIdentity parses a persisted identity record. A record with an
// unknown schema version yields ok=false with no error; only malformed
// payloads produce an error.
func DecodeIdentity(raw string) (auth.Identity, bool, error) {
	var rec identityRecord
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return auth.Identity{}, false, fmt.Errorf("unmarshal identity record: %w", err)
	}
	if rec.Schema != IdentitySchema {
		return auth.Identity{}, false, nil
	}
	return rec.Identity, true, nil
}
