package sqlutil

import (
	"encoding/json"

	"github.com/sqlc-dev/pqtype"
)

// ToNullRawMessage wraps a JSON document for a JSON/JSONB/BLOB column.
// Empty input maps to SQL NULL.
func ToNullRawMessage(data []byte) pqtype.NullRawMessage {
	if len(data) == 0 {
		return pqtype.NullRawMessage{Valid: false}
	}
	return pqtype.NullRawMessage{RawMessage: json.RawMessage(data), Valid: true}
}

// FromNullRawMessage unwraps a scanned JSON column; NULL yields nil.
func FromNullRawMessage(val pqtype.NullRawMessage) []byte {
	if !val.Valid {
		return nil
	}
	return []byte(val.RawMessage)
}
