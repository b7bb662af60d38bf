package file_service

import (
	"encoding/base64"
	"encoding/json"
)

// listCursor is the opaque pagination token for ListDirectory. Path is
// carried so a cursor replayed against a different directory starts
// over instead of skipping entries.
type listCursor struct {
	Offset int    `json:"offset"`
	Path   string `json:"path"`
}

func encodeCursor(cursor listCursor) string {
	data, _ := json.Marshal(cursor)
	return base64.StdEncoding.EncodeToString(data)
}

// decodeCursor treats any malformed or mismatched cursor as the start
// of the listing.
func decodeCursor(raw, path string) int {
	data, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return 0
	}
	var cursor listCursor
	if err := json.Unmarshal(data, &cursor); err != nil {
		return 0
	}
	if cursor.Path != path || cursor.Offset < 0 {
		return 0
	}
	return cursor.Offset
}
