package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// ComputeSessionID computes a deterministic session id using SHA256.
// Formula: SHA256(event_id|author_handle|start_unix_ms)
// Returns the first 16 bytes hex-encoded (32 characters).
func ComputeSessionID(eventID, authorHandle string, startUnixMs int64) string {
	data := fmt.Sprintf("%s|%s|%d", eventID, authorHandle, startUnixMs)
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:16])
}
