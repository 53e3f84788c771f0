package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// ComputeTradeID computes a deterministic trade id using SHA256.
// Formula: SHA256(session_id|market_id|side|attempt_index)
// Returns the first 16 bytes hex-encoded (32 characters).
func ComputeTradeID(sessionID, marketID, side string, attemptIndex int) string {
	data := fmt.Sprintf("%s|%s|%s|%d", sessionID, marketID, side, attemptIndex)
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:16])
}

// ComputeStepID computes a deterministic step id within a session.
// Formula: SHA256(session_id|step_type|step_index)
func ComputeStepID(sessionID, stepType string, stepIndex int) string {
	data := fmt.Sprintf("%s|%s|%d", sessionID, stepType, stepIndex)
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:16])
}
