// Copyright (c) 2025 GraphRAG Accelerator Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package telemetry

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"time"
)

// CandidateName derives a channel name candidate from the prefix, the
// attempt number and a high-resolution timestamp. The candidate is the
// prefix followed by the hex encoded SHA-256 of the timestamp and attempt,
// so distinct attempts produce distinct candidates even on coarse clocks.
func CandidateName(prefix string, attempt int, now time.Time) string {
	sum := sha256.Sum256([]byte(strconv.FormatInt(now.UnixNano(), 10) + ":" + strconv.Itoa(attempt)))
	return prefix + "-" + hex.EncodeToString(sum[:])
}
