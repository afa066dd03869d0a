// Package singleinstance keeps two bot processes from sharing a data
// directory. Two schedulers on the same document would start every event
// twice.
package singleinstance

import (
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
)

// lockKey derives a stable identifier for lockPath.
func lockKey(lockPath string) string {
	abs, err := filepath.Abs(lockPath)
	if err != nil {
		abs = lockPath
	}
	sum := sha256.Sum256([]byte(filepath.Clean(abs)))
	return hex.EncodeToString(sum[:8])
}
