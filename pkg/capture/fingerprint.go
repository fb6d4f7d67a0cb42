package capture

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/gowebpki/jcs"
)

// Fingerprint returns a stable digest of the snapshot's semantic fields:
// SHA-256 over the RFC 8785 (JCS) canonical JSON form. Two snapshots that
// are field-wise equal hash identically regardless of serialization order,
// which is what lets the engine drop writes when the UI re-renders without
// real data changes. Volatile fields (timestamps) are not part of Snapshot
// and therefore never perturb the digest.
func Fingerprint(s Snapshot) (string, error) {
	raw, err := json.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("fingerprint: marshal failed: %w", err)
	}
	canonical, err := jcs.Transform(raw)
	if err != nil {
		return "", fmt.Errorf("fingerprint: canonicalization failed: %w", err)
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}

// HasChanged reports whether the snapshot differs from the last persisted
// fingerprint. A fingerprint error counts as changed so a transient
// encoding problem can never suppress a real write.
func HasChanged(s Snapshot, lastFingerprint string) bool {
	fp, err := Fingerprint(s)
	if err != nil {
		return true
	}
	return fp != lastFingerprint
}
