package driver

import (
	"crypto/sha256"
	"encoding/hex"
)

// Digest is a SHA-256 content hash.
type Digest [32]byte

func (d Digest) String() string { return hex.EncodeToString(d[:]) }

// IsZero reports whether d was never computed.
func (d Digest) IsZero() bool { return d == Digest{} }

// hashContent hashes the bytes of a script.
func hashContent(content []byte) Digest {
	return sha256.Sum256(content)
}

// combineDigest: H(content || salt1 || salt2 ...). The salts are the cache schema and the
// compiler version, so a new build of either invalidates older entries.
func combineDigest(content Digest, salts ...string) Digest {
	h := sha256.New()
	_, _ = h.Write(content[:])
	for _, s := range salts {
		_, _ = h.Write([]byte{0})
		_, _ = h.Write([]byte(s))
	}
	var out Digest
	copy(out[:], h.Sum(nil))
	return out
}
