package project

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
)

// Digest is a sha256 sum, the same shape as source.File.Hash.
type Digest [32]byte

func (d Digest) String() string { return hex.EncodeToString(d[:]) }

// FileKey identifies a file's content at a path. Every part is length
// prefixed so ("ab", "c") and ("a", "bc") differ.
func FileKey(path string, content []byte, extra ...string) Digest {
	h := sha256.New()
	var n [8]byte
	write := func(b []byte) {
		binary.BigEndian.PutUint64(n[:], uint64(len(b)))
		_, _ = h.Write(n[:])
		_, _ = h.Write(b)
	}
	write([]byte(path))
	write(content)
	for _, e := range extra {
		write([]byte(e))
	}
	var out Digest
	h.Sum(out[:0])
	return out
}
