package driver

import (
	"crypto/sha256"
	"encoding/binary"

	"tfemit/internal/emit"
)

// Digest identifies a compiled unit in the disk cache.
type Digest [32]byte

// cacheKey hashes everything that affects the compiled output of a unit:
// the payload schema, the emitter options and the file content hash.
func cacheKey(content [32]byte, opts emit.Options) Digest {
	h := sha256.New()
	var hdr [4]byte
	binary.LittleEndian.PutUint16(hdr[:2], diskCacheSchemaVersion)
	if opts.SrcLocs {
		hdr[2] = 1
	}
	if opts.BreakContinueRuntimeFatal {
		hdr[3] = 1
	}
	_, _ = h.Write(hdr[:])
	_, _ = h.Write(content[:])
	var out Digest
	copy(out[:], h.Sum(nil))
	return out
}
