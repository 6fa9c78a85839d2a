package ledger

import (
	"encoding/binary"

	"golang.org/x/crypto/blake2b"

	"github.com/kanteakoisi/GreenPledge/types"
)

// opDelta is a deterministic summary of one accepted mutation. Each field is
// encoded length-prefixed so distinct operations can never collide.
type opDelta struct {
	op     string
	caller types.Identity
	fields []string
}

// computeOpDeltaHash encodes one accepted operation as
// len(op)|op|len(caller)|caller|len(f)|f... and hashes it with blake2b-256.
func computeOpDeltaHash(delta opDelta) [32]byte {
	h, _ := blake2b.New256(nil)

	buf := make([]byte, 8)
	write := func(s string) {
		binary.BigEndian.PutUint64(buf, uint64(len(s)))
		h.Write(buf)
		h.Write([]byte(s))
	}

	write(delta.op)
	write(string(delta.caller))
	for _, f := range delta.fields {
		write(f)
	}

	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

// combineDigest chains the running audit digest with the delta of the latest
// accepted operation. new = blake2b(prev || delta); a zero prev yields delta.
func combineDigest(prev [32]byte, delta [32]byte) [32]byte {
	if isZeroDigest(prev) {
		return delta
	}
	h, _ := blake2b.New256(nil)
	h.Write(prev[:])
	h.Write(delta[:])
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

func isZeroDigest(d [32]byte) bool {
	for _, b := range d {
		if b != 0 {
			return false
		}
	}
	return true
}
