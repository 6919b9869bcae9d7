package sacn

import "github.com/google/uuid"

// CID is a 16-byte Component Identifier, unique per source instance.
type CID [16]byte

// NewCID generates a random CID using a UUID's raw bytes.
func NewCID() CID {
	var c CID
	id := uuid.New()
	copy(c[:], id[:])
	return c
}

// CIDFromBytes validates and wraps a caller-supplied 16-byte CID.
func CIDFromBytes(b []byte) (CID, error) {
	var c CID
	if len(b) != 16 {
		return c, invalidArgument("cid length", len(b))
	}
	copy(c[:], b)
	return c, nil
}
