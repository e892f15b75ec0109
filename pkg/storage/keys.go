package storage

import (
	"encoding/binary"
	"fmt"
)

// Order key schema:
//
//	ord:<seq>  → gob(orders.Order), seq zero-padded to 20 digits so the
//	             prefix scan returns orders in insertion order
//	idx:<id>   → 8-byte big-endian seq of the order with that id
//	meta:idhigh → 8-byte big-endian largest numeric order id ever stored
const (
	prefixOrder = "ord:"
	prefixIndex = "idx:"
)

var keyIDHigh = []byte("meta:idhigh")

func orderKey(seq uint64) []byte {
	return []byte(fmt.Sprintf("%s%020d", prefixOrder, seq))
}

func indexKey(id string) []byte {
	return []byte(prefixIndex + id)
}

func encodeSeq(seq uint64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], seq)
	return b[:]
}

func decodeSeq(b []byte) (uint64, error) {
	if len(b) != 8 {
		return 0, fmt.Errorf("seq value has %d bytes", len(b))
	}
	return binary.BigEndian.Uint64(b), nil
}

// seqFromOrderKey parses the seq out of an ord: key.
func seqFromOrderKey(k []byte) (uint64, error) {
	var seq uint64
	if _, err := fmt.Sscanf(string(k[len(prefixOrder):]), "%d", &seq); err != nil {
		return 0, fmt.Errorf("bad order key %q: %w", k, err)
	}
	return seq, nil
}

// keyUpperBound returns the exclusive upper bound for a prefix scan
func keyUpperBound(prefix []byte) []byte {
	bound := make([]byte, len(prefix))
	copy(bound, prefix)
	bound[len(bound)-1]++
	return bound
}
