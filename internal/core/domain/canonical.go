package domain

import (
	"fmt"

	"github.com/cespare/xxhash/v2"
	"github.com/fxamacker/cbor/v2"
)

// canonicalMode encodes with CBOR Core Deterministic Encoding: sorted map keys,
// smallest integer encoding and no indefinite-length items. Equal values always
// produce identical bytes.
var canonicalMode cbor.EncMode

func init() {
	opts := cbor.CoreDetEncOptions()
	// A list that round-tripped through a record as absent must hash like an empty one.
	opts.NilContainers = cbor.NilContainerAsEmpty
	mode, err := opts.EncMode()
	if err != nil {
		panic("domain: canonical encoder initialization failed: " + err.Error())
	}
	canonicalMode = mode
}

// canonicalHash returns the xxhash of the canonical encoding of v as 16 hex chars.
// Only plain data (strings, integers, slices, maps, structs) is ever passed in,
// which the encoder cannot fail on.
func canonicalHash(v any) string {
	data, err := canonicalMode.Marshal(v)
	if err != nil {
		panic("domain: canonical encoding failed: " + err.Error())
	}
	return fmt.Sprintf("%016x", xxhash.Sum64(data))
}
