package badger

import (
	"encoding/hex"

	"github.com/zeebo/blake3"
)

// Key layout:
//
//	Prefix  Key                        Value
//	"s:"    s:<blake3(baseURL) hex>    snapshotRecord (JSON)
//
// URLs are hashed so keys have a fixed length whatever the URL; the URL
// itself is kept inside the record.
const prefixSnapshot = "s:"

func keySnapshot(baseURL string) []byte {
	sum := blake3.Sum256([]byte(baseURL))
	return []byte(prefixSnapshot + hex.EncodeToString(sum[:]))
}
