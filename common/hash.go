package common

import (
	"encoding/binary"

	"golang.org/x/crypto/sha3"
)

func BytesToUint32BE(b []byte) uint32 { return binary.BigEndian.Uint32(b) }
func BytesToUint64LE(b []byte) uint64 { return binary.LittleEndian.Uint64(b) }
func PutUint64LE(b []byte, v uint64)  { binary.LittleEndian.PutUint64(b, v) }

func Keccak256(data []byte) Hash {
	hash := sha3.NewLegacyKeccak256()
	hash.Write(data)
	return BytesToHash(hash.Sum(nil))
}
