package common

import (
	"fmt"

	"github.com/ethereum/go-ethereum/crypto"
)

// PersonalDigest is the hash signed by personal_sign for a 32-byte message.
func PersonalDigest(msg []byte) Hash {
	return Keccak256(append([]byte("\x19Ethereum Signed Message:\n32"), msg...))
}

// SignDigest signs digest with a hex private key. The signature is
// [R || S || V] with V in {0, 1}.
func SignDigest(privateKeyHex string, digest Hash) ([]byte, error) {
	key, err := crypto.HexToECDSA(privateKeyHex)
	if err != nil {
		return nil, fmt.Errorf("error converting private key: %v", err)
	}
	sig, err := crypto.Sign(digest.Bytes(), key)
	if err != nil {
		return nil, fmt.Errorf("error signing the hash: %v", err)
	}
	return sig, nil
}

// EcrecoverInput lays out digest and an [R || S || V] signature as the
// 128-byte input of the ecrecover precompile: hash, v (27 or 28), r, s.
func EcrecoverInput(digest Hash, sig []byte) []byte {
	input := make([]byte, 128)
	copy(input, digest[:])
	input[63] = sig[64] + 27
	copy(input[64:128], sig[:64])
	return input
}
