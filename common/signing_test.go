package common

import (
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignDigest(t *testing.T) {
	addr, keyHex := GetEVMDevAccount(2)
	digest := PersonalDigest(make([]byte, 32))

	sig, err := SignDigest(keyHex, digest)
	require.NoError(t, err)
	require.Len(t, sig, 65)

	pub, err := crypto.SigToPub(digest.Bytes(), sig)
	require.NoError(t, err)
	assert.Equal(t, addr, crypto.PubkeyToAddress(*pub))

	input := EcrecoverInput(digest, sig)
	assert.Len(t, input, 128)
	assert.Equal(t, digest.Bytes(), input[:32])
	assert.Contains(t, []byte{27, 28}, input[63])

	_, err = SignDigest("zz", digest)
	assert.Error(t, err)
}
