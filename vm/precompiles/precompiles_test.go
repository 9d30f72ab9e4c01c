package precompiles

import (
	"math"
	"testing"

	"github.com/colorfulnotion/evm/common"
	"github.com/colorfulnotion/evm/rules"
	"github.com/colorfulnotion/evm/vmerrors"
	bls12381 "github.com/consensys/gnark-crypto/ecc/bls12-381"
	"github.com/consensys/gnark-crypto/ecc/bn254"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func addr(n byte) common.Address { return common.BytesToAddress([]byte{n}) }

func contractAt(t *testing.T, f rules.Fork, n byte) Contract {
	t.Helper()
	c, ok := ForRules(rules.ForFork(f)).Get(addr(n))
	require.True(t, ok, "no contract at %#x under %v", n, f)
	return c
}

func TestRegistryComposition(t *testing.T) {
	for _, tc := range []struct {
		fork  rules.Fork
		count int
	}{
		{rules.Frontier, 4},
		{rules.Byzantium, 8},
		{rules.Istanbul, 9},
		{rules.Cancun, 10},
		{rules.Prague, 17},
		{rules.Osaka, 17},
	} {
		t.Run(tc.fork.String(), func(t *testing.T) {
			r := ForRules(rules.ForFork(tc.fork))
			assert.Len(t, r.Addresses(), tc.count)
			_, ok := r.Get(addr(byte(tc.count + 1)))
			assert.False(t, ok)
		})
	}
	rs := rules.ForFork(rules.Cancun)
	assert.Same(t, ForRules(rs), ForRules(rs))
}

func TestRunChargesGas(t *testing.T) {
	c := contractAt(t, rules.Cancun, 0x04)
	input := make([]byte, 33)
	out, left, err := Run(c, input, 100)
	require.NoError(t, err)
	assert.Equal(t, input, out)
	assert.Equal(t, uint64(100-15-2*3), left)

	_, left, err = Run(c, input, 20)
	assert.ErrorIs(t, err, vmerrors.ErrGOutOfGas)
	assert.Zero(t, left)
}

func TestHashes(t *testing.T) {
	out, err := contractAt(t, rules.Frontier, 0x02).Run(nil)
	require.NoError(t, err)
	assert.Equal(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", common.Bytes2String(out))

	out, err = contractAt(t, rules.Frontier, 0x03).Run(nil)
	require.NoError(t, err)
	assert.Equal(t, "0000000000000000000000009c1185a5c5e9fc54612808977ee8f548b2258d31", common.Bytes2String(out))
}

func TestEcrecover(t *testing.T) {
	want, keyHex := common.GetEVMDevAccount(1)
	digest := common.PersonalDigest(crypto.Keccak256([]byte("message")))
	sig, err := common.SignDigest(keyHex, digest)
	require.NoError(t, err)
	input := common.EcrecoverInput(digest, sig)

	c := contractAt(t, rules.Cancun, 0x01)
	out, err := c.Run(input)
	require.NoError(t, err)
	assert.Equal(t, common.LeftPadBytes(want.Bytes(), 32), out)

	// a bad v yields empty output, not an error
	input[63] = 29
	out, err = c.Run(input)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestModExp(t *testing.T) {
	input := append(make([]byte, 96), 3, 5, 7)
	input[31], input[63], input[95] = 1, 1, 1

	out, err := contractAt(t, rules.Berlin, 0x05).Run(input)
	require.NoError(t, err)
	assert.Equal(t, []byte{5}, out)

	assert.Equal(t, uint64(200), contractAt(t, rules.Berlin, 0x05).RequiredGas(input))
	assert.Equal(t, uint64(0), contractAt(t, rules.Byzantium, 0x05).RequiredGas(input))

	// zero modulus returns zero padded to the modulus length
	zero := append(make([]byte, 96), 3, 5, 0)
	zero[31], zero[63], zero[95] = 1, 1, 1
	out, err = contractAt(t, rules.Berlin, 0x05).Run(zero)
	require.NoError(t, err)
	assert.Equal(t, []byte{0}, out)

	// a base length filling 64 bits prices at the maximum
	huge := make([]byte, 96)
	for i := 24; i < 32; i++ {
		huge[i] = 0xff
	}
	huge[95] = 1
	for _, f := range []rules.Fork{rules.Byzantium, rules.Berlin} {
		assert.Equal(t, uint64(math.MaxUint64), contractAt(t, f, 0x05).RequiredGas(huge), f.String())
	}
}

func TestBN254(t *testing.T) {
	_, _, g1, _ := bn254.Generators()
	gen := encodeBN254G1(&g1)

	sum, err := contractAt(t, rules.Istanbul, 0x06).Run(append(append([]byte{}, gen...), gen...))
	require.NoError(t, err)

	scalar := make([]byte, 32)
	scalar[31] = 2
	double, err := contractAt(t, rules.Istanbul, 0x07).Run(append(append([]byte{}, gen...), scalar...))
	require.NoError(t, err)
	assert.Equal(t, sum, double)

	// the empty input adds two points at infinity
	out, err := contractAt(t, rules.Istanbul, 0x06).Run(nil)
	require.NoError(t, err)
	assert.Equal(t, make([]byte, 64), out)

	bad := make([]byte, 64)
	bad[31], bad[63] = 1, 1
	_, err = contractAt(t, rules.Istanbul, 0x06).Run(bad)
	assert.ErrorIs(t, err, vmerrors.ErrPInvalidPoint)

	out, err = contractAt(t, rules.Istanbul, 0x08).Run(nil)
	require.NoError(t, err)
	assert.Equal(t, byte(1), out[31])
	_, err = contractAt(t, rules.Istanbul, 0x08).Run(make([]byte, 100))
	assert.ErrorIs(t, err, vmerrors.ErrPInvalidInput)

	assert.Equal(t, uint64(45000+2*34000), contractAt(t, rules.Istanbul, 0x08).RequiredGas(make([]byte, 384)))
}

func TestBlake2F(t *testing.T) {
	input := common.FromHex("0000000c48c9bdf267e6096a3ba7ca8485ae67bb2bf894fe72f36e3cf1361d5f3af54fa5d182e6ad7f520e511f6c3e2b8c68059b6bbd41fbabd9831f79217e1319cde05b61626300000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000300000000000000000000000000000001")
	c := contractAt(t, rules.Istanbul, 0x09)
	assert.Equal(t, uint64(12), c.RequiredGas(input))

	out, err := c.Run(input)
	require.NoError(t, err)
	assert.Equal(t, "ba80a53f981c4d0d6a2797b69f12f6e94c212f14685ac4b74b12bb6fdbffa2d17d87c5392aab792dc252d5de4533cc9518d38aa8dbf1925ab92386edd4009923", common.Bytes2String(out))

	input[212] = 2
	_, err = c.Run(input)
	assert.ErrorIs(t, err, vmerrors.ErrPInvalidFinalFlag)
	_, err = c.Run(input[:100])
	assert.ErrorIs(t, err, vmerrors.ErrPInvalidInput)
}

func TestPointEvaluation(t *testing.T) {
	// the zero polynomial: commitment and proof are the point at infinity
	input := make([]byte, 192)
	input[96], input[144] = 0xc0, 0xc0
	var commitment [48]byte
	copy(commitment[:], input[96:144])
	vh := versionedHash(commitment)
	copy(input[:32], vh[:])

	c := contractAt(t, rules.Cancun, 0x0a)
	out, err := c.Run(input)
	require.NoError(t, err)
	assert.Equal(t, blobPrecompileReturnValue, out)

	input[0] = 0x02
	_, err = c.Run(input)
	assert.ErrorIs(t, err, vmerrors.ErrPInvalidInput)
	_, err = c.Run(input[:191])
	assert.ErrorIs(t, err, vmerrors.ErrPInvalidInput)
}

func TestBLS12381(t *testing.T) {
	_, _, g1, g2 := bls12381.Generators()
	gen1, gen2 := encodeBLSG1(&g1), encodeBLSG2(&g2)
	scalar2 := make([]byte, 32)
	scalar2[31] = 2

	// G + infinity is G
	out, err := contractAt(t, rules.Prague, 0x0b).Run(append(append([]byte{}, gen1...), make([]byte, blsG1Len)...))
	require.NoError(t, err)
	assert.Equal(t, gen1, out)

	sum1, err := contractAt(t, rules.Prague, 0x0b).Run(append(append([]byte{}, gen1...), gen1...))
	require.NoError(t, err)
	msm1, err := contractAt(t, rules.Prague, 0x0c).Run(append(append([]byte{}, gen1...), scalar2...))
	require.NoError(t, err)
	assert.Equal(t, sum1, msm1)

	sum2, err := contractAt(t, rules.Prague, 0x0d).Run(append(append([]byte{}, gen2...), gen2...))
	require.NoError(t, err)
	msm2, err := contractAt(t, rules.Prague, 0x0e).Run(append(append([]byte{}, gen2...), scalar2...))
	require.NoError(t, err)
	assert.Equal(t, sum2, msm2)

	// e(G1, G2) * e(-G1, G2) == 1
	var neg bls12381.G1Affine
	neg.Neg(&g1)
	pairs := append(append(append(append([]byte{}, gen1...), gen2...), encodeBLSG1(&neg)...), gen2...)
	out, err = contractAt(t, rules.Prague, 0x0f).Run(pairs)
	require.NoError(t, err)
	assert.Equal(t, byte(1), out[31])

	out, err = contractAt(t, rules.Prague, 0x0f).Run(append(append([]byte{}, gen1...), gen2...))
	require.NoError(t, err)
	assert.Equal(t, byte(0), out[31])

	out, err = contractAt(t, rules.Prague, 0x10).Run(make([]byte, blsFieldLen))
	require.NoError(t, err)
	p, err := decodeBLSG1(out, true)
	require.NoError(t, err)
	assert.False(t, p.IsInfinity())

	_, err = contractAt(t, rules.Prague, 0x11).Run(make([]byte, 2*blsFieldLen))
	require.NoError(t, err)

	bad := append([]byte{}, gen1...)
	bad[0] = 1
	_, err = contractAt(t, rules.Prague, 0x0b).Run(append(bad, gen1...))
	assert.ErrorIs(t, err, vmerrors.ErrPInvalidFieldElement)
	_, err = contractAt(t, rules.Prague, 0x0c).Run(nil)
	assert.ErrorIs(t, err, vmerrors.ErrPInvalidInput)
}

func TestMSMGas(t *testing.T) {
	c := contractAt(t, rules.Prague, 0x0c)
	assert.Equal(t, uint64(12000), c.RequiredGas(make([]byte, blsG1PairLen)))
	assert.Equal(t, uint64(2*12000*949/1000), c.RequiredGas(make([]byte, 2*blsG1PairLen)))
	// the table is capped at its last entry
	assert.Equal(t, uint64(200*12000*519/1000), c.RequiredGas(make([]byte, 200*blsG1PairLen)))
	assert.Zero(t, c.RequiredGas(nil))
}
