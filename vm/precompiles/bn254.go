package precompiles

import (
	"fmt"
	"math/big"

	"github.com/colorfulnotion/evm/rules"
	"github.com/colorfulnotion/evm/vmerrors"
	"github.com/consensys/gnark-crypto/ecc/bn254"
)

// BN254 (alt_bn128) arithmetic of EIP-196 and the pairing check of EIP-197.

func decodeBN254G1(in []byte) (*bn254.G1Affine, error) {
	p := new(bn254.G1Affine)
	if err := p.X.SetBytesCanonical(in[:32]); err != nil {
		return nil, vmerrors.ErrPInvalidFieldElement
	}
	if err := p.Y.SetBytesCanonical(in[32:64]); err != nil {
		return nil, vmerrors.ErrPInvalidFieldElement
	}
	if !p.IsOnCurve() {
		return nil, vmerrors.ErrPInvalidPoint
	}
	return p, nil
}

// decodeBN254G2 reads the imaginary part of each coordinate first.
func decodeBN254G2(in []byte) (*bn254.G2Affine, error) {
	p := new(bn254.G2Affine)
	var err error
	for i, e := range []error{
		p.X.A1.SetBytesCanonical(in[0:32]),
		p.X.A0.SetBytesCanonical(in[32:64]),
		p.Y.A1.SetBytesCanonical(in[64:96]),
		p.Y.A0.SetBytesCanonical(in[96:128]),
	} {
		if e != nil && err == nil {
			err = fmt.Errorf("%w: coordinate %d", vmerrors.ErrPInvalidFieldElement, i)
		}
	}
	if err != nil {
		return nil, err
	}
	if !p.IsOnCurve() || !p.IsInSubGroup() {
		return nil, vmerrors.ErrPInvalidPoint
	}
	return p, nil
}

func encodeBN254G1(p *bn254.G1Affine) []byte {
	out := make([]byte, 64)
	x, y := p.X.Bytes(), p.Y.Bytes()
	copy(out[:32], x[:])
	copy(out[32:], y[:])
	return out
}

type bn254Add struct{ g *rules.GasSchedule }

func (c *bn254Add) Name() string                    { return "BN254_ADD" }
func (c *bn254Add) RequiredGas(input []byte) uint64 { return c.g.Bn256Add }

func (c *bn254Add) Run(input []byte) ([]byte, error) {
	input = getData(input, 0, 128)
	a, err := decodeBN254G1(input[:64])
	if err != nil {
		return nil, err
	}
	b, err := decodeBN254G1(input[64:])
	if err != nil {
		return nil, err
	}
	var ja, jb bn254.G1Jac
	ja.FromAffine(a)
	jb.FromAffine(b)
	ja.AddAssign(&jb)
	var r bn254.G1Affine
	r.FromJacobian(&ja)
	return encodeBN254G1(&r), nil
}

type bn254ScalarMul struct{ g *rules.GasSchedule }

func (c *bn254ScalarMul) Name() string                    { return "BN254_MUL" }
func (c *bn254ScalarMul) RequiredGas(input []byte) uint64 { return c.g.Bn256ScalarMul }

func (c *bn254ScalarMul) Run(input []byte) ([]byte, error) {
	input = getData(input, 0, 96)
	p, err := decodeBN254G1(input[:64])
	if err != nil {
		return nil, err
	}
	var r bn254.G1Affine
	r.ScalarMultiplication(p, new(big.Int).SetBytes(input[64:96]))
	return encodeBN254G1(&r), nil
}

// bn254Pairing checks that the product of the pairings of its (G1, G2)
// pairs is one.
type bn254Pairing struct{ g *rules.GasSchedule }

func (c *bn254Pairing) Name() string { return "BN254_PAIRING" }

func (c *bn254Pairing) RequiredGas(input []byte) uint64 {
	return c.g.Bn256PairingBase + uint64(len(input)/192)*c.g.Bn256PairingPerPoint
}

func (c *bn254Pairing) Run(input []byte) ([]byte, error) {
	if len(input)%192 > 0 {
		return nil, vmerrors.ErrPInvalidInput
	}
	var (
		cs []bn254.G1Affine
		ts []bn254.G2Affine
	)
	for i := 0; i < len(input); i += 192 {
		a, err := decodeBN254G1(input[i : i+64])
		if err != nil {
			return nil, err
		}
		b, err := decodeBN254G2(input[i+64 : i+192])
		if err != nil {
			return nil, err
		}
		cs = append(cs, *a)
		ts = append(ts, *b)
	}
	out := make([]byte, 32)
	if len(cs) == 0 {
		out[31] = 1
		return out, nil
	}
	if ok, err := bn254.PairingCheck(cs, ts); err == nil && ok {
		out[31] = 1
	}
	return out, nil
}
