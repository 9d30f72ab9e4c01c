package precompiles

import (
	"github.com/colorfulnotion/evm/rules"
	"github.com/colorfulnotion/evm/vmerrors"
	"github.com/consensys/gnark-crypto/ecc"
	bls12381 "github.com/consensys/gnark-crypto/ecc/bls12-381"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/fp"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
)

// BLS12-381 operations of EIP-2537. Field elements are 64 bytes with the top
// 16 zero, G1 points 128 bytes, G2 points 256 bytes (c0 before c1) and
// scalars 32 bytes.

const (
	blsFieldLen    = 64
	blsG1Len       = 2 * blsFieldLen
	blsG2Len       = 4 * blsFieldLen
	blsScalarLen   = 32
	blsG1PairLen   = blsG1Len + blsScalarLen
	blsG2PairLen   = blsG2Len + blsScalarLen
	blsPairingLen  = blsG1Len + blsG2Len
	blsDiscountDiv = 1000
)

// Multi-scalar multiplication discounts, per mille, indexed by pair count - 1.
var (
	blsG1MSMDiscount = [128]uint64{1000, 949, 848, 797, 764, 750, 738, 728, 719, 712, 705, 698, 692, 687, 682, 677, 673, 669, 665, 661, 658, 654, 651, 648, 645, 642, 640, 637, 635, 632, 630, 627, 625, 623, 621, 619, 617, 615, 613, 611, 609, 608, 606, 604, 603, 601, 599, 598, 596, 595, 593, 592, 591, 589, 588, 586, 585, 584, 582, 581, 580, 579, 577, 576, 575, 574, 573, 572, 570, 569, 568, 567, 566, 565, 564, 563, 562, 561, 560, 559, 558, 557, 556, 555, 554, 553, 552, 551, 550, 549, 548, 547, 547, 546, 545, 544, 543, 542, 541, 540, 540, 539, 538, 537, 536, 536, 535, 534, 533, 532, 532, 531, 530, 529, 528, 528, 527, 526, 525, 525, 524, 523, 522, 522, 521, 520, 520, 519}
	blsG2MSMDiscount = [128]uint64{1000, 1000, 923, 884, 855, 832, 812, 796, 782, 770, 759, 749, 740, 732, 724, 717, 711, 704, 699, 693, 688, 683, 679, 674, 670, 666, 663, 659, 655, 652, 649, 646, 643, 640, 637, 634, 632, 629, 627, 624, 622, 620, 618, 615, 613, 611, 609, 607, 606, 604, 602, 600, 598, 597, 595, 593, 592, 590, 589, 587, 586, 584, 583, 582, 580, 579, 578, 576, 575, 574, 573, 571, 570, 569, 568, 567, 566, 565, 563, 562, 561, 560, 559, 558, 557, 556, 555, 554, 553, 552, 552, 551, 550, 549, 548, 547, 546, 545, 545, 544, 543, 542, 541, 541, 540, 539, 538, 537, 537, 536, 535, 535, 534, 533, 532, 532, 531, 530, 530, 529, 528, 528, 527, 526, 526, 525, 524, 524}
)

func msmGas(input []byte, pairLen int, mul uint64, table *[128]uint64) uint64 {
	k := len(input) / pairLen
	if k == 0 {
		return 0
	}
	discount := table[min(k, len(table))-1]
	return uint64(k) * mul * discount / blsDiscountDiv
}

func decodeBLSField(in []byte) (fp.Element, error) {
	var e fp.Element
	if !allZero(in[:16]) {
		return e, vmerrors.ErrPInvalidFieldElement
	}
	if err := e.SetBytesCanonical(in[16:blsFieldLen]); err != nil {
		return e, vmerrors.ErrPInvalidFieldElement
	}
	return e, nil
}

// decodeBLSG1 reads a G1 point. Subgroup membership is checked only when
// subgroup is set: addition does not require it.
func decodeBLSG1(in []byte, subgroup bool) (*bls12381.G1Affine, error) {
	x, err := decodeBLSField(in[:blsFieldLen])
	if err != nil {
		return nil, err
	}
	y, err := decodeBLSField(in[blsFieldLen:blsG1Len])
	if err != nil {
		return nil, err
	}
	p := &bls12381.G1Affine{X: x, Y: y}
	if !p.IsOnCurve() || (subgroup && !p.IsInSubGroup()) {
		return nil, vmerrors.ErrPInvalidPoint
	}
	return p, nil
}

func decodeBLSG2(in []byte, subgroup bool) (*bls12381.G2Affine, error) {
	var (
		p    = new(bls12381.G2Affine)
		dsts = []*fp.Element{&p.X.A0, &p.X.A1, &p.Y.A0, &p.Y.A1}
	)
	for i, dst := range dsts {
		e, err := decodeBLSField(in[i*blsFieldLen : (i+1)*blsFieldLen])
		if err != nil {
			return nil, err
		}
		*dst = e
	}
	if !p.IsOnCurve() || (subgroup && !p.IsInSubGroup()) {
		return nil, vmerrors.ErrPInvalidPoint
	}
	return p, nil
}

func encodeBLSFields(elems ...*fp.Element) []byte {
	out := make([]byte, len(elems)*blsFieldLen)
	for i, e := range elems {
		b := e.Bytes()
		copy(out[i*blsFieldLen+16:(i+1)*blsFieldLen], b[:])
	}
	return out
}

func encodeBLSG1(p *bls12381.G1Affine) []byte { return encodeBLSFields(&p.X, &p.Y) }

func encodeBLSG2(p *bls12381.G2Affine) []byte {
	return encodeBLSFields(&p.X.A0, &p.X.A1, &p.Y.A0, &p.Y.A1)
}

type bls12381G1Add struct{ g *rules.GasSchedule }

func (c *bls12381G1Add) Name() string                    { return "BLS12_G1ADD" }
func (c *bls12381G1Add) RequiredGas(input []byte) uint64 { return c.g.BlsG1Add }

func (c *bls12381G1Add) Run(input []byte) ([]byte, error) {
	if len(input) != 2*blsG1Len {
		return nil, vmerrors.ErrPInvalidInput
	}
	a, err := decodeBLSG1(input[:blsG1Len], false)
	if err != nil {
		return nil, err
	}
	b, err := decodeBLSG1(input[blsG1Len:], false)
	if err != nil {
		return nil, err
	}
	var ja, jb bls12381.G1Jac
	ja.FromAffine(a)
	jb.FromAffine(b)
	ja.AddAssign(&jb)
	var r bls12381.G1Affine
	r.FromJacobian(&ja)
	return encodeBLSG1(&r), nil
}

type bls12381G1MultiExp struct{ g *rules.GasSchedule }

func (c *bls12381G1MultiExp) Name() string { return "BLS12_G1MSM" }

func (c *bls12381G1MultiExp) RequiredGas(input []byte) uint64 {
	return msmGas(input, blsG1PairLen, c.g.BlsG1Mul, &blsG1MSMDiscount)
}

func (c *bls12381G1MultiExp) Run(input []byte) ([]byte, error) {
	k := len(input) / blsG1PairLen
	if k == 0 || len(input)%blsG1PairLen != 0 {
		return nil, vmerrors.ErrPInvalidInput
	}
	points := make([]bls12381.G1Affine, k)
	scalars := make([]fr.Element, k)
	for i := 0; i < k; i++ {
		off := i * blsG1PairLen
		p, err := decodeBLSG1(input[off:off+blsG1Len], true)
		if err != nil {
			return nil, err
		}
		points[i] = *p
		scalars[i].SetBytes(input[off+blsG1Len : off+blsG1PairLen])
	}
	var r bls12381.G1Affine
	if _, err := r.MultiExp(points, scalars, ecc.MultiExpConfig{}); err != nil {
		return nil, vmerrors.ErrPInvalidInput
	}
	return encodeBLSG1(&r), nil
}

type bls12381G2Add struct{ g *rules.GasSchedule }

func (c *bls12381G2Add) Name() string                    { return "BLS12_G2ADD" }
func (c *bls12381G2Add) RequiredGas(input []byte) uint64 { return c.g.BlsG2Add }

func (c *bls12381G2Add) Run(input []byte) ([]byte, error) {
	if len(input) != 2*blsG2Len {
		return nil, vmerrors.ErrPInvalidInput
	}
	a, err := decodeBLSG2(input[:blsG2Len], false)
	if err != nil {
		return nil, err
	}
	b, err := decodeBLSG2(input[blsG2Len:], false)
	if err != nil {
		return nil, err
	}
	var ja, jb bls12381.G2Jac
	ja.FromAffine(a)
	jb.FromAffine(b)
	ja.AddAssign(&jb)
	var r bls12381.G2Affine
	r.FromJacobian(&ja)
	return encodeBLSG2(&r), nil
}

type bls12381G2MultiExp struct{ g *rules.GasSchedule }

func (c *bls12381G2MultiExp) Name() string { return "BLS12_G2MSM" }

func (c *bls12381G2MultiExp) RequiredGas(input []byte) uint64 {
	return msmGas(input, blsG2PairLen, c.g.BlsG2Mul, &blsG2MSMDiscount)
}

func (c *bls12381G2MultiExp) Run(input []byte) ([]byte, error) {
	k := len(input) / blsG2PairLen
	if k == 0 || len(input)%blsG2PairLen != 0 {
		return nil, vmerrors.ErrPInvalidInput
	}
	points := make([]bls12381.G2Affine, k)
	scalars := make([]fr.Element, k)
	for i := 0; i < k; i++ {
		off := i * blsG2PairLen
		p, err := decodeBLSG2(input[off:off+blsG2Len], true)
		if err != nil {
			return nil, err
		}
		points[i] = *p
		scalars[i].SetBytes(input[off+blsG2Len : off+blsG2PairLen])
	}
	var r bls12381.G2Affine
	if _, err := r.MultiExp(points, scalars, ecc.MultiExpConfig{}); err != nil {
		return nil, vmerrors.ErrPInvalidInput
	}
	return encodeBLSG2(&r), nil
}

type bls12381Pairing struct{ g *rules.GasSchedule }

func (c *bls12381Pairing) Name() string { return "BLS12_PAIRING_CHECK" }

func (c *bls12381Pairing) RequiredGas(input []byte) uint64 {
	return c.g.BlsPairingBase + uint64(len(input)/blsPairingLen)*c.g.BlsPairingPerPair
}

func (c *bls12381Pairing) Run(input []byte) ([]byte, error) {
	k := len(input) / blsPairingLen
	if k == 0 || len(input)%blsPairingLen != 0 {
		return nil, vmerrors.ErrPInvalidInput
	}
	ps := make([]bls12381.G1Affine, k)
	qs := make([]bls12381.G2Affine, k)
	for i := 0; i < k; i++ {
		off := i * blsPairingLen
		p, err := decodeBLSG1(input[off:off+blsG1Len], true)
		if err != nil {
			return nil, err
		}
		q, err := decodeBLSG2(input[off+blsG1Len:off+blsPairingLen], true)
		if err != nil {
			return nil, err
		}
		ps[i], qs[i] = *p, *q
	}
	out := make([]byte, 32)
	if ok, err := bls12381.PairingCheck(ps, qs); err == nil && ok {
		out[31] = 1
	}
	return out, nil
}

type bls12381MapG1 struct{ g *rules.GasSchedule }

func (c *bls12381MapG1) Name() string                    { return "BLS12_MAP_FP_TO_G1" }
func (c *bls12381MapG1) RequiredGas(input []byte) uint64 { return c.g.BlsMapG1 }

func (c *bls12381MapG1) Run(input []byte) ([]byte, error) {
	if len(input) != blsFieldLen {
		return nil, vmerrors.ErrPInvalidInput
	}
	u, err := decodeBLSField(input)
	if err != nil {
		return nil, err
	}
	r := bls12381.MapToG1(u)
	return encodeBLSG1(&r), nil
}

type bls12381MapG2 struct{ g *rules.GasSchedule }

func (c *bls12381MapG2) Name() string                    { return "BLS12_MAP_FP2_TO_G2" }
func (c *bls12381MapG2) RequiredGas(input []byte) uint64 { return c.g.BlsMapG2 }

func (c *bls12381MapG2) Run(input []byte) ([]byte, error) {
	if len(input) != 2*blsFieldLen {
		return nil, vmerrors.ErrPInvalidInput
	}
	c0, err := decodeBLSField(input[:blsFieldLen])
	if err != nil {
		return nil, err
	}
	c1, err := decodeBLSField(input[blsFieldLen:])
	if err != nil {
		return nil, err
	}
	r := bls12381.MapToG2(bls12381.E2{A0: c0, A1: c1})
	return encodeBLSG2(&r), nil
}
