package precompiles

import (
	"crypto/sha256"

	"github.com/colorfulnotion/evm/common"
	"github.com/colorfulnotion/evm/rules"
	"github.com/colorfulnotion/evm/vmerrors"
	"github.com/ethereum/go-ethereum/crypto/kzg4844"
)

const (
	blobVerifyInputLength = 192
	blobCommitmentVersion = 0x01
)

// blobPrecompileReturnValue is FIELD_ELEMENTS_PER_BLOB followed by BLS_MODULUS.
var blobPrecompileReturnValue = common.FromHex("000000000000000000000000000000000000000000000000000000000000100073eda753299d7d483339d80809a1d80553bda402fffe5bfeffffffff00000001")

// pointEvaluation verifies a KZG proof that a blob commitment opens to a
// claimed value at a point (EIP-4844).
type pointEvaluation struct{ g *rules.GasSchedule }

func (c *pointEvaluation) Name() string                    { return "KZG_POINT_EVALUATION" }
func (c *pointEvaluation) RequiredGas(input []byte) uint64 { return c.g.PointEvaluation }

func (c *pointEvaluation) Run(input []byte) ([]byte, error) {
	if len(input) != blobVerifyInputLength {
		return nil, vmerrors.ErrPInvalidInput
	}
	var (
		point      kzg4844.Point
		claim      kzg4844.Claim
		commitment kzg4844.Commitment
		proof      kzg4844.Proof
	)
	copy(point[:], input[32:64])
	copy(claim[:], input[64:96])
	copy(commitment[:], input[96:144])
	copy(proof[:], input[144:192])

	if versionedHash(commitment) != common.BytesToHash(input[:32]) {
		return nil, vmerrors.ErrPInvalidInput
	}
	if err := kzg4844.VerifyProof(commitment, point, claim, proof); err != nil {
		return nil, vmerrors.ErrPProofFailed
	}
	return common.CopyBytes(blobPrecompileReturnValue), nil
}

func versionedHash(c kzg4844.Commitment) common.Hash {
	h := sha256.Sum256(c[:])
	h[0] = blobCommitmentVersion
	return h
}
