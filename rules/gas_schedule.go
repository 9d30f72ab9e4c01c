package rules

import (
	"github.com/ethereum/go-ethereum/params"
)

// SstoreScheme selects the SSTORE metering algorithm.
type SstoreScheme uint8

const (
	SstoreLegacy     SstoreScheme = iota // set/reset/clear-refund
	SstoreNetMetered                     // EIP-1283 and EIP-2200 dirty-slot accounting
)

// GasSchedule holds every repriceable constant. Fields are plain data so a
// rule-set file can override any of them.
type GasSchedule struct {
	// state access
	Sload        uint64 `json:"sload"`
	Balance      uint64 `json:"balance"`
	ExtcodeSize  uint64 `json:"extcodesize"`
	ExtcodeCopy  uint64 `json:"extcodecopy"`
	ExtcodeHash  uint64 `json:"extcodehash"`
	Call         uint64 `json:"call"`
	Selfdestruct uint64 `json:"selfdestruct"`

	// EIP-2929 access lists, zero before Berlin
	ColdAccountAccess uint64 `json:"cold_account_access"`
	ColdSload         uint64 `json:"cold_sload"`
	WarmStorageRead   uint64 `json:"warm_storage_read"`

	// SSTORE
	SstoreSet         uint64 `json:"sstore_set"`
	SstoreReset       uint64 `json:"sstore_reset"`
	SstoreNoop        uint64 `json:"sstore_noop"` // net metering: unchanged or dirty slot
	SstoreClearRefund uint64 `json:"sstore_clear_refund"`
	SstoreSentry      uint64 `json:"sstore_sentry"` // EIP-2200, zero disables the check

	// transfers and frames
	CallStipend          uint64 `json:"call_stipend"`
	CallValueTransfer    uint64 `json:"call_value_transfer"`
	CallNewAccount       uint64 `json:"call_new_account"`
	CreateBySelfdestruct uint64 `json:"create_by_selfdestruct"`
	SelfdestructRefund   uint64 `json:"selfdestruct_refund"`
	Create               uint64 `json:"create"`
	CreateData           uint64 `json:"create_data"`
	InitCodeWord         uint64 `json:"init_code_word"`

	// compute
	Exp           uint64 `json:"exp"`
	ExpByte       uint64 `json:"exp_byte"`
	Keccak256     uint64 `json:"keccak256"`
	Keccak256Word uint64 `json:"keccak256_word"`
	Copy          uint64 `json:"copy"`
	Log           uint64 `json:"log"`
	LogTopic      uint64 `json:"log_topic"`
	LogData       uint64 `json:"log_data"`
	Memory        uint64 `json:"memory"`
	QuadCoeffDiv  uint64 `json:"quad_coeff_div"`
	Jumpdest      uint64 `json:"jumpdest"`

	// EIP-1153
	TransientLoad  uint64 `json:"tload"`
	TransientStore uint64 `json:"tstore"`

	// precompiles
	Ecrecover            uint64 `json:"ecrecover"`
	Sha256Base           uint64 `json:"sha256_base"`
	Sha256Word           uint64 `json:"sha256_word"`
	Ripemd160Base        uint64 `json:"ripemd160_base"`
	Ripemd160Word        uint64 `json:"ripemd160_word"`
	IdentityBase         uint64 `json:"identity_base"`
	IdentityWord         uint64 `json:"identity_word"`
	ModExpMin            uint64 `json:"modexp_min"`
	ModExpQuadDivisor    uint64 `json:"modexp_quad_divisor"`
	Bn256Add             uint64 `json:"bn256_add"`
	Bn256ScalarMul       uint64 `json:"bn256_scalar_mul"`
	Bn256PairingBase     uint64 `json:"bn256_pairing_base"`
	Bn256PairingPerPoint uint64 `json:"bn256_pairing_per_point"`
	Blake2FRound         uint64 `json:"blake2f_round"`
	PointEvaluation      uint64 `json:"point_evaluation"`
	BlsG1Add             uint64 `json:"bls_g1_add"`
	BlsG1Mul             uint64 `json:"bls_g1_mul"`
	BlsG2Add             uint64 `json:"bls_g2_add"`
	BlsG2Mul             uint64 `json:"bls_g2_mul"`
	BlsPairingBase       uint64 `json:"bls_pairing_base"`
	BlsPairingPerPair    uint64 `json:"bls_pairing_per_pair"`
	BlsMapG1             uint64 `json:"bls_map_g1"`
	BlsMapG2             uint64 `json:"bls_map_g2"`
}

// DefaultGasSchedule returns the schedule in force at fork f.
func DefaultGasSchedule(f Fork) GasSchedule {
	g := GasSchedule{
		Sload:        params.SloadGasFrontier,
		Balance:      params.BalanceGasFrontier,
		ExtcodeSize:  params.ExtcodeSizeGasFrontier,
		ExtcodeCopy:  params.ExtcodeCopyBaseFrontier,
		Call:         params.CallGasFrontier,
		Selfdestruct: 0,

		SstoreSet:         params.SstoreSetGas,
		SstoreReset:       params.SstoreResetGas,
		SstoreClearRefund: params.SstoreRefundGas,

		CallStipend:        params.CallStipend,
		CallValueTransfer:  params.CallValueTransferGas,
		CallNewAccount:     params.CallNewAccountGas,
		SelfdestructRefund: params.SelfdestructRefundGas,
		Create:             params.CreateGas,
		CreateData:         params.CreateDataGas,

		Exp:           params.ExpGas,
		ExpByte:       params.ExpByteFrontier,
		Keccak256:     params.Keccak256Gas,
		Keccak256Word: params.Keccak256WordGas,
		Copy:          params.CopyGas,
		Log:           params.LogGas,
		LogTopic:      params.LogTopicGas,
		LogData:       params.LogDataGas,
		Memory:        params.MemoryGas,
		QuadCoeffDiv:  params.QuadCoeffDiv,
		Jumpdest:      params.JumpdestGas,

		Ecrecover:     params.EcrecoverGas,
		Sha256Base:    params.Sha256BaseGas,
		Sha256Word:    params.Sha256PerWordGas,
		Ripemd160Base: params.Ripemd160BaseGas,
		Ripemd160Word: params.Ripemd160PerWordGas,
		IdentityBase:  params.IdentityBaseGas,
		IdentityWord:  params.IdentityPerWordGas,
	}
	if f >= TangerineWhistle {
		g.Sload = params.SloadGasEIP150
		g.Balance = params.BalanceGasEIP150
		g.ExtcodeSize = params.ExtcodeSizeGasEIP150
		g.ExtcodeCopy = params.ExtcodeCopyBaseEIP150
		g.Call = params.CallGasEIP150
		g.Selfdestruct = params.SelfdestructGasEIP150
		g.CreateBySelfdestruct = params.CreateBySelfdestructGas
	}
	if f >= SpuriousDragon {
		g.ExpByte = params.ExpByteEIP158
	}
	if f >= Byzantium {
		g.ModExpQuadDivisor = 20
		g.Bn256Add = params.Bn256AddGasByzantium
		g.Bn256ScalarMul = params.Bn256ScalarMulGasByzantium
		g.Bn256PairingBase = params.Bn256PairingBaseGasByzantium
		g.Bn256PairingPerPoint = params.Bn256PairingPerPointGasByzantium
	}
	if f >= Constantinople {
		g.ExtcodeHash = params.ExtcodeHashGasConstantinople
	}
	if f == Constantinople {
		// EIP-1283, withdrawn again in Petersburg
		g.SstoreNoop = params.NetSstoreNoopGas
		g.SstoreReset = params.NetSstoreCleanGas
		g.SstoreClearRefund = params.NetSstoreClearRefund
	}
	if f >= Istanbul {
		g.Sload = params.SloadGasEIP2200
		g.Balance = params.BalanceGasEIP1884
		g.ExtcodeHash = params.ExtcodeHashGasEIP1884
		g.SstoreNoop = params.SloadGasEIP2200
		g.SstoreSet = params.SstoreSetGasEIP2200
		g.SstoreReset = params.SstoreResetGasEIP2200
		g.SstoreClearRefund = params.SstoreClearsScheduleRefundEIP2200
		g.SstoreSentry = params.SstoreSentryGasEIP2200
		g.Bn256Add = params.Bn256AddGasIstanbul
		g.Bn256ScalarMul = params.Bn256ScalarMulGasIstanbul
		g.Bn256PairingBase = params.Bn256PairingBaseGasIstanbul
		g.Bn256PairingPerPoint = params.Bn256PairingPerPointGasIstanbul
		g.Blake2FRound = 1
	}
	if f >= Berlin {
		// warm costs replace the flat access prices; cold surcharges are added on first touch
		g.ColdAccountAccess = params.ColdAccountAccessCostEIP2929
		g.ColdSload = params.ColdSloadCostEIP2929
		g.WarmStorageRead = params.WarmStorageReadCostEIP2929
		g.Sload = params.WarmStorageReadCostEIP2929
		g.Balance = params.WarmStorageReadCostEIP2929
		g.ExtcodeSize = params.WarmStorageReadCostEIP2929
		g.ExtcodeCopy = params.WarmStorageReadCostEIP2929
		g.ExtcodeHash = params.WarmStorageReadCostEIP2929
		g.Call = params.WarmStorageReadCostEIP2929
		g.SstoreNoop = params.WarmStorageReadCostEIP2929
		g.SstoreReset = params.SstoreResetGasEIP2200 - params.ColdSloadCostEIP2929
		g.ModExpMin = 200
		g.ModExpQuadDivisor = 3
	}
	if f >= London {
		g.SstoreClearRefund = params.SstoreClearsScheduleRefundEIP3529
		g.SelfdestructRefund = 0
	}
	if f >= Shanghai {
		g.InitCodeWord = params.InitCodeWordGas
	}
	if f >= Cancun {
		g.TransientLoad = params.WarmStorageReadCostEIP2929
		g.TransientStore = params.WarmStorageReadCostEIP2929
		g.PointEvaluation = params.BlobTxPointEvaluationPrecompileGas
	}
	if f >= Prague {
		g.BlsG1Add = 375
		g.BlsG1Mul = 12000
		g.BlsG2Add = 600
		g.BlsG2Mul = 22500
		g.BlsPairingBase = 37700
		g.BlsPairingPerPair = 32600
		g.BlsMapG1 = 5500
		g.BlsMapG2 = 23800
	}
	return g
}
