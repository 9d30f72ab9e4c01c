package common

import (
	"fmt"
	"math/big"

	ethereumCommon "github.com/ethereum/go-ethereum/common"
)

// Hash and Address are the go-ethereum types, re-exported so callers need a single import.
type (
	Hash    = ethereumCommon.Hash
	Address = ethereumCommon.Address
)

func Bytes2Hex(d []byte) string {
	return "0x" + ethereumCommon.Bytes2Hex(d)
}

func Bytes2String(d []byte) string { return ethereumCommon.Bytes2Hex(d) }

// FromHex decodes a hex string with or without the 0x prefix. Odd lengths are left padded.
func FromHex(b string) []byte { return ethereumCommon.FromHex(b) }

func HexToHash(s string) Hash { return ethereumCommon.HexToHash(s) }

func HexToAddress(s string) Address { return ethereumCommon.HexToAddress(s) }

func BytesToHash(b []byte) Hash { return ethereumCommon.BytesToHash(b) }

func BigToHash(b *big.Int) Hash { return ethereumCommon.BigToHash(b) }

func BytesToAddress(b []byte) Address { return ethereumCommon.BytesToAddress(b) }

// CopyBytes returns an exact copy of b.
func CopyBytes(b []byte) []byte { return ethereumCommon.CopyBytes(b) }

// LeftPadBytes zero-pads slice to the left up to length l.
func LeftPadBytes(slice []byte, l int) []byte { return ethereumCommon.LeftPadBytes(slice, l) }

// RightPadBytes zero-pads slice to the right up to length l.
func RightPadBytes(slice []byte, l int) []byte { return ethereumCommon.RightPadBytes(slice, l) }

// ShortAddress prints an address as 0x1234..abcd
func ShortAddress(a Address) string {
	h := a.Hex()
	return fmt.Sprintf("%s..%s", h[:6], h[len(h)-4:])
}

// devAddresses and devKeys are the Hardhat/Anvil accounts of the mnemonic
// "test test test test test test test test test test test junk".
var devAddresses = [...]Address{
	HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"), // Account #0
	HexToAddress("0x70997970C51812dc3A010C7d01b50e0d17dc79C8"), // Account #1
	HexToAddress("0x3C44CdDdB6a900fa2b585dd299e03d12FA4293BC"), // Account #2
	HexToAddress("0x90F79bf6EB2c4f870365E785982E1f101E93b906"), // Account #3
	HexToAddress("0x15d34AAf54267DB7D7c367839AAf71A00a2C6A65"), // Account #4
	HexToAddress("0x9965507D1a55bcC2695C58ba16FB37d819B0A4dc"), // Account #5
	HexToAddress("0x976EA74026E726554dB657fA54763abd0C3a0aa9"), // Account #6
	HexToAddress("0x14dC79964da2C08b23698B3D3cc7Ca32193d9955"), // Account #7
	HexToAddress("0x23618e81E3f5cdF7f54C3d65f7FBc0aBf5B21E8f"), // Account #8
	HexToAddress("0xa0Ee7A142d267C1f36714E4a8F75612F20a79720"), // Account #9
}

var devKeys = [...]string{
	"ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80", // Account #0
	"59c6995e998f97a5a0044966f0945389dc9e86dae88c7a8412f4603b6b78690d", // Account #1
	"5de4111afa1a4b94908f83103eb1f1706367c2e68ca870fc3fb9a804cdab365a", // Account #2
	"7c852118294e51e653712a81e05800f419141751be58f605c371e15141b007a6", // Account #3
	"47e179ec197488593b187f80a00eb0da91f1b9d0b13f8733639f19c30a34926a", // Account #4
	"8b3a350cf5c34c9194ca85829a2df0ec3153be0318b5e2d3348e872092edffba", // Account #5
	"92db14e403b83dfe3df233f83dfa3a0d7096f21ca9b0d6d6b8d88b2b4ec1564e", // Account #6
	"4bbbf85ce3377467afe5d46f804f221813b2bb87f24d81f60f1fcdbf7cbf4356", // Account #7
	"dbda1821b80551c9d65939329250298aa3472ba22feea921c0cf5d620ea67b97", // Account #8
	"2a871d0798f97d79848a013d4936a73bf4cc922c825d33c1cf7073dff6d409c6", // Account #9
}

// GetEVMDevAccount returns the address and hex private key (no 0x) of dev
// account index % 10. They are the default senders of the command line tool.
func GetEVMDevAccount(index int) (Address, string) {
	return devAddresses[index%len(devAddresses)], devKeys[index%len(devKeys)]
}
