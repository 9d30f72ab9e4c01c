// Copyright 2024 The go-ethereum Authors
// This file is part of the go-ethereum library.
//
// The go-ethereum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-ethereum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-ethereum library. If not, see <http://www.gnu.org/licenses/>.

package vm

import (
	"math"
	"math/bits"

	"github.com/colorfulnotion/evm/rules"
	"github.com/colorfulnotion/evm/vmerrors"
	"github.com/holiman/uint256"
)

// maxMemorySize keeps word counts well inside the quadratic cost's uint64 range.
const maxMemorySize = 0x1FFFFFFFE0

// Memory is the byte-addressable, word-aligned memory of one frame. It only grows.
type Memory struct {
	store       []byte
	lastGasCost uint64

	linear  uint64
	quadDiv uint64
	limit   uint64
}

// NewMemory returns a new memory priced by g; limit 0 means unbounded.
func NewMemory(g *rules.GasSchedule, limit uint64) *Memory {
	return &Memory{linear: g.Memory, quadDiv: g.QuadCoeffDiv, limit: limit}
}

// toWordSize returns the ceiled word size required for memory expansion.
func toWordSize(size uint64) uint64 {
	if size > math.MaxUint64-31 {
		return math.MaxUint64/32 + 1
	}
	return (size + 31) / 32
}

// totalCost is linear*words + words²/quadDiv.
func (m *Memory) totalCost(words uint64) uint64 {
	quad := words * words
	if m.quadDiv != 0 {
		quad /= m.quadDiv
	} else {
		quad = 0
	}
	return words*m.linear + quad
}

// EnsureCapacity computes the word-aligned size needed to access
// [offset, offset+length) and the marginal gas of growing to it. Nothing is
// charged or allocated; call Resize after the gas has been paid.
func (m *Memory) EnsureCapacity(offset, length uint64) (newSize, cost uint64, err error) {
	if length == 0 {
		return uint64(len(m.store)), 0, nil
	}
	end, carry := bits.Add64(offset, length, 0)
	if carry != 0 {
		return 0, 0, vmerrors.ErrGGasUintOverflow
	}
	return m.expansion(end)
}

// expansion prices growth to at least size bytes.
func (m *Memory) expansion(size uint64) (newSize, cost uint64, err error) {
	if size <= uint64(len(m.store)) {
		return uint64(len(m.store)), 0, nil
	}
	if size > maxMemorySize {
		return 0, 0, vmerrors.ErrGGasUintOverflow
	}
	words := toWordSize(size)
	newSize = words * 32
	if m.limit != 0 && newSize > m.limit {
		return 0, 0, vmerrors.ErrMMemoryLimitExceeded
	}
	newTotal := m.totalCost(words)
	return newSize, newTotal - m.lastGasCost, nil
}

// Resize grows the memory to size bytes, which must be word aligned.
func (m *Memory) Resize(size uint64) {
	if uint64(len(m.store)) >= size {
		return
	}
	m.lastGasCost = m.totalCost(size / 32)
	old := len(m.store)
	if uint64(cap(m.store)) >= size {
		m.store = m.store[:size]
		clear(m.store[old:])
		return
	}
	m.store = append(m.store, make([]byte, size-uint64(old))...)
}

// Set sets offset + size to value
func (m *Memory) Set(offset, size uint64, value []byte) {
	// offset may be non-zero with size 0, which is a no-op
	if size > 0 {
		// length of store may never be less than offset + size.
		// The store should be resized PRIOR to setting the memory
		if offset+size > uint64(len(m.store)) {
			panic("invalid memory: store empty")
		}
		copy(m.store[offset:offset+size], value)
	}
}

// Set32 sets the 32 bytes starting at offset to the value of val, left-padded with zeroes to
// 32 bytes.
func (m *Memory) Set32(offset uint64, val *uint256.Int) {
	// length of store may never be less than offset + size.
	// The store should be resized PRIOR to setting the memory
	if offset+32 > uint64(len(m.store)) {
		panic("invalid memory: store empty")
	}
	// Fill in relevant bits
	b32 := val.Bytes32()
	copy(m.store[offset:], b32[:])
}

// Write copies data to offset after checking the region was sized; the
// region past len(data) is left untouched.
func (m *Memory) Write(offset uint64, data []byte) error {
	if offset+uint64(len(data)) > uint64(len(m.store)) || offset+uint64(len(data)) < offset {
		return vmerrors.ErrGGasUintOverflow
	}
	copy(m.store[offset:], data)
	return nil
}

// Read returns a copy of [offset, offset+size)
func (m *Memory) Read(offset, size uint64) ([]byte, error) {
	if size == 0 {
		return nil, nil
	}
	if offset+size > uint64(len(m.store)) || offset+size < offset {
		return nil, vmerrors.ErrGGasUintOverflow
	}
	return m.GetCopy(offset, size), nil
}

// GetCopy returns offset + size as a new slice
func (m *Memory) GetCopy(offset, size uint64) (cpy []byte) {
	if size == 0 {
		return nil
	}
	// memory is always resized before being accessed, no need to check bounds
	cpy = make([]byte, size)
	copy(cpy, m.store[offset:offset+size])
	return
}

// GetPtr returns the offset + size
func (m *Memory) GetPtr(offset, size uint64) []byte {
	if size == 0 {
		return nil
	}
	// memory is always resized before being accessed, no need to check bounds
	return m.store[offset : offset+size]
}

// Len returns the length of the backing slice
func (m *Memory) Len() int {
	return len(m.store)
}

// Data returns the backing slice
func (m *Memory) Data() []byte {
	return m.store
}

// Copy copies data from the src position slice into the dst position.
// The source and destination may overlap.
func (m *Memory) Copy(dst, src, len uint64) {
	if len == 0 {
		return
	}
	copy(m.store[dst:], m.store[src:src+len])
}
