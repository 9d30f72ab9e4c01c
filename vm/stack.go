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
	"sync"

	"github.com/colorfulnotion/evm/vmerrors"
	"github.com/holiman/uint256"
)

// StackLimit is the number of words a frame's stack can hold.
const StackLimit = 1024

var stackPool = sync.Pool{
	New: func() interface{} {
		return &Stack{data: make([]uint256.Int, 0, 16)}
	},
}

// Stack is the word stack of one frame. The exported methods check bounds
// and fail with StackOverflow or StackUnderflow; the interpreter validates
// heights up front per instruction and then uses the unchecked forms.
type Stack struct {
	data []uint256.Int
}

func newstack() *Stack {
	return stackPool.Get().(*Stack)
}

func returnStack(s *Stack) {
	s.data = s.data[:0]
	stackPool.Put(s)
}

// Data returns the underlying uint256.Int array, bottom first.
func (st *Stack) Data() []uint256.Int {
	return st.data
}

func (st *Stack) Len() int {
	return len(st.data)
}

// Push copies d onto the stack.
func (st *Stack) Push(d *uint256.Int) error {
	if len(st.data) >= StackLimit {
		return vmerrors.ErrSStackOverflow
	}
	st.push(d)
	return nil
}

// Pop removes and returns the top word.
func (st *Stack) Pop() (uint256.Int, error) {
	if len(st.data) == 0 {
		return uint256.Int{}, vmerrors.ErrSStackUnderflow
	}
	return st.pop(), nil
}

// Peek returns the word depth positions below the top, 0 being the top.
func (st *Stack) Peek(depth int) (*uint256.Int, error) {
	if depth < 0 || depth >= len(st.data) {
		return nil, vmerrors.ErrSStackUnderflow
	}
	return st.Back(depth), nil
}

// Swap exchanges the top with the word n positions below it (SWAPn).
func (st *Stack) Swap(n int) error {
	if n < 1 || n >= len(st.data) {
		return vmerrors.ErrSStackUnderflow
	}
	st.swap(n)
	return nil
}

// Dup pushes a copy of the n-th word from the top, 1 being the top (DUPn).
func (st *Stack) Dup(n int) error {
	if n < 1 || n > len(st.data) {
		return vmerrors.ErrSStackUnderflow
	}
	if len(st.data) >= StackLimit {
		return vmerrors.ErrSStackOverflow
	}
	st.dup(n)
	return nil
}

func (st *Stack) push(d *uint256.Int) {
	// height already checked by the interpreter
	st.data = append(st.data, *d)
}

func (st *Stack) pop() (ret uint256.Int) {
	ret = st.data[len(st.data)-1]
	st.data = st.data[:len(st.data)-1]
	return
}

func (st *Stack) swap(n int) {
	top := len(st.data) - 1
	st.data[top], st.data[top-n] = st.data[top-n], st.data[top]
}

// exchange swaps the words at depths a and b.
func (st *Stack) exchange(a, b int) {
	top := len(st.data) - 1
	st.data[top-a], st.data[top-b] = st.data[top-b], st.data[top-a]
}

func (st *Stack) dup(n int) {
	st.data = append(st.data, st.data[len(st.data)-n])
}

func (st *Stack) peek() *uint256.Int {
	return &st.data[len(st.data)-1]
}

// Back returns the n'th item in stack
func (st *Stack) Back(n int) *uint256.Int {
	return &st.data[len(st.data)-n-1]
}
