// Copyright 2019-2025 The Liqo Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package ipamcore

import (
	"encoding/binary"
	"math/bits"
	"net/netip"
)

// uint128 holds an address as two 64-bit words.
// IPv4 addresses live in the low 32 bits of lo.
type uint128 struct {
	hi, lo uint64
}

// u128From converts an address into its integer form.
func u128From(addr netip.Addr) uint128 {
	if addr.Is4() {
		b := addr.As4()
		return uint128{lo: uint64(binary.BigEndian.Uint32(b[:]))}
	}
	b := addr.As16()
	return uint128{
		hi: binary.BigEndian.Uint64(b[:8]),
		lo: binary.BigEndian.Uint64(b[8:]),
	}
}

// addr converts back to an address of the given bit length (32 or 128).
func (u uint128) addr(bitLen int) netip.Addr {
	if bitLen == 32 {
		var b [4]byte
		binary.BigEndian.PutUint32(b[:], uint32(u.lo))
		return netip.AddrFrom4(b)
	}
	var b [16]byte
	binary.BigEndian.PutUint64(b[:8], u.hi)
	binary.BigEndian.PutUint64(b[8:], u.lo)
	return netip.AddrFrom16(b)
}

// addOne returns u+1, wrapping at 2^128.
func (u uint128) addOne() uint128 {
	lo, carry := bits.Add64(u.lo, 1, 0)
	hi, _ := bits.Add64(u.hi, 0, carry)
	return uint128{hi: hi, lo: lo}
}

func (u uint128) or(v uint128) uint128 {
	return uint128{hi: u.hi | v.hi, lo: u.lo | v.lo}
}

func (u uint128) cmp(v uint128) int {
	switch {
	case u.hi < v.hi:
		return -1
	case u.hi > v.hi:
		return 1
	case u.lo < v.lo:
		return -1
	case u.lo > v.lo:
		return 1
	}
	return 0
}

// trailingZeros returns the number of trailing zero bits, 128 for zero.
func (u uint128) trailingZeros() int {
	if u.lo != 0 {
		return bits.TrailingZeros64(u.lo)
	}
	if u.hi != 0 {
		return 64 + bits.TrailingZeros64(u.hi)
	}
	return 128
}

// lowMask returns a value with the n least significant bits set.
func lowMask(n int) uint128 {
	switch {
	case n <= 0:
		return uint128{}
	case n >= 128:
		return uint128{hi: ^uint64(0), lo: ^uint64(0)}
	case n >= 64:
		return uint128{hi: uint64(1)<<uint(n-64) - 1, lo: ^uint64(0)}
	default:
		return uint128{lo: uint64(1)<<uint(n) - 1}
	}
}

// bitAt returns a value with only bit n (counting from the least significant) set.
func bitAt(n int) uint128 {
	if n >= 64 {
		return uint128{hi: uint64(1) << uint(n-64)}
	}
	return uint128{lo: uint64(1) << uint(n)}
}
