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
	"fmt"
	"net/netip"
)

// Summarize returns the minimal list of blocks whose union is exactly the
// inclusive range [from, to], in ascending address order.
func Summarize(from, to netip.Addr) ([]netip.Prefix, error) {
	if !from.IsValid() || !to.IsValid() {
		return nil, fmt.Errorf("%w: invalid range %s - %s", ErrInvalidAddress, from, to)
	}
	if familyOfAddr(from) != familyOfAddr(to) {
		return nil, fmt.Errorf("%w: %s and %s", ErrFamilyMismatch, from, to)
	}
	from, to = from.WithZone(""), to.WithZone("")
	if from.Compare(to) > 0 {
		return nil, fmt.Errorf("%w: %s is greater than %s", ErrInvalidRange, from, to)
	}

	bitLen := from.BitLen()
	cursor, last := u128From(from), u128From(to)

	var blocks []netip.Prefix
	for {
		// The cursor alignment bounds the block size, the range end shrinks it further.
		hostBits := min(cursor.trailingZeros(), bitLen)
		for hostBits > 0 && cursor.or(lowMask(hostBits)).cmp(last) > 0 {
			hostBits--
		}

		blocks = append(blocks, netip.PrefixFrom(cursor.addr(bitLen), bitLen-hostBits))

		end := cursor.or(lowMask(hostBits))
		if end.cmp(last) == 0 {
			return blocks, nil
		}
		cursor = end.addOne()
	}
}

// SummarizeStrings parses the two addresses and summarizes the range between them.
func SummarizeStrings(from, to string) ([]netip.Prefix, error) {
	fromAddr, err := ParseAddr(from)
	if err != nil {
		return nil, err
	}
	toAddr, err := ParseAddr(to)
	if err != nil {
		return nil, err
	}
	return Summarize(fromAddr, toAddr)
}
