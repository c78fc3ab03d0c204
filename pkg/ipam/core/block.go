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
	"strings"
)

// Family is the address family of a block.
type Family int

const (
	// IPv4 is the IPv4 address family.
	IPv4 Family = 4
	// IPv6 is the IPv6 address family.
	IPv6 Family = 6
)

func (f Family) String() string {
	switch f {
	case IPv4:
		return "ipv4"
	case IPv6:
		return "ipv6"
	}
	return fmt.Sprintf("family(%d)", int(f))
}

// FamilyOf returns the address family of the prefix.
func FamilyOf(prefix netip.Prefix) Family {
	return familyOfAddr(prefix.Addr())
}

func familyOfAddr(addr netip.Addr) Family {
	if addr.Is4() {
		return IPv4
	}
	return IPv6
}

// EntireSpace returns the block covering the whole address space of the family.
func EntireSpace(f Family) netip.Prefix {
	if f == IPv4 {
		return netip.PrefixFrom(netip.IPv4Unspecified(), 0)
	}
	return netip.PrefixFrom(netip.IPv6Unspecified(), 0)
}

// ParseBlock parses a CIDR ("10.0.0.0/24", "2001:db8::/32") or a single address,
// which is turned into a /32 or /128 block. Host bits must be zero.
func ParseBlock(s string) (netip.Prefix, error) {
	if !strings.Contains(s, "/") {
		addr, err := ParseAddr(s)
		if err != nil {
			return netip.Prefix{}, err
		}
		return netip.PrefixFrom(addr, addr.BitLen()), nil
	}

	prefix, err := netip.ParsePrefix(s)
	if err != nil {
		return netip.Prefix{}, fmt.Errorf("%w: %w", ErrInvalidAddress, err)
	}
	if err := checkHostBitsZero(prefix); err != nil {
		return netip.Prefix{}, fmt.Errorf("%w: %w", ErrInvalidAddress, err)
	}
	return prefix, nil
}

// ParseAddr parses a plain address, without prefix length nor zone.
func ParseAddr(s string) (netip.Addr, error) {
	addr, err := netip.ParseAddr(s)
	if err != nil {
		return netip.Addr{}, fmt.Errorf("%w: %w", ErrInvalidAddress, err)
	}
	if addr.Zone() != "" {
		return netip.Addr{}, fmt.Errorf("%w: %q: zones are not supported", ErrInvalidAddress, s)
	}
	return addr, nil
}

// ParseBlocks parses a list of blocks which must all belong to the given family.
func ParseBlocks(list []string, f Family) ([]netip.Prefix, error) {
	blocks := make([]netip.Prefix, 0, len(list))
	for _, s := range list {
		block, err := ParseBlock(s)
		if err != nil {
			return nil, err
		}
		if FamilyOf(block) != f {
			return nil, fmt.Errorf("%w: %s is not an %s block", ErrFamilyMismatch, block, f)
		}
		blocks = append(blocks, block)
	}
	return blocks, nil
}

// FormatBlocks returns the canonical string form of the blocks.
func FormatBlocks(blocks []netip.Prefix) []string {
	list := make([]string, len(blocks))
	for i := range blocks {
		list[i] = blocks[i].Masked().String()
	}
	return list
}

// StringList converts an untyped value, as decoded from persisted properties,
// into a list of strings. A nil value is an empty list.
func StringList(v interface{}) ([]string, error) {
	switch list := v.(type) {
	case nil:
		return nil, nil
	case []string:
		return append([]string(nil), list...), nil
	case []interface{}:
		out := make([]string, 0, len(list))
		for i, item := range list {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("%w: element %d is a %T, not a string", ErrInvalidInput, i, item)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: expected a list of CIDR strings, got %T", ErrInvalidInput, v)
	}
}
