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
	"cmp"
	"fmt"
	"net/netip"

	"k8s.io/apimachinery/pkg/util/runtime"
)

func checkHostBitsZero(prefix netip.Prefix) error {
	if prefix.Masked().Addr().Compare(prefix.Addr()) != 0 {
		return fmt.Errorf("%s :host bits must be zero", prefix)
	}
	return nil
}

// splitNetworkPrefix splits a network prefix into two subnets.
// It increases the prefix length by one: the left subnet keeps the
// network address, the right one has the bit at the new position set.
func splitNetworkPrefix(prefix netip.Prefix) (left, right netip.Prefix) {
	runtime.Must(checkHostBitsZero(prefix))

	bitLen := prefix.Addr().BitLen()
	if prefix.Bits() >= bitLen {
		runtime.Must(fmt.Errorf("%s: a host prefix cannot be split", prefix))
	}

	maskLen := prefix.Bits() + 1
	base := u128From(prefix.Addr())

	left = netip.PrefixFrom(prefix.Addr(), maskLen)
	right = netip.PrefixFrom(base.or(bitAt(bitLen-maskLen)).addr(bitLen), maskLen)
	return left, right
}

// parentPrefix returns the prefix one bit shorter than the given one.
func parentPrefix(prefix netip.Prefix) (netip.Prefix, bool) {
	if prefix.Bits() == 0 {
		return netip.Prefix{}, false
	}
	parent, err := prefix.Addr().Prefix(prefix.Bits() - 1)
	runtime.Must(err)
	return parent, true
}

// mergeSiblings returns the parent of left and right when they are its two halves.
func mergeSiblings(left, right netip.Prefix) (netip.Prefix, bool) {
	if left.Bits() != right.Bits() {
		return netip.Prefix{}, false
	}
	parent, ok := parentPrefix(left)
	if !ok {
		return netip.Prefix{}, false
	}
	l, r := splitNetworkPrefix(parent)
	if l != left || r != right {
		return netip.Prefix{}, false
	}
	return parent, true
}

// lastAddr returns the highest address covered by the prefix.
func lastAddr(prefix netip.Prefix) netip.Addr {
	bitLen := prefix.Addr().BitLen()
	return u128From(prefix.Addr()).or(lowMask(bitLen - prefix.Bits())).addr(bitLen)
}

// isPrefixChildOf checks if the child prefix is a child of the parent prefix.
func isPrefixChildOf(parent, child netip.Prefix) bool {
	return parent.Bits() <= child.Bits() && parent.Contains(child.Addr())
}

// comparePrefixes orders prefixes by network address, broadest first on ties.
func comparePrefixes(a, b netip.Prefix) int {
	if c := a.Addr().Compare(b.Addr()); c != 0 {
		return c
	}
	return cmp.Compare(a.Bits(), b.Bits())
}
