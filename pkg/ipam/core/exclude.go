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
	"slices"
)

// Exclude returns the minimal list of blocks covering network minus sub,
// in ascending address order. sub must be a subnet of network.
// Excluding a network from itself returns an empty list.
func Exclude(network, sub netip.Prefix) ([]netip.Prefix, error) {
	if !network.IsValid() || !sub.IsValid() {
		return nil, fmt.Errorf("%w: cannot exclude %s from %s", ErrInvalidAddress, sub, network)
	}
	if FamilyOf(network) != FamilyOf(sub) {
		return nil, fmt.Errorf("%w: cannot exclude %s from %s", ErrFamilyMismatch, sub, network)
	}

	network, sub = network.Masked(), sub.Masked()
	if !isPrefixChildOf(network, sub) {
		return nil, fmt.Errorf("%w: %s is not a subnet of %s", ErrOverlapNotContainment, sub, network)
	}

	// Halves kept before sub grow in address order, the ones after it shrink.
	var below, above []netip.Prefix
	for current := network; current != sub; {
		left, right := splitNetworkPrefix(current)
		if left.Contains(sub.Addr()) {
			above = append(above, right)
			current = left
		} else {
			below = append(below, left)
			current = right
		}
	}

	slices.Reverse(above)
	return append(below, above...), nil
}
