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

// Collapse returns the minimal sorted list of disjoint blocks covering the
// same addresses as the given ones. All blocks must belong to one family.
func Collapse(blocks []netip.Prefix) ([]netip.Prefix, error) {
	if len(blocks) == 0 {
		return nil, nil
	}

	family := FamilyOf(blocks[0])
	sorted := make([]netip.Prefix, 0, len(blocks))
	for _, block := range blocks {
		if !block.IsValid() {
			return nil, fmt.Errorf("%w: %s", ErrInvalidAddress, block)
		}
		if FamilyOf(block) != family {
			return nil, fmt.Errorf("%w: %s is not an %s block", ErrFamilyMismatch, block, family)
		}
		sorted = append(sorted, block.Masked())
	}
	slices.SortFunc(sorted, comparePrefixes)

	collapsed := make([]netip.Prefix, 0, len(sorted))
	for _, block := range sorted {
		if n := len(collapsed); n > 0 && isPrefixChildOf(collapsed[n-1], block) {
			continue
		}
		collapsed = append(collapsed, block)

		// A merge can complete a sibling pair one level up.
		for n := len(collapsed); n >= 2; n = len(collapsed) {
			parent, ok := mergeSiblings(collapsed[n-2], collapsed[n-1])
			if !ok {
				break
			}
			collapsed = append(collapsed[:n-2], parent)
		}
	}

	return collapsed, nil
}
