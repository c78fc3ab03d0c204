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

package args

import (
	"fmt"
	"net/netip"

	ipamcore "github.com/liqotech/liqo-ipbooking/pkg/ipam/core"
)

// CIDRList implements the flag.Value interface and allows to parse stringified lists
// of address blocks in the form: "10.0.0.0/8,fd00::/8". Bare addresses are accepted
// as single address blocks.
type CIDRList struct {
	StringList StringList
	Prefixes   []netip.Prefix
}

// String returns the stringified list.
func (cl *CIDRList) String() string {
	return cl.StringList.String()
}

// Set parses the provided string and appends the blocks to the list.
// The list is left untouched if any of the blocks is invalid.
func (cl *CIDRList) Set(str string) error {
	var chunks StringList
	if err := chunks.Set(str); err != nil {
		return err
	}

	prefixes := make([]netip.Prefix, 0, len(chunks.StringList))
	for _, chunk := range chunks.StringList {
		prefix, err := ipamcore.ParseBlock(chunk)
		if err != nil {
			return fmt.Errorf("invalid block %q: %w", chunk, err)
		}
		prefixes = append(prefixes, prefix)
	}

	if cl.Prefixes == nil {
		cl.Prefixes = []netip.Prefix{}
	}
	cl.Prefixes = append(cl.Prefixes, prefixes...)
	return cl.StringList.Set(str)
}

// Type returns the cidrList type.
func (cl CIDRList) Type() string {
	return "cidrList"
}
