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
	"net/netip"
	"slices"

	"k8s.io/apimachinery/pkg/util/runtime"
)

// PoolConfig describes the initial free space of a Pool.
type PoolConfig struct {
	// Available mixes IPv4 and IPv6 blocks. When not empty, the per-family lists are ignored.
	Available []string
	// AvailableIPv4 contains IPv4 blocks only.
	AvailableIPv4 []string
	// AvailableIPv6 contains IPv6 blocks only.
	AvailableIPv6 []string
}

// Pool tracks the free address space of one IPv4 and one IPv6 block list.
// Within each list blocks are disjoint and sorted. A Pool is not safe for
// concurrent use.
type Pool struct {
	v4 []netip.Prefix
	v6 []netip.Prefix
}

// NewPool creates a Pool from the given configuration.
// A family with no blocks defaults to its entire address space.
func NewPool(cfg PoolConfig) (*Pool, error) {
	var v4, v6 []netip.Prefix

	if len(cfg.Available) > 0 {
		for _, s := range cfg.Available {
			block, err := ParseBlock(s)
			if err != nil {
				return nil, err
			}
			if FamilyOf(block) == IPv4 {
				v4 = append(v4, block)
			} else {
				v6 = append(v6, block)
			}
		}
	} else {
		var err error
		if v4, err = ParseBlocks(cfg.AvailableIPv4, IPv4); err != nil {
			return nil, err
		}
		if v6, err = ParseBlocks(cfg.AvailableIPv6, IPv6); err != nil {
			return nil, err
		}
	}

	return &Pool{
		v4: initialBlocks(v4, IPv4),
		v6: initialBlocks(v6, IPv6),
	}, nil
}

func initialBlocks(blocks []netip.Prefix, f Family) []netip.Prefix {
	if len(blocks) == 0 {
		return []netip.Prefix{EntireSpace(f)}
	}
	collapsed, err := Collapse(blocks)
	runtime.Must(err)
	return collapsed
}

// Available returns the free IPv4 blocks followed by the free IPv6 ones.
func (p *Pool) Available() []string {
	return append(p.AvailableIPv4(), p.AvailableIPv6()...)
}

// AvailableIPv4 returns the free IPv4 blocks.
func (p *Pool) AvailableIPv4() []string {
	return FormatBlocks(p.v4)
}

// AvailableIPv6 returns the free IPv6 blocks.
func (p *Pool) AvailableIPv6() []string {
	return FormatBlocks(p.v6)
}

// Reserve removes an address or a block from the free space.
// It returns false, leaving the pool unchanged, if the block is not entirely
// contained in one free block. An error is returned only for malformed input.
func (p *Pool) Reserve(address string) (bool, error) {
	block, err := ParseBlock(address)
	if err != nil {
		return false, err
	}
	return p.reserve(block), nil
}

// Free adds an address or a block to the free space.
// Space that was never reserved can be freed as well.
func (p *Pool) Free(address string) error {
	block, err := ParseBlock(address)
	if err != nil {
		return err
	}
	p.release(FamilyOf(block), block)
	return nil
}

// ReserveRange reserves every address between from and to, both included.
// Either the whole range is reserved, or the pool is left unchanged and false is returned.
func (p *Pool) ReserveRange(from, to string) (bool, error) {
	blocks, err := SummarizeStrings(from, to)
	if err != nil {
		return false, err
	}

	snapshot := p.Clone()
	for _, block := range blocks {
		if !p.reserve(block) {
			*p = *snapshot
			return false, nil
		}
	}
	return true, nil
}

// FreeRange frees every address between from and to, both included.
func (p *Pool) FreeRange(from, to string) error {
	blocks, err := SummarizeStrings(from, to)
	if err != nil {
		return err
	}
	p.release(FamilyOf(blocks[0]), blocks...)
	return nil
}

// IsFree returns whether the address or block is entirely free.
func (p *Pool) IsFree(address string) (bool, error) {
	block, err := ParseBlock(address)
	if err != nil {
		return false, err
	}
	return p.isFree(block), nil
}

// IsRangeFree returns whether every address between from and to is free.
func (p *Pool) IsRangeFree(from, to string) (bool, error) {
	blocks, err := SummarizeStrings(from, to)
	if err != nil {
		return false, err
	}
	for _, block := range blocks {
		if !p.isFree(block) {
			return false, nil
		}
	}
	return true, nil
}

// Collapse aggregates both block lists into their minimal form.
func (p *Pool) Collapse() {
	p.release(IPv4)
	p.release(IPv6)
}

// Clone returns a deep copy of the pool.
func (p *Pool) Clone() *Pool {
	return &Pool{
		v4: slices.Clone(p.v4),
		v6: slices.Clone(p.v6),
	}
}

func (p *Pool) blocks(f Family) *[]netip.Prefix {
	if f == IPv4 {
		return &p.v4
	}
	return &p.v6
}

func (p *Pool) reserve(block netip.Prefix) bool {
	list := p.blocks(FamilyOf(block))

	updated := make([]netip.Prefix, 0, len(*list)+block.Bits())
	reserved := false
	for _, available := range *list {
		if !available.Overlaps(block) {
			updated = append(updated, available)
			continue
		}
		pieces, err := Exclude(available, block)
		if err != nil {
			// The block spans more than this free block.
			return false
		}
		updated = append(updated, pieces...)
		reserved = true
	}

	if reserved {
		*list = updated
	}
	return reserved
}

func (p *Pool) release(f Family, blocks ...netip.Prefix) {
	list := p.blocks(f)
	collapsed, err := Collapse(append(slices.Clone(*list), blocks...))
	runtime.Must(err)
	*list = collapsed
}

func (p *Pool) isFree(block netip.Prefix) bool {
	return slices.ContainsFunc(*p.blocks(FamilyOf(block)), func(available netip.Prefix) bool {
		return isPrefixChildOf(available, block)
	})
}
