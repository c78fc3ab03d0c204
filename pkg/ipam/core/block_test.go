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

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Blocks", func() {
	DescribeTable("parsing a valid block",
		func(input, expected string, family Family) {
			block, err := ParseBlock(input)
			Expect(err).NotTo(HaveOccurred())
			Expect(block.String()).To(Equal(expected))
			Expect(FamilyOf(block)).To(Equal(family))
		},
		Entry("an IPv4 network", "10.0.0.0/24", "10.0.0.0/24", IPv4),
		Entry("a single IPv4 address", "127.0.0.1", "127.0.0.1/32", IPv4),
		Entry("the whole IPv4 space", "0.0.0.0/0", "0.0.0.0/0", IPv4),
		Entry("an IPv6 network", "2001:0db8:0000::/32", "2001:db8::/32", IPv6),
		Entry("a single IPv6 address", "2001:db8::1000", "2001:db8::1000/128", IPv6),
		Entry("the whole IPv6 space", "::/0", "::/0", IPv6),
	)

	DescribeTable("parsing an invalid block",
		func(input string) {
			_, err := ParseBlock(input)
			Expect(err).To(MatchError(ErrInvalidAddress))
		},
		Entry("an empty string", ""),
		Entry("garbage", "not-an-address"),
		Entry("host bits set", "10.0.0.1/24"),
		Entry("an out of range prefix length", "10.0.0.0/33"),
		Entry("an IPv6 zone", "fe80::1%eth0"),
		Entry("an IPv6 network with host bits set", "2001:db8::1/64"),
	)

	It("should reject prefixes and zones where a plain address is expected", func() {
		_, err := ParseAddr("10.0.0.0/24")
		Expect(err).To(MatchError(ErrInvalidAddress))
		_, err = ParseAddr("fe80::1%eth0")
		Expect(err).To(MatchError(ErrInvalidAddress))

		addr, err := ParseAddr("10.0.0.1")
		Expect(err).NotTo(HaveOccurred())
		Expect(addr).To(Equal(netip.MustParseAddr("10.0.0.1")))
	})

	It("should enforce the family of per-family lists", func() {
		blocks, err := ParseBlocks([]string{"10.0.0.0/8", "192.168.1.1"}, IPv4)
		Expect(err).NotTo(HaveOccurred())
		Expect(FormatBlocks(blocks)).To(Equal([]string{"10.0.0.0/8", "192.168.1.1/32"}))

		_, err = ParseBlocks([]string{"10.0.0.0/8", "2001:db8::/32"}, IPv4)
		Expect(err).To(MatchError(ErrFamilyMismatch))
	})

	It("should return the entire address space of each family", func() {
		Expect(EntireSpace(IPv4).String()).To(Equal("0.0.0.0/0"))
		Expect(EntireSpace(IPv6).String()).To(Equal("::/0"))
		Expect(IPv4.String()).To(Equal("ipv4"))
		Expect(IPv6.String()).To(Equal("ipv6"))
	})

	Context("converting untyped values", func() {
		It("should accept lists of strings", func() {
			list, err := StringList([]interface{}{"10.0.0.0/8", "::/0"})
			Expect(err).NotTo(HaveOccurred())
			Expect(list).To(Equal([]string{"10.0.0.0/8", "::/0"}))

			list, err = StringList([]string{"10.0.0.0/8"})
			Expect(err).NotTo(HaveOccurred())
			Expect(list).To(Equal([]string{"10.0.0.0/8"}))

			list, err = StringList(nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(list).To(BeEmpty())
		})

		It("should reject other shapes", func() {
			_, err := StringList("10.0.0.0/8")
			Expect(err).To(MatchError(ErrInvalidInput))
			_, err = StringList(map[string]interface{}{"127.0.0.1": true})
			Expect(err).To(MatchError(ErrInvalidInput))
			_, err = StringList([]interface{}{"10.0.0.0/8", 42})
			Expect(err).To(MatchError(ErrInvalidInput))
		})
	})
})
