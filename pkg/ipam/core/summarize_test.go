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

var _ = Describe("Summarize", func() {
	DescribeTable("summarizing an address range",
		func(from, to string, expected []string) {
			result, err := SummarizeStrings(from, to)
			Expect(err).NotTo(HaveOccurred())
			Expect(FormatBlocks(result)).To(Equal(expected))
		},
		Entry("a single address", "10.0.0.1", "10.0.0.1", []string{"10.0.0.1/32"}),
		Entry("an unaligned range", "10.0.0.1", "10.0.0.10",
			[]string{"10.0.0.1/32", "10.0.0.2/31", "10.0.0.4/30", "10.0.0.8/31", "10.0.0.10/32"}),
		Entry("an aligned range", "192.168.0.0", "192.168.1.255", []string{"192.168.0.0/23"}),
		Entry("the whole IPv4 space", "0.0.0.0", "255.255.255.255", []string{"0.0.0.0/0"}),
		Entry("the top of the IPv4 space", "255.255.255.254", "255.255.255.255", []string{"255.255.255.254/31"}),
		Entry("an IPv6 range", "2001:db8::1000", "2001:db8::2000",
			[]string{"2001:db8::1000/116", "2001:db8::2000/128"}),
		Entry("the whole IPv6 space", "::", "ffff:ffff:ffff:ffff:ffff:ffff:ffff:ffff", []string{"::/0"}),
		Entry("a range crossing the 64-bit boundary", "2001:db8::ffff:ffff:ffff:ffff", "2001:db8:0:1::1",
			[]string{"2001:db8::ffff:ffff:ffff:ffff/128", "2001:db8:0:1::/127"}),
	)

	It("should cover exactly the range with contiguous blocks", func() {
		ranges := [][2]string{
			{"10.0.0.1", "10.0.0.10"},
			{"0.0.0.1", "255.255.255.254"},
			{"172.16.3.7", "172.31.200.1"},
			{"2001:db8::7", "2001:db8::1:3"},
			{"::1", "ffff:ffff:ffff:ffff:ffff:ffff:ffff:fffe"},
		}
		for _, r := range ranges {
			from, to := netip.MustParseAddr(r[0]), netip.MustParseAddr(r[1])
			blocks, err := Summarize(from, to)
			Expect(err).NotTo(HaveOccurred())
			Expect(blocks).NotTo(BeEmpty())
			Expect(len(blocks)).To(BeNumerically("<=", 2*from.BitLen()))

			Expect(blocks[0].Addr()).To(Equal(from))
			Expect(lastAddr(blocks[len(blocks)-1])).To(Equal(to))
			for i := 1; i < len(blocks); i++ {
				Expect(lastAddr(blocks[i-1]).Next()).To(Equal(blocks[i].Addr()))
			}
			for _, block := range blocks {
				Expect(checkHostBitsZero(block)).To(Succeed())
			}
		}
	})

	It("should fail when mixing families", func() {
		_, err := SummarizeStrings("10.0.0.1", "2001:db8::1")
		Expect(err).To(MatchError(ErrFamilyMismatch))
	})

	It("should fail when the range is reversed", func() {
		_, err := SummarizeStrings("10.0.0.10", "10.0.0.1")
		Expect(err).To(MatchError(ErrInvalidRange))
	})

	It("should fail on malformed addresses", func() {
		_, err := SummarizeStrings("10.0.0.0/24", "10.0.0.10")
		Expect(err).To(MatchError(ErrInvalidAddress))
		_, err = SummarizeStrings("10.0.0.1", "foo")
		Expect(err).To(MatchError(ErrInvalidAddress))
		_, err = Summarize(netip.Addr{}, netip.MustParseAddr("10.0.0.1"))
		Expect(err).To(MatchError(ErrInvalidAddress))
	})
})
