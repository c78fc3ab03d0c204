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

package cmd

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/liqotech/liqo-ipbooking/pkg/ipam"
	"github.com/liqotech/liqo-ipbooking/pkg/utils/testutil"
)

var _ = Describe("ipbooking", func() {
	var (
		dir       string
		storeFlag string
	)

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
		storeFlag = "--storage-path=" + filepath.Join(dir, "pool.yaml")
	})

	run := func(args ...string) (string, error) {
		cmd := NewRootCommand(context.Background())
		var out bytes.Buffer
		cmd.SetOut(&out)
		cmd.SetErr(io.Discard)
		cmd.SetArgs(args)
		err := cmd.Execute()
		return out.String(), err
	}

	It("should book addresses out of a persisted pool", func() {
		out, err := run("reserve", storeFlag, "--pools=10.0.0.0/24", "--consumer=node-1", "10.0.0.0/28")
		Expect(err).ToNot(HaveOccurred())
		Expect(out).To(Equal("Reserved 10.0.0.0/28 for node-1\n"))

		out, err = run("check", storeFlag, "10.0.0.1")
		Expect(err).ToNot(HaveOccurred())
		Expect(out).To(Equal("not free\n"))

		out, err = run("check", storeFlag, "10.0.0.16", "10.0.0.31")
		Expect(err).ToNot(HaveOccurred())
		Expect(out).To(Equal("free\n"))

		out, err = run("show", storeFlag)
		Expect(err).ToNot(HaveOccurred())
		Expect(testutil.SqueezeWhitespaces(out)).To(ContainSubstring(
			"available_ipv4: - 10.0.0.16/28 - 10.0.0.32/27 - 10.0.0.64/26 - 10.0.0.128/25"))
		Expect(testutil.SqueezeWhitespaces(out)).To(ContainSubstring("node-1: ip: 10.0.0.0/28"))

		out, err = run("free", storeFlag, "--consumer=node-1")
		Expect(err).ToNot(HaveOccurred())
		Expect(out).To(Equal("Freed the reservation of node-1\n"))

		out, err = run("check", storeFlag, "10.0.0.0/24")
		Expect(err).ToNot(HaveOccurred())
		Expect(out).To(Equal("free\n"))
	})

	It("should book ranges", func() {
		_, err := run("reserve-range", storeFlag, "--pools=10.0.0.0/24", "--consumer=node-1", "10.0.0.10", "10.0.0.20")
		Expect(err).ToNot(HaveOccurred())

		_, err = run("reserve-range", storeFlag, "--consumer=node-2", "10.0.0.15", "10.0.0.30")
		Expect(err).To(MatchError(ipam.ErrNotAvailable))

		_, err = run("free-range", storeFlag, "--consumer=node-1")
		Expect(err).ToNot(HaveOccurred())

		out, err := run("check", storeFlag, "10.0.0.0", "10.0.0.255")
		Expect(err).ToNot(HaveOccurred())
		Expect(out).To(Equal("free\n"))
	})

	It("should require the consumer", func() {
		_, err := run("reserve", storeFlag, "10.0.0.1")
		Expect(err).To(HaveOccurred())
	})

	It("should reject malformed pools", func() {
		_, err := run("show", storeFlag, "--pools=10.0.0.1/24")
		Expect(err).To(HaveOccurred())
	})

	It("should delete the pool", func() {
		_, err := run("reserve", storeFlag, "--pools=10.0.0.0/24", "--consumer=node-1", "10.0.0.1")
		Expect(err).ToNot(HaveOccurred())

		out, err := run("delete", storeFlag)
		Expect(err).ToNot(HaveOccurred())
		Expect(out).To(Equal("Pool deleted\n"))
		Expect(filepath.Join(dir, "pool.yaml")).ToNot(BeAnExistingFile())
	})

	It("should read the flags from the configuration file", func() {
		config := filepath.Join(dir, "config.yaml")
		Expect(os.WriteFile(config, []byte(
			"storage-path: "+filepath.Join(dir, "pool.yaml")+"\n"+
				"pools:\n- 192.168.0.0/16\n- fd00::/8\n"), 0o600)).To(Succeed())

		out, err := run("show", "--config="+config)
		Expect(err).ToNot(HaveOccurred())
		Expect(testutil.SqueezeWhitespaces(out)).To(ContainSubstring("available_ipv4: - 192.168.0.0/16"))
		Expect(testutil.SqueezeWhitespaces(out)).To(ContainSubstring("fd00::/8"))
	})

	It("should read the flags from the environment", func() {
		Expect(os.Setenv("IPBOOKING_STORAGE_PATH", filepath.Join(dir, "env-pool.yaml"))).To(Succeed())
		DeferCleanup(os.Unsetenv, "IPBOOKING_STORAGE_PATH")

		_, err := run("reserve", "--pools=10.0.0.0/24", "--consumer=node-1", "10.0.0.1")
		Expect(err).ToNot(HaveOccurred())
		Expect(filepath.Join(dir, "env-pool.yaml")).To(BeAnExistingFile())
	})

	It("should prefer the command line over the configuration file", func() {
		config := filepath.Join(dir, "config.yaml")
		Expect(os.WriteFile(config, []byte("storage-path: "+filepath.Join(dir, "other.yaml")+"\n"), 0o600)).To(Succeed())

		_, err := run("show", "--config="+config, storeFlag)
		Expect(err).ToNot(HaveOccurred())
		Expect(filepath.Join(dir, "pool.yaml")).To(BeAnExistingFile())
		Expect(filepath.Join(dir, "other.yaml")).ToNot(BeAnExistingFile())
	})

	It("should fail on a missing configuration file", func() {
		_, err := run("show", "--config="+filepath.Join(dir, "missing.yaml"))
		Expect(err).To(HaveOccurred())
	})
})
