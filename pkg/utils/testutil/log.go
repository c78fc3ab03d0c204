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

package testutil

import (
	"flag"

	"github.com/onsi/ginkgo/v2"
	"k8s.io/apimachinery/pkg/util/runtime"
	"k8s.io/klog/v2"
)

// LogsToGinkgoWriter redirects the klog output to the GinkgoWriter, so that it is shown only for failing specs.
func LogsToGinkgoWriter() {
	flagset := flag.NewFlagSet("klog", flag.PanicOnError)
	klog.InitFlags(flagset)
	runtime.Must(flagset.Set("logtostderr", "false"))
	runtime.Must(flagset.Set("alsologtostderr", "false"))
	runtime.Must(flagset.Set("v", "4"))
	klog.SetOutput(ginkgo.GinkgoWriter)
}
