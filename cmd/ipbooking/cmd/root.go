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

// Package cmd contains the commands of ipbooking.
package cmd

import (
	"context"
	"flag"

	"github.com/spf13/cobra"
	"k8s.io/klog/v2"

	"github.com/liqotech/liqo-ipbooking/pkg/ipam"
)

const ipbookingLongHelp = `Book IPv4 and IPv6 addresses, blocks and ranges out of a pool.

The pool is created from the configured blocks the first time it is used,
and persisted in the configured storage after every change.
Every flag can also be set in the configuration file, or through an
IPBOOKING_<FLAG> environment variable (e.g., IPBOOKING_STORAGE_PATH).
`

// NewRootCommand returns the ipbooking root command.
func NewRootCommand(ctx context.Context) *cobra.Command {
	opts := &ipam.ServerOptions{}
	var configFile string

	var rootCmd = &cobra.Command{
		Use:          "ipbooking",
		Short:        "Book addresses out of an IPv4/IPv6 pool",
		Long:         ipbookingLongHelp,
		SilenceUsage: true,

		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return loadConfig(cmd, configFile)
		},
	}

	flagset := flag.NewFlagSet("klog", flag.PanicOnError)
	klog.InitFlags(flagset)
	rootCmd.PersistentFlags().AddGoFlagSet(flagset)
	rootCmd.PersistentFlags().StringVar(&configFile, configFlagName, "", "The configuration file (YAML, JSON or TOML)")
	ipam.InitFlags(rootCmd.PersistentFlags(), opts)

	rootCmd.AddCommand(newServeCommand(ctx, opts))
	rootCmd.AddCommand(newReserveCommand(ctx, opts))
	rootCmd.AddCommand(newFreeCommand(ctx, opts))
	rootCmd.AddCommand(newReserveRangeCommand(ctx, opts))
	rootCmd.AddCommand(newFreeRangeCommand(ctx, opts))
	rootCmd.AddCommand(newCheckCommand(ctx, opts))
	rootCmd.AddCommand(newShowCommand(ctx, opts))
	rootCmd.AddCommand(newDeleteCommand(ctx, opts))
	return rootCmd
}
