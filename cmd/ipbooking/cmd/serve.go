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
	"context"

	"github.com/spf13/cobra"
	"k8s.io/klog/v2"

	"github.com/liqotech/liqo-ipbooking/pkg/ipam"
	"github.com/liqotech/liqo-ipbooking/pkg/ipam/storage"
)

const serveLongHelp = `Serve the booking API and the gRPC health service.

Examples:
  $ ipbooking serve --pools 10.0.0.0/16,fd00::/64 --storage-backend redis --redis-address redis:6379
`

func newServeCommand(ctx context.Context, opts *ipam.ServerOptions) *cobra.Command {
	var cmd = &cobra.Command{
		Use:   "serve",
		Short: "Serve the booking API",
		Long:  serveLongHelp,
		Args:  cobra.NoArgs,

		RunE: func(_ *cobra.Command, _ []string) error {
			store, err := storage.New(&opts.Storage)
			if err != nil {
				return err
			}

			booking, err := ipam.New(ctx, store, opts)
			if err != nil {
				klog.Errorf("Failed to initialize the pool: %v", err)
				return err
			}
			return booking.Serve(ctx)
		},
	}

	ipam.InitServerFlags(cmd.Flags(), opts)
	return cmd
}
