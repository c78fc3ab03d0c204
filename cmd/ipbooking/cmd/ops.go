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
	"fmt"

	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"

	"github.com/liqotech/liqo-ipbooking/pkg/ipam"
	"github.com/liqotech/liqo-ipbooking/pkg/ipam/storage"
)

const consumerFlagName = "consumer"

// openBooking opens the pool persisted in the configured storage, creating it when missing.
func openBooking(ctx context.Context, opts *ipam.ServerOptions) (*ipam.IPBooking, error) {
	store, err := storage.New(&opts.Storage)
	if err != nil {
		return nil, err
	}
	return ipam.New(ctx, store, opts)
}

func addConsumerFlag(cmd *cobra.Command, consumer *string) {
	cmd.Flags().StringVar(consumer, consumerFlagName, "", "The consumer holding the reservation")
	cobra.CheckErr(cmd.MarkFlagRequired(consumerFlagName))
}

func newReserveCommand(ctx context.Context, opts *ipam.ServerOptions) *cobra.Command {
	var consumer string

	var cmd = &cobra.Command{
		Use:     "reserve IP",
		Short:   "Reserve an address or a block",
		Example: "  $ ipbooking reserve --consumer node-1 10.0.0.0/28",
		Args:    cobra.ExactArgs(1),

		RunE: func(cmd *cobra.Command, args []string) error {
			booking, err := openBooking(ctx, opts)
			if err != nil {
				return err
			}
			if err := booking.ReserveIP(ctx, consumer, args[0]); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Reserved %s for %s\n", args[0], consumer)
			return err
		},
	}

	addConsumerFlag(cmd, &consumer)
	return cmd
}

func newFreeCommand(ctx context.Context, opts *ipam.ServerOptions) *cobra.Command {
	var consumer string

	var cmd = &cobra.Command{
		Use:   "free [IP]",
		Short: "Free an address or a block",
		Long: `Free an address or a block, and drop the reservation of the consumer.
When no address is given, the one reserved by the consumer is freed.`,
		Example: "  $ ipbooking free --consumer node-1",
		Args:    cobra.MaximumNArgs(1),

		RunE: func(cmd *cobra.Command, args []string) error {
			booking, err := openBooking(ctx, opts)
			if err != nil {
				return err
			}
			var ip string
			if len(args) > 0 {
				ip = args[0]
			}
			if err := booking.FreeIP(ctx, consumer, ip); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Freed the reservation of %s\n", consumer)
			return err
		},
	}

	addConsumerFlag(cmd, &consumer)
	return cmd
}

func newReserveRangeCommand(ctx context.Context, opts *ipam.ServerOptions) *cobra.Command {
	var consumer string

	var cmd = &cobra.Command{
		Use:     "reserve-range FROM TO",
		Short:   "Reserve every address between two addresses, both included",
		Example: "  $ ipbooking reserve-range --consumer node-1 10.0.0.10 10.0.0.20",
		Args:    cobra.ExactArgs(2),

		RunE: func(cmd *cobra.Command, args []string) error {
			booking, err := openBooking(ctx, opts)
			if err != nil {
				return err
			}
			if err := booking.ReserveIPRange(ctx, consumer, args[0], args[1]); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Reserved %s-%s for %s\n", args[0], args[1], consumer)
			return err
		},
	}

	addConsumerFlag(cmd, &consumer)
	return cmd
}

func newFreeRangeCommand(ctx context.Context, opts *ipam.ServerOptions) *cobra.Command {
	var consumer string

	var cmd = &cobra.Command{
		Use:   "free-range [FROM TO]",
		Short: "Free every address between two addresses, both included",
		Long: `Free every address between two addresses, and drop the reservation of the consumer.
When no range is given, the one reserved by the consumer is freed.`,
		Example: "  $ ipbooking free-range --consumer node-1",
		Args: func(_ *cobra.Command, args []string) error {
			if len(args) != 0 && len(args) != 2 {
				return fmt.Errorf("accepts either no arguments or a FROM and a TO address, received %d", len(args))
			}
			return nil
		},

		RunE: func(cmd *cobra.Command, args []string) error {
			booking, err := openBooking(ctx, opts)
			if err != nil {
				return err
			}
			var from, to string
			if len(args) == 2 {
				from, to = args[0], args[1]
			}
			if err := booking.FreeIPRange(ctx, consumer, from, to); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Freed the reservation of %s\n", consumer)
			return err
		},
	}

	addConsumerFlag(cmd, &consumer)
	return cmd
}

func newCheckCommand(ctx context.Context, opts *ipam.ServerOptions) *cobra.Command {
	var cmd = &cobra.Command{
		Use:   "check IP | check FROM TO",
		Short: "Check whether an address, a block or a range is free",
		Example: `  $ ipbooking check 10.0.0.0/28
  $ ipbooking check 10.0.0.10 10.0.0.20`,
		Args: cobra.RangeArgs(1, 2),

		RunE: func(cmd *cobra.Command, args []string) error {
			booking, err := openBooking(ctx, opts)
			if err != nil {
				return err
			}

			var free bool
			if len(args) == 1 {
				free, err = booking.IsFree(args[0])
			} else {
				free, err = booking.IsRangeFree(args[0], args[1])
			}
			if err != nil {
				return err
			}

			status := "free"
			if !free {
				status = "not free"
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), status)
			return err
		},
	}

	return cmd
}

// poolStatus is the document printed by the show command.
type poolStatus struct {
	AvailableIPv4 []string                    `json:"available_ipv4"`
	AvailableIPv6 []string                    `json:"available_ipv6"`
	Reservations  map[string]ipam.Reservation `json:"reservations"`
}

func newShowCommand(ctx context.Context, opts *ipam.ServerOptions) *cobra.Command {
	var cmd = &cobra.Command{
		Use:   "show",
		Short: "Show the free blocks and the reservations",
		Args:  cobra.NoArgs,

		RunE: func(cmd *cobra.Command, _ []string) error {
			booking, err := openBooking(ctx, opts)
			if err != nil {
				return err
			}

			status := poolStatus{Reservations: booking.Reservations()}
			status.AvailableIPv4, status.AvailableIPv6 = booking.Available()
			out, err := yaml.Marshal(status)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}

	return cmd
}

func newDeleteCommand(ctx context.Context, opts *ipam.ServerOptions) *cobra.Command {
	var cmd = &cobra.Command{
		Use:   "delete",
		Short: "Delete the persisted pool",
		Args:  cobra.NoArgs,

		RunE: func(cmd *cobra.Command, _ []string) error {
			booking, err := openBooking(ctx, opts)
			if err != nil {
				return err
			}
			if err := booking.DeletePool(ctx); err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), "Pool deleted")
			return err
		},
	}

	return cmd
}
