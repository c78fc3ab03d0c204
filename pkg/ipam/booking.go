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

package ipam

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"net/netip"
	"slices"
	"sync"

	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	klog "k8s.io/klog/v2"

	ipamcore "github.com/liqotech/liqo-ipbooking/pkg/ipam/core"
	"github.com/liqotech/liqo-ipbooking/pkg/ipam/storage"
)

// ServiceName is the name under which the health of the booking service is reported.
const ServiceName = "liqo.ipbooking"

var (
	// ErrNotAvailable is returned when the requested addresses are not entirely free.
	ErrNotAvailable = errors.New("addresses not available")
	// ErrInvalidRequest is returned when a request misses mandatory fields.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrAlreadyReserved is returned when a consumer already holds a reservation.
	ErrAlreadyReserved = errors.New("consumer already holds a reservation")
	// ErrNoReservation is returned when a consumer holds no reservation to release.
	ErrNoReservation = errors.New("consumer holds no reservation")
)

// IsInvalid returns whether the error is caused by a malformed request, which is pointless to retry.
func IsInvalid(err error) bool {
	return errors.Is(err, ErrInvalidRequest) ||
		errors.Is(err, ipamcore.ErrInvalidInput) ||
		errors.Is(err, ipamcore.ErrInvalidAddress) ||
		errors.Is(err, ipamcore.ErrInvalidRange) ||
		errors.Is(err, ipamcore.ErrFamilyMismatch)
}

// IPBooking books addresses of a pool on behalf of consumers, persisting the state after every change.
type IPBooking struct {
	mutex        sync.Mutex
	pool         *ipamcore.Pool
	reservations map[string]Reservation

	store storage.Storage
	opts  *ServerOptions

	HealthServer *health.Server
}

// New creates a new instance of the IPBooking, restoring the pool from the storage
// or creating it from the configured pools when the storage is empty.
func New(ctx context.Context, store storage.Storage, opts *ServerOptions) (*IPBooking, error) {
	hs := health.NewServer()
	hs.SetServingStatus(ServiceName, grpc_health_v1.HealthCheckResponse_NOT_SERVING)

	booking := &IPBooking{
		store:        store,
		opts:         opts,
		HealthServer: hs,
	}

	if err := booking.initialize(ctx); err != nil {
		return nil, err
	}

	hs.SetServingStatus(ServiceName, grpc_health_v1.HealthCheckResponse_SERVING)
	return booking, nil
}

func (b *IPBooking) initialize(ctx context.Context) error {
	props, err := b.store.Load(ctx)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		pool, err := b.configuredPool()
		if err != nil {
			return err
		}
		b.pool, b.reservations = pool, map[string]Reservation{}
		if err := b.store.Save(ctx, toProperties(b.pool, b.reservations)); err != nil {
			return fmt.Errorf("failed to persist the new pool: %w", err)
		}
		klog.Infof("Created pool (IPv4 %q, IPv6 %q)", pool.AvailableIPv4(), pool.AvailableIPv6())
	case err != nil:
		return fmt.Errorf("failed to load the pool: %w", err)
	default:
		if b.pool, err = poolFromProperties(props); err != nil {
			return fmt.Errorf("failed to restore the pool: %w", err)
		}
		if b.reservations, err = reservationsFromProperties(props); err != nil {
			return fmt.Errorf("failed to restore the pool: %w", err)
		}
		klog.Infof("Restored pool (IPv4 %q, IPv6 %q) with %d reservations",
			b.pool.AvailableIPv4(), b.pool.AvailableIPv6(), len(b.reservations))
	}

	observeAvailable(b.pool)
	return nil
}

func (b *IPBooking) configuredPool() (*ipamcore.Pool, error) {
	pool, err := ipamcore.NewPool(ipamcore.PoolConfig{Available: ipamcore.FormatBlocks(b.opts.Pools.Prefixes)})
	if err != nil {
		return nil, fmt.Errorf("failed to create pool %q: %w", b.opts.Pools.String(), err)
	}
	return pool, nil
}

// ReserveIP reserves an address or a block on behalf of the consumer.
func (b *IPBooking) ReserveIP(ctx context.Context, consumer, ip string) error {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	if consumer == "" || ip == "" {
		return observe(OperationReserve, fmt.Errorf("%w: a consumer and an ip are required", ErrInvalidRequest))
	}

	err := b.update(ctx, func(pool *ipamcore.Pool, reservations map[string]Reservation) error {
		if current, found := reservations[consumer]; found {
			return fmt.Errorf("%w: %q holds %s", ErrAlreadyReserved, consumer, current)
		}
		reserved, err := pool.Reserve(ip)
		if err != nil {
			return fmt.Errorf("failed to reserve %q: %w", ip, err)
		}
		if !reserved {
			return fmt.Errorf("%w: reservation has failed, cannot reserve some addresses in %s", ErrNotAvailable, ip)
		}
		reservations[consumer] = Reservation{IP: ip}
		return nil
	})
	if err == nil {
		klog.Infof("Reserved %q for %q", ip, consumer)
	}
	return observe(OperationReserve, err)
}

// FreeIP frees an address or a block and drops the reservation of the consumer.
// When ip is empty, the address recorded for the consumer is freed. An explicit ip must match
// the reservation of the consumer, or, for a consumer holding nothing, belong to no other consumer.
// It does nothing when no reservation is recorded at all.
func (b *IPBooking) FreeIP(ctx context.Context, consumer, ip string) error {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	return observe(OperationFree, b.freeIP(ctx, consumer, ip))
}

func (b *IPBooking) freeIP(ctx context.Context, consumer, ip string) error {
	if len(b.reservations) == 0 {
		klog.V(4).Infof("No reservations recorded, nothing to free for %q", consumer)
		return nil
	}

	if ip == "" {
		current, found := b.reservations[consumer]
		switch {
		case !found:
			return fmt.Errorf("%w: %q", ErrNoReservation, consumer)
		case current.IsRange():
			return fmt.Errorf("%w: %q holds the range %s, not an ip", ErrInvalidRequest, consumer, current)
		}
		ip = current.IP
	}

	owned, err := b.checkOwnership(consumer, Reservation{IP: ip})
	if err != nil {
		return err
	}

	err = b.update(ctx, func(pool *ipamcore.Pool, reservations map[string]Reservation) error {
		if err := pool.Free(ip); err != nil {
			return fmt.Errorf("failed to free %q: %w", ip, err)
		}
		if owned {
			delete(reservations, consumer)
		}
		return nil
	})
	if err == nil {
		klog.Infof("Freed %q (consumer %q)", ip, consumer)
	}
	return err
}

// ReserveIPRange reserves every address between from and to, both included, on behalf of the consumer.
// Either the whole range is reserved, or nothing is.
func (b *IPBooking) ReserveIPRange(ctx context.Context, consumer, from, to string) error {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	if consumer == "" || from == "" || to == "" {
		return observe(OperationReserveRange, fmt.Errorf("%w: a consumer, a from and a to address are required", ErrInvalidRequest))
	}

	err := b.update(ctx, func(pool *ipamcore.Pool, reservations map[string]Reservation) error {
		if current, found := reservations[consumer]; found {
			return fmt.Errorf("%w: %q holds %s", ErrAlreadyReserved, consumer, current)
		}
		reserved, err := pool.ReserveRange(from, to)
		if err != nil {
			return fmt.Errorf("failed to reserve range %s-%s: %w", from, to, err)
		}
		if !reserved {
			return fmt.Errorf("%w: reservation has failed, cannot reserve some addresses in %s-%s", ErrNotAvailable, from, to)
		}
		reservations[consumer] = Reservation{From: from, To: to}
		return nil
	})
	if err == nil {
		klog.Infof("Reserved range %s-%s for %q", from, to, consumer)
	}
	return observe(OperationReserveRange, err)
}

// FreeIPRange frees every address between from and to and drops the reservation of the consumer.
// When from and to are empty, the range recorded for the consumer is freed. Ownership is checked
// as in FreeIP.
// It does nothing when no reservation is recorded at all.
func (b *IPBooking) FreeIPRange(ctx context.Context, consumer, from, to string) error {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	return observe(OperationFreeRange, b.freeIPRange(ctx, consumer, from, to))
}

func (b *IPBooking) freeIPRange(ctx context.Context, consumer, from, to string) error {
	if len(b.reservations) == 0 {
		klog.V(4).Infof("No reservations recorded, nothing to free for %q", consumer)
		return nil
	}

	if from == "" || to == "" {
		current, found := b.reservations[consumer]
		switch {
		case !found:
			return fmt.Errorf("%w: %q", ErrNoReservation, consumer)
		case !current.IsRange():
			return fmt.Errorf("%w: %q holds %s, not a range", ErrInvalidRequest, consumer, current)
		}
		if from == "" {
			from = current.From
		}
		if to == "" {
			to = current.To
		}
	}

	owned, err := b.checkOwnership(consumer, Reservation{From: from, To: to})
	if err != nil {
		return err
	}

	err = b.update(ctx, func(pool *ipamcore.Pool, reservations map[string]Reservation) error {
		if err := pool.FreeRange(from, to); err != nil {
			return fmt.Errorf("failed to free range %s-%s: %w", from, to, err)
		}
		if owned {
			delete(reservations, consumer)
		}
		return nil
	})
	if err == nil {
		klog.Infof("Freed range %s-%s (consumer %q)", from, to, consumer)
	}
	return err
}

// checkOwnership verifies that the consumer may free the requested addresses: they must be
// exactly what the consumer holds, or, for a consumer holding nothing, reserved by nobody else.
// It returns whether the record of the consumer has to be dropped.
func (b *IPBooking) checkOwnership(consumer string, freed Reservation) (bool, error) {
	blocks, err := freed.blocks()
	if err != nil {
		return false, fmt.Errorf("failed to free %s: %w", freed, err)
	}

	if current, found := b.reservations[consumer]; found {
		held, err := current.blocks()
		if err != nil {
			return false, fmt.Errorf("reservation of %q: %w", consumer, err)
		}
		if !slices.Equal(held, blocks) {
			return false, fmt.Errorf("%w: %q holds %s, not %s", ErrInvalidRequest, consumer, current, freed)
		}
		return true, nil
	}

	for other, r := range b.reservations {
		held, err := r.blocks()
		if err != nil {
			return false, fmt.Errorf("reservation of %q: %w", other, err)
		}
		if overlapsAny(held, blocks) {
			return false, fmt.Errorf("%w: %s overlaps the reservation of %q", ErrInvalidRequest, freed, other)
		}
	}
	return false, nil
}

func overlapsAny(a, b []netip.Prefix) bool {
	for i := range a {
		for j := range b {
			if a[i].Overlaps(b[j]) {
				return true
			}
		}
	}
	return false
}

// Release frees whatever the consumer holds, either an address or a range.
func (b *IPBooking) Release(ctx context.Context, consumer string) error {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	current, found := b.reservations[consumer]
	switch {
	case !found:
		return observe(OperationFree, fmt.Errorf("%w: %q", ErrNoReservation, consumer))
	case current.IsRange():
		return observe(OperationFreeRange, b.freeIPRange(ctx, consumer, current.From, current.To))
	default:
		return observe(OperationFree, b.freeIP(ctx, consumer, current.IP))
	}
}

// IsFree returns whether the address or block is entirely free.
func (b *IPBooking) IsFree(ip string) (bool, error) {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	free, err := b.pool.IsFree(ip)
	if err != nil {
		return false, fmt.Errorf("failed to check %q: %w", ip, err)
	}
	return free, nil
}

// IsRangeFree returns whether every address between from and to is free.
func (b *IPBooking) IsRangeFree(from, to string) (bool, error) {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	free, err := b.pool.IsRangeFree(from, to)
	if err != nil {
		return false, fmt.Errorf("failed to check range %s-%s: %w", from, to, err)
	}
	return free, nil
}

// Available returns the free IPv4 and IPv6 blocks.
func (b *IPBooking) Available() (ipv4, ipv6 []string) {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	return b.pool.AvailableIPv4(), b.pool.AvailableIPv6()
}

// Reservations returns a copy of the recorded reservations, by consumer.
func (b *IPBooking) Reservations() map[string]Reservation {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	return maps.Clone(b.reservations)
}

// DeletePool drops the persisted pool. The in-memory pool restarts from the configured pools,
// and is persisted again by the next change.
func (b *IPBooking) DeletePool(ctx context.Context) error {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	pool, err := b.configuredPool()
	if err != nil {
		return observe(OperationDeletePool, err)
	}
	if err := b.store.Delete(ctx); err != nil {
		return observe(OperationDeletePool, fmt.Errorf("failed to delete the pool: %w", err))
	}

	b.pool, b.reservations = pool, map[string]Reservation{}
	observeAvailable(b.pool)
	klog.Infof("Deleted pool")
	return observe(OperationDeletePool, nil)
}

// update applies the mutation to a copy of the state, and commits it only once persisted.
func (b *IPBooking) update(ctx context.Context, mutate func(*ipamcore.Pool, map[string]Reservation) error) error {
	pool, reservations := b.pool.Clone(), maps.Clone(b.reservations)
	if err := mutate(pool, reservations); err != nil {
		return err
	}

	if err := b.store.Save(ctx, toProperties(pool, reservations)); err != nil {
		klog.Errorf("Failed to persist the pool, changes discarded: %v", err)
		return fmt.Errorf("failed to persist the pool: %w", err)
	}

	b.pool, b.reservations = pool, reservations
	observeAvailable(b.pool)
	return nil
}
