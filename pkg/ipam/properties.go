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
	"fmt"
	"net/netip"

	ipamcore "github.com/liqotech/liqo-ipbooking/pkg/ipam/core"
)

// Names of the persisted pool properties.
const (
	AvailableIPv4Property = "available_ipv4"
	AvailableIPv6Property = "available_ipv6"
	ReservationsProperty  = "reservations"
)

// Reservation is the address space held by a consumer:
// either a single address or block (IP), or an inclusive range (From, To).
type Reservation struct {
	IP   string `json:"ip,omitempty"`
	From string `json:"from,omitempty"`
	To   string `json:"to,omitempty"`
}

// IsRange returns whether the reservation is an address range.
func (r Reservation) IsRange() bool {
	return r.From != "" || r.To != ""
}

// IsEmpty returns whether the reservation names no addresses at all.
func (r Reservation) IsEmpty() bool {
	return r.IP == "" && !r.IsRange()
}

func (r Reservation) String() string {
	if r.IsRange() {
		return r.From + "-" + r.To
	}
	return r.IP
}

// blocks returns the blocks covered by the reservation.
func (r Reservation) blocks() ([]netip.Prefix, error) {
	if r.IsRange() {
		return ipamcore.SummarizeStrings(r.From, r.To)
	}
	block, err := ipamcore.ParseBlock(r.IP)
	if err != nil {
		return nil, err
	}
	return []netip.Prefix{block}, nil
}

func (r Reservation) toProperty() map[string]interface{} {
	if r.IsRange() {
		return map[string]interface{}{"from": r.From, "to": r.To}
	}
	return map[string]interface{}{"ip": r.IP}
}

func reservationFromProperty(consumer string, v interface{}) (Reservation, error) {
	switch value := v.(type) {
	case string:
		return Reservation{IP: value}, nil
	case []interface{}:
		bounds, err := ipamcore.StringList(value)
		if err != nil || len(bounds) != 2 || bounds[0] == "" || bounds[1] == "" {
			return Reservation{}, fmt.Errorf("%w: reservation of %q must be a pair of addresses",
				ipamcore.ErrInvalidInput, consumer)
		}
		return Reservation{From: bounds[0], To: bounds[1]}, nil
	case map[string]interface{}:
		var r Reservation
		for key, field := range map[string]*string{"ip": &r.IP, "from": &r.From, "to": &r.To} {
			raw, ok := value[key]
			if !ok {
				continue
			}
			s, ok := raw.(string)
			if !ok {
				return Reservation{}, fmt.Errorf("%w: reservation of %q: %q is a %T, not a string",
					ipamcore.ErrInvalidInput, consumer, key, raw)
			}
			*field = s
		}
		if r.IsEmpty() || (r.IsRange() && (r.From == "" || r.To == "")) || (r.IsRange() && r.IP != "") {
			return Reservation{}, fmt.Errorf("%w: reservation of %q must hold either an ip or a from/to pair",
				ipamcore.ErrInvalidInput, consumer)
		}
		return r, nil
	default:
		return Reservation{}, fmt.Errorf("%w: reservation of %q is a %T", ipamcore.ErrInvalidInput, consumer, v)
	}
}

// poolFromProperties rebuilds the pool from the persisted properties.
// A family persisted as an empty list was exhausted, and is restored as such.
func poolFromProperties(props map[string]interface{}) (*ipamcore.Pool, error) {
	lists := make(map[ipamcore.Family][]string, 2)
	for f, key := range map[ipamcore.Family]string{ipamcore.IPv4: AvailableIPv4Property, ipamcore.IPv6: AvailableIPv6Property} {
		list, err := ipamcore.StringList(props[key])
		if err != nil {
			return nil, fmt.Errorf("property %q: %w", key, err)
		}
		lists[f] = list
	}

	pool, err := ipamcore.NewPool(ipamcore.PoolConfig{
		AvailableIPv4: lists[ipamcore.IPv4],
		AvailableIPv6: lists[ipamcore.IPv6],
	})
	if err != nil {
		return nil, err
	}

	for f, key := range map[ipamcore.Family]string{ipamcore.IPv4: AvailableIPv4Property, ipamcore.IPv6: AvailableIPv6Property} {
		if _, found := props[key]; !found || len(lists[f]) > 0 {
			continue
		}
		if _, err := pool.Reserve(ipamcore.EntireSpace(f).String()); err != nil {
			return nil, err
		}
	}
	return pool, nil
}

func reservationsFromProperties(props map[string]interface{}) (map[string]Reservation, error) {
	reservations := map[string]Reservation{}
	raw, found := props[ReservationsProperty]
	if !found || raw == nil {
		return reservations, nil
	}

	entries, ok := raw.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("property %q: %w: expected a map, got %T", ReservationsProperty, ipamcore.ErrInvalidInput, raw)
	}
	for consumer, entry := range entries {
		r, err := reservationFromProperty(consumer, entry)
		if err != nil {
			return nil, fmt.Errorf("property %q: %w", ReservationsProperty, err)
		}
		reservations[consumer] = r
	}
	return reservations, nil
}

func toProperties(pool *ipamcore.Pool, reservations map[string]Reservation) map[string]interface{} {
	entries := make(map[string]interface{}, len(reservations))
	for consumer, r := range reservations {
		entries[consumer] = r.toProperty()
	}
	return map[string]interface{}{
		AvailableIPv4Property: toInterfaceList(pool.AvailableIPv4()),
		AvailableIPv6Property: toInterfaceList(pool.AvailableIPv6()),
		ReservationsProperty:  entries,
	}
}

func toInterfaceList(list []string) []interface{} {
	out := make([]interface{}, len(list))
	for i := range list {
		out[i] = list[i]
	}
	return out
}
