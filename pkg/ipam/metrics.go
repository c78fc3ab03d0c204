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
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	ipamcore "github.com/liqotech/liqo-ipbooking/pkg/ipam/core"
)

// Operation is the name of a booking operation, as reported by the metrics.
type Operation string

// Booking operations.
const (
	OperationReserve      Operation = "reserve"
	OperationFree         Operation = "free"
	OperationReserveRange Operation = "reserve_range"
	OperationFreeRange    Operation = "free_range"
	OperationDeletePool   Operation = "delete_pool"
)

// Operation results.
const (
	ResultSuccess     = "success"
	ResultUnavailable = "unavailable"
	ResultInvalid     = "invalid"
	ResultError       = "error"
)

var (
	operationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "liqo_ipbooking_operations_total",
			Help: "The number of booking operations, by operation and result",
		},
		[]string{"operation", "result"},
	)

	availableBlocks = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "liqo_ipbooking_available_blocks",
			Help: "The number of free blocks in the pool, by address family",
		},
		[]string{"family"},
	)
)

func init() {
	prometheus.MustRegister(operationsTotal)
	prometheus.MustRegister(availableBlocks)
}

// observe counts the outcome of the operation and returns err unchanged.
func observe(op Operation, err error) error {
	result := ResultSuccess
	switch {
	case err == nil:
	case errors.Is(err, ErrNotAvailable):
		result = ResultUnavailable
	case IsInvalid(err):
		result = ResultInvalid
	default:
		result = ResultError
	}
	operationsTotal.WithLabelValues(string(op), result).Inc()
	return err
}

func observeAvailable(pool *ipamcore.Pool) {
	availableBlocks.WithLabelValues(ipamcore.IPv4.String()).Set(float64(len(pool.AvailableIPv4())))
	availableBlocks.WithLabelValues(ipamcore.IPv6.String()).Set(float64(len(pool.AvailableIPv6())))
}

func metricsHandler() http.Handler {
	return promhttp.HandlerFor(
		prometheus.DefaultGatherer,
		promhttp.HandlerOpts{
			// Opt into OpenMetrics to support exemplars.
			EnableOpenMetrics: true,
		},
	)
}
