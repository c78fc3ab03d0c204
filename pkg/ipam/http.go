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
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/julienschmidt/httprouter"
	klog "k8s.io/klog/v2"
)

// PoolResponse is the body returned by the pool endpoint.
type PoolResponse struct {
	AvailableIPv4 []string `json:"available_ipv4"`
	AvailableIPv6 []string `json:"available_ipv6"`
}

// FreeResponse is the body returned by the free endpoint.
type FreeResponse struct {
	Free bool `json:"free"`
}

// ErrorResponse is the body returned on failures.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Handler returns the HTTP handler serving the booking API and the metrics.
func (b *IPBooking) Handler() http.Handler {
	router := httprouter.New()
	router.GET("/v1/pool", b.getPool)
	router.DELETE("/v1/pool", b.deletePool)
	router.GET("/v1/reservations", b.listReservations)
	router.PUT("/v1/reservations/:consumer", b.reserve)
	router.DELETE("/v1/reservations/:consumer", b.free)
	router.GET("/v1/free", b.checkFree)
	router.Handler(http.MethodGet, "/metrics", metricsHandler())
	return router
}

func (b *IPBooking) getPool(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	ipv4, ipv6 := b.Available()
	sendResponse(w, PoolResponse{AvailableIPv4: ipv4, AvailableIPv6: ipv6}, http.StatusOK)
}

func (b *IPBooking) deletePool(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if err := b.DeletePool(r.Context()); err != nil {
		handleError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (b *IPBooking) listReservations(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	sendResponse(w, b.Reservations(), http.StatusOK)
}

func (b *IPBooking) reserve(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	consumer := ps.ByName("consumer")
	req, err := decodeReservation(r)
	if err != nil {
		handleError(w, err)
		return
	}

	if req.IsRange() {
		err = b.ReserveIPRange(r.Context(), consumer, req.From, req.To)
	} else {
		err = b.ReserveIP(r.Context(), consumer, req.IP)
	}
	if err != nil {
		handleError(w, err)
		return
	}
	sendResponse(w, req, http.StatusCreated)
}

func (b *IPBooking) free(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	consumer := ps.ByName("consumer")
	req, err := decodeReservation(r)
	if err != nil {
		handleError(w, err)
		return
	}

	switch {
	case req.IsRange():
		err = b.FreeIPRange(r.Context(), consumer, req.From, req.To)
	case req.IP != "":
		err = b.FreeIP(r.Context(), consumer, req.IP)
	default:
		err = b.Release(r.Context(), consumer)
	}
	if err != nil {
		handleError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (b *IPBooking) checkFree(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	query := r.URL.Query()

	var (
		free bool
		err  error
	)
	switch {
	case query.Get("ip") != "":
		free, err = b.IsFree(query.Get("ip"))
	case query.Get("from") != "" && query.Get("to") != "":
		free, err = b.IsRangeFree(query.Get("from"), query.Get("to"))
	default:
		err = fmt.Errorf("%w: either ip or from and to are required", ErrInvalidRequest)
	}
	if err != nil {
		handleError(w, err)
		return
	}
	sendResponse(w, FreeResponse{Free: free}, http.StatusOK)
}

// decodeReservation decodes the optional request body.
func decodeReservation(r *http.Request) (Reservation, error) {
	var req Reservation
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		return Reservation{}, fmt.Errorf("%w: malformed body: %w", ErrInvalidRequest, err)
	}
	if req.IP != "" && req.IsRange() {
		return Reservation{}, fmt.Errorf("%w: either an ip or a from/to pair is accepted", ErrInvalidRequest)
	}
	return req, nil
}

func handleError(w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError
	switch {
	case IsInvalid(err):
		code = http.StatusBadRequest
	case errors.Is(err, ErrNoReservation):
		code = http.StatusNotFound
	case errors.Is(err, ErrNotAvailable), errors.Is(err, ErrAlreadyReserved):
		code = http.StatusConflict
	default:
		klog.Error(err)
	}
	sendResponse(w, ErrorResponse{Error: err.Error()}, code)
}

func sendResponse(w http.ResponseWriter, resp interface{}, code int) {
	bytes, err := json.Marshal(resp)
	if err != nil {
		klog.Error(err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err = w.Write(bytes); err != nil {
		klog.Error(err)
	}
}
