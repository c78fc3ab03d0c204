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
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/liqotech/liqo-ipbooking/pkg/ipam/storage"
)

var _ = Describe("Booking API", func() {
	var (
		store   *flakyStorage
		booking *IPBooking
		handler http.Handler
	)

	BeforeEach(func() {
		var err error
		store = &flakyStorage{Memory: storage.NewMemory()}
		booking, err = New(context.Background(), store, newOptions("10.0.0.0/24", "fd00::/64"))
		Expect(err).ToNot(HaveOccurred())
		handler = booking.Handler()
	})

	do := func(method, target, body string) *httptest.ResponseRecorder {
		var reader io.Reader
		if body != "" {
			reader = strings.NewReader(body)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(method, target, reader))
		return rec
	}

	decode := func(rec *httptest.ResponseRecorder, into interface{}) {
		ExpectWithOffset(1, json.Unmarshal(rec.Body.Bytes(), into)).To(Succeed())
	}

	It("should return the free blocks", func() {
		rec := do(http.MethodGet, "/v1/pool", "")
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Header().Get("Content-Type")).To(Equal("application/json"))

		var resp PoolResponse
		decode(rec, &resp)
		Expect(resp).To(Equal(PoolResponse{AvailableIPv4: []string{"10.0.0.0/24"}, AvailableIPv6: []string{"fd00::/64"}}))
	})

	It("should reserve an address", func() {
		rec := do(http.MethodPut, "/v1/reservations/node-a", `{"ip": "10.0.0.0/25"}`)
		Expect(rec.Code).To(Equal(http.StatusCreated))

		var resp Reservation
		decode(rec, &resp)
		Expect(resp).To(Equal(Reservation{IP: "10.0.0.0/25"}))

		rec = do(http.MethodGet, "/v1/reservations", "")
		Expect(rec.Code).To(Equal(http.StatusOK))
		var reservations map[string]Reservation
		decode(rec, &reservations)
		Expect(reservations).To(Equal(map[string]Reservation{"node-a": {IP: "10.0.0.0/25"}}))
	})

	It("should reserve and release a range", func() {
		Expect(do(http.MethodPut, "/v1/reservations/node-a", `{"from": "fd00::", "to": "fd00::ff"}`).Code).
			To(Equal(http.StatusCreated))

		var free FreeResponse
		decode(do(http.MethodGet, "/v1/free?from=fd00::10&to=fd00::20", ""), &free)
		Expect(free.Free).To(BeFalse())

		Expect(do(http.MethodDelete, "/v1/reservations/node-a", "").Code).To(Equal(http.StatusNoContent))

		decode(do(http.MethodGet, "/v1/free?from=fd00::10&to=fd00::20", ""), &free)
		Expect(free.Free).To(BeTrue())
		Expect(booking.Reservations()).To(BeEmpty())
	})

	It("should free an explicit address", func() {
		Expect(do(http.MethodPut, "/v1/reservations/node-a", `{"ip": "10.0.0.7"}`).Code).To(Equal(http.StatusCreated))
		Expect(do(http.MethodDelete, "/v1/reservations/node-a", `{"ip": "10.0.0.7"}`).Code).To(Equal(http.StatusNoContent))

		var free FreeResponse
		decode(do(http.MethodGet, "/v1/free?ip=10.0.0.7", ""), &free)
		Expect(free.Free).To(BeTrue())
	})

	DescribeTable("should map failures to status codes",
		func(method, target, body string, code int) {
			Expect(do(http.MethodPut, "/v1/reservations/node-a", `{"ip": "10.0.0.0/25"}`).Code).To(Equal(http.StatusCreated))

			rec := do(method, target, body)
			Expect(rec.Code).To(Equal(code))
			var resp ErrorResponse
			decode(rec, &resp)
			Expect(resp.Error).ToNot(BeEmpty())
		},
		Entry("malformed body", http.MethodPut, "/v1/reservations/node-b", `{"ip":`, http.StatusBadRequest),
		Entry("both ip and range", http.MethodPut, "/v1/reservations/node-b",
			`{"ip": "10.0.0.200", "from": "10.0.0.1", "to": "10.0.0.2"}`, http.StatusBadRequest),
		Entry("missing ip", http.MethodPut, "/v1/reservations/node-b", `{}`, http.StatusBadRequest),
		Entry("malformed ip", http.MethodPut, "/v1/reservations/node-b", `{"ip": "10.0.0.300"}`, http.StatusBadRequest),
		Entry("reversed range", http.MethodPut, "/v1/reservations/node-b",
			`{"from": "10.0.0.9", "to": "10.0.0.1"}`, http.StatusBadRequest),
		Entry("not available", http.MethodPut, "/v1/reservations/node-b", `{"ip": "10.0.0.1"}`, http.StatusConflict),
		Entry("already reserved", http.MethodPut, "/v1/reservations/node-a", `{"ip": "10.0.0.200"}`, http.StatusConflict),
		Entry("unknown consumer", http.MethodDelete, "/v1/reservations/node-b", "", http.StatusNotFound),
		Entry("free of another consumer", http.MethodDelete, "/v1/reservations/node-b",
			`{"ip": "10.0.0.0/25"}`, http.StatusBadRequest),
		Entry("free without query", http.MethodGet, "/v1/free", "", http.StatusBadRequest),
		Entry("free with malformed ip", http.MethodGet, "/v1/free?ip=nope", "", http.StatusBadRequest),
	)

	It("should report storage failures as internal errors", func() {
		store.broken.Store(true)
		rec := do(http.MethodPut, "/v1/reservations/node-a", `{"ip": "10.0.0.1"}`)
		Expect(rec.Code).To(Equal(http.StatusInternalServerError))
	})

	It("should delete the pool", func() {
		Expect(do(http.MethodPut, "/v1/reservations/node-a", `{"ip": "10.0.0.0/25"}`).Code).To(Equal(http.StatusCreated))
		Expect(do(http.MethodDelete, "/v1/pool", "").Code).To(Equal(http.StatusNoContent))

		_, err := store.Load(context.Background())
		Expect(err).To(MatchError(storage.ErrNotFound))
		Expect(booking.Reservations()).To(BeEmpty())
	})

	It("should expose the metrics", func() {
		Expect(do(http.MethodPut, "/v1/reservations/node-a", `{"ip": "10.0.0.1"}`).Code).To(Equal(http.StatusCreated))

		rec := do(http.MethodGet, "/metrics", "")
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(ContainSubstring(`liqo_ipbooking_operations_total{operation="reserve",result="success"}`))
		Expect(rec.Body.String()).To(ContainSubstring(`liqo_ipbooking_available_blocks{family="ipv6"} 1`))
	})
})
