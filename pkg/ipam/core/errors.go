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

package ipamcore

import "errors"

var (
	// ErrInvalidInput indicates a value that is not a list of CIDR strings.
	ErrInvalidInput = errors.New("invalid input")
	// ErrInvalidAddress indicates an unparseable address or CIDR, or a CIDR with host bits set.
	ErrInvalidAddress = errors.New("invalid address")
	// ErrFamilyMismatch indicates IPv4 and IPv6 values mixed in the same operation.
	ErrFamilyMismatch = errors.New("address family mismatch")
	// ErrInvalidRange indicates a range whose first address is greater than the last one.
	ErrInvalidRange = errors.New("invalid address range")
	// ErrOverlapNotContainment indicates a block that overlaps another one without being its subnet.
	ErrOverlapNotContainment = errors.New("block overlaps but is not contained")
)
