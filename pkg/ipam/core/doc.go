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

// Package ipamcore tracks the free address space of IPv4 and IPv6 pools as
// minimal lists of disjoint CIDR blocks, and implements the block algebra it
// relies on: exclusion of a subnet from a network, summarization of address
// ranges and aggregation of block lists.
package ipamcore
