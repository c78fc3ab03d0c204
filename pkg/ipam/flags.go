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
	"github.com/spf13/pflag"

	"github.com/liqotech/liqo-ipbooking/pkg/ipam/storage"
	"github.com/liqotech/liqo-ipbooking/pkg/utils/args"
)

// FlagName is the type for the name of the flags.
type FlagName string

func (fn FlagName) String() string {
	return string(fn)
}

const (
	// FlagNamePools contains the blocks the pool is created from.
	FlagNamePools FlagName = "pools"

	// FlagNameStorageBackend is the storage backend holding the pool.
	FlagNameStorageBackend FlagName = "storage-backend"
	// FlagNameStoragePath is the path of the file holding the pool.
	FlagNameStoragePath FlagName = "storage-path"
	// FlagNameStorageTimeout bounds every storage operation.
	FlagNameStorageTimeout FlagName = "storage-timeout"
	// FlagNameRedisAddress is the address of the redis server holding the pool.
	FlagNameRedisAddress FlagName = "redis-address"
	// FlagNameRedisPassword is the password of the redis server.
	FlagNameRedisPassword FlagName = "redis-password"
	// FlagNameRedisDB is the redis database holding the pool.
	FlagNameRedisDB FlagName = "redis-db"
	// FlagNameRedisKey is the redis key holding the pool.
	FlagNameRedisKey FlagName = "redis-key"

	// FlagNamePort is the port of the booking API.
	FlagNamePort FlagName = "port"
	// FlagNameProbePort is the port of the gRPC health service.
	FlagNameProbePort FlagName = "probe-port"
)

// ServerOptions contains the options to configure the IP booking server.
type ServerOptions struct {
	Pools     args.CIDRList
	Port      int
	ProbePort int

	Storage storage.Options
}

// InitFlags initializes the flags selecting the pool and its storage.
func InitFlags(flagset *pflag.FlagSet, o *ServerOptions) {
	flagset.Var(&o.Pools, FlagNamePools.String(),
		"The blocks the pool is created from, when not found in the storage (default: the whole IPv4 and IPv6 spaces)")

	flagset.StringVar((*string)(&o.Storage.Backend), FlagNameStorageBackend.String(), string(storage.BackendFile),
		"The storage holding the pool (memory, file, redis)")
	flagset.StringVar(&o.Storage.Path, FlagNameStoragePath.String(), "ipbooking.yaml",
		"The file holding the pool, for the file storage")
	flagset.DurationVar(&o.Storage.Timeout, FlagNameStorageTimeout.String(), storage.DefaultRedisTimeout,
		"The timeout of every operation on a remote storage")
	flagset.StringVar(&o.Storage.RedisAddress, FlagNameRedisAddress.String(), "localhost:6379",
		"The address of the redis server, for the redis storage")
	flagset.StringVar(&o.Storage.RedisPassword, FlagNameRedisPassword.String(), "",
		"The password of the redis server, for the redis storage")
	flagset.IntVar(&o.Storage.RedisDB, FlagNameRedisDB.String(), 0,
		"The redis database, for the redis storage")
	flagset.StringVar(&o.Storage.RedisKey, FlagNameRedisKey.String(), "liqo-ipbooking",
		"The redis key holding the pool, for the redis storage")
}

// InitServerFlags initializes the flags of the network listeners.
func InitServerFlags(flagset *pflag.FlagSet, o *ServerOptions) {
	flagset.IntVar(&o.Port, FlagNamePort.String(), 8080, "The port of the booking API")
	flagset.IntVar(&o.ProbePort, FlagNameProbePort.String(), 8081, "The port of the gRPC health service")
}
