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
	"net"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health/grpc_health_v1"
	klog "k8s.io/klog/v2"
)

// shutdownTimeout bounds the graceful shutdown of both servers.
var shutdownTimeout = 10 * time.Second

// Serve listens on the configured ports and serves the booking API and the gRPC health service
// until the context is cancelled.
func (b *IPBooking) Serve(ctx context.Context) error {
	var lc net.ListenConfig

	apiListener, err := lc.Listen(ctx, "tcp", fmt.Sprintf(":%d", b.opts.Port))
	if err != nil {
		return fmt.Errorf("failed to listen on port %d: %w", b.opts.Port, err)
	}
	probeListener, err := lc.Listen(ctx, "tcp", fmt.Sprintf(":%d", b.opts.ProbePort))
	if err != nil {
		return errors.Join(fmt.Errorf("failed to listen on port %d: %w", b.opts.ProbePort, err), apiListener.Close())
	}

	return b.ServeListeners(ctx, apiListener, probeListener)
}

// ServeListeners serves the booking API and the gRPC health service on the given listeners
// until the context is cancelled. The listeners are closed on return.
func (b *IPBooking) ServeListeners(ctx context.Context, apiListener, probeListener net.Listener) error {
	httpServer := &http.Server{
		Handler:           b.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	grpcServer := grpc.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, b.HealthServer)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		klog.Infof("Serving the booking API on %s", apiListener.Addr())
		if err := httpServer.Serve(apiListener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("booking API failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		klog.Infof("Serving the health service on %s", probeListener.Addr())
		if err := grpcServer.Serve(probeListener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			return fmt.Errorf("health service failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		klog.Info("Shutting down")

		b.HealthServer.Shutdown()
		stopped := make(chan struct{})
		go func() {
			grpcServer.GracefulStop()
			close(stopped)
		}()
		select {
		case <-stopped:
		case <-time.After(shutdownTimeout):
			klog.Warning("Health service still busy, closing the open streams")
			grpcServer.Stop()
		}

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
