package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	mirahttp "github.com/fwojciec/mira/http"
	"github.com/fwojciec/mira/pipeline"
)

const shutdownTimeout = 10 * time.Second

// Run executes the serve command. It blocks until the context is cancelled.
func (c *ServeCmd) Run(deps *Dependencies) error {
	ln, err := net.Listen("tcp", deps.Config.Addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", deps.Config.Addr, err)
	}

	host := pipeline.NewHost(deps.Pipeline, deps.Loader, deps.Store, deps.Logger)
	srv := &http.Server{
		Handler:           mirahttp.NewServer(host, deps.Logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	fmt.Fprintf(deps.Stdout, "Listening on http://%s\n", ln.Addr())

	errc := make(chan error, 1)
	go func() {
		errc <- srv.Serve(ln)
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-deps.Ctx.Done():
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	return nil
}
