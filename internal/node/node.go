// Package node defines the HTTP-serving unit a nexus binary runs and the
// shutdown-aware loop that serves it.
package node

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type Node interface {
	NodeID() string
	Kind() string
	HTTPRouter() *gin.Engine
}

const ShutdownTimeout = 10 * time.Second

// Serve runs n on addr until ctx is done, then drains in-flight requests.
// It returns nil after a clean shutdown.
func Serve(ctx context.Context, n Node, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           n.HTTPRouter(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errs := make(chan error, 1)
	go func() {
		errs <- srv.ListenAndServe()
	}()
	log.Info().Str("id", n.NodeID()).Str("kind", n.Kind()).Str("addr", addr).Msg("node serving")

	select {
	case err := <-errs:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	<-errs
	log.Info().Str("id", n.NodeID()).Msg("node stopped")
	return nil
}
