package observability

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// StatsFunc returns a JSON-encodable snapshot for /stats.
type StatsFunc func() any

// NewStatusRouter serves /health, /stats and /metrics for one link.
func NewStatusRouter(link string, stats StatsFunc, logger zerolog.Logger) *gin.Engine {
	RegisterMetrics()
	startedAt := time.Now()

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLogger(link, logger))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"link":   link,
			"uptime": time.Since(startedAt).String(),
		})
	})
	r.GET("/stats", func(c *gin.Context) {
		if stats == nil {
			c.JSON(http.StatusOK, gin.H{})
			return
		}
		c.JSON(http.StatusOK, stats())
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	return r
}

// ServeStatus runs the status router on addr until ctx is cancelled.
func ServeStatus(ctx context.Context, addr string, handler http.Handler, logger zerolog.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", addr).Msg("status_server_listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
