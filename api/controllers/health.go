package controllers

import (
	"context"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/angelmondragon/veggiepos-backend/api/responses"
	"github.com/angelmondragon/veggiepos-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/veggiepos-backend/pkg/errors"
	"github.com/angelmondragon/veggiepos-backend/pkg/logger"
)

const (
	readinessTimeout = 2 * time.Second
	envHeader        = "X-VeggiePOS-Env"
)

// Pinger is satisfied by the db and redis clients.
type Pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings every named dependency in parallel under one deadline;
// nil pingers are skipped. The body reports each dependency's latency.
func HealthReady(cfg *config.Config, logg *logger.Logger, deps map[string]Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		var (
			mu      sync.Mutex
			latency = map[string]int64{}
			failed  = map[string]any{}
			group   errgroup.Group
		)
		for name, dep := range deps {
			if dep == nil {
				continue
			}
			group.Go(func() error {
				started := time.Now()
				err := dep.Ping(ctx)
				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					failed[name] = err.Error()
				} else {
					latency[name] = time.Since(started).Milliseconds()
				}
				return nil
			})
		}
		_ = group.Wait()

		if len(failed) > 0 {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeDependency, "dependencies unavailable").WithDetails(failed))
			return
		}
		responses.WriteSuccess(w, map[string]any{"status": "ready", "latency_ms": latency})
	}
}
