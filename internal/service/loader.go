package service

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/system-detox/universal-android-debloater-next-generation-electrolyzed/internal/adb"
	"github.com/system-detox/universal-android-debloater-next-generation-electrolyzed/internal/catalog"
	"github.com/system-detox/universal-android-debloater-next-generation-electrolyzed/internal/device"
	"github.com/system-detox/universal-android-debloater-next-generation-electrolyzed/internal/metrics"
	"github.com/system-detox/universal-android-debloater-next-generation-electrolyzed/internal/packages"
)

// Lister reads one user's package states.
type Lister interface {
	ListPackages(ctx context.Context, dev device.Device, user device.User) (map[string]packages.State, error)
}

// Loader enumerates the packages of every user of a device.
type Loader struct {
	Lister  Lister
	Logger  *zap.Logger
	Metrics *metrics.Metrics
	// Parallel bounds concurrent per-user listings; 0 means 4.
	Parallel int
}

// Enumerate builds the record store for dev. A user whose list cannot be
// read is kept as unavailable; only context cancellation fails the call.
func (l *Loader) Enumerate(ctx context.Context, cat catalog.Catalog, dev device.Device) (*packages.Store, error) {
	users := dev.SessionUsers()
	results := make([]packages.UserPackages, len(users))

	g, gctx := errgroup.WithContext(ctx)
	limit := l.Parallel
	if limit <= 0 {
		limit = 4
	}
	g.SetLimit(limit)
	for i, u := range users {
		g.Go(func() error {
			results[i].User = u
			if u.Protected {
				results[i].Err = fmt.Errorf("%s: %w", u, adb.ErrUserUnavailable)
				return nil
			}
			states, err := l.Lister.ListPackages(gctx, dev, u)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				results[i].Err = err
				return nil
			}
			results[i].States = states
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("enumerate packages: %w", err)
	}

	log := l.logger()
	unavailable := 0
	for _, r := range results {
		if r.Err != nil {
			unavailable++
			log.Warn("user packages unavailable", zap.Int("user", r.User.ID), zap.Error(r.Err))
			continue
		}
		if l.Metrics != nil {
			l.Metrics.PackagesLoaded.WithLabelValues(strconv.Itoa(r.User.ID)).Set(float64(len(r.States)))
		}
	}
	if l.Metrics != nil {
		l.Metrics.UsersProtected.Set(float64(unavailable))
	}

	st := packages.Build(cat, results)
	log.Info("packages enumerated",
		zap.String("device", dev.String()),
		zap.Int("packages", st.Len()),
		zap.Int("users", len(users)),
		zap.Int("unavailable", unavailable))
	return st, nil
}

func (l *Loader) logger() *zap.Logger {
	if l.Logger == nil {
		return zap.NewNop()
	}
	return l.Logger
}
