// Copyright 2026 The Peering Manager Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package reconcile

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"slices"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/XioNoX/peering-manager/database"
	"github.com/XioNoX/peering-manager/database/models"
	"github.com/XioNoX/peering-manager/peeringdb"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"
)

// passKey is shared by every caller so that at most one pass writes to the
// cache at a time
const passKey = "pass"

const tracerName = "github.com/XioNoX/peering-manager/reconcile"

// Registry is the part of the registry client used for reconciliation
type Registry interface {
	Lookup(
		ctx context.Context,
		ns peeringdb.Namespace,
		params url.Values,
	) ([]peeringdb.Record, error)
}

type Config struct {
	DB           *database.Database
	Client       Registry
	Logger       *slog.Logger
	PromRegistry prometheus.Registerer
	Now          func() time.Time
}

// Synchronizer mirrors registry changes into the local cache
type Synchronizer struct {
	config  Config
	group   singleflight.Group
	running atomic.Bool
	metrics syncMetrics
}

func New(cfg Config) (*Synchronizer, error) {
	if cfg.DB == nil {
		return nil, errors.New("reconcile: database is required")
	}
	if cfg.Client == nil {
		return nil, errors.New("reconcile: registry client is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	cfg.Logger = cfg.Logger.With("component", "reconcile")
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	s := &Synchronizer{config: cfg}
	s.metrics.init(cfg.PromRegistry)
	return s, nil
}

// Run reconciles every change since the last checkpoint. Callers arriving
// while a pass is in flight wait for it and receive its result.
func (s *Synchronizer) Run(ctx context.Context) (*Result, error) {
	return s.do(func() (*Result, error) {
		since, err := s.config.DB.GetLastSyncTime(nil)
		if err != nil {
			return nil, fmt.Errorf("reading last sync time: %w", err)
		}
		return s.runSince(ctx, since)
	})
}

// RunSince reconciles every change since the given UNIX time
func (s *Synchronizer) RunSince(
	ctx context.Context,
	since int64,
) (*Result, error) {
	return s.do(func() (*Result, error) {
		return s.runSince(ctx, since)
	})
}

// Running reports whether a pass is in flight
func (s *Synchronizer) Running() bool {
	return s.running.Load()
}

// History returns up to limit checkpoints, newest first
func (s *Synchronizer) History(limit int) ([]models.SyncCheckpoint, error) {
	return s.config.DB.GetSyncCheckpoints(limit, nil)
}

// RunPeriodic runs a pass immediately and then every interval until ctx is
// done. A non-positive interval disables it.
func (s *Synchronizer) RunPeriodic(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		if _, err := s.Run(ctx); err != nil && ctx.Err() == nil {
			s.config.Logger.Error(
				"periodic reconciliation failed",
				"error", err,
			)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *Synchronizer) do(fn func() (*Result, error)) (*Result, error) {
	v, err, _ := s.group.Do(passKey, func() (any, error) {
		s.running.Store(true)
		defer s.running.Store(false)
		return fn()
	})
	res, _ := v.(*Result)
	return res, err
}

func (s *Synchronizer) runSince(
	ctx context.Context,
	since int64,
) (*Result, error) {
	started := s.config.Now()
	res := newResult(uuid.NewString(), since, started)
	logger := s.config.Logger.With("pass_id", res.PassID)
	logger.Info("starting reconciliation", "since", since)
	ctx, span := otel.Tracer(tracerName).Start(
		ctx,
		"reconcile.pass",
		trace.WithAttributes(
			attribute.String("pass_id", res.PassID),
			attribute.Int64("since", since),
		),
	)
	defer span.End()

	// Everything is fetched before the transaction opens. A fetch failure
	// discards whatever was already fetched.
	batches := make([][]peeringdb.Record, len(kinds))
	params := url.Values{
		"since": []string{strconv.FormatInt(since, 10)},
		"depth": []string{"0"},
	}
	for i := range kinds {
		records, err := s.config.Client.Lookup(ctx, kinds[i].namespace, params)
		if err != nil {
			res.Duration = s.config.Now().Sub(started)
			s.metrics.observe(res, outcomeUnavailable)
			logger.Warn(
				"registry unavailable, reconciliation aborted",
				"namespace", kinds[i].namespace.String(),
				"error", err,
			)
			if !errors.Is(err, peeringdb.ErrUnavailable) {
				err = fmt.Errorf("%w: %w", peeringdb.ErrUnavailable, err)
			}
			span.RecordError(err)
			span.SetStatus(codes.Error, "registry unavailable")
			return nil, fmt.Errorf("fetching %s: %w", kinds[i].name, err)
		}
		batches[i] = records
	}
	if err := ctx.Err(); err != nil {
		s.metrics.observe(nil, outcomeError)
		return nil, err
	}

	txn := s.config.DB.TransactionContext(ctx, true)
	err := txn.Do(func(txn *database.Txn) error {
		for i := range kinds {
			changes, err := s.apply(logger, &kinds[i], batches[i], txn, res)
			if err != nil {
				return fmt.Errorf("applying %s: %w", kinds[i].name, err)
			}
			res.add(kinds[i].name, changes)
		}
		if res.Total() == 0 {
			return nil
		}
		checkpoint := &models.SyncCheckpoint{
			Time:    started,
			Added:   int64(res.Added),
			Updated: int64(res.Updated),
			Deleted: int64(res.Deleted),
		}
		if err := s.config.DB.AddSyncCheckpoint(checkpoint, txn); err != nil {
			return fmt.Errorf("recording checkpoint: %w", err)
		}
		res.Checkpoint = checkpoint
		return nil
	})
	res.Duration = s.config.Now().Sub(started)
	if err != nil {
		s.metrics.observe(res, outcomeError)
		span.RecordError(err)
		span.SetStatus(codes.Error, "rolled back")
		logger.Error("reconciliation rolled back", "error", err)
		return nil, err
	}
	s.metrics.observe(res, outcomeSuccess)
	span.SetAttributes(
		attribute.Int("added", res.Added),
		attribute.Int("updated", res.Updated),
		attribute.Int("deleted", res.Deleted),
	)
	logger.Info(
		"reconciliation complete",
		"added", res.Added,
		"updated", res.Updated,
		"deleted", res.Deleted,
		"skipped", len(res.Failures),
		"duration", res.Duration,
	)
	return res, nil
}

// apply writes one kind's batch. Deletion markers go first so that a
// record reusing a removed network's ASN does not clash with it.
func (s *Synchronizer) apply(
	logger *slog.Logger,
	k *kind,
	records []peeringdb.Record,
	txn *database.Txn,
	res *Result,
) (Changes, error) {
	var changes Changes
	var unknown []string
	missingLogged := false
	for _, rec := range records {
		for _, field := range k.unknownFields(rec) {
			if !slices.Contains(unknown, field) {
				unknown = append(unknown, field)
			}
		}
	}
	if len(unknown) > 0 {
		slices.Sort(unknown)
		res.UnknownFields[k.name] = unknown
		logger.Warn(
			"registry records carry fields unknown to the cache",
			"kind", k.name,
			"fields", unknown,
		)
	}

	for _, rec := range records {
		if !rec.IsDeleted() {
			continue
		}
		id, err := rec.ID()
		if err != nil {
			res.Failures = append(res.Failures, RecordFailure{
				Kind:   k.name,
				Reason: err.Error(),
			})
			continue
		}
		removed, err := k.remove(s.config.DB, id, txn)
		if err != nil {
			return changes, err
		}
		if removed {
			changes.Deleted++
			logger.Debug(
				fmt.Sprintf("deleted %s #%d from cache", k.name, id),
			)
		}
	}

	for _, rec := range records {
		if rec.IsDeleted() {
			continue
		}
		id, err := rec.ID()
		if err != nil {
			res.Failures = append(res.Failures, RecordFailure{
				Kind:   k.name,
				Reason: err.Error(),
			})
			continue
		}
		if missing := k.missingFields(rec); len(missing) > 0 && !missingLogged {
			logger.Warn(
				"registry records lack mirrored fields",
				"kind", k.name,
				"id", id,
				"fields", missing,
			)
			missingLogged = true
		}
		act, err := k.merge(s.config.DB, rec, txn)
		if err != nil {
			if !models.IsValidationError(err) {
				return changes, err
			}
			logger.Error(
				fmt.Sprintf("skipping invalid %s #%d", k.name, id),
				"error", err,
			)
			res.Failures = append(res.Failures, RecordFailure{
				Kind:   k.name,
				ID:     id,
				Reason: err.Error(),
			})
			continue
		}
		switch act {
		case actionAdded:
			changes.Added++
		case actionUpdated:
			changes.Updated++
		}
		logger.Debug(
			fmt.Sprintf("%s %s #%d from registry", act, k.name, id),
		)
	}
	return changes, nil
}
