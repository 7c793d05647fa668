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
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/XioNoX/peering-manager/database"
	"github.com/XioNoX/peering-manager/database/models"
	"github.com/XioNoX/peering-manager/peeringdb"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// fakeRecord is served by fakeRegistry when the requested since is not
// after changed
type fakeRecord struct {
	changed int64
	body    map[string]any
}

type fakeRegistry struct {
	mu      sync.Mutex
	records map[string][]fakeRecord
	status  map[string]int
	queries map[string][]url.Values
	// block, when set, is waited on before answering the "net" namespace
	block chan struct{}
}

func newFakeRegistry(t *testing.T) (*fakeRegistry, *peeringdb.Client) {
	t.Helper()
	f := &fakeRegistry{
		records: make(map[string][]fakeRecord),
		status:  make(map[string]int),
		queries: make(map[string][]url.Values),
	}
	server := httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(server.Close)
	return f, peeringdb.NewClient(server.URL)
}

func (f *fakeRegistry) add(ns string, changed int64, body map[string]any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records[ns] = append(f.records[ns], fakeRecord{changed: changed, body: body})
}

func (f *fakeRegistry) fail(ns string, status int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status[ns] = status
}

func (f *fakeRegistry) sinceQueried(ns string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var ret []string
	for _, q := range f.queries[ns] {
		ret = append(ret, q.Get("since"))
	}
	return ret
}

func (f *fakeRegistry) serve(w http.ResponseWriter, r *http.Request) {
	ns := strings.TrimPrefix(r.URL.Path, "/")
	f.mu.Lock()
	f.queries[ns] = append(f.queries[ns], r.URL.Query())
	status := f.status[ns]
	block := f.block
	f.mu.Unlock()
	if ns == "net" && block != nil {
		<-block
	}
	if status != 0 {
		w.WriteHeader(status)
		return
	}
	since, _ := strconv.ParseInt(r.URL.Query().Get("since"), 10, 64)
	data := []map[string]any{}
	f.mu.Lock()
	for _, rec := range f.records[ns] {
		if rec.changed >= since {
			data = append(data, rec.body)
		}
	}
	f.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"data": data})
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

func newTestSynchronizer(
	t *testing.T,
	client Registry,
) (*Synchronizer, *database.Database, *testClock) {
	t.Helper()
	db, err := database.New(&database.Config{DataDir: database.InMemory})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Close()
	})
	clock := &testClock{now: time.Unix(2000, 0).UTC()}
	s, err := New(Config{
		DB:           db,
		Client:       client,
		PromRegistry: prometheus.NewRegistry(),
		Now:          clock.Now,
	})
	require.NoError(t, err)
	return s, db, clock
}

func network(id int64, asn int64, name string) map[string]any {
	return map[string]any{
		"id":             id,
		"asn":            asn,
		"name":           name,
		"irr_as_set":     "",
		"info_prefixes4": 10,
		"info_prefixes6": 5,
		"status":         "ok",
	}
}

func deleted(id int64) map[string]any {
	return map[string]any{"id": id, "status": "deleted"}
}

func TestNewRequiresDependencies(t *testing.T) {
	_, err := New(Config{})
	require.Error(t, err)
	db, err := database.New(&database.Config{DataDir: database.InMemory})
	require.NoError(t, err)
	defer db.Close()
	_, err = New(Config{DB: db})
	require.Error(t, err)
}

func TestRunCreatesAndDeletes(t *testing.T) {
	registry, client := newFakeRegistry(t)
	s, db, clock := newTestSynchronizer(t, client)
	require.NoError(t, db.SetNetwork(&models.Network{
		ID: 2, Asn: 200, Name: "Two",
	}, nil))
	registry.add("net", 1000, network(1, 100, "One"))
	registry.add("net", 1000, map[string]any{
		"id": 2, "asn": 200, "status": "deleted",
	})

	res, err := s.Run(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Added)
	assert.Equal(t, 0, res.Updated)
	assert.Equal(t, 1, res.Deleted)
	assert.Equal(t, Changes{Added: 1, Deleted: 1}, res.Changes[KindNetwork])
	assert.Equal(t, []string{"0"}, registry.sinceQueried("net"))
	assert.NotEmpty(t, res.PassID)

	n, err := db.GetNetwork(1, nil)
	require.NoError(t, err)
	require.NotNil(t, n)
	assert.Equal(t, int64(100), n.Asn)
	n, err = db.GetNetwork(2, nil)
	require.NoError(t, err)
	assert.Nil(t, n)

	require.NotNil(t, res.Checkpoint)
	checkpoint, err := db.GetLatestSyncCheckpoint(nil)
	require.NoError(t, err)
	require.NotNil(t, checkpoint)
	assert.Equal(t, clock.Now().Unix(), checkpoint.Time.Unix())
	assert.Equal(t, int64(1), checkpoint.Added)
	assert.Equal(t, int64(0), checkpoint.Updated)
	assert.Equal(t, int64(1), checkpoint.Deleted)
}

func TestRunRequestsDepthZero(t *testing.T) {
	registry, client := newFakeRegistry(t)
	s, _, _ := newTestSynchronizer(t, client)

	_, err := s.Run(t.Context())
	require.NoError(t, err)
	for _, ns := range []string{"net", "netixlan", "ixpfx"} {
		registry.mu.Lock()
		queries := registry.queries[ns]
		registry.mu.Unlock()
		require.Len(t, queries, 1, ns)
		assert.Equal(t, "0", queries[0].Get("depth"), ns)
	}
}

func TestRunIsIdempotent(t *testing.T) {
	registry, client := newFakeRegistry(t)
	s, db, clock := newTestSynchronizer(t, client)
	registry.add("net", 1000, network(1, 100, "One"))
	registry.add("netixlan", 1000, map[string]any{
		"id": 10, "asn": 100, "ix_id": 3, "ixlan_id": 5,
		"ipaddr4": "192.0.2.1", "ipaddr6": nil, "status": "ok",
	})
	registry.add("ixpfx", 1000, map[string]any{
		"id": 20, "ixlan_id": 5, "protocol": "IPv4",
		"prefix": "192.0.2.0/24", "status": "ok",
	})

	first, err := s.Run(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 3, first.Added)
	firstStart := clock.Now()

	clock.Set(firstStart.Add(time.Hour))
	second, err := s.Run(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 0, second.Total())
	assert.Nil(t, second.Checkpoint)
	assert.Equal(t, firstStart.Unix(), second.Since)
	assert.Equal(
		t,
		[]string{"0", strconv.FormatInt(firstStart.Unix(), 10)},
		registry.sinceQueried("netixlan"),
	)

	history, err := s.History(0)
	require.NoError(t, err)
	assert.Len(t, history, 1)
	latest, err := db.GetLastSyncTime(nil)
	require.NoError(t, err)
	assert.Equal(t, firstStart.Unix(), latest)
}

func TestRunSinceCountsCachedRecordsAsUpdated(t *testing.T) {
	registry, client := newFakeRegistry(t)
	s, _, _ := newTestSynchronizer(t, client)
	registry.add("net", 1000, network(1, 100, "One"))
	registry.add("netixlan", 1000, map[string]any{
		"id": 10, "asn": 100, "ix_id": 3, "ixlan_id": 5,
		"ipaddr4": nil, "ipaddr6": "2001:db8::1", "status": "ok",
	})

	res, err := s.RunSince(t.Context(), 0)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Added)

	res, err = s.RunSince(t.Context(), 0)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Added)
	assert.Equal(t, 2, res.Updated)
	require.NotNil(t, res.Checkpoint)
	assert.Equal(t, int64(2), res.Checkpoint.Updated)
}

func TestRunAdvancesWatermarkOnUnmirroredChanges(t *testing.T) {
	registry, client := newFakeRegistry(t)
	s, db, clock := newTestSynchronizer(t, client)
	registry.add("net", 1000, network(1, 100, "One"))

	_, err := s.Run(t.Context())
	require.NoError(t, err)

	// Only a field the cache does not keep changes
	rec := network(1, 100, "One")
	rec["website"] = "https://example.net"
	registry.add("net", 5000, rec)
	clock.Set(time.Unix(6000, 0).UTC())
	res, err := s.Run(t.Context())
	require.NoError(t, err)
	assert.Equal(t, Changes{Updated: 1}, res.Changes[KindNetwork])
	require.NotNil(t, res.Checkpoint)

	clock.Set(time.Unix(7000, 0).UTC())
	res, err = s.Run(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 0, res.Total())
	assert.Equal(
		t,
		[]string{"0", "2000", "6000"},
		registry.sinceQueried("net"),
	)
	since, err := db.GetLastSyncTime(nil)
	require.NoError(t, err)
	assert.Equal(t, int64(6000), since)

	n, err := db.GetNetwork(1, nil)
	require.NoError(t, err)
	require.NotNil(t, n)
	assert.Equal(t, "One", n.Name)
}

func TestRunUpdatesCachedRecords(t *testing.T) {
	registry, client := newFakeRegistry(t)
	s, db, _ := newTestSynchronizer(t, client)
	require.NoError(t, db.SetNetwork(&models.Network{
		ID: 1, Asn: 100, Name: "Old name",
	}, nil))
	registry.add("net", 1000, network(1, 100, "New name"))

	res, err := s.Run(t.Context())
	require.NoError(t, err)
	assert.Equal(t, Changes{Updated: 1}, res.Changes[KindNetwork])

	n, err := db.GetNetwork(1, nil)
	require.NoError(t, err)
	require.NotNil(t, n)
	assert.Equal(t, "New name", n.Name)
	assert.Equal(t, int64(10), n.InfoPrefixes4)
}

func TestRunAbortsWhenRegistryUnavailable(t *testing.T) {
	registry, client := newFakeRegistry(t)
	s, db, _ := newTestSynchronizer(t, client)
	registry.add("net", 1000, network(1, 100, "One"))
	registry.add("netixlan", 1000, map[string]any{
		"id": 10, "asn": 100, "ix_id": 3, "ixlan_id": 5, "status": "ok",
	})
	registry.fail("ixpfx", http.StatusServiceUnavailable)

	res, err := s.Run(t.Context())
	require.ErrorIs(t, err, peeringdb.ErrUnavailable)
	assert.Nil(t, res)

	n, err := db.GetNetwork(1, nil)
	require.NoError(t, err)
	assert.Nil(t, n)
	netixlan, err := db.GetNetworkIXLAN(10, nil)
	require.NoError(t, err)
	assert.Nil(t, netixlan)
	checkpoint, err := db.GetLatestSyncCheckpoint(nil)
	require.NoError(t, err)
	assert.Nil(t, checkpoint)
	assert.InDelta(
		t,
		1,
		testutil.ToFloat64(s.metrics.passes.WithLabelValues(outcomeUnavailable)),
		0,
	)
}

func TestRunSkipsInvalidRecords(t *testing.T) {
	registry, client := newFakeRegistry(t)
	s, db, _ := newTestSynchronizer(t, client)
	registry.add("net", 1000, network(1, 100, "One"))
	registry.add("net", 1000, network(2, 0, "Bad ASN"))
	registry.add("net", 1000, map[string]any{
		"id": 3, "asn": "not a number", "name": "Bad type",
	})
	registry.add("netixlan", 1000, map[string]any{
		"id": 10, "asn": 100, "ix_id": 3, "ixlan_id": 5,
		"ipaddr4": "2001:db8::1", "status": "ok",
	})
	registry.add("ixpfx", 1000, map[string]any{
		"id": 20, "ixlan_id": 5, "protocol": "IPv6",
		"prefix": "192.0.2.0/24", "status": "ok",
	})
	registry.add("ixpfx", 1000, map[string]any{
		"id": 21, "ixlan_id": 5, "protocol": 6,
		"prefix": "2001:db8::/32", "status": "ok",
	})

	res, err := s.Run(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 2, res.Added)
	require.Len(t, res.Failures, 4)
	ids := make([]int64, 0, len(res.Failures))
	for _, f := range res.Failures {
		ids = append(ids, f.ID)
	}
	assert.ElementsMatch(t, []int64{2, 3, 10, 20}, ids)
	require.NotNil(t, res.Checkpoint)
	assert.Equal(t, int64(2), res.Checkpoint.Added)

	p, err := db.GetPrefix(21, nil)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "IPv6", p.Protocol)
	assert.InDelta(
		t,
		1,
		testutil.ToFloat64(
			s.metrics.validationFailures.WithLabelValues(KindPrefix),
		),
		0,
	)
}

func TestRunRejectsDuplicateAsn(t *testing.T) {
	registry, client := newFakeRegistry(t)
	s, db, _ := newTestSynchronizer(t, client)
	require.NoError(t, db.SetNetwork(&models.Network{
		ID: 1, Asn: 100, Name: "One",
	}, nil))
	registry.add("net", 1000, network(3, 100, "Three"))

	res, err := s.Run(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 0, res.Total())
	require.Len(t, res.Failures, 1)
	assert.Equal(t, int64(3), res.Failures[0].ID)
}

func TestRunAppliesDeletionsFirst(t *testing.T) {
	registry, client := newFakeRegistry(t)
	s, db, _ := newTestSynchronizer(t, client)
	require.NoError(t, db.SetNetwork(&models.Network{
		ID: 1, Asn: 100, Name: "One",
	}, nil))
	registry.add("net", 1000, network(3, 100, "Three"))
	registry.add("net", 1000, deleted(1))

	res, err := s.Run(t.Context())
	require.NoError(t, err)
	assert.Equal(t, Changes{Added: 1, Deleted: 1}, res.Changes[KindNetwork])
	assert.Empty(t, res.Failures)

	n, err := db.GetNetworkByAsn(100, nil)
	require.NoError(t, err)
	require.NotNil(t, n)
	assert.Equal(t, int64(3), n.ID)
}

func TestRunDeletionOfUncachedRecordIsNotCounted(t *testing.T) {
	registry, client := newFakeRegistry(t)
	s, db, _ := newTestSynchronizer(t, client)
	registry.add("netixlan", 1000, deleted(99))
	registry.add("ixpfx", 1000, deleted(98))

	res, err := s.Run(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 0, res.Total())
	assert.Nil(t, res.Checkpoint)
	checkpoint, err := db.GetLatestSyncCheckpoint(nil)
	require.NoError(t, err)
	assert.Nil(t, checkpoint)
}

func TestRunReportsUnknownFields(t *testing.T) {
	registry, client := newFakeRegistry(t)
	s, db, _ := newTestSynchronizer(t, client)
	rec := network(1, 100, "One")
	rec["website"] = "https://example.net"
	rec["carbon_footprint"] = 42
	rec["aa_new_field"] = true
	registry.add("net", 1000, rec)
	registry.add("net", 1000, network(2, 200, "Two"))

	res, err := s.Run(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 2, res.Added)
	assert.Equal(
		t,
		map[string][]string{
			KindNetwork: {"aa_new_field", "carbon_footprint"},
		},
		res.UnknownFields,
	)
	n, err := db.GetNetwork(1, nil)
	require.NoError(t, err)
	assert.NotNil(t, n)
}

func TestRunningDuringPass(t *testing.T) {
	registry, client := newFakeRegistry(t)
	s, _, _ := newTestSynchronizer(t, client)
	block := make(chan struct{})
	registry.mu.Lock()
	registry.block = block
	registry.mu.Unlock()
	assert.False(t, s.Running())

	done := make(chan error, 1)
	go func() {
		_, err := s.Run(context.Background())
		done <- err
	}()
	require.Eventually(t, s.Running, time.Second, 5*time.Millisecond)
	close(block)
	require.NoError(t, <-done)
	assert.False(t, s.Running())
}

func TestConcurrentRunsShareOnePass(t *testing.T) {
	registry, client := newFakeRegistry(t)
	s, _, _ := newTestSynchronizer(t, client)
	registry.add("net", 1000, network(1, 100, "One"))
	block := make(chan struct{})
	registry.mu.Lock()
	registry.block = block
	registry.mu.Unlock()

	type outcome struct {
		res *Result
		err error
	}
	results := make(chan outcome, 2)
	run := func() {
		res, err := s.Run(context.Background())
		results <- outcome{res: res, err: err}
	}
	go run()
	require.Eventually(t, s.Running, time.Second, 5*time.Millisecond)
	go run()
	// Let the second caller join the pass in flight
	time.Sleep(50 * time.Millisecond)
	close(block)

	first := <-results
	second := <-results
	require.NoError(t, first.err)
	require.NoError(t, second.err)
	assert.Same(t, first.res, second.res)
	assert.Equal(t, 1, first.res.Added)
	assert.Len(t, registry.sinceQueried("net"), 1)
	assert.InDelta(
		t,
		1,
		testutil.ToFloat64(s.metrics.passes.WithLabelValues(outcomeSuccess)),
		0,
	)
}

func TestRunRollsBackOnStoreError(t *testing.T) {
	registry, client := newFakeRegistry(t)
	s, db, _ := newTestSynchronizer(t, client)
	registry.add("net", 1000, network(1, 100, "One"))
	registry.add("netixlan", 1000, map[string]any{
		"id": 10, "asn": 100, "ix_id": 3, "ixlan_id": 5,
		"ipaddr4": "192.0.2.1", "status": "ok",
	})
	registry.add("ixpfx", 1000, map[string]any{
		"id": 20, "ixlan_id": 5, "protocol": "IPv4",
		"prefix": "192.0.2.0/24", "status": "ok",
	})

	// Prefixes are applied last, after networks and netixlans were written
	errStore := errors.New("disk I/O error")
	prefixes := &kinds[len(kinds)-1]
	require.Equal(t, KindPrefix, prefixes.name)
	merge := prefixes.merge
	prefixes.merge = func(
		*database.Database,
		peeringdb.Record,
		*database.Txn,
	) (action, error) {
		return 0, errStore
	}
	t.Cleanup(func() { prefixes.merge = merge })

	res, err := s.Run(t.Context())
	require.ErrorIs(t, err, errStore)
	assert.Nil(t, res)

	n, err := db.GetNetwork(1, nil)
	require.NoError(t, err)
	assert.Nil(t, n)
	netixlan, err := db.GetNetworkIXLAN(10, nil)
	require.NoError(t, err)
	assert.Nil(t, netixlan)
	checkpoint, err := db.GetLatestSyncCheckpoint(nil)
	require.NoError(t, err)
	assert.Nil(t, checkpoint)
	assert.InDelta(
		t,
		1,
		testutil.ToFloat64(s.metrics.passes.WithLabelValues(outcomeError)),
		0,
	)
}

func TestRunPeriodicRunsUntilCancelled(t *testing.T) {
	registry, client := newFakeRegistry(t)
	s, db, _ := newTestSynchronizer(t, client)
	registry.add("net", 1000, network(1, 100, "One"))

	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan struct{})
	go func() {
		defer close(done)
		s.RunPeriodic(ctx, time.Hour)
	}()
	require.Eventually(t, func() bool {
		checkpoint, err := db.GetLatestSyncCheckpoint(nil)
		return err == nil && checkpoint != nil
	}, 2*time.Second, 10*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("RunPeriodic did not return after cancel")
	}
}

func TestRunPeriodicDisabled(t *testing.T) {
	_, client := newFakeRegistry(t)
	s, _, _ := newTestSynchronizer(t, client)
	// Returns immediately
	s.RunPeriodic(t.Context(), 0)
}

func TestSuccessMetrics(t *testing.T) {
	registry, client := newFakeRegistry(t)
	s, _, clock := newTestSynchronizer(t, client)
	registry.add("net", 1000, network(1, 100, "One"))

	_, err := s.Run(t.Context())
	require.NoError(t, err)
	assert.InDelta(
		t,
		1,
		testutil.ToFloat64(
			s.metrics.records.WithLabelValues(KindNetwork, "added"),
		),
		0,
	)
	assert.InDelta(
		t,
		float64(clock.Now().Unix()),
		testutil.ToFloat64(s.metrics.lastSuccess),
		0,
	)
}

func TestRunTracesStoreQueriesUnderPass(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(
		sdktrace.WithSpanProcessor(recorder),
	)
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(provider)
	t.Cleanup(func() {
		otel.SetTracerProvider(prev)
		_ = provider.Shutdown(context.Background())
	})

	registry, client := newFakeRegistry(t)
	s, _, _ := newTestSynchronizer(t, client)
	registry.add("net", 1000, network(1, 100, "One"))

	_, err := s.Run(t.Context())
	require.NoError(t, err)

	var pass sdktrace.ReadOnlySpan
	for _, span := range recorder.Ended() {
		if span.Name() == "reconcile.pass" {
			pass = span
		}
	}
	require.NotNil(t, pass)
	children := 0
	for _, span := range recorder.Ended() {
		if span.Parent().SpanID() == pass.SpanContext().SpanID() {
			children++
		}
	}
	assert.Positive(t, children, "store queries should nest under the pass")
}
