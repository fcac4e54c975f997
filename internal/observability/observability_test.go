package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestLogger_StampsRequestID(t *testing.T) {
	var buf bytes.Buffer
	log := newLogger(&buf, "dev")

	ctx := WithRequestID(context.Background(), "req-123")
	log.InfoContext(ctx, "hello")

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("log line is not json: %v (%s)", err, buf.String())
	}

	if rec["request_id"] != "req-123" {
		t.Fatalf("expected request_id in record, got %v", rec)
	}
	if _, ok := rec["trace_id"]; ok {
		t.Fatalf("no span is active, trace_id should be absent: %v", rec)
	}
}

func TestLogger_ProdSkipsDebug(t *testing.T) {
	var buf bytes.Buffer
	log := newLogger(&buf, "prod")

	log.Debug("noise")

	if buf.Len() != 0 {
		t.Fatalf("debug should be filtered in prod, got %s", buf.String())
	}
}

func TestObserveDB_CountsErrorsByClass(t *testing.T) {
	reg := prometheus.NewRegistry()
	p := NewProm(reg)

	_ = p.ObserveDB("posts.create", func() error {
		return &pgconn.PgError{Code: "23503"}
	})
	_ = p.ObserveDB("users.get_by_id", func() error {
		return pgx.ErrNoRows
	})
	_ = p.ObserveDB("posts.count", func() error { return nil })

	if got := testutil.ToFloat64(p.DbErrorsTotal.WithLabelValues("posts.create", "foreign_key_violation")); got != 1 {
		t.Fatalf("expected 1 fk violation, got %v", got)
	}
	if got := testutil.CollectAndCount(p.DbErrorsTotal); got != 1 {
		t.Fatalf("no-rows must not count as an error, got %d series", got)
	}
}

func TestClassifyDBErr_Fallbacks(t *testing.T) {
	cases := map[string]error{
		"timeout":    context.DeadlineExceeded,
		"connection": errors.New("failed to connect: connection refused"),
		"unknown":    errors.New("boom"),
		"pg_42P01":   &pgconn.PgError{Code: "42P01"},
	}

	for want, err := range cases {
		if got := classifyDBErr(err); got != want {
			t.Fatalf("classify(%v) = %q, want %q", err, got, want)
		}
	}
}

func TestCacheLookup(t *testing.T) {
	p := NewProm(prometheus.NewRegistry())

	p.CacheLookup(true)
	p.CacheLookup(false)
	p.CacheLookup(false)
	p.PostCreated()

	if got := testutil.ToFloat64(p.FeedCacheRequests.WithLabelValues("miss")); got != 2 {
		t.Fatalf("expected 2 misses, got %v", got)
	}
	if got := testutil.ToFloat64(p.PostsCreated); got != 1 {
		t.Fatalf("expected 1 post created, got %v", got)
	}
}

func TestSampler_ByPercent(t *testing.T) {
	tests := []struct {
		percent int
		want    string
	}{
		{100, "root:AlwaysOnSampler"},
		{250, "root:AlwaysOnSampler"},
		{0, "root:AlwaysOffSampler"},
		{-5, "root:AlwaysOffSampler"},
		{25, "root:TraceIDRatioBased{0.25}"},
	}

	for _, tt := range tests {
		got := sampler(tt.percent).Description()
		if !strings.HasPrefix(got, "ParentBased{") || !strings.Contains(got, tt.want) {
			t.Fatalf("sampler(%d) = %s, want parent-based with %s", tt.percent, got, tt.want)
		}
	}
}
