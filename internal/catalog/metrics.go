package catalog

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	outcomeOK       = "ok"
	outcomeNotFound = "not_found"
	outcomeError    = "error"
)

type StoreMetrics struct {
	Sessions *prometheus.CounterVec
}

func NewStoreMetrics(reg prometheus.Registerer) *StoreMetrics {
	m := &StoreMetrics{
		Sessions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "catalog_store_sessions_total",
				Help: "Store operations by backend, operation and outcome",
			},
			[]string{"backend", "op", "outcome"},
		),
	}
	reg.MustRegister(m.Sessions)
	return m
}

// Instrument wraps next so that every call is counted under backend.
func (m *StoreMetrics) Instrument(next Store, backend string) Store {
	return &instrumentedStore{next: next, backend: backend, m: m}
}

type instrumentedStore struct {
	next    Store
	backend string
	m       *StoreMetrics
}

func (s *instrumentedStore) observe(op string, found bool, err error) {
	outcome := outcomeOK
	switch {
	case err != nil:
		outcome = outcomeError
	case !found:
		outcome = outcomeNotFound
	}
	s.m.Sessions.WithLabelValues(s.backend, op, outcome).Inc()
}

func (s *instrumentedStore) List(ctx context.Context) ([]Product, error) {
	out, err := s.next.List(ctx)
	s.observe("list", true, err)
	return out, err
}

func (s *instrumentedStore) Get(ctx context.Context, id int) (Product, bool, error) {
	p, ok, err := s.next.Get(ctx, id)
	s.observe("get", ok, err)
	return p, ok, err
}

func (s *instrumentedStore) Create(ctx context.Context, p Product) (Product, error) {
	out, err := s.next.Create(ctx, p)
	s.observe("create", true, err)
	return out, err
}

func (s *instrumentedStore) Update(ctx context.Context, id int, p Product) (bool, error) {
	ok, err := s.next.Update(ctx, id, p)
	s.observe("update", ok, err)
	return ok, err
}

func (s *instrumentedStore) Delete(ctx context.Context, id int) (bool, error) {
	ok, err := s.next.Delete(ctx, id)
	s.observe("delete", ok, err)
	return ok, err
}

func (s *instrumentedStore) Count(ctx context.Context) (int, error) {
	n, err := s.next.Count(ctx)
	s.observe("count", true, err)
	return n, err
}

func (s *instrumentedStore) Seed(ctx context.Context, products []Product) (int, error) {
	n, err := s.next.Seed(ctx, products)
	s.observe("seed", true, err)
	return n, err
}

func (s *instrumentedStore) Ping(ctx context.Context) error {
	return s.next.Ping(ctx)
}
