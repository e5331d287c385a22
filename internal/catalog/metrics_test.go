package catalog

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestInstrumentedStore_CountsOutcomes(t *testing.T) {
	ctx := context.Background()
	m := NewStoreMetrics(prometheus.NewRegistry())
	s := m.Instrument(NewMemStore(DefaultSeed(), DeleteMatch), "memory")

	_, _, _ = s.Get(ctx, 1)
	_, _, _ = s.Get(ctx, 1)
	_, _, _ = s.Get(ctx, 404)
	_, _ = s.Delete(ctx, 404)
	_, _ = s.Create(ctx, Product{ID: 3})

	cases := []struct {
		op, outcome string
		want        float64
	}{
		{"get", outcomeOK, 2},
		{"get", outcomeNotFound, 1},
		{"delete", outcomeNotFound, 1},
		{"create", outcomeOK, 1},
		{"update", outcomeOK, 0},
	}
	for _, c := range cases {
		got := testutil.ToFloat64(m.Sessions.WithLabelValues("memory", c.op, c.outcome))
		if got != c.want {
			t.Fatalf("%s/%s=%v want=%v", c.op, c.outcome, got, c.want)
		}
	}
}
