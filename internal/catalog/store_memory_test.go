package catalog

import (
	"context"
	"sync"
	"testing"
)

func TestMemStore_SeedOrder(t *testing.T) {
	s := NewMemStore(DefaultSeed(), DeleteLast)

	got, err := s.List(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 || got[0].ID != 1 || got[1].ID != 2 {
		t.Fatalf("products=%+v", got)
	}
}

func TestMemStore_ListReturnsCopy(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore(DefaultSeed(), DeleteLast)

	got, _ := s.List(ctx)
	got[0].Name = "changed"

	p, _, _ := s.Get(ctx, 1)
	if p.Name != "Fortixion Hyunyan v0 Phone" {
		t.Fatalf("store mutated through List result: %q", p.Name)
	}
}

func TestMemStore_CreateAllowsDuplicateIDs(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore(DefaultSeed(), DeleteLast)

	if _, err := s.Create(ctx, Product{ID: 1, Name: "dup"}); err != nil {
		t.Fatalf("create: %v", err)
	}

	n, _ := s.Count(ctx)
	if n != 3 {
		t.Fatalf("count=%d want=3", n)
	}

	p, ok, _ := s.Get(ctx, 1)
	if !ok || p.Name != "Fortixion Hyunyan v0 Phone" {
		t.Fatalf("get returned %+v ok=%v, want first inserted", p, ok)
	}
}

func TestMemStore_UpdateOverwritesAllFields(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore(DefaultSeed(), DeleteLast)

	ok, err := s.Update(ctx, 1, Product{ID: 42, Name: "n", Description: "d", Price: 1.5, Quantity: 7})
	if err != nil || !ok {
		t.Fatalf("update ok=%v err=%v", ok, err)
	}

	p, _, _ := s.Get(ctx, 1)
	want := Product{ID: 1, Name: "n", Description: "d", Price: 1.5, Quantity: 7}
	if p != want {
		t.Fatalf("got %+v want %+v", p, want)
	}

	ok, _ = s.Update(ctx, 99, Product{})
	if ok {
		t.Fatalf("update of missing id reported found")
	}
}

// The list-backed deployments always dropped the last product, whatever id
// the client sent. DeleteLast keeps that behavior.
func TestMemStore_DeleteLastIgnoresID(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore(DefaultSeed(), DeleteLast)

	ok, err := s.Delete(ctx, 1)
	if err != nil || !ok {
		t.Fatalf("delete ok=%v err=%v", ok, err)
	}

	got, _ := s.List(ctx)
	if len(got) != 1 || got[0].ID != 1 {
		t.Fatalf("products=%+v, want only id 1 left", got)
	}

	if ok, _ := s.Delete(ctx, 12345); !ok {
		t.Fatalf("delete with unknown id should still drop the last product")
	}
	if ok, _ := s.Delete(ctx, 1); ok {
		t.Fatalf("delete on empty store reported found")
	}
}

func TestMemStore_DeleteMatch(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore(DefaultSeed(), DeleteMatch)

	if ok, _ := s.Delete(ctx, 99); ok {
		t.Fatalf("delete of missing id reported found")
	}

	ok, err := s.Delete(ctx, 1)
	if err != nil || !ok {
		t.Fatalf("delete ok=%v err=%v", ok, err)
	}

	got, _ := s.List(ctx)
	if len(got) != 1 || got[0].ID != 2 {
		t.Fatalf("products=%+v, want only id 2 left", got)
	}
}

func TestMemStore_SeedOnlyWhenEmpty(t *testing.T) {
	ctx := context.Background()

	s := NewMemStore(nil, DeleteLast)
	if n, err := s.Seed(ctx, DefaultSeed()); err != nil || n != 2 {
		t.Fatalf("seed n=%d err=%v", n, err)
	}
	if n, err := s.Seed(ctx, DefaultSeed()); err != nil || n != 0 {
		t.Fatalf("reseed n=%d err=%v", n, err)
	}
	if n, _ := s.Count(ctx); n != 2 {
		t.Fatalf("count=%d", n)
	}
}

func TestMemStore_ConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore(nil, DeleteMatch)

	const workers = 50

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			_, _ = s.Create(ctx, Product{ID: id, Name: "new"})
			if id%2 == 0 {
				if ok, _ := s.Delete(ctx, id); !ok {
					t.Errorf("delete %d not found", id)
				}
				return
			}
			if ok, _ := s.Update(ctx, id, Product{Name: "updated"}); !ok {
				t.Errorf("update %d not found", id)
			}
		}(i)

		wg.Add(1)
		go func() {
			defer wg.Done()
			got, _ := s.List(ctx)
			if len(got) > workers {
				t.Errorf("snapshot holds %d products", len(got))
			}
			_, _, _ = s.Get(ctx, 1)
		}()
	}
	wg.Wait()

	got, _ := s.List(ctx)
	if len(got) != workers/2 {
		t.Fatalf("products=%d want=%d", len(got), workers/2)
	}
	for _, p := range got {
		if p.ID%2 == 0 || p.Name != "updated" {
			t.Fatalf("unexpected product %+v", p)
		}
	}
}
