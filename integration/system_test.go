//go:build integration
// +build integration

package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"testing"
	"time"
)

var baseURL = getenv("E2E_BASE_URL", "http://localhost:8000")

type product struct {
	ID          int     `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Quantity    int     `json:"quantity"`
}

// Runs against a catalog started with a persistent store, e.g.
//
//	docker compose up -d --build
//	E2E_RESTART_CATALOG=1 go test -tags integration ./integration
//
// E2E_BASE_URL overrides the address. With E2E_RESTART_CATALOG=1 the catalog
// container is restarted mid-test to check that data outlives the process.
func TestSystem_E2E_WithDB(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	waitReady(t, ctx, baseURL+"/readyz")

	var greeting string
	doJSON(t, http.MethodGet, baseURL+"/", nil, &greeting, 200)
	if greeting != "Welcome to Telusko Trac" {
		t.Fatalf("greeting=%q", greeting)
	}

	var before []product
	doJSON(t, http.MethodGet, baseURL+"/products", nil, &before, 200)
	if len(before) < 2 || before[0].ID != 1 || before[1].ID != 2 {
		t.Fatalf("seed products missing: %+v", before)
	}

	id := 100_000 + rand.Intn(900_000)
	in := product{
		ID:          id,
		Name:        fmt.Sprintf("e2e-%d", time.Now().UnixNano()),
		Description: "integration",
		Price:       12.5,
		Quantity:    3,
	}

	var created product
	doJSON(t, http.MethodPost, baseURL+"/products", in, &created, 200)
	if created != in {
		t.Fatalf("created=%+v want=%+v", created, in)
	}

	var got product
	doJSON(t, http.MethodGet, fmt.Sprintf("%s/products/%d", baseURL, id), nil, &got, 200)
	if got != in {
		t.Fatalf("got=%+v want=%+v", got, in)
	}

	in.Quantity = 9
	var msg string
	doJSON(t, http.MethodPut, fmt.Sprintf("%s/products/%d", baseURL, id), in, &msg, 200)
	if msg != "Product Updated" {
		t.Fatalf("update msg=%q", msg)
	}

	if os.Getenv("E2E_RESTART_CATALOG") == "1" {
		restartCatalogContainer(t, ctx)
		waitReady(t, ctx, baseURL+"/readyz")

		doJSON(t, http.MethodGet, fmt.Sprintf("%s/products/%d", baseURL, id), nil, &got, 200)
		if got.Quantity != 9 {
			t.Fatalf("update lost across restart: %+v", got)
		}

		var after []product
		doJSON(t, http.MethodGet, baseURL+"/products", nil, &after, 200)
		if len(after) != len(before)+1 {
			t.Fatalf("products after restart=%d want=%d (seed must not rerun)", len(after), len(before)+1)
		}
	}

	doJSON(t, http.MethodDelete, fmt.Sprintf("%s/products?id=%d", baseURL, id), nil, &msg, 200)
	if msg != "Product Deleted Successfully!" {
		t.Fatalf("delete msg=%q", msg)
	}

	doJSON(t, http.MethodGet, fmt.Sprintf("%s/products/%d", baseURL, id), nil, &msg, 200)
	if msg != "Product Not Found!!" {
		t.Fatalf("get after delete msg=%q", msg)
	}
}

func waitReady(t *testing.T, ctx context.Context, url string) {
	t.Helper()
	client := &http.Client{Timeout: 2 * time.Second}

	deadline := time.Now().Add(60 * time.Second)
	for time.Now().Before(deadline) {
		req, _ := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		resp, err := client.Do(req)
		if err == nil && resp != nil && resp.StatusCode == 200 {
			_ = resp.Body.Close()
			return
		}
		if resp != nil {
			_ = resp.Body.Close()
		}
		time.Sleep(500 * time.Millisecond)
	}
	t.Fatalf("service not ready: %s", url)
}

func doJSON(t *testing.T, method, url string, body any, out any, want int) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}

	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != want {
		t.Fatalf("%s %s: status=%d want=%d", method, url, resp.StatusCode, want)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode response: %v", err)
		}
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
