//go:build integration
// +build integration

package integration

import (
	"context"
	"os"
	"os/exec"
	"testing"
)

// restartCatalogContainer restarts the catalog service of the compose project
// at the repository root (compose.yaml). E2E_COMPOSE_FILE and
// E2E_CATALOG_SERVICE point it at another project.
func restartCatalogContainer(t *testing.T, ctx context.Context) {
	t.Helper()

	file, service := "../compose.yaml", "catalog"
	if v := os.Getenv("E2E_COMPOSE_FILE"); v != "" {
		file = v
	}
	if v := os.Getenv("E2E_CATALOG_SERVICE"); v != "" {
		service = v
	}

	cmd := exec.CommandContext(ctx, "docker", "compose", "-f", file, "restart", service)
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("docker compose restart %s failed: %v\n%s", service, err, string(out))
	}
}
