//go:build integration
// +build integration

package integration

import (
	"context"
	"os/exec"
	"testing"
)

// restartContainer restarts the service named by E2E_SERVICE (default
// "linkcart") so the test can check the store survived.
func restartContainer(t *testing.T, ctx context.Context) {
	t.Helper()

	name := getenv("E2E_SERVICE", "linkcart")
	cmd := exec.CommandContext(ctx, "docker", "compose", "restart", name)
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("docker compose restart %s failed: %v\n%s", name, err, string(out))
	}
}
