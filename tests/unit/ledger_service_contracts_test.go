package unit

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestLedgerServiceOpenAPIContractIncludesImplementedRoutes(t *testing.T) {
	root, err := findRepoRoot()
	if err != nil {
		t.Fatalf("resolve repo root: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(root, "contracts", "api", "v1", "ledger-service.openapi.json"))
	if err != nil {
		t.Fatalf("read ledger-service openapi: %v", err)
	}

	var doc struct {
		Paths map[string]map[string]any `json:"paths"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("decode ledger-service openapi: %v", err)
	}

	expected := map[string][]string{
		"/api/ledger/v1/submissions":                      {"post"},
		"/api/ledger/v1/users/{user_address}/stats":       {"get"},
		"/api/ledger/v1/users/{user_address}/submissions": {"get"},
	}
	for path, methods := range expected {
		ops, ok := doc.Paths[path]
		if !ok {
			t.Fatalf("missing path in openapi contract: %s", path)
		}
		for _, method := range methods {
			if _, ok := ops[method]; !ok {
				t.Fatalf("missing %s %s in openapi contract", method, path)
			}
		}
	}
}
