package httpserver

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	badgeservice "aqualedger/contexts/confidential-ledger/badge-service"
	ledgerservice "aqualedger/contexts/confidential-ledger/ledger-service"
	"aqualedger/internal/platform/oracle"
)

const (
	testChainID        uint64 = 31337
	testLedgerContract        = "0x00000000000000000000000000000000000000a1"
	testVerifier              = "0x00000000000000000000000000000000000000a2"
	testAdminAddress          = "0xfeedfeedfeedfeedfeedfeedfeedfeedfeedfeed"
)

type testEnv struct {
	server *Server
	oracle *oracle.Oracle
	auth   *Authenticator
}

func newTestServer() testEnv {
	engine := oracle.New(testChainID, testVerifier, nil)
	ledger := ledgerservice.NewInMemoryModule(engine, testLedgerContract, nil)
	badges := badgeservice.NewInMemoryModule(ledger.Service, testAdminAddress, nil)
	auth := NewAuthenticator("test-secret")
	return testEnv{
		server: New(ledger, badges, auth, nil, ":0"),
		oracle: engine,
		auth:   auth,
	}
}

func (e testEnv) bearer(t *testing.T, address string) string {
	t.Helper()
	token, err := e.auth.IssueToken(address, time.Hour)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return "Bearer " + token
}

func (e testEnv) submitBody(t *testing.T, address string, liters uint64) []byte {
	t.Helper()
	input, err := e.oracle.Encrypt(context.Background(), liters, testLedgerContract, address)
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	body, err := json.Marshal(map[string]any{
		"amount":      input.Handle.String(),
		"proof":       base64.StdEncoding.EncodeToString(input.Proof),
		"action_type": 0,
		"city_code":   34,
	})
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	return body
}

func (e testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	e.server.mux.ServeHTTP(rr, req)
	return rr
}

func TestSubmitRequiresAuthorization(t *testing.T) {
	env := newTestServer()
	req := httptest.NewRequest(http.MethodPost, "/api/ledger/v1/submissions", bytes.NewReader([]byte(`{}`)))
	req.Header.Set("Content-Type", "application/json")

	rr := env.do(req)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestSubmitRecordsAction(t *testing.T) {
	env := newTestServer()
	address := "0xaaaa000000000000000000000000000000000001"

	req := httptest.NewRequest(http.MethodPost, "/api/ledger/v1/submissions", bytes.NewReader(env.submitBody(t, address, 10)))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", env.bearer(t, address))
	rr := env.do(req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}

	statsReq := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/ledger/v1/users/%s/stats", address), nil)
	statsRR := env.do(statsReq)
	if statsRR.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", statsRR.Code, statsRR.Body.String())
	}

	var stats struct {
		Data struct {
			TotalDays uint32 `json:"total_days"`
			Streak    uint32 `json:"streak"`
		} `json:"data"`
	}
	if err := json.Unmarshal(statsRR.Body.Bytes(), &stats); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if stats.Data.TotalDays != 1 || stats.Data.Streak != 1 {
		t.Fatalf("unexpected stats: %+v", stats.Data)
	}
}

func TestSubmitRejectsMalformedHandle(t *testing.T) {
	env := newTestServer()
	address := "0xaaaa000000000000000000000000000000000002"

	body := []byte(`{"amount":"not-a-handle","proof":"cHJvb2Y=","action_type":0,"city_code":1}`)
	req := httptest.NewRequest(http.MethodPost, "/api/ledger/v1/submissions", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", env.bearer(t, address))

	rr := env.do(req)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestSecondSubmissionSameDayConflicts(t *testing.T) {
	env := newTestServer()
	address := "0xaaaa000000000000000000000000000000000003"

	first := httptest.NewRequest(http.MethodPost, "/api/ledger/v1/submissions", bytes.NewReader(env.submitBody(t, address, 10)))
	first.Header.Set("Content-Type", "application/json")
	first.Header.Set("Authorization", env.bearer(t, address))
	if rr := env.do(first); rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}

	second := httptest.NewRequest(http.MethodPost, "/api/ledger/v1/submissions", bytes.NewReader(env.submitBody(t, address, 5)))
	second.Header.Set("Content-Type", "application/json")
	second.Header.Set("Authorization", env.bearer(t, address))
	if rr := env.do(second); rr.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestClaimBadgeAfterFirstSubmission(t *testing.T) {
	env := newTestServer()
	address := "0xaaaa000000000000000000000000000000000004"

	submit := httptest.NewRequest(http.MethodPost, "/api/ledger/v1/submissions", bytes.NewReader(env.submitBody(t, address, 10)))
	submit.Header.Set("Content-Type", "application/json")
	submit.Header.Set("Authorization", env.bearer(t, address))
	if rr := env.do(submit); rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}

	claim := httptest.NewRequest(http.MethodPost, "/api/badges/v1/claims", bytes.NewReader([]byte(`{"level":1}`)))
	claim.Header.Set("Content-Type", "application/json")
	claim.Header.Set("Authorization", env.bearer(t, address))
	if rr := env.do(claim); rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}

	tooHigh := httptest.NewRequest(http.MethodPost, "/api/badges/v1/claims", bytes.NewReader([]byte(`{"level":2}`)))
	tooHigh.Header.Set("Content-Type", "application/json")
	tooHigh.Header.Set("Authorization", env.bearer(t, address))
	if rr := env.do(tooHigh); rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d body=%s", rr.Code, rr.Body.String())
	}

	again := httptest.NewRequest(http.MethodPost, "/api/badges/v1/claims", bytes.NewReader([]byte(`{"level":1}`)))
	again.Header.Set("Content-Type", "application/json")
	again.Header.Set("Authorization", env.bearer(t, address))
	if rr := env.do(again); rr.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestRevokeBadgeRequiresAdmin(t *testing.T) {
	env := newTestServer()
	address := "0xaaaa000000000000000000000000000000000005"

	body := []byte(fmt.Sprintf(`{"user_address":%q,"level":1}`, address))
	req := httptest.NewRequest(http.MethodPost, "/api/badges/v1/revocations", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", env.bearer(t, address))

	rr := env.do(req)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestBadgeLevelName(t *testing.T) {
	env := newTestServer()

	rr := env.do(httptest.NewRequest(http.MethodGet, "/api/badges/v1/levels/2", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	var resp struct {
		Data struct {
			Name string `json:"name"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Data.Name != "WaterHero" {
		t.Fatalf("expected WaterHero, got %q", resp.Data.Name)
	}

	if rr := env.do(httptest.NewRequest(http.MethodGet, "/api/badges/v1/levels/7", nil)); rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestSwaggerDocIsServed(t *testing.T) {
	env := newTestServer()
	rr := env.do(httptest.NewRequest(http.MethodGet, "/swagger/doc.json", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var doc map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &doc); err != nil {
		t.Fatalf("doc.json is not valid JSON: %v", err)
	}
}
