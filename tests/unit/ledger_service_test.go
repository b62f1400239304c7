package unit

import (
	"context"
	"encoding/base64"
	"errors"
	"sync"
	"testing"
	"time"

	ledgerservice "aqualedger/contexts/confidential-ledger/ledger-service"
	"aqualedger/contexts/confidential-ledger/ledger-service/adapters/memory"
	ledgererrors "aqualedger/contexts/confidential-ledger/ledger-service/domain/errors"
	ledgerhttp "aqualedger/contexts/confidential-ledger/ledger-service/transport/http"
	"aqualedger/internal/platform/oracle"
)

const (
	testChainID        uint64 = 31337
	testLedgerContract        = "0x00000000000000000000000000000000000000a1"
	testVerifier              = "0x00000000000000000000000000000000000000a2"
	testAdminAddress          = "0xfeedfeedfeedfeedfeedfeedfeedfeedfeedfeed"
)

// manualClock is shared across modules so day arithmetic lines up.
type manualClock struct {
	mu  sync.Mutex
	now time.Time
}

func newManualClock() *manualClock {
	return &manualClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) AdvanceDays(days int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Duration(days) * 24 * time.Hour)
}

func newLedgerModule(engine *oracle.Oracle, clock *manualClock) ledgerservice.Module {
	store := memory.NewStore()
	module := ledgerservice.NewModule(ledgerservice.Dependencies{
		Repository:      store,
		Engine:          engine,
		Clock:           clock,
		IDGenerator:     store,
		ContractAddress: testLedgerContract,
		Logger:          nil,
	})
	module.Store = store
	return module
}

func submitRequest(t *testing.T, engine *oracle.Oracle, address string, liters uint64, actionType uint8) ledgerhttp.SubmitActionRequest {
	t.Helper()
	input, err := engine.Encrypt(context.Background(), liters, testLedgerContract, address)
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	return ledgerhttp.SubmitActionRequest{
		Amount:     input.Handle.String(),
		Proof:      base64.StdEncoding.EncodeToString(input.Proof),
		ActionType: actionType,
		CityCode:   34,
	}
}

func TestLedgerSubmitAndStatsThroughHandlers(t *testing.T) {
	engine := oracle.New(testChainID, testVerifier, nil)
	clock := newManualClock()
	module := newLedgerModule(engine, clock)
	ctx := context.Background()
	address := "0xledger000000000000000000000000000000000001"

	resp, err := module.Handler.SubmitActionHandler(ctx, address, submitRequest(t, engine, address, 12, 1))
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if resp.Data.Streak != 1 || resp.Data.TotalDays != 1 {
		t.Fatalf("unexpected submit response: %+v", resp.Data)
	}

	stats, err := module.Handler.GetUserStatsHandler(ctx, address)
	if err != nil {
		t.Fatalf("stats failed: %v", err)
	}
	if stats.Data.TotalDays != 1 || stats.Data.Streak != 1 {
		t.Fatalf("unexpected stats: %+v", stats.Data)
	}
	if stats.Data.TotalLiters == "" {
		t.Fatal("total liters handle must not be empty")
	}
}

func TestLedgerSecondSubmissionSameDayRejected(t *testing.T) {
	engine := oracle.New(testChainID, testVerifier, nil)
	clock := newManualClock()
	module := newLedgerModule(engine, clock)
	ctx := context.Background()
	address := "0xledger000000000000000000000000000000000002"

	if _, err := module.Handler.SubmitActionHandler(ctx, address, submitRequest(t, engine, address, 12, 0)); err != nil {
		t.Fatalf("first submit failed: %v", err)
	}
	if _, err := module.Handler.SubmitActionHandler(ctx, address, submitRequest(t, engine, address, 3, 0)); !errors.Is(err, ledgererrors.ErrAlreadySubmittedToday) {
		t.Fatalf("expected ErrAlreadySubmittedToday, got %v", err)
	}
}

func TestLedgerStreakAcrossDaysWithGap(t *testing.T) {
	engine := oracle.New(testChainID, testVerifier, nil)
	clock := newManualClock()
	module := newLedgerModule(engine, clock)
	ctx := context.Background()
	address := "0xledger000000000000000000000000000000000003"

	for i, advance := range []int{0, 1, 1} {
		clock.AdvanceDays(advance)
		if _, err := module.Handler.SubmitActionHandler(ctx, address, submitRequest(t, engine, address, 10, 0)); err != nil {
			t.Fatalf("submit %d failed: %v", i, err)
		}
	}
	stats, err := module.Handler.GetUserStatsHandler(ctx, address)
	if err != nil {
		t.Fatalf("stats failed: %v", err)
	}
	if stats.Data.Streak != 3 || stats.Data.TotalDays != 3 {
		t.Fatalf("expected streak 3 after consecutive days, got %+v", stats.Data)
	}

	// Two-day gap resets the streak but keeps the day count.
	clock.AdvanceDays(2)
	if _, err := module.Handler.SubmitActionHandler(ctx, address, submitRequest(t, engine, address, 10, 0)); err != nil {
		t.Fatalf("submit after gap failed: %v", err)
	}
	stats, err = module.Handler.GetUserStatsHandler(ctx, address)
	if err != nil {
		t.Fatalf("stats failed: %v", err)
	}
	if stats.Data.Streak != 1 || stats.Data.TotalDays != 4 {
		t.Fatalf("expected streak reset to 1 with 4 total days, got %+v", stats.Data)
	}
}

func TestLedgerRejectsForeignProof(t *testing.T) {
	engine := oracle.New(testChainID, testVerifier, nil)
	clock := newManualClock()
	module := newLedgerModule(engine, clock)
	ctx := context.Background()

	// Ciphertext was encrypted for another address; the proof must not
	// verify for the submitting actor.
	req := submitRequest(t, engine, "0xledger000000000000000000000000000000000004", 10, 0)
	if _, err := module.Handler.SubmitActionHandler(ctx, "0xledger000000000000000000000000000000000005", req); !errors.Is(err, ledgererrors.ErrInvalidProof) {
		t.Fatalf("expected ErrInvalidProof, got %v", err)
	}
}

func TestLedgerSubmissionHistoryKeepsInsertionOrder(t *testing.T) {
	engine := oracle.New(testChainID, testVerifier, nil)
	clock := newManualClock()
	module := newLedgerModule(engine, clock)
	ctx := context.Background()
	address := "0xledger000000000000000000000000000000000006"

	for i := 0; i < 3; i++ {
		if i > 0 {
			clock.AdvanceDays(1)
		}
		if _, err := module.Handler.SubmitActionHandler(ctx, address, submitRequest(t, engine, address, uint64(10+i), uint8(i))); err != nil {
			t.Fatalf("submit %d failed: %v", i, err)
		}
	}

	list, err := module.Handler.ListSubmissionsHandler(ctx, address)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(list.Data) != 3 {
		t.Fatalf("expected 3 submissions, got %d", len(list.Data))
	}
	for i := 1; i < len(list.Data); i++ {
		if list.Data[i].Day != list.Data[i-1].Day+1 {
			t.Fatalf("submissions out of order: %+v", list.Data)
		}
	}
}
