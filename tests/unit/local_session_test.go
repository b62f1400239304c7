package unit

import (
	"context"
	"testing"

	badgeports "aqualedger/contexts/confidential-ledger/badge-service/ports"
	"aqualedger/internal/app/bootstrap"
	"aqualedger/internal/platform/config"
)

func localConfig() config.Config {
	return config.Config{
		ChainID:            testChainID,
		LedgerContract:     testLedgerContract,
		DecryptionVerifier: testVerifier,
		BadgeAdmin:         testAdminAddress,
	}
}

func TestLocalSessionWiringEndToEnd(t *testing.T) {
	ctx := context.Background()
	app := bootstrap.BuildLocalSession(localConfig(), []byte("local-session-test"), nil)

	outcome, err := app.Session.SubmitAction(ctx, 10, 0, 34)
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if outcome.Stats.TotalDays != 1 {
		t.Fatalf("unexpected stats after submit: %+v", outcome.Stats)
	}

	total, err := app.Session.RevealOne(ctx, outcome.Stats.TotalLiters)
	if err != nil {
		t.Fatalf("reveal failed: %v", err)
	}
	if total != 10 {
		t.Fatalf("expected 10, got %d", total)
	}

	if _, err := app.Badges.Service.ClaimBadge(ctx, app.Signer.Address(), badgeports.LevelWaterDrop); err != nil {
		t.Fatalf("claim badge failed: %v", err)
	}
	level, err := app.Badges.Service.GetUserBadge(ctx, app.Signer.Address())
	if err != nil {
		t.Fatalf("get badge failed: %v", err)
	}
	if level != badgeports.LevelWaterDrop {
		t.Fatalf("expected WaterDrop, got %v", level)
	}
}
