package application

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	domainerrors "aqualedger/contexts/confidential-ledger/badge-service/domain/errors"
	"aqualedger/contexts/confidential-ledger/badge-service/ports"
)

const (
	sourceService     = "badge-service"
	EventBadgeClaimed = "badge.claimed"
	EventBadgeRevoked = "badge.revoked"
)

type Service struct {
	Repo         ports.Repository
	Streaks      ports.StreakReader
	Clock        ports.Clock
	IDGen        ports.IDGenerator
	AdminAddress string
	Logger       *slog.Logger
}

type ClaimResult struct {
	Claim ports.ClaimRecord
	Badge ports.UserBadge
}

// ClaimBadge enforces the Ineligible -> Eligible -> Claimed transition for
// one (user, level) pair. Levels are independent; only per-level claim
// uniqueness is enforced.
func (s Service) ClaimBadge(ctx context.Context, userAddress string, level ports.BadgeLevel) (ClaimResult, error) {
	userAddress = normalize(userAddress)
	if userAddress == "" {
		return ClaimResult{}, domainerrors.ErrInvalidAddress
	}
	if !level.Valid() {
		return ClaimResult{}, domainerrors.ErrInvalidLevel
	}

	streak, err := s.Streaks.Streak(ctx, userAddress)
	if err != nil {
		return ClaimResult{}, err
	}
	if streak < level.Threshold() {
		return ClaimResult{}, domainerrors.ErrNotEligible
	}

	if _, claimed, err := s.Repo.GetClaim(ctx, userAddress, level); err != nil {
		return ClaimResult{}, err
	} else if claimed {
		return ClaimResult{}, domainerrors.ErrAlreadyClaimed
	}

	current, err := s.Repo.GetUserBadge(ctx, userAddress)
	if err != nil {
		return ClaimResult{}, err
	}

	now := s.now()
	claim := ports.ClaimRecord{
		UserAddress: userAddress,
		Level:       level,
		ClaimedAt:   now,
	}
	badge := ports.UserBadge{
		UserAddress: userAddress,
		Highest:     current.Highest,
		UpdatedAt:   now,
	}
	if level > badge.Highest {
		badge.Highest = level
	}

	outbox, err := s.buildOutbox(ctx, EventBadgeClaimed, claim, now)
	if err != nil {
		return ClaimResult{}, err
	}
	if err := s.Repo.ApplyClaim(ctx, claim, badge, outbox); err != nil {
		return ClaimResult{}, err
	}

	ResolveLogger(s.Logger).Info("badge claimed",
		"event", "badge_claimed",
		"module", "confidential-ledger/badge-service",
		"layer", "application",
		"user_address", userAddress,
		"level", level.Name(),
		"streak", streak,
	)
	return ClaimResult{Claim: claim, Badge: badge}, nil
}

// RevokeBadge is the administrative path. It removes the claim record,
// recomputes the highest badge from the remaining claims, and records a
// revocation event.
func (s Service) RevokeBadge(ctx context.Context, actorAddress, userAddress string, level ports.BadgeLevel) (ports.UserBadge, error) {
	if normalize(actorAddress) == "" || normalize(actorAddress) != normalize(s.AdminAddress) {
		return ports.UserBadge{}, domainerrors.ErrNotAuthorized
	}
	userAddress = normalize(userAddress)
	if userAddress == "" {
		return ports.UserBadge{}, domainerrors.ErrInvalidAddress
	}
	if !level.Valid() {
		return ports.UserBadge{}, domainerrors.ErrInvalidLevel
	}

	if _, claimed, err := s.Repo.GetClaim(ctx, userAddress, level); err != nil {
		return ports.UserBadge{}, err
	} else if !claimed {
		return ports.UserBadge{}, domainerrors.ErrNotClaimed
	}

	claims, err := s.Repo.ListClaims(ctx, userAddress)
	if err != nil {
		return ports.UserBadge{}, err
	}

	now := s.now()
	badge := ports.UserBadge{
		UserAddress: userAddress,
		Highest:     ports.LevelNone,
		UpdatedAt:   now,
	}
	for _, claim := range claims {
		if claim.Level != level && claim.Level > badge.Highest {
			badge.Highest = claim.Level
		}
	}

	outbox, err := s.buildOutbox(ctx, EventBadgeRevoked, ports.ClaimRecord{
		UserAddress: userAddress,
		Level:       level,
		ClaimedAt:   now,
	}, now)
	if err != nil {
		return ports.UserBadge{}, err
	}
	if err := s.Repo.RemoveClaim(ctx, userAddress, level, badge, outbox); err != nil {
		return ports.UserBadge{}, err
	}

	ResolveLogger(s.Logger).Info("badge revoked",
		"event", "badge_revoked",
		"module", "confidential-ledger/badge-service",
		"layer", "application",
		"user_address", userAddress,
		"level", level.Name(),
		"actor", normalize(actorAddress),
	)
	return badge, nil
}

func (s Service) GetUserBadge(ctx context.Context, userAddress string) (ports.BadgeLevel, error) {
	userAddress = normalize(userAddress)
	if userAddress == "" {
		return ports.LevelNone, domainerrors.ErrInvalidAddress
	}
	badge, err := s.Repo.GetUserBadge(ctx, userAddress)
	if err != nil {
		return ports.LevelNone, err
	}
	return badge.Highest, nil
}

// IsEligible is recomputed from the live streak on every read; it is never
// stored.
func (s Service) IsEligible(ctx context.Context, userAddress string, level ports.BadgeLevel) (bool, error) {
	userAddress = normalize(userAddress)
	if userAddress == "" {
		return false, domainerrors.ErrInvalidAddress
	}
	if !level.Valid() {
		return false, domainerrors.ErrInvalidLevel
	}
	streak, err := s.Streaks.Streak(ctx, userAddress)
	if err != nil {
		return false, err
	}
	return streak >= level.Threshold(), nil
}

func (s Service) HasClaimed(ctx context.Context, userAddress string, level ports.BadgeLevel) (bool, error) {
	userAddress = normalize(userAddress)
	if userAddress == "" {
		return false, domainerrors.ErrInvalidAddress
	}
	if !level.Valid() {
		return false, domainerrors.ErrInvalidLevel
	}
	_, claimed, err := s.Repo.GetClaim(ctx, userAddress, level)
	return claimed, err
}

func (s Service) ClaimedAt(ctx context.Context, userAddress string, level ports.BadgeLevel) (time.Time, bool, error) {
	claim, claimed, err := s.Repo.GetClaim(ctx, normalize(userAddress), level)
	if err != nil || !claimed {
		return time.Time{}, false, err
	}
	return claim.ClaimedAt, true, nil
}

func (s Service) buildOutbox(ctx context.Context, eventType string, claim ports.ClaimRecord, now time.Time) (ports.OutboxMessage, error) {
	eventID, err := s.IDGen.NewID(ctx)
	if err != nil {
		return ports.OutboxMessage{}, err
	}
	data, err := json.Marshal(map[string]any{
		"user_address": claim.UserAddress,
		"level":        uint8(claim.Level),
		"level_name":   claim.Level.Name(),
		"timestamp":    now.Unix(),
	})
	if err != nil {
		return ports.OutboxMessage{}, err
	}
	payload, err := json.Marshal(ports.EventEnvelope{
		EventID:          eventID,
		EventType:        eventType,
		OccurredAt:       now,
		SourceService:    sourceService,
		SchemaVersion:    1,
		PartitionKeyPath: "user_address",
		PartitionKey:     claim.UserAddress,
		Data:             data,
	})
	if err != nil {
		return ports.OutboxMessage{}, err
	}
	outboxID, err := s.IDGen.NewID(ctx)
	if err != nil {
		return ports.OutboxMessage{}, err
	}
	return ports.OutboxMessage{
		OutboxID:  outboxID,
		EventType: eventType,
		Payload:   payload,
		Status:    "pending",
		CreatedAt: now,
	}, nil
}

func (s Service) now() time.Time {
	if s.Clock == nil {
		return time.Now().UTC()
	}
	return s.Clock.Now().UTC()
}

func normalize(address string) string {
	return strings.ToLower(strings.TrimSpace(address))
}
