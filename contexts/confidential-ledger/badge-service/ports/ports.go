package ports

import (
	"context"
	"time"

	contractsv1 "aqualedger/contracts/gen/events/v1"
)

// BadgeLevel is the ordered achievement tier.
type BadgeLevel uint8

const (
	LevelNone BadgeLevel = iota
	LevelWaterDrop
	LevelWaterHero
	LevelAquaGuardian
)

func (l BadgeLevel) Valid() bool {
	return l >= LevelWaterDrop && l <= LevelAquaGuardian
}

// Threshold is the streak length unlocking the level.
func (l BadgeLevel) Threshold() uint32 {
	switch l {
	case LevelWaterDrop:
		return 1
	case LevelWaterHero:
		return 30
	case LevelAquaGuardian:
		return 100
	default:
		return 0
	}
}

func (l BadgeLevel) Name() string {
	switch l {
	case LevelWaterDrop:
		return "WaterDrop"
	case LevelWaterHero:
		return "WaterHero"
	case LevelAquaGuardian:
		return "AquaGuardian"
	default:
		return "None"
	}
}

// ClaimRecord is the source of truth for "already claimed": at most one
// per (user, level), set exactly once.
type ClaimRecord struct {
	UserAddress string
	Level       BadgeLevel
	ClaimedAt   time.Time
}

// UserBadge tracks the highest level ever claimed by a user.
type UserBadge struct {
	UserAddress string
	Highest     BadgeLevel
	UpdatedAt   time.Time
}

type Repository interface {
	GetUserBadge(ctx context.Context, userAddress string) (UserBadge, error)
	GetClaim(ctx context.Context, userAddress string, level BadgeLevel) (ClaimRecord, bool, error)
	ListClaims(ctx context.Context, userAddress string) ([]ClaimRecord, error)
	// ApplyClaim persists the claim record, the badge projection, and the
	// outbox message atomically. A duplicate (user, level) claim must
	// surface as ErrAlreadyClaimed.
	ApplyClaim(ctx context.Context, claim ClaimRecord, badge UserBadge, outbox OutboxMessage) error
	// RemoveClaim deletes the claim record and rewrites the badge
	// projection, recording the revocation event in the outbox.
	RemoveClaim(ctx context.Context, userAddress string, level BadgeLevel, badge UserBadge, outbox OutboxMessage) error
}

// StreakReader exposes the ledger streak counter to eligibility checks.
// Wiring happens in the composition root; this context never imports the
// ledger context directly.
type StreakReader interface {
	Streak(ctx context.Context, userAddress string) (uint32, error)
}

// EventEnvelope reuses the canonical cross-runtime envelope contract.
type EventEnvelope = contractsv1.Envelope

type OutboxMessage struct {
	OutboxID  string
	EventType string
	Payload   []byte
	Status    string
	CreatedAt time.Time
	SentAt    *time.Time
}

type OutboxRepository interface {
	ListPendingOutbox(ctx context.Context, limit int) ([]OutboxMessage, error)
	MarkOutboxSent(ctx context.Context, outboxID string, sentAt time.Time) error
}

type EventPublisher interface {
	Publish(ctx context.Context, topic string, event EventEnvelope) error
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}
