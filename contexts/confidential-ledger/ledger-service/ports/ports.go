package ports

import (
	"context"
	"time"

	"aqualedger/internal/shared/confidential"
)

// ActionType enumerates the recognized water-saving actions.
type ActionType uint8

const (
	ActionShorterShower ActionType = iota
	ActionCloseFaucet
	ActionRainwaterGarden
	ActionReuseWater
	ActionOther
)

func (a ActionType) Valid() bool {
	return a <= ActionOther
}

func (a ActionType) String() string {
	switch a {
	case ActionShorterShower:
		return "shorter_shower"
	case ActionCloseFaucet:
		return "close_faucet"
	case ActionRainwaterGarden:
		return "rainwater_garden"
	case ActionReuseWater:
		return "reuse_water"
	case ActionOther:
		return "other"
	default:
		return "unknown"
	}
}

// MaxCityCode bounds the finite city code space.
const MaxCityCode uint32 = 9999

// DailySubmission is one accepted record per user per calendar day.
// Amount is a ciphertext handle and is never decrypted by this service.
type DailySubmission struct {
	SubmissionID string
	UserAddress  string
	Day          uint64
	ActionType   ActionType
	CityCode     uint32
	Amount       confidential.Handle
	SubmittedAt  time.Time
}

// UserStats is the per-user counter record. Streak and day counters are
// plaintext; TotalLiters is a homomorphically accumulated handle.
type UserStats struct {
	UserAddress   string
	TotalDays     uint32
	Streak        uint32
	LastSubmitDay uint64
	TotalLiters   confidential.Handle
	UpdatedAt     time.Time
}

type Repository interface {
	// GetUserStats returns zero-valued stats with the zero handle for
	// users that never submitted.
	GetUserStats(ctx context.Context, userAddress string) (UserStats, error)
	GetSubmission(ctx context.Context, userAddress string, day uint64) (DailySubmission, bool, error)
	// ApplySubmission persists the submission and the updated stats in a
	// single atomic step. A duplicate (user, day) pair must surface as
	// ErrAlreadySubmittedToday.
	ApplySubmission(ctx context.Context, submission DailySubmission, stats UserStats) error
	// ListSubmissions returns all submissions for the user in insertion order.
	ListSubmissions(ctx context.Context, userAddress string) ([]DailySubmission, error)
}

// CipherEngine is the ledger-side surface of the confidential value service:
// input proof validation and ciphertext-to-ciphertext addition.
type CipherEngine interface {
	VerifyInput(ctx context.Context, handle confidential.Handle, proof confidential.Proof, contractAddress, userAddress string) error
	Add(ctx context.Context, a, b confidential.Handle) (confidential.Handle, error)
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}
