package application

import (
	"context"
	"log/slog"
	"strings"
	"time"

	domainerrors "aqualedger/contexts/confidential-ledger/ledger-service/domain/errors"
	"aqualedger/contexts/confidential-ledger/ledger-service/ports"
	"aqualedger/internal/shared/confidential"
)

const secondsPerDay = 86400

type Service struct {
	Repo            ports.Repository
	Engine          ports.CipherEngine
	Clock           ports.Clock
	IDGen           ports.IDGenerator
	ContractAddress string
	Logger          *slog.Logger
}

type SubmitInput struct {
	UserAddress string
	Amount      confidential.Handle
	Proof       confidential.Proof
	ActionType  ports.ActionType
	CityCode    uint32
}

type SubmitResult struct {
	Submission ports.DailySubmission
	Stats      ports.UserStats
}

// Submit validates and records one daily submission. Input and state
// conflicts are rejected before any mutation; the submission insert and
// the stats update are applied atomically by the repository.
func (s Service) Submit(ctx context.Context, input SubmitInput) (SubmitResult, error) {
	userAddress := strings.ToLower(strings.TrimSpace(input.UserAddress))
	if userAddress == "" {
		return SubmitResult{}, domainerrors.ErrInvalidAddress
	}
	if !input.ActionType.Valid() {
		return SubmitResult{}, domainerrors.ErrInvalidActionType
	}
	if input.CityCode > ports.MaxCityCode {
		return SubmitResult{}, domainerrors.ErrInvalidCityCode
	}
	amount, err := confidential.ParseHandle(input.Amount.String())
	if err != nil || amount.IsZero() {
		return SubmitResult{}, domainerrors.ErrInvalidCiphertext
	}
	if err := s.Engine.VerifyInput(ctx, amount, input.Proof, s.ContractAddress, userAddress); err != nil {
		return SubmitResult{}, domainerrors.ErrInvalidProof
	}

	now := s.now()
	day := uint64(now.Unix()) / secondsPerDay

	if _, exists, err := s.Repo.GetSubmission(ctx, userAddress, day); err != nil {
		return SubmitResult{}, err
	} else if exists {
		return SubmitResult{}, domainerrors.ErrAlreadySubmittedToday
	}

	stats, err := s.Repo.GetUserStats(ctx, userAddress)
	if err != nil {
		return SubmitResult{}, err
	}
	if stats.TotalDays > 0 && day <= stats.LastSubmitDay {
		if day == stats.LastSubmitDay {
			return SubmitResult{}, domainerrors.ErrAlreadySubmittedToday
		}
		return SubmitResult{}, domainerrors.ErrClockSkew
	}

	total := amount
	if !stats.TotalLiters.IsZero() {
		total, err = s.Engine.Add(ctx, stats.TotalLiters, amount)
		if err != nil {
			return SubmitResult{}, err
		}
	}

	submissionID, err := s.IDGen.NewID(ctx)
	if err != nil {
		return SubmitResult{}, err
	}

	submission := ports.DailySubmission{
		SubmissionID: submissionID,
		UserAddress:  userAddress,
		Day:          day,
		ActionType:   input.ActionType,
		CityCode:     input.CityCode,
		Amount:       amount,
		SubmittedAt:  now,
	}
	updated := ports.UserStats{
		UserAddress:   userAddress,
		TotalDays:     stats.TotalDays + 1,
		Streak:        nextStreak(stats, day),
		LastSubmitDay: day,
		TotalLiters:   total,
		UpdatedAt:     now,
	}

	if err := s.Repo.ApplySubmission(ctx, submission, updated); err != nil {
		return SubmitResult{}, err
	}

	resolveLogger(s.Logger).Info("daily submission recorded",
		"event", "ledger_submission_recorded",
		"module", "confidential-ledger/ledger-service",
		"layer", "application",
		"user_address", userAddress,
		"day", day,
		"action_type", submission.ActionType.String(),
		"streak", updated.Streak,
		"total_days", updated.TotalDays,
	)
	return SubmitResult{Submission: submission, Stats: updated}, nil
}

// GetUserStats returns the current counters. TotalLiters stays a handle;
// callers never receive plaintext from this read.
func (s Service) GetUserStats(ctx context.Context, userAddress string) (ports.UserStats, error) {
	userAddress = strings.ToLower(strings.TrimSpace(userAddress))
	if userAddress == "" {
		return ports.UserStats{}, domainerrors.ErrInvalidAddress
	}
	stats, err := s.Repo.GetUserStats(ctx, userAddress)
	if err != nil {
		return ports.UserStats{}, err
	}
	stats.UserAddress = userAddress
	if stats.TotalLiters == "" {
		stats.TotalLiters = confidential.ZeroHandle
	}
	return stats, nil
}

// ListSubmissions returns the user's full submission history with
// undecrypted amount handles, in insertion order.
func (s Service) ListSubmissions(ctx context.Context, userAddress string) ([]ports.DailySubmission, error) {
	userAddress = strings.ToLower(strings.TrimSpace(userAddress))
	if userAddress == "" {
		return nil, domainerrors.ErrInvalidAddress
	}
	return s.Repo.ListSubmissions(ctx, userAddress)
}

// Streak is the read consumed by achievement eligibility checks.
func (s Service) Streak(ctx context.Context, userAddress string) (uint32, error) {
	stats, err := s.GetUserStats(ctx, userAddress)
	if err != nil {
		return 0, err
	}
	return stats.Streak, nil
}

// nextStreak evaluates the consecutive-day rule strictly from the persisted
// LastSubmitDay: first submission or next-day submission extends the run,
// any gap of two or more days resets it to 1.
func nextStreak(stats ports.UserStats, day uint64) uint32 {
	if stats.TotalDays == 0 {
		return 1
	}
	if day == stats.LastSubmitDay+1 {
		return stats.Streak + 1
	}
	return 1
}

func (s Service) now() time.Time {
	if s.Clock == nil {
		return time.Now().UTC()
	}
	return s.Clock.Now().UTC()
}

func resolveLogger(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}
