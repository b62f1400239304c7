package postgresadapter

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	domainerrors "aqualedger/contexts/confidential-ledger/ledger-service/domain/errors"
	"aqualedger/contexts/confidential-ledger/ledger-service/ports"
	"aqualedger/internal/shared/confidential"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{db: db, logger: logger}
}

type userStatsModel struct {
	UserAddress   string    `gorm:"column:user_address;primaryKey"`
	TotalDays     uint32    `gorm:"column:total_days"`
	Streak        uint32    `gorm:"column:streak"`
	LastSubmitDay uint64    `gorm:"column:last_submit_day"`
	TotalLiters   string    `gorm:"column:total_liters"`
	UpdatedAt     time.Time `gorm:"column:updated_at"`
}

func (userStatsModel) TableName() string { return "user_stats" }

type dailySubmissionModel struct {
	Seq          uint64    `gorm:"column:seq;primaryKey;autoIncrement"`
	SubmissionID string    `gorm:"column:submission_id;uniqueIndex"`
	UserAddress  string    `gorm:"column:user_address;uniqueIndex:idx_daily_submissions_user_day"`
	Day          uint64    `gorm:"column:day;uniqueIndex:idx_daily_submissions_user_day"`
	ActionType   uint8     `gorm:"column:action_type"`
	CityCode     uint32    `gorm:"column:city_code"`
	Amount       string    `gorm:"column:amount"`
	SubmittedAt  time.Time `gorm:"column:submitted_at"`
}

func (dailySubmissionModel) TableName() string { return "daily_submissions" }

func (r *Repository) GetUserStats(ctx context.Context, userAddress string) (ports.UserStats, error) {
	var row userStatsModel
	err := r.db.WithContext(ctx).
		Where("user_address = ?", normalize(userAddress)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.UserStats{
				UserAddress: normalize(userAddress),
				TotalLiters: confidential.ZeroHandle,
			}, nil
		}
		return ports.UserStats{}, err
	}
	return row.toStats(), nil
}

func (r *Repository) GetSubmission(ctx context.Context, userAddress string, day uint64) (ports.DailySubmission, bool, error) {
	var row dailySubmissionModel
	err := r.db.WithContext(ctx).
		Where("user_address = ? AND day = ?", normalize(userAddress), day).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.DailySubmission{}, false, nil
		}
		return ports.DailySubmission{}, false, err
	}
	return row.toSubmission(), true, nil
}

func (r *Repository) ApplySubmission(ctx context.Context, submission ports.DailySubmission, stats ports.UserStats) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row := dailySubmissionModel{
			SubmissionID: submission.SubmissionID,
			UserAddress:  normalize(submission.UserAddress),
			Day:          submission.Day,
			ActionType:   uint8(submission.ActionType),
			CityCode:     submission.CityCode,
			Amount:       submission.Amount.String(),
			SubmittedAt:  submission.SubmittedAt.UTC(),
		}
		if err := tx.Create(&row).Error; err != nil {
			if isUniqueViolation(err) {
				return domainerrors.ErrAlreadySubmittedToday
			}
			return err
		}

		statsRow := userStatsModel{
			UserAddress:   normalize(stats.UserAddress),
			TotalDays:     stats.TotalDays,
			Streak:        stats.Streak,
			LastSubmitDay: stats.LastSubmitDay,
			TotalLiters:   stats.TotalLiters.String(),
			UpdatedAt:     stats.UpdatedAt.UTC(),
		}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_address"}},
			UpdateAll: true,
		}).Create(&statsRow).Error
	})
}

func (r *Repository) ListSubmissions(ctx context.Context, userAddress string) ([]ports.DailySubmission, error) {
	var rows []dailySubmissionModel
	if err := r.db.WithContext(ctx).
		Where("user_address = ?", normalize(userAddress)).
		Order("seq ASC").
		Find(&rows).
		Error; err != nil {
		return nil, err
	}
	items := make([]ports.DailySubmission, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toSubmission())
	}
	return items, nil
}

func (m userStatsModel) toStats() ports.UserStats {
	total := confidential.Handle(m.TotalLiters)
	if total == "" {
		total = confidential.ZeroHandle
	}
	return ports.UserStats{
		UserAddress:   m.UserAddress,
		TotalDays:     m.TotalDays,
		Streak:        m.Streak,
		LastSubmitDay: m.LastSubmitDay,
		TotalLiters:   total,
		UpdatedAt:     m.UpdatedAt,
	}
}

func (m dailySubmissionModel) toSubmission() ports.DailySubmission {
	return ports.DailySubmission{
		SubmissionID: m.SubmissionID,
		UserAddress:  m.UserAddress,
		Day:          m.Day,
		ActionType:   ports.ActionType(m.ActionType),
		CityCode:     m.CityCode,
		Amount:       confidential.Handle(m.Amount),
		SubmittedAt:  m.SubmittedAt,
	}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func normalize(userAddress string) string {
	return strings.ToLower(strings.TrimSpace(userAddress))
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }

type UUIDGenerator struct{}

func (UUIDGenerator) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}
