package postgresadapter

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	domainerrors "aqualedger/contexts/confidential-ledger/badge-service/domain/errors"
	"aqualedger/contexts/confidential-ledger/badge-service/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	outboxStatusPending = "pending"
	outboxStatusSent    = "sent"
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

type userBadgeModel struct {
	UserAddress string    `gorm:"column:user_address;primaryKey"`
	Highest     uint8     `gorm:"column:highest"`
	UpdatedAt   time.Time `gorm:"column:updated_at"`
}

func (userBadgeModel) TableName() string { return "user_badges" }

type badgeClaimModel struct {
	UserAddress string    `gorm:"column:user_address;primaryKey"`
	Level       uint8     `gorm:"column:level;primaryKey"`
	ClaimedAt   time.Time `gorm:"column:claimed_at"`
}

func (badgeClaimModel) TableName() string { return "badge_claims" }

type badgeOutboxModel struct {
	OutboxID  string     `gorm:"column:outbox_id;primaryKey"`
	EventType string     `gorm:"column:event_type"`
	Payload   []byte     `gorm:"column:payload"`
	Status    string     `gorm:"column:status;index"`
	CreatedAt time.Time  `gorm:"column:created_at"`
	SentAt    *time.Time `gorm:"column:sent_at"`
}

func (badgeOutboxModel) TableName() string { return "badge_outbox" }

func (r *Repository) GetUserBadge(ctx context.Context, userAddress string) (ports.UserBadge, error) {
	var row userBadgeModel
	err := r.db.WithContext(ctx).
		Where("user_address = ?", normalize(userAddress)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.UserBadge{UserAddress: normalize(userAddress), Highest: ports.LevelNone}, nil
		}
		return ports.UserBadge{}, err
	}
	return ports.UserBadge{
		UserAddress: row.UserAddress,
		Highest:     ports.BadgeLevel(row.Highest),
		UpdatedAt:   row.UpdatedAt,
	}, nil
}

func (r *Repository) GetClaim(ctx context.Context, userAddress string, level ports.BadgeLevel) (ports.ClaimRecord, bool, error) {
	var row badgeClaimModel
	err := r.db.WithContext(ctx).
		Where("user_address = ? AND level = ?", normalize(userAddress), uint8(level)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.ClaimRecord{}, false, nil
		}
		return ports.ClaimRecord{}, false, err
	}
	return row.toRecord(), true, nil
}

func (r *Repository) ListClaims(ctx context.Context, userAddress string) ([]ports.ClaimRecord, error) {
	var rows []badgeClaimModel
	if err := r.db.WithContext(ctx).
		Where("user_address = ?", normalize(userAddress)).
		Order("level ASC").
		Find(&rows).
		Error; err != nil {
		return nil, err
	}
	items := make([]ports.ClaimRecord, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toRecord())
	}
	return items, nil
}

func (r *Repository) ApplyClaim(ctx context.Context, claim ports.ClaimRecord, badge ports.UserBadge, outbox ports.OutboxMessage) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		claimRow := badgeClaimModel{
			UserAddress: normalize(claim.UserAddress),
			Level:       uint8(claim.Level),
			ClaimedAt:   claim.ClaimedAt.UTC(),
		}
		if err := tx.Create(&claimRow).Error; err != nil {
			if isUniqueViolation(err) {
				return domainerrors.ErrAlreadyClaimed
			}
			return err
		}
		if err := upsertBadge(tx, badge); err != nil {
			return err
		}
		return tx.Create(&badgeOutboxModel{
			OutboxID:  outbox.OutboxID,
			EventType: outbox.EventType,
			Payload:   outbox.Payload,
			Status:    outboxStatusPending,
			CreatedAt: outbox.CreatedAt.UTC(),
		}).Error
	})
}

func (r *Repository) RemoveClaim(ctx context.Context, userAddress string, level ports.BadgeLevel, badge ports.UserBadge, outbox ports.OutboxMessage) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.
			Where("user_address = ? AND level = ?", normalize(userAddress), uint8(level)).
			Delete(&badgeClaimModel{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return domainerrors.ErrNotClaimed
		}
		if err := upsertBadge(tx, badge); err != nil {
			return err
		}
		return tx.Create(&badgeOutboxModel{
			OutboxID:  outbox.OutboxID,
			EventType: outbox.EventType,
			Payload:   outbox.Payload,
			Status:    outboxStatusPending,
			CreatedAt: outbox.CreatedAt.UTC(),
		}).Error
	})
}

func (r *Repository) ListPendingOutbox(ctx context.Context, limit int) ([]ports.OutboxMessage, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []badgeOutboxModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", outboxStatusPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).
		Error; err != nil {
		return nil, err
	}
	items := make([]ports.OutboxMessage, 0, len(rows))
	for _, row := range rows {
		items = append(items, ports.OutboxMessage{
			OutboxID:  row.OutboxID,
			EventType: row.EventType,
			Payload:   row.Payload,
			Status:    row.Status,
			CreatedAt: row.CreatedAt,
			SentAt:    row.SentAt,
		})
	}
	return items, nil
}

func (r *Repository) MarkOutboxSent(ctx context.Context, outboxID string, sentAt time.Time) error {
	stamp := sentAt.UTC()
	return r.db.WithContext(ctx).
		Model(&badgeOutboxModel{}).
		Where("outbox_id = ?", outboxID).
		Updates(map[string]any{"status": outboxStatusSent, "sent_at": &stamp}).
		Error
}

func upsertBadge(tx *gorm.DB, badge ports.UserBadge) error {
	row := userBadgeModel{
		UserAddress: normalize(badge.UserAddress),
		Highest:     uint8(badge.Highest),
		UpdatedAt:   badge.UpdatedAt.UTC(),
	}
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_address"}},
		UpdateAll: true,
	}).Create(&row).Error
}

func (m badgeClaimModel) toRecord() ports.ClaimRecord {
	return ports.ClaimRecord{
		UserAddress: m.UserAddress,
		Level:       ports.BadgeLevel(m.Level),
		ClaimedAt:   m.ClaimedAt,
	}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func normalize(address string) string {
	return strings.ToLower(strings.TrimSpace(address))
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }

type UUIDGenerator struct{}

func (UUIDGenerator) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}
