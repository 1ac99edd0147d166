package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gautamkumarcode/propmize-admin/domain"
	"gorm.io/gorm"
)

// NotificationRepositoryImpl implements domain.NotificationCache using GORM.
// It holds the last notification set fetched for each user.
type NotificationRepositoryImpl struct {
	db *gorm.DB
}

// DBNotification represents the database model for a cached notification
type DBNotification struct {
	ID         uint   `gorm:"primaryKey"`
	OwnerID    string `gorm:"index:idx_owner_position;size:64"`
	Position   int    `gorm:"index:idx_owner_position"`
	ExternalID string `gorm:"size:64"`
	UserID     string `gorm:"size:64"`
	Title      string `gorm:"size:255"`
	Message    string
	Type       string `gorm:"size:32"`
	ActionURL  string `gorm:"size:512"`
	Metadata   string
	Read       bool
	NotifiedAt *time.Time
	CachedAt   time.Time
}

// TableName returns the table name for GORM
func (DBNotification) TableName() string {
	return "notification_cache"
}

// NewNotificationRepository creates a new notification cache repository
func NewNotificationRepository(db *gorm.DB) domain.NotificationCache {
	return &NotificationRepositoryImpl{db: db}
}

// Save implements domain.NotificationCache. The previous snapshot for userID is replaced atomically.
func (r *NotificationRepositoryImpl) Save(ctx context.Context, userID string, notifications []domain.Notification) error {
	rows := make([]DBNotification, 0, len(notifications))
	now := time.Now().UTC()
	for i, n := range notifications {
		row, err := domainToDB(userID, i, n)
		if err != nil {
			return err
		}
		row.CachedAt = now
		rows = append(rows, *row)
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("owner_id = ?", userID).Delete(&DBNotification{}).Error; err != nil {
			return fmt.Errorf("failed to clear notification snapshot: %w", err)
		}
		if len(rows) == 0 {
			return nil
		}
		if err := tx.Create(&rows).Error; err != nil {
			return fmt.Errorf("failed to store notification snapshot: %w", err)
		}
		return nil
	})
}

// Load implements domain.NotificationCache. Rows come back in the order they were saved.
func (r *NotificationRepositoryImpl) Load(ctx context.Context, userID string) ([]domain.Notification, error) {
	var rows []DBNotification
	if err := r.db.WithContext(ctx).Where("owner_id = ?", userID).Order("position asc").Find(&rows).Error; err != nil {
		return nil, err
	}

	out := make([]domain.Notification, 0, len(rows))
	for i := range rows {
		n, err := dbToDomain(&rows[i])
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

// Clear implements domain.NotificationCache
func (r *NotificationRepositoryImpl) Clear(ctx context.Context, userID string) error {
	return r.db.WithContext(ctx).Where("owner_id = ?", userID).Delete(&DBNotification{}).Error
}

func domainToDB(ownerID string, position int, n domain.Notification) (*DBNotification, error) {
	meta := ""
	if len(n.Metadata) > 0 {
		b, err := json.Marshal(n.Metadata)
		if err != nil {
			return nil, fmt.Errorf("failed to encode metadata for %s: %w", n.ID, err)
		}
		meta = string(b)
	}
	return &DBNotification{
		OwnerID:    ownerID,
		Position:   position,
		ExternalID: n.ID,
		UserID:     n.UserID,
		Title:      n.Title,
		Message:    n.Message,
		Type:       string(n.Type),
		ActionURL:  n.ActionURL,
		Metadata:   meta,
		Read:       n.Read,
		NotifiedAt: n.CreatedAt,
	}, nil
}

func dbToDomain(row *DBNotification) (domain.Notification, error) {
	n := domain.Notification{
		ID:        row.ExternalID,
		UserID:    row.UserID,
		Title:     row.Title,
		Message:   row.Message,
		Type:      domain.NotificationType(row.Type),
		ActionURL: row.ActionURL,
		Read:      row.Read,
		CreatedAt: row.NotifiedAt,
	}
	if row.Metadata != "" {
		if err := json.Unmarshal([]byte(row.Metadata), &n.Metadata); err != nil {
			return domain.Notification{}, fmt.Errorf("failed to decode metadata for %s: %w", row.ExternalID, err)
		}
	}
	return n, nil
}
