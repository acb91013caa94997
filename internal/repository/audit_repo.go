package repository

import (
	"context"
	"encoding/json"

	"sniperok/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AuditRepository handles audit log database operations
type AuditRepository struct {
	db *pgxpool.Pool
}

func NewAuditRepository(db *pgxpool.Pool) *AuditRepository {
	return &AuditRepository{db: db}
}

// Create inserts a new audit log entry
func (r *AuditRepository) Create(ctx context.Context, log *domain.AuditLog) error {
	return insertAudit(ctx, r.db, log)
}

// CreateWithTx inserts the entry in the transaction that made the change it
// describes.
func (r *AuditRepository) CreateWithTx(ctx context.Context, tx pgx.Tx, log *domain.AuditLog) error {
	return insertAudit(ctx, tx, log)
}

func insertAudit(ctx context.Context, q querier, log *domain.AuditLog) error {
	details, err := json.Marshal(log.Details)
	if err != nil || log.Details == nil {
		details = []byte("{}")
	}

	_, err = q.Exec(ctx, `
		INSERT INTO audit_log (user_uuid, action, category, details, ip, user_agent)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, log.UserID, log.Action, log.Category, details, log.IP, log.UserAgent)
	return err
}

// ListByUser returns the user's latest entries, newest first.
func (r *AuditRepository) ListByUser(ctx context.Context, userID string, limit int) ([]domain.AuditLog, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, user_uuid::text, action, category, details, ip, user_agent, created_at
		FROM audit_log
		WHERE user_uuid = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanAuditLogs(rows)
}

// ListByAction returns the latest entries of one kind across all users.
func (r *AuditRepository) ListByAction(ctx context.Context, action string, limit int) ([]domain.AuditLog, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, user_uuid::text, action, category, details, ip, user_agent, created_at
		FROM audit_log
		WHERE action = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`, action, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanAuditLogs(rows)
}

func scanAuditLogs(rows pgx.Rows) ([]domain.AuditLog, error) {
	logs := []domain.AuditLog{}
	for rows.Next() {
		var (
			log     domain.AuditLog
			details []byte
		)
		if err := rows.Scan(&log.ID, &log.UserID, &log.Action, &log.Category, &details, &log.IP, &log.UserAgent, &log.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(details, &log.Details); err != nil {
			log.Details = map[string]any{}
		}
		logs = append(logs, log)
	}
	return logs, rows.Err()
}
