package repositories

import (
	"context"

	"field-backend/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

type AdminActionLogRepository struct {
	DB *pgxpool.Pool
}

func NewAdminActionLogRepository(db *pgxpool.Pool) *AdminActionLogRepository {
	return &AdminActionLogRepository{DB: db}
}

// CreateActionLog records an admin correction to the status history
func (r *AdminActionLogRepository) CreateActionLog(ctx context.Context, log *models.AdminActionLog) error {
	query := `
		INSERT INTO admin_action_logs (
			admin_user_id, action_type, target_type, target_id,
			description, old_value, new_value, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
	`

	_, err := r.DB.Exec(ctx, query,
		log.AdminUserID, log.ActionType, log.TargetType, log.TargetID,
		log.Description, log.OldValue, log.NewValue,
	)

	return err
}

// ListAllActionLogs retrieves all admin action logs with admin details
func (r *AdminActionLogRepository) ListAllActionLogs(ctx context.Context, limit int) ([]*models.AdminActionLog, error) {
	if limit <= 0 {
		limit = 200
	}
	rows, err := r.DB.Query(ctx,
		`SELECT id, admin_user_id, action_type, target_type, target_id,
		        description, old_value, new_value, created_at
		 FROM admin_action_logs
		 ORDER BY created_at DESC
		 LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []*models.AdminActionLog
	for rows.Next() {
		var l models.AdminActionLog
		err := rows.Scan(&l.ID, &l.AdminUserID, &l.ActionType, &l.TargetType,
			&l.TargetID, &l.Description, &l.OldValue, &l.NewValue, &l.CreatedAt)
		if err != nil {
			return nil, err
		}
		logs = append(logs, &l)
	}
	return logs, rows.Err()
}
