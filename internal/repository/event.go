package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/langchou/h2gazer/internal/models"
)

// EventRepository 车辆事件仓库
type EventRepository struct {
	db *DB
}

// NewEventRepository 创建事件仓库
func NewEventRepository(db *DB) *EventRepository {
	return &EventRepository{db: db}
}

// Record 写入事件，重复 ID 忽略（事件不可变）
func (r *EventRepository) Record(ctx context.Context, vehicleID string, e models.Event) error {
	query := `
		INSERT INTO vehicle_events (vehicle_id, id, timestamp_ms, category, severity, message)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (vehicle_id, id) DO NOTHING
	`
	_, err := r.db.Pool.Exec(ctx, query,
		vehicleID,
		e.ID,
		e.TimestampEpochMs,
		string(e.Category),
		string(e.Severity),
		e.Message,
	)
	if err != nil {
		return fmt.Errorf("insert vehicle event: %w", err)
	}
	return nil
}

// ListByVehicleID 按时间倒序获取事件
func (r *EventRepository) ListByVehicleID(ctx context.Context, vehicleID string, limit int) ([]models.Event, error) {
	if limit <= 0 {
		limit = 100
	}
	query := `
		SELECT id, timestamp_ms, category, severity, message
		FROM vehicle_events WHERE vehicle_id = $1
		ORDER BY timestamp_ms DESC LIMIT $2
	`
	rows, err := r.db.Pool.Query(ctx, query, vehicleID, limit)
	if err != nil {
		return nil, fmt.Errorf("list vehicle events: %w", err)
	}

	events, err := pgx.CollectRows(rows, pgx.RowToStructByName[models.Event])
	if err != nil {
		return nil, fmt.Errorf("scan vehicle event: %w", err)
	}
	return events, nil
}
