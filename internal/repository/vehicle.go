package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/langchou/h2gazer/internal/models"
)

// VehicleRepository 车辆静态数据仓库
type VehicleRepository struct {
	db     *DB
	events *EventRepository
}

// NewVehicleRepository 创建车辆仓库
func NewVehicleRepository(db *DB, events *EventRepository) *VehicleRepository {
	return &VehicleRepository{db: db, events: events}
}

// Upsert 写入车辆静态数据及其初始事件
func (r *VehicleRepository) Upsert(ctx context.Context, fx models.Fixture) error {
	query := `
		INSERT INTO vehicles (id, name, status, latitude, longitude, speed_kph, heading_deg, pressure, system, route, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			status = EXCLUDED.status,
			latitude = EXCLUDED.latitude,
			longitude = EXCLUDED.longitude,
			speed_kph = EXCLUDED.speed_kph,
			heading_deg = EXCLUDED.heading_deg,
			pressure = EXCLUDED.pressure,
			system = EXCLUDED.system,
			route = EXCLUDED.route,
			updated_at = EXCLUDED.updated_at
	`
	_, err := r.db.Pool.Exec(ctx, query,
		fx.Identity.ID,
		fx.Identity.Name,
		string(fx.Identity.Status),
		fx.Position.Lat,
		fx.Position.Lng,
		fx.Position.SpeedKph,
		fx.Position.HeadingDeg,
		fx.Pressure,
		fx.System,
		fx.Route,
		time.Now(),
	)
	if err != nil {
		return fmt.Errorf("upsert vehicle: %w", err)
	}

	for _, e := range fx.Events {
		if err := r.events.Record(ctx, fx.Identity.ID, e); err != nil {
			return err
		}
	}
	return nil
}

// List 按录入顺序获取全部车辆（含最近事件）
func (r *VehicleRepository) List(ctx context.Context) ([]models.Fixture, error) {
	query := `
		SELECT id, name, status, latitude, longitude, speed_kph, heading_deg, pressure, system, route
		FROM vehicles ORDER BY sort_order
	`
	rows, err := r.db.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list vehicles: %w", err)
	}

	fixtures, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Fixture, error) {
		var (
			fx     models.Fixture
			status string
		)
		err := row.Scan(
			&fx.Identity.ID,
			&fx.Identity.Name,
			&status,
			&fx.Position.Lat,
			&fx.Position.Lng,
			&fx.Position.SpeedKph,
			&fx.Position.HeadingDeg,
			&fx.Pressure,
			&fx.System,
			&fx.Route,
		)
		fx.Identity.Status = models.OperationalStatus(status)
		return fx, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan vehicle: %w", err)
	}

	for i := range fixtures {
		events, err := r.events.ListByVehicleID(ctx, fixtures[i].Identity.ID, 50)
		if err != nil {
			return nil, err
		}
		fixtures[i].Events = events
	}

	return fixtures, nil
}
