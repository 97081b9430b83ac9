package fixture

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/langchou/h2gazer/internal/models"
)

// Store 车辆静态数据，Get 永不失败
type Store interface {
	Get(vehicleID string) models.Fixture
	Lookup(vehicleID string) (models.Fixture, bool)
	IDs() []string
}

// Repository 静态数据持久化
type Repository interface {
	List(ctx context.Context) ([]models.Fixture, error)
	Upsert(ctx context.Context, fx models.Fixture) error
}

// StaticStore 只读的内存静态数据
type StaticStore struct {
	records   map[string]models.Fixture
	order     []string
	defaultID string
}

// NewStaticStore 创建静态数据。defaultID 不存在时使用第一条记录作为默认值
func NewStaticStore(records []models.Fixture, defaultID string) *StaticStore {
	s := &StaticStore{
		records: make(map[string]models.Fixture, len(records)),
	}
	for _, r := range records {
		if _, dup := s.records[r.Identity.ID]; !dup {
			s.order = append(s.order, r.Identity.ID)
		}
		s.records[r.Identity.ID] = r
	}

	if _, ok := s.records[defaultID]; ok {
		s.defaultID = defaultID
	} else if len(s.order) > 0 {
		s.defaultID = s.order[0]
	}
	return s
}

// Get 查询静态数据，未知车辆回退到默认记录
func (s *StaticStore) Get(vehicleID string) models.Fixture {
	if fx, ok := s.records[vehicleID]; ok {
		return fx
	}
	return s.records[s.defaultID]
}

// Lookup 精确查询
func (s *StaticStore) Lookup(vehicleID string) (models.Fixture, bool) {
	fx, ok := s.records[vehicleID]
	return fx, ok
}

// IDs 车辆列表，保持录入顺序
func (s *StaticStore) IDs() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// DefaultID 默认记录的车辆 ID
func (s *StaticStore) DefaultID() string {
	return s.defaultID
}

// Load 从数据库加载静态数据，库为空时写入内置车辆
func Load(ctx context.Context, repo Repository, defaultID string, logger *zap.Logger) (*StaticStore, error) {
	records, err := repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list fixtures: %w", err)
	}

	if len(records) == 0 {
		logger.Info("Fixture table empty, seeding built-in fleet")
		records = Builtin(time.Now())
		for _, fx := range records {
			if err := repo.Upsert(ctx, fx); err != nil {
				return nil, fmt.Errorf("seed fixture %s: %w", fx.Identity.ID, err)
			}
		}
	}

	logger.Info("Fixtures loaded", zap.Int("count", len(records)))
	return NewStaticStore(records, defaultID), nil
}
