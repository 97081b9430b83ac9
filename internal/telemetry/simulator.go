package telemetry

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/langchou/h2gazer/internal/models"
)

// 每条路径轮换使用的快照 key 数量，避免无限增长
const simulatorSlots = 16

// Simulator 周期性写入合成读数，代替车载传感器节点
type Simulator struct {
	writer   Writer
	paths    []string
	interval time.Duration
	logger   *zap.Logger
	rng      *rand.Rand
	seq      int64
}

// NewSimulator 创建模拟器
func NewSimulator(writer Writer, paths []string, interval time.Duration, logger *zap.Logger) *Simulator {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &Simulator{
		writer:   writer,
		paths:    paths,
		interval: interval,
		logger:   logger,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Run 阻塞运行直到 ctx 结束
func (s *Simulator) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.tick(ctx, time.Now())
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.tick(ctx, now)
		}
	}
}

func (s *Simulator) tick(ctx context.Context, now time.Time) {
	for _, path := range s.paths {
		reading := s.Next(now)
		id := fmt.Sprintf("s%d", s.seq%simulatorSlots+1)
		s.seq++
		if err := s.writer.Put(ctx, path, id, reading); err != nil {
			if ctx.Err() != nil {
				return
			}
			s.logger.Warn("Simulator write failed", zap.String("path", path), zap.Error(err))
			continue
		}
		s.logger.Debug("Simulator wrote reading",
			zap.String("path", path),
			zap.String("snapshot_id", id),
			zap.Float64("temperature", reading.Temperature),
			zap.Float64("mq8", reading.MQ8))
	}
}

// Next 生成一条读数：温度 20~40°C，mq8 大多低于阈值，偶尔出现泄漏尖峰
func (s *Simulator) Next(now time.Time) models.RawReading {
	mq8 := 5 + s.rng.Float64()*30
	if s.rng.Intn(20) == 0 {
		mq8 = 60 + s.rng.Float64()*60
	}
	return models.RawReading{
		Temperature: 20 + s.rng.Float64()*20,
		MQ8:         mq8,
		Timestamp:   now.UnixMilli(),
	}
}
