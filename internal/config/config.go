package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	ServerPort string
	Debug      bool

	// Database，为空时使用内置车辆数据
	DatabaseURL string

	// Telemetry: redis | nats | memory
	TelemetryBackend string
	TelemetryPath    string
	SignalSource     string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	NATSURL      string
	NATSKVBucket string

	// 分类阈值
	LeakThreshold      float64
	AmbientTemperature float64

	// 车辆
	DefaultVehicleID string
	InitialVehicleID string

	// 模拟器推送间隔
	SimulatorInterval time.Duration
}

// 遥测后端
const (
	BackendRedis  = "redis"
	BackendNATS   = "nats"
	BackendMemory = "memory"
)

// NoInitialVehicle 启动时不选择任何车辆
const NoInitialVehicle = "none"

func Load() (*Config, error) {
	// 尝试加载 .env 文件（可选）
	_ = godotenv.Load()

	cfg := &Config{
		ServerPort:         getEnv("PORT", "4000"),
		Debug:              getEnvBool("DEBUG", false),
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		TelemetryBackend:   getEnv("TELEMETRY_BACKEND", BackendMemory),
		TelemetryPath:      getEnv("TELEMETRY_PATH", "sensorData"),
		SignalSource:       getEnv("SIGNAL_SOURCE", "fixture"),
		RedisAddr:          getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:      os.Getenv("REDIS_PASSWORD"),
		RedisDB:            getEnvInt("REDIS_DB", 0),
		NATSURL:            getEnv("NATS_URL", "nats://localhost:4222"),
		NATSKVBucket:       getEnv("NATS_KV_BUCKET", "h2gazer"),
		LeakThreshold:      getEnvFloat("LEAK_THRESHOLD", 50),
		AmbientTemperature: getEnvFloat("AMBIENT_TEMPERATURE", 22),
		DefaultVehicleID:   getEnv("DEFAULT_VEHICLE_ID", "truck-001"),
		SimulatorInterval:  getEnvDuration("SIMULATOR_INTERVAL", 2*time.Second),
	}

	// 启动即选择默认车辆
	cfg.InitialVehicleID = getEnv("INITIAL_VEHICLE_ID", cfg.DefaultVehicleID)
	if cfg.InitialVehicleID == NoInitialVehicle {
		cfg.InitialVehicleID = ""
	}

	switch cfg.TelemetryBackend {
	case BackendRedis, BackendNATS, BackendMemory:
	default:
		cfg.TelemetryBackend = BackendMemory
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		b, err := strconv.ParseBool(value)
		if err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		i, err := strconv.Atoi(value)
		if err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		f, err := strconv.ParseFloat(value, 64)
		if err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		d, err := time.ParseDuration(value)
		if err == nil {
			return d
		}
	}
	return defaultValue
}
