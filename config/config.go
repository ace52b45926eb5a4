package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// 預約持有時間的允許範圍, 設定超出範圍時夾回邊界
const (
	minHoldTTL     = time.Minute
	maxHoldTTL     = time.Hour
	defaultHoldTTL = 15 * time.Minute
)

type Config struct {
	Server      ServerConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	Reservation ReservationConfig
	Worker      WorkerConfig
	Inventory   InventoryConfig
}

type ServerConfig struct {
	Port string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type ReservationConfig struct {
	HoldTTL time.Duration
}

type WorkerConfig struct {
	ExpirySweepInterval time.Duration
	ReceiptQueueBuffer  int
}

// InventoryConfig 選擇庫存後端：memory(單副本) 或 redis(多副本共用計數器)
type InventoryConfig struct {
	Backend string
}

var AppConfig *Config

func LoadConfig() *Config {
	// .env 不存在時沿用環境變數即可
	_ = godotenv.Load()

	AppConfig = &Config{
		Server:      GetServerConfig(),
		Database:    GetDatabaseConfig(),
		Redis:       GetRedisConfig(),
		Reservation: GetReservationConfig(),
		Worker:      GetWorkerConfig(),
		Inventory:   GetInventoryConfig(),
	}

	return AppConfig
}

func LoadTestConfig() *Config {
	testConfig := &DatabaseConfig{
		Host:     "localhost",
		Port:     "5433", // 測試 DB 用 5433 port
		User:     "postgres",
		Password: "postgres",
		DBName:   "test_db",
		SSLMode:  "disable",
	}

	testRedisConfig := RedisConfig{
		Host:     "localhost",
		Port:     "6380", // 測試 Redis 用 6380 port
		Password: "",
		DB:       1,
	}

	return &Config{
		Server:      ServerConfig{Port: "8080"},
		Database:    *testConfig,
		Redis:       testRedisConfig,
		Reservation: ReservationConfig{HoldTTL: defaultHoldTTL},
		Worker: WorkerConfig{
			ExpirySweepInterval: time.Second,
			ReceiptQueueBuffer:  16,
		},
		Inventory: InventoryConfig{Backend: "memory"},
	}
}

func GetServerConfig() ServerConfig {
	return ServerConfig{
		Port: getEnv("SERVER_PORT", "8080"),
	}
}

func GetDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     getEnv("DB_PORT", "5432"),
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", "postgres"),
		DBName:   getEnv("DB_NAME", "postgres"),
		SSLMode:  getEnv("DB_SSL_MODE", "disable"),
	}
}

func GetRedisConfig() RedisConfig {
	db, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		panic(err)
	}

	return RedisConfig{
		Host:     getEnv("REDIS_HOST", "localhost"),
		Port:     getEnv("REDIS_PORT", "6379"),
		Password: getEnv("REDIS_PASSWORD", ""),
		DB:       db,
	}
}

func GetReservationConfig() ReservationConfig {
	return ReservationConfig{
		HoldTTL: clampDuration(getDurationEnv("RESERVATION_HOLD_TTL", defaultHoldTTL), minHoldTTL, maxHoldTTL),
	}
}

func GetWorkerConfig() WorkerConfig {
	buffer, err := strconv.Atoi(getEnv("RECEIPT_QUEUE_BUFFER", "100"))
	if err != nil {
		panic(err)
	}

	return WorkerConfig{
		ExpirySweepInterval: getDurationEnv("EXPIRY_SWEEP_INTERVAL", 30*time.Second),
		ReceiptQueueBuffer:  buffer,
	}
}

func GetInventoryConfig() InventoryConfig {
	return InventoryConfig{
		Backend: getEnv("INVENTORY_BACKEND", "memory"),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		panic(err)
	}
	return d
}

func clampDuration(d, min, max time.Duration) time.Duration {
	if d < min {
		return min
	}
	if d > max {
		return max
	}
	return d
}
