package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/ralskwo/FoodFinder/internal/constants"
	"github.com/ralskwo/FoodFinder/internal/util"
)

// Config: FoodFinder 서비스 전체 동작에 필요한 설정을 담는 구조체
type Config struct {
	Server   ServerConfig
	Naver    NaverConfig
	Kakao    KakaoConfig
	Valkey   ValkeyConfig
	Postgres PostgresConfig
	Search   SearchConfig
	Logging  LoggingConfig
	Version  string
}

// ServerConfig: HTTP API 서버 설정
type ServerConfig struct {
	Port int
}

// NaverConfig: 네이버 API 자격 증명
// Developers 키(검색)와 Cloud Platform 키(지오코딩)는 별개 발급이지만,
// Cloud 키가 없으면 Developers 키로 재시도하는 과거 운영 관행을 유지한다.
type NaverConfig struct {
	ClientID     string // 네이버 Developers (검색 API)
	ClientSecret string
	CloudID      string // 네이버 Cloud Platform (지오코딩 API)
	CloudSecret  string
}

// KakaoConfig: 카카오 로컬 API 자격 증명
type KakaoConfig struct {
	APIKey string
}

// ValkeyConfig: 캐싱 용도의 Valkey(Redis) 연결 설정
type ValkeyConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// PostgresConfig: 메인 데이터베이스(PostgreSQL) 연결 설정
type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
}

// SearchConfig: 검색 기본값 설정
type SearchConfig struct {
	DefaultRadiusMeters int
	MaxRadiusMeters     int
}

// LoggingConfig: 애플리케이션 로그 설정 (레벨, 디렉토리, 로테이션 정책)
type LoggingConfig struct {
	Level      string
	Dir        string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// Load: .env 파일 및 환경 변수로부터 설정을 로드하고, 기본값을 적용하여 Config 객체를 생성한다.
func Load() (*Config, error) {
	_ = godotenv.Load()

	naverClientID := getEnv("NAVER_CLIENT_ID", "")
	naverClientSecret := getEnv("NAVER_CLIENT_SECRET", "")

	cfg := &Config{
		Server: ServerConfig{
			Port: getEnvInt("SERVER_PORT", 8000),
		},
		Naver: NaverConfig{
			ClientID:     naverClientID,
			ClientSecret: naverClientSecret,
			CloudID:      getEnv("NAVER_CLOUD_ID", naverClientID),
			CloudSecret:  getEnv("NAVER_CLOUD_SECRET", naverClientSecret),
		},
		Kakao: KakaoConfig{
			APIKey: getEnv("KAKAO_API_KEY", ""),
		},
		Valkey: ValkeyConfig{
			Host:     getEnv("CACHE_HOST", "localhost"),
			Port:     getEnvInt("CACHE_PORT", 6379),
			Password: getEnv("CACHE_PASSWORD", ""),
			DB:       getEnvInt("CACHE_DB", 0),
		},
		Postgres: PostgresConfig{
			Host:     getEnv("POSTGRES_HOST", constants.DatabaseDefaults.Host),
			Port:     getEnvInt("POSTGRES_PORT", constants.DatabaseDefaults.Port),
			User:     getEnv("POSTGRES_USER", constants.DatabaseDefaults.User),
			Password: getEnv("POSTGRES_PASSWORD", constants.DatabaseDefaults.Password),
			Database: getEnv("POSTGRES_DB", constants.DatabaseDefaults.Database),
		},
		Search: SearchConfig{
			DefaultRadiusMeters: getEnvInt("DEFAULT_SEARCH_RADIUS", constants.SearchDefaults.RadiusMeters),
			MaxRadiusMeters:     getEnvInt("MAX_SEARCH_RADIUS", constants.SearchDefaults.MaxRadiusMeters),
		},
		Logging: LoggingConfig{
			Level:      getEnv("LOG_LEVEL", "info"),
			Dir:        getEnv("LOG_DIR", ""),
			MaxSizeMB:  getEnvInt("LOG_MAX_SIZE_MB", 100),
			MaxBackups: getEnvInt("LOG_MAX_BACKUPS", 5),
			MaxAgeDays: getEnvInt("LOG_MAX_AGE_DAYS", 30),
			Compress:   getEnvBool("LOG_COMPRESS", true),
		},
		Version: util.TrimSpace(getEnv("APP_VERSION", "1.0.0")),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate: 필수 설정값이 누락되지 않았는지 검증한다.
// 자격 증명 누락은 치명적이지 않으므로 여기서 다루지 않고 CredentialHealth로 보고한다.
func (c *Config) Validate() error {
	if c.Server.Port == 0 {
		return fmt.Errorf("SERVER_PORT is required")
	}
	if c.Search.DefaultRadiusMeters <= 0 || c.Search.MaxRadiusMeters < c.Search.DefaultRadiusMeters {
		return fmt.Errorf("invalid search radius config: default=%d max=%d",
			c.Search.DefaultRadiusMeters, c.Search.MaxRadiusMeters)
	}
	return nil
}

// CredentialHealth: 외부 제공자 자격 증명의 구성 상태 보고서
// 키가 없는 제공자는 런타임에 폴백 경로로 우회하므로, 부팅 시 한 번만 점검해 경고한다.
type CredentialHealth struct {
	NaverSearch  bool // 지역 검색 사용 가능 여부
	NaverGeocode bool // 네이버 지오코딩 사용 가능 여부 (false면 Nominatim 전용)
	Kakao        bool // 카카오 키워드 검색 사용 가능 여부
}

// Missing: 누락된 자격 증명 항목 이름 목록을 반환한다.
func (h CredentialHealth) Missing() []string {
	missing := make([]string, 0, 3)
	if !h.NaverSearch {
		missing = append(missing, "NAVER_CLIENT_ID/NAVER_CLIENT_SECRET")
	}
	if !h.NaverGeocode {
		missing = append(missing, "NAVER_CLOUD_ID/NAVER_CLOUD_SECRET")
	}
	if !h.Kakao {
		missing = append(missing, "KAKAO_API_KEY")
	}
	return missing
}

// CheckCredentials: 자격 증명 구성 상태를 평가한다. 프로세스 진입점에서 한 번 호출한다.
func (c *Config) CheckCredentials() CredentialHealth {
	return CredentialHealth{
		NaverSearch:  c.Naver.ClientID != "" && c.Naver.ClientSecret != "",
		NaverGeocode: c.Naver.CloudID != "" && c.Naver.CloudSecret != "",
		Kakao:        c.Kakao.APIKey != "",
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(strings.TrimSpace(value)); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
