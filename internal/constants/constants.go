package constants

import "time"

// NaverSearchConfig 는 네이버 지역 검색 API 설정이다.
var NaverSearchConfig = struct {
	BaseURL          string
	PageSize         int
	MaxPageSteps     int
	MaxQueryVariants int
	Timeout          time.Duration
}{
	BaseURL:          "https://openapi.naver.com/v1/search/local.json",
	PageSize:         5,
	MaxPageSteps:     20, // 5 * 20 = 쿼리당 최대 100건
	MaxQueryVariants: 8,
	Timeout:          7 * time.Second,
}

// NaverGeocodeConfig 는 네이버 클라우드 지오코딩 API 설정이다.
// 동일 서비스를 서빙하는 게이트웨이 호스트가 여러 개라 순서대로 시도한다.
var NaverGeocodeConfig = struct {
	ReverseURLs []string
	ForwardURLs []string
	Timeout     time.Duration
}{
	ReverseURLs: []string{
		"https://maps.apigw.ntruss.com/map-reversegeocode/v2/gc",
		"https://naveropenapi.apigw.ntruss.com/map-reversegeocode/v2/gc",
	},
	ForwardURLs: []string{
		"https://maps.apigw.ntruss.com/map-geocode/v2/geocode",
		"https://naveropenapi.apigw.ntruss.com/map-geocode/v2/geocode",
		"https://naveropenapi.apigw.ntruss.com/map-geocoding/v2/geocode",
	},
	Timeout: 10 * time.Second,
}

// NominatimConfig 는 OSM Nominatim 폴백 지오코딩 설정이다.
// Nominatim은 식별 가능한 User-Agent를 요구한다.
var NominatimConfig = struct {
	ReverseURL string
	SearchURL  string
	UserAgent  string
	Timeout    time.Duration
}{
	ReverseURL: "https://nominatim.openstreetmap.org/reverse",
	SearchURL:  "https://nominatim.openstreetmap.org/search",
	UserAgent:  "FoodFinder/1.0 (dev_test)",
	Timeout:    15 * time.Second,
}

// KakaoSearchConfig 는 카카오 로컬 키워드 검색 API 설정이다.
var KakaoSearchConfig = struct {
	BaseURL           string
	CategoryGroupCode string
	PageSize          int
	Timeout           time.Duration
}{
	BaseURL:           "https://dapi.kakao.com/v2/local/search/keyword.json",
	CategoryGroupCode: "FD6", // 음식점
	PageSize:          5,
	Timeout:           5 * time.Second,
}

// PlaceCrawlConfig 는 네이버 플레이스 크롤러 설정이다.
var PlaceCrawlConfig = struct {
	MenuURLTemplate    string
	HomeURLTemplate    string
	SearchURLTemplates []string
	UserAgent          string
	AcceptLanguage     string
	Timeout            time.Duration
	RequestInterval    time.Duration
	MaxLookupQueries   int
	MaxMenuItems       int
	RepresentativeTop  int
	MaxPriceWon        int
	MaxNameRunes       int
}{
	MenuURLTemplate: "https://pcmap.place.naver.com/restaurant/%s/menu",
	HomeURLTemplate: "https://pcmap.place.naver.com/restaurant/%s/home",
	SearchURLTemplates: []string{
		"https://map.naver.com/v5/search/%s",
		"https://m.map.naver.com/search2/search.naver?query=%s",
	},
	UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
		"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	AcceptLanguage:    "ko-KR,ko;q=0.9,en-US;q=0.8,en;q=0.7",
	Timeout:           10 * time.Second,
	RequestInterval:   400 * time.Millisecond,
	MaxLookupQueries:  4,
	MaxMenuItems:      30,
	RepresentativeTop: 2,
	MaxPriceWon:       500000,
	MaxNameRunes:      100,
}

// SearchDefaults 는 맛집 검색 기본값이다.
var SearchDefaults = struct {
	Query             string
	RadiusMeters      int
	MaxRadiusMeters   int
	DisplayLimit      int
	EnrichConcurrency int
}{
	Query:             "음식점",
	RadiusMeters:      1000,
	MaxRadiusMeters:   5000,
	DisplayLimit:      20,
	EnrichConcurrency: 6,
}

// MenuCacheConfig 는 메뉴 캐시 신선도/보수 작업 설정이다.
var MenuCacheConfig = struct {
	FreshnessWindow time.Duration
	RepairScanLimit int
	BootRepairLimit int
	BootRepairDelay time.Duration
}{
	FreshnessWindow: 24 * time.Hour,
	RepairScanLimit: 500,
	BootRepairLimit: 200,
	BootRepairDelay: 5 * time.Second,
}

// CacheTTL 는 Valkey 캐시 TTL 설정이다.
var CacheTTL = struct {
	GeocodeResult time.Duration
	SearchPage    time.Duration
	CrawlCooldown time.Duration
	PlaceID       time.Duration
}{
	GeocodeResult: 6 * time.Hour,
	SearchPage:    10 * time.Minute,
	CrawlCooldown: 1 * time.Hour,
	PlaceID:       24 * time.Hour,
}

// ValkeyConfig 는 패키지 변수다.
var ValkeyConfig = struct {
	ReadyTimeout      time.Duration
	ConnWriteTimeout  time.Duration
	DialTimeout       time.Duration
	BlockingPoolSize  int
	PipelineMultiplex int
}{
	ReadyTimeout:      5 * time.Second,
	ConnWriteTimeout:  3 * time.Second,
	DialTimeout:       5 * time.Second,
	BlockingPoolSize:  100,
	PipelineMultiplex: 4,
}

// DatabaseConfig 는 PostgreSQL 연결 풀 설정이다.
var DatabaseConfig = struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}{
	MaxOpenConns:    25,
	MaxIdleConns:    5,
	ConnMaxLifetime: 30 * time.Minute,
}

// DatabaseDefaults 는 패키지 변수다.
var DatabaseDefaults = struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
}{
	Host:     "localhost",
	Port:     5432,
	User:     "foodfinder",
	Password: "foodfinder",
	Database: "foodfinder",
}

// RequestTimeout 는 요청 단위 타임아웃 설정이다.
var RequestTimeout = struct {
	Search       time.Duration
	Geocode      time.Duration
	Menu         time.Duration
	DatabasePing time.Duration
	APIRequest   time.Duration
}{
	Search:       45 * time.Second,
	Geocode:      20 * time.Second,
	Menu:         30 * time.Second,
	DatabasePing: 5 * time.Second,
	APIRequest:   60 * time.Second,
}

// AppTimeout 는 앱 빌드/종료 타임아웃 설정이다.
var AppTimeout = struct {
	Build    time.Duration
	Shutdown time.Duration
}{
	Build:    30 * time.Second,
	Shutdown: 10 * time.Second,
}

// ServerTimeout 는 HTTP 서버 타임아웃이다.
var ServerTimeout = struct {
	ReadHeader time.Duration
	Read       time.Duration
	Write      time.Duration
	Idle       time.Duration
}{
	ReadHeader: 5 * time.Second,
	Read:       30 * time.Second,
	Write:      60 * time.Second,
	Idle:       60 * time.Second,
}

// ServerConfig 는 서버 기본 설정이다.
var ServerConfig = struct {
	TrustedProxies []string
}{
	TrustedProxies: []string{"127.0.0.1", "::1"},
}

// CORSConfig 는 CORS 기본 설정이다.
var CORSConfig = struct {
	AllowOrigins []string
	AllowMethods []string
	AllowHeaders []string
}{
	AllowOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
	AllowMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
	AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization"},
}
