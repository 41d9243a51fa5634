// Package errors: FoodFinder 서비스 전체에서 사용되는 에러 타입들을 정의한다.
// 표준 Go 에러 스타일(Unwrap 지원)을 따른다.
package errors

import "fmt"

// UpstreamError: 외부 제공자 호출 중 발생한 에러 (네이버 지도, Nominatim, 크롤링 대상 등)
// StatusCode가 0이면 전송/타임아웃 오류, 그 외에는 non-2xx 응답을 의미한다.
type UpstreamError struct {
	Provider   string // 제공자 이름 (naver-search, naver-geocode, nominatim, naver-place 등)
	Operation  string // 수행 중이던 작업
	StatusCode int    // HTTP 상태 코드 (0이면 네트워크 오류)
	Err        error  // 원인 에러
}

func (e UpstreamError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("upstream error provider=%s operation=%s status=%d", e.Provider, e.Operation, e.StatusCode)
	}
	return fmt.Sprintf("upstream error provider=%s operation=%s status=%d: %v", e.Provider, e.Operation, e.StatusCode, e.Err)
}

func (e UpstreamError) Unwrap() error { return e.Err }

// Unavailable: 전송 계층 오류(타임아웃 포함)인지 여부를 반환한다.
func (e UpstreamError) Unavailable() bool { return e.StatusCode == 0 }

// NewUpstreamError: 업스트림 에러를 생성한다.
func NewUpstreamError(provider, operation string, statusCode int, cause error) *UpstreamError {
	return &UpstreamError{
		Provider:   provider,
		Operation:  operation,
		StatusCode: statusCode,
		Err:        cause,
	}
}

// ParseError: 업스트림 응답의 형태가 기대와 달라 해석에 실패했을 때 발생하는 에러
type ParseError struct {
	Provider string
	Detail   string
	Err      error
}

func (e ParseError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("parse error provider=%s: %s", e.Provider, e.Detail)
	}
	return fmt.Sprintf("parse error provider=%s: %s: %v", e.Provider, e.Detail, e.Err)
}

func (e ParseError) Unwrap() error { return e.Err }

// NewParseError: 파싱 에러를 생성한다.
func NewParseError(provider, detail string, cause error) *ParseError {
	return &ParseError{Provider: provider, Detail: detail, Err: cause}
}

// CacheError: 캐시 작업 중 발생한 에러
type CacheError struct {
	Message   string // 상황 설명
	Operation string // get, set, delete 등
	Key       string // 캐시 키
	Err       error  // 원인 에러
}

func (e CacheError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = "cache error"
	}
	if e.Err == nil {
		return fmt.Sprintf("%s operation=%s key=%s", msg, e.Operation, e.Key)
	}
	return fmt.Sprintf("%s operation=%s key=%s: %v", msg, e.Operation, e.Key, e.Err)
}

func (e CacheError) Unwrap() error { return e.Err }

// NewCacheError: 캐시 에러를 생성한다.
func NewCacheError(message, operation, key string, cause error) *CacheError {
	return &CacheError{
		Message:   message,
		Operation: operation,
		Key:       key,
		Err:       cause,
	}
}

// ConfigError: 필수 자격 증명 등 설정값이 누락되었을 때 발생하는 에러
type ConfigError struct {
	Field   string
	Message string
}

func (e ConfigError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("config error field=%s: %s", e.Field, e.Message)
}

// NewConfigError: 설정 에러를 생성한다.
func NewConfigError(field, message string) *ConfigError {
	return &ConfigError{Field: field, Message: message}
}

// ValidationError: 입력 검증 실패 에러
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("validation error field=%s: %s", e.Field, e.Message)
}

// NewValidationError: 검증 에러를 생성한다.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// ServiceError: 내부 서비스 로직 에러
type ServiceError struct {
	Service   string // 서비스 이름
	Operation string // 작업 이름
	Err       error  // 원인 에러
}

func (e ServiceError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("service error service=%s operation=%s", e.Service, e.Operation)
	}
	return fmt.Sprintf("service error service=%s operation=%s: %v", e.Service, e.Operation, e.Err)
}

func (e ServiceError) Unwrap() error { return e.Err }

// NewServiceError: 서비스 에러를 생성한다.
func NewServiceError(service, operation string, cause error) *ServiceError {
	return &ServiceError{
		Service:   service,
		Operation: operation,
		Err:       cause,
	}
}
