// Package health: 서비스 상태 정보
package health

import (
	"runtime"
	"sync"
	"time"
)

var (
	startTime time.Time
	version   = "dev"
	initOnce  sync.Once

	checksMu sync.RWMutex
	checks   = map[string]Check{}
)

// Check: 의존 구성요소(데이터베이스, 캐시 등)의 도달 가능 여부 점검 함수
type Check func() bool

// RegisterCheck: 구성요소 점검을 등록한다. 같은 이름은 덮어쓴다.
func RegisterCheck(name string, fn Check) {
	checksMu.Lock()
	defer checksMu.Unlock()
	checks[name] = fn
}

// Init: 서비스 시작 시 호출 (버전 정보 설정)
func Init(v string) {
	initOnce.Do(func() {
		startTime = time.Now()
		if v != "" {
			version = v
		}
	})
}

// Response: /health 엔드포인트 표준 응답
type Response struct {
	Status     string          `json:"status"`
	Version    string          `json:"version"`
	Uptime     string          `json:"uptime"`
	Goroutines int             `json:"goroutines"`
	Components map[string]bool `json:"components,omitempty"`
}

// Get: 현재 상태 반환. 등록된 구성요소 점검이 하나라도 실패하면 degraded다.
func Get() Response {
	resp := Response{
		Status:     "ok",
		Version:    version,
		Uptime:     formatDuration(time.Since(startTime)),
		Goroutines: runtime.NumGoroutine(),
	}

	checksMu.RLock()
	defer checksMu.RUnlock()
	if len(checks) == 0 {
		return resp
	}

	resp.Components = make(map[string]bool, len(checks))
	for name, fn := range checks {
		ok := fn()
		resp.Components[name] = ok
		if !ok {
			resp.Status = "degraded"
		}
	}
	return resp
}

// GetVersion: 현재 버전 반환
func GetVersion() string {
	return version
}

// GetUptime: 현재 uptime 반환 (포맷팅된 문자열)
func GetUptime() string {
	return formatDuration(time.Since(startTime))
}

// formatDuration: Duration을 사람이 읽기 쉬운 형식으로 변환
func formatDuration(d time.Duration) string {
	return d.Round(time.Second).String()
}
