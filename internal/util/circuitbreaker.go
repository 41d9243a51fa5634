package util

import (
	"log/slog"
	"sync"
	"time"
)

// CircuitState: 차단기 상태
type CircuitState string

// CircuitState 상수 목록.
const (
	// CircuitClosed: 정상 (요청 허용)
	CircuitClosed CircuitState = "closed"
	// CircuitOpen: 연속 실패 누적으로 차단 (요청 거부)
	CircuitOpen CircuitState = "open"
	// CircuitHalfOpen: 회복 확인 중 (다음 요청 하나로 판정)
	CircuitHalfOpen CircuitState = "half_open"
)

// HealthCheckFunction: 차단 중 대상 호스트의 회복 여부를 확인하는 프로브
type HealthCheckFunction func() bool

// CircuitBreaker: 크롤 대상처럼 통째로 죽거나 막히는 외부 호스트 호출을 감싼다.
// 연속 실패가 임계치에 닿으면 열리고, 프로브가 있으면 프로브 통과 시,
// 없으면 재시도 시각 경과 시 반열림으로 내려와 성공 한 번으로 닫힌다.
type CircuitBreaker struct {
	mu sync.Mutex

	state        CircuitState
	failures     int
	threshold    int
	resetTimeout time.Duration
	retryAt      time.Time

	probe         HealthCheckFunction
	probeInterval time.Duration
	probeAt       time.Time
	probing       bool

	logger *slog.Logger
}

// NewCircuitBreaker: 차단기를 생성한다. probe는 nil일 수 있다.
func NewCircuitBreaker(
	threshold int,
	resetTimeout time.Duration,
	probeInterval time.Duration,
	probe HealthCheckFunction,
	logger *slog.Logger,
) *CircuitBreaker {
	return &CircuitBreaker{
		state:         CircuitClosed,
		threshold:     threshold,
		resetTimeout:  resetTimeout,
		probeInterval: probeInterval,
		probe:         probe,
		logger:        logger,
	}
}

// State: 현재 상태를 반환한다. 열린 상태라면 회복 조건도 함께 평가한다.
func (cb *CircuitBreaker) State() CircuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state == CircuitOpen {
		now := time.Now()
		switch {
		case cb.probe != nil:
			if now.After(cb.probeAt) && !cb.probing {
				cb.probing = true
				go cb.runProbe()
			}
		case now.After(cb.retryAt):
			cb.setState(CircuitHalfOpen)
		}
	}
	return cb.state
}

// CanExecute: 지금 요청을 내보내도 되는지 확인한다.
func (cb *CircuitBreaker) CanExecute() bool {
	return cb.State() != CircuitOpen
}

// RecordSuccess: 성공을 기록한다. 반열림이었다면 서킷을 닫는다.
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state == CircuitHalfOpen {
		cb.setState(CircuitClosed)
	}
	cb.failures = 0
}

// RecordFailure: 실패를 기록한다. 임계치에 닿거나 반열림 판정에 실패하면 연다.
// customTimeout이 양수면 기본 재시도 간격 대신 쓴다.
// (429 같은 명시적 차단 응답에 더 긴 간격을 주기 위한 용도)
func (cb *CircuitBreaker) RecordFailure(customTimeout time.Duration) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failures++
	if cb.state != CircuitHalfOpen && cb.failures < cb.threshold {
		return
	}

	timeout := cb.resetTimeout
	if customTimeout > 0 {
		timeout = customTimeout
	}
	now := time.Now()
	cb.retryAt = now.Add(timeout)
	if cb.probe != nil {
		cb.probeAt = now.Add(cb.probeInterval)
	}
	cb.setState(CircuitOpen)
}

// Reset: 상태를 강제로 닫힘으로 되돌린다.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failures = 0
	cb.retryAt = time.Time{}
	cb.setState(CircuitClosed)
}

// runProbe: 열린 상태에서 백그라운드로 대상 호스트를 한 번 찔러 본다.
// 통과하면 반열림으로 내려가고, 실패하면 다음 프로브를 미룬다.
func (cb *CircuitBreaker) runProbe() {
	healthy := cb.probe()

	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.probing = false
	if healthy {
		cb.setState(CircuitHalfOpen)
		return
	}
	cb.probeAt = time.Now().Add(cb.probeInterval)
}

func (cb *CircuitBreaker) setState(next CircuitState) {
	if cb.state == next {
		return
	}
	prev := cb.state
	cb.state = next

	if cb.logger != nil {
		cb.logger.Info("circuit state changed",
			slog.String("from", string(prev)),
			slog.String("to", string(next)),
			slog.Int("failures", cb.failures))
	}
}
