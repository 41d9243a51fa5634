// Package strategy: 우선순위가 있는 전략 목록을 순서대로 시도하고
// 첫 번째 유효 결과에서 멈추는 공통 패턴을 제공한다.
// 지오코딩 제공자 체인, 크롤러 추출 전략, 플레이스 ID 탐색이 모두 이 패턴을 공유한다.
package strategy

import "context"

// Func: 단일 전략. 결과와 함께 유효 여부를 반환한다.
// 실패(false)는 다음 전략으로 넘어가라는 신호일 뿐 에러가 아니다.
type Func[I, O any] func(ctx context.Context, in I) (O, bool)

// First: 전략들을 우선순위 순서대로 시도해 첫 번째 유효 결과를 반환한다.
// 컨텍스트가 취소되면 즉시 중단한다.
func First[I, O any](ctx context.Context, in I, funcs ...Func[I, O]) (O, bool) {
	var zero O
	for _, fn := range funcs {
		if ctx.Err() != nil {
			return zero, false
		}
		if out, ok := fn(ctx, in); ok {
			return out, true
		}
	}
	return zero, false
}

// Collect: 모든 전략을 실행해 유효 결과를 전부 모은다.
// 크롤러처럼 여러 전략의 산출물을 병합해야 할 때 사용한다.
func Collect[I, O any](ctx context.Context, in I, funcs ...Func[I, []O]) []O {
	merged := make([]O, 0)
	for _, fn := range funcs {
		if ctx.Err() != nil {
			break
		}
		if out, ok := fn(ctx, in); ok {
			merged = append(merged, out...)
		}
	}
	return merged
}
