package gateway

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/assist-by/cyclone/internal/metrics"
)

// RetryPolicy는 브로커 호출의 재시도 정책을 정의합니다.
// MaxAttempts가 0 이하면 성공할 때까지 무한 재시도합니다 (감독하에 운영할 때만 적합).
type RetryPolicy struct {
	MaxAttempts int           // 최대 시도 횟수 (0 이하: 무한)
	BaseDelay   time.Duration // 기본 대기 시간
	MaxDelay    time.Duration // 최대 대기 시간
	Factor      float64       // 대기 시간 증가 계수 (1.0이면 고정 간격)
}

// Unbounded는 무한 재시도 정책인지 반환합니다
func (p RetryPolicy) Unbounded() bool {
	return p.MaxAttempts <= 0
}

// IsRetryableError는 재시도로 복구할 가능성이 있는 에러인지 판단합니다.
// 정규화 이후에도 제약을 벗어난 주문은 재시도해도 같은 결과이므로 바로 실패 처리합니다.
func IsRetryableError(err error) bool {
	return !errors.Is(err, ErrValidation)
}

// Do는 fn을 정책에 따라 재시도하며 실행합니다.
// 각 재시도는 시도 횟수와 함께 로그로 남깁니다.
func (p RetryPolicy) Do(ctx context.Context, operation string, fn func() error) error {
	delay := p.BaseDelay
	if delay <= 0 {
		delay = time.Second
	}

	var lastErr error
	for attempt := 1; ; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		if !IsRetryableError(err) {
			log.Printf("%s 실패 (재시도 불필요): %v", operation, err)
			return err
		}

		if !p.Unbounded() && attempt >= p.MaxAttempts {
			return fmt.Errorf("%s %w (시도 %d회): %v", operation, ErrRetryExceeded, attempt, lastErr)
		}

		if p.Unbounded() {
			log.Printf("%s 실패 (attempt %d): %v", operation, attempt, err)
		} else {
			log.Printf("%s 실패 (attempt %d/%d): %v", operation, attempt, p.MaxAttempts, err)
		}
		metrics.ObserveRetry(operation)

		// 다음 재시도 전 대기
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
			if p.Factor > 1 {
				delay = time.Duration(float64(delay) * p.Factor)
				if p.MaxDelay > 0 && delay > p.MaxDelay {
					delay = p.MaxDelay
				}
			}
		}
	}
}
