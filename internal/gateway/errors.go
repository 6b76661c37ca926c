package gateway

import "fmt"

// 주문 처리 중 발생할 수 있는 에러들을 정의합니다
var (
	ErrNoTick        = fmt.Errorf("호가 데이터를 가져올 수 없습니다")
	ErrOrderRejected = fmt.Errorf("브로커가 주문을 거부했습니다")
	ErrValidation    = fmt.Errorf("주문 값이 브로커 제약을 벗어났습니다")
	ErrRetryExceeded = fmt.Errorf("최대 재시도 횟수를 초과했습니다")
)

// GatewayError는 주문 게이트웨이 에러를 확장한 구조체입니다
type GatewayError struct {
	Symbol string
	Op     string
	Err    error
}

// Error는 error 인터페이스를 구현합니다
func (e *GatewayError) Error() string {
	if e.Symbol != "" {
		return fmt.Sprintf("게이트웨이 에러 [%s, 작업: %s]: %v", e.Symbol, e.Op, e.Err)
	}
	return fmt.Sprintf("게이트웨이 에러 [작업: %s]: %v", e.Op, e.Err)
}

// Unwrap은 내부 에러를 반환합니다 (errors.Is/As 지원을 위함)
func (e *GatewayError) Unwrap() error {
	return e.Err
}

// NewGatewayError는 새로운 GatewayError를 생성합니다
func NewGatewayError(symbol, op string, err error) *GatewayError {
	return &GatewayError{
		Symbol: symbol,
		Op:     op,
		Err:    err,
	}
}
