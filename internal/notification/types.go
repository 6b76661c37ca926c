package notification

import (
	"time"

	"github.com/assist-by/cyclone/internal/domain"
)

// 알림 색상 코드입니다
const (
	ColorSuccess = 0x00FF00 // 녹색
	ColorError   = 0xFF0000 // 빨간색
	ColorInfo    = 0x0000FF // 파란색
	ColorWarning = 0xFFA500 // 주황색
)

// TriggerInfo는 레그 트리거/주문 접수 알림 정보를 정의합니다
type TriggerInfo struct {
	Symbol  string           // 심볼 (예: XAUUSD_)
	Side    domain.OrderSide // 매수/매도
	Volume  float64          // 주문 수량
	Price   float64          // 접수 가격
	Target  float64          // 목표 수익
	Trigger int              // 트리거 순번
}

// CycleSummary는 사이클 종료 알림 정보를 정의합니다
type CycleSummary struct {
	Symbol      string         // 심볼
	Outcome     domain.Outcome // 종료 결과
	Profit      float64        // 기준점 대비 상대 손익
	Triggers    int            // 트리거된 레그 수
	TotalVolume float64        // 총 주문 수량
	Elapsed     time.Duration  // 사이클 소요 시간
}

// Notifier는 알림 전송 인터페이스를 정의합니다
type Notifier interface {
	// SendInfo는 일반 정보 알림을 전송합니다
	SendInfo(message string) error

	// SendError는 에러 알림을 전송합니다
	SendError(err error) error

	// SendTrigger는 레그 트리거/주문 접수 알림을 전송합니다
	SendTrigger(info TriggerInfo) error

	// SendCycleSummary는 사이클 종료 요약을 전송합니다
	SendCycleSummary(summary CycleSummary) error
}

// GetColorForOutcome은 사이클 결과에 따른 알림 색상을 반환합니다
func GetColorForOutcome(outcome domain.Outcome) int {
	switch outcome {
	case domain.OutcomeProfit:
		return ColorSuccess
	case domain.OutcomeLoss:
		return ColorError
	default:
		return ColorWarning
	}
}
