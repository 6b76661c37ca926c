package domain

import "time"

// SymbolRules는 심볼의 거래 제약 조건을 나타냅니다.
// StopLevel과 FreezeLevel은 포인트 수가 아니라 이미 가격 단위로 환산된 거리입니다.
type SymbolRules struct {
	Symbol      string  // 심볼 이름 (예: XAUUSD_)
	Point       float64 // 최소 가격 변동 단위 (예: 0.01)
	Digits      int     // 가격 소수점 자릿수
	VolumeMin   float64 // 최소 주문 수량
	VolumeMax   float64 // 최대 주문 수량
	VolumeStep  float64 // 수량 최소 단위
	StopLevel   float64 // 현재가로부터 스탑 주문까지의 최소 거리
	FreezeLevel float64 // 주문 수정/취소가 금지되는 가격 거리
}

// Tick은 특정 시점의 호가 정보를 나타냅니다
type Tick struct {
	Bid  float64   // 매도 호가
	Ask  float64   // 매수 호가
	Time time.Time // 서버 시간
}

// Spread는 현재 스프레드를 반환합니다
func (t Tick) Spread() float64 {
	return t.Ask - t.Bid
}
