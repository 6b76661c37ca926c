package domain

// OrderSide는 주문 방향을 정의합니다
type OrderSide string

const (
	Buy  OrderSide = "BUY"
	Sell OrderSide = "SELL"
)

// Opposite는 반대 방향을 반환합니다
func (s OrderSide) Opposite() OrderSide {
	if s == Buy {
		return Sell
	}
	return Buy
}

// OrderType은 주문 유형을 정의합니다
type OrderType string

const (
	Market OrderType = "MARKET" // 시장가 주문
	Stop   OrderType = "STOP"   // 스탑 대기 주문 (방향은 OrderSide로 결정)
)

// LegStatus는 사이클 레그의 상태를 정의합니다
type LegStatus string

const (
	LegPending LegStatus = "PENDING" // 대기 주문 상태
	LegFilled  LegStatus = "FILLED"  // 체결되어 포지션이 된 상태
	LegClosed  LegStatus = "CLOSED"  // 사이클 종료로 청산된 상태
)

// Outcome은 사이클 종료 결과를 정의합니다
type Outcome string

const (
	OutcomeNone   Outcome = ""
	OutcomeProfit Outcome = "PROFIT"
	OutcomeLoss   Outcome = "LOSS"
	OutcomeError  Outcome = "ERROR"
)

// TimeInterval은 캔들 차트의 시간 간격을 정의합니다
type TimeInterval string

const (
	Interval1m  TimeInterval = "1m"
	Interval5m  TimeInterval = "5m"
	Interval15m TimeInterval = "15m"
	Interval1h  TimeInterval = "1h"
	Interval4h  TimeInterval = "4h"
	Interval1d  TimeInterval = "1d"
)

// 브리지 서버가 중계하는 MT5 거래 결과 코드입니다
const (
	RetcodeDone         = 10009 // 주문 접수 완료
	RetcodeRequote      = 10004 // 리쿼트 발생
	RetcodeInvalidStops = 10016 // 스탑 가격이 규정 거리 이내
	RetcodePriceOff     = 10015 // 제시 가격이 더 이상 유효하지 않음
	RetcodeMarketClosed = 10018 // 장 마감
)
