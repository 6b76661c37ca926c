package domain

import "time"

// OrderRequest는 브리지 서버로 전달되는 주문 요청 정보를 표현합니다
type OrderRequest struct {
	Symbol         string    // 심볼 (예: XAUUSD_)
	Side           OrderSide // 매수/매도
	Type           OrderType // 주문 유형 (시장가, 스탑)
	Volume         float64   // 수량 (랏)
	Price          float64   // 트리거 가격 (스탑 주문 시)
	Deviation      int       // 허용 슬리피지 (포인트)
	PositionTicket int64     // 청산 대상 포지션 티켓 (시장가 청산 시)
	ClientOrderID  string    // 클라이언트 측 주문 ID
	Comment        string    // 주문 코멘트
	Magic          int64     // 주문 식별용 매직 넘버
}

// OrderResponse는 브리지 서버의 주문 응답을 표현합니다
type OrderResponse struct {
	Accepted bool    // 접수 여부
	RetCode  int     // MT5 거래 결과 코드
	Ticket   int64   // 생성된 주문/포지션 티켓
	Price    float64 // 체결/접수 가격
	Message  string  // 브로커 메시지
}

// PendingOrder는 대기 중인 스탑 주문을 표현합니다
type PendingOrder struct {
	Ticket int64     // 주문 티켓
	Side   OrderSide // 매수/매도
	Price  float64   // 트리거 가격
	Volume float64   // 수량
}

// Position은 체결된 포지션 정보를 표현합니다
type Position struct {
	Ticket    int64     // 포지션 티켓
	Side      OrderSide // 매수/매도
	Volume    float64   // 수량
	OpenPrice float64   // 진입가
	Profit    float64   // 현재 손익
	OpenTime  time.Time // 진입 시간
}
