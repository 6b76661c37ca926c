package domain

// AccountSnapshot은 계정 상태의 순간 스냅샷을 표현합니다
type AccountSnapshot struct {
	Balance float64 // 잔고
	Equity  float64 // 평가 잔고
	Profit  float64 // 전체 포지션의 미실현 손익
}
