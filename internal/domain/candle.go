package domain

import "time"

// Candle은 캔들 데이터를 표현합니다
type Candle struct {
	OpenTime  time.Time    // 캔들 시작 시간
	CloseTime time.Time    // 캔들 종료 시간
	Open      float64      // 시가
	High      float64      // 고가
	Low       float64      // 저가
	Close     float64      // 종가
	Volume    float64      // 거래량
	Symbol    string       // 심볼 (예: XAUUSD_)
	Interval  TimeInterval // 시간 간격 (예: 15m, 1h)
}

// CandleList는 캔들 데이터 목록입니다
type CandleList []Candle

// GetLastCandle은 가장 최근 캔들을 반환합니다
func (cl CandleList) GetLastCandle() (Candle, bool) {
	if len(cl) == 0 {
		return Candle{}, false
	}
	return cl[len(cl)-1], true
}

// Closes는 종가 목록을 반환합니다
func (cl CandleList) Closes() []float64 {
	closes := make([]float64, len(cl))
	for i, c := range cl {
		closes[i] = c.Close
	}
	return closes
}
