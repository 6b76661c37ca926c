// internal/analysis/trend/trend.go
package trend

import (
	"fmt"
	"log"
	"math"

	"github.com/assist-by/cyclone/internal/domain"
)

// Direction은 시장 분석으로 결정된 첫 레그 방향을 정의합니다
type Direction int

const (
	Alternate Direction = iota // 횡보: 기본 BUY 선행 교대 사이클
	BuyOnly                    // 상승 추세: BUY 선행
	SellOnly                   // 하락 추세: SELL 선행
	Wait                       // 변동성 과다: 진입 보류
)

// String은 Direction의 문자열 표현을 반환합니다
func (d Direction) String() string {
	switch d {
	case BuyOnly:
		return "BuyOnly"
	case SellOnly:
		return "SellOnly"
	case Wait:
		return "Wait"
	default:
		return "Alternate"
	}
}

// FirstSide는 방향에 따른 첫 레그의 주문 방향을 반환합니다
func (d Direction) FirstSide() domain.OrderSide {
	if d == SellOnly {
		return domain.Sell
	}
	return domain.Buy
}

// Config는 추세 분석 설정을 정의합니다
type Config struct {
	FastPeriod      int     // 단기 이동평균 기간
	SlowPeriod      int     // 장기 이동평균 기간
	ATRPeriod       int     // ATR 기간
	VolatilityLimit float64 // 이 값을 넘는 ATR이면 진입 보류
}

// DefaultConfig는 기본 추세 분석 설정을 반환합니다
func DefaultConfig(volatilityLimit float64) Config {
	return Config{
		FastPeriod:      50,
		SlowPeriod:      200,
		ATRPeriod:       14,
		VolatilityLimit: volatilityLimit,
	}
}

// SMA는 마지막 period개 종가의 단순이동평균을 계산합니다
func SMA(closes []float64, period int) (float64, error) {
	if period < 1 {
		return 0, fmt.Errorf("기간은 1 이상이어야 합니다: %d", period)
	}
	if len(closes) < period {
		return 0, fmt.Errorf("가격 데이터가 부족합니다. 필요: %d, 현재: %d", period, len(closes))
	}

	var sum float64
	for _, c := range closes[len(closes)-period:] {
		sum += c
	}
	return sum / float64(period), nil
}

// ATR은 평균 실질 변동폭을 계산합니다.
// TR = max(고가-저가, |고가-전종가|, |저가-전종가|)의 마지막 period개 평균입니다.
func ATR(candles domain.CandleList, period int) (float64, error) {
	if period < 1 {
		return 0, fmt.Errorf("기간은 1 이상이어야 합니다: %d", period)
	}
	if len(candles) < period+1 {
		return 0, fmt.Errorf("캔들 데이터가 부족합니다. 필요: %d, 현재: %d", period+1, len(candles))
	}

	trs := make([]float64, 0, len(candles)-1)
	for i := 1; i < len(candles); i++ {
		tr := math.Max(candles[i].High-candles[i].Low,
			math.Max(
				math.Abs(candles[i].High-candles[i-1].Close),
				math.Abs(candles[i].Low-candles[i-1].Close),
			))
		trs = append(trs, tr)
	}

	var sum float64
	for _, tr := range trs[len(trs)-period:] {
		sum += tr
	}
	return sum / float64(period), nil
}

// Predict는 이동평균 교차와 ATR로 첫 레그 방향을 결정합니다.
// 데이터가 부족하면 교대 사이클로 폴백합니다.
func Predict(candles domain.CandleList, cfg Config) Direction {
	closes := candles.Closes()

	fast, errFast := SMA(closes, cfg.FastPeriod)
	slow, errSlow := SMA(closes, cfg.SlowPeriod)
	atr, errATR := ATR(candles, cfg.ATRPeriod)

	if errFast != nil || errSlow != nil || errATR != nil {
		log.Printf("⚠️ 추세 분석에 필요한 데이터가 부족하여 교대 모드로 진행합니다")
		return Alternate
	}

	log.Printf("📊 시장 분석: MA%d=%.4f, MA%d=%.4f, ATR=%.4f",
		cfg.FastPeriod, fast, cfg.SlowPeriod, slow, atr)

	if cfg.VolatilityLimit > 0 && atr > cfg.VolatilityLimit {
		log.Printf("🚨 변동성 과다 (ATR %.4f > %.4f) → 진입 보류", atr, cfg.VolatilityLimit)
		return Wait
	}

	switch {
	case fast > slow:
		log.Printf("📈 상승 추세 감지 → BUY 선행")
		return BuyOnly
	case fast < slow:
		log.Printf("📉 하락 추세 감지 → SELL 선행")
		return SellOnly
	default:
		log.Printf("⚖️ 횡보 → 교대 모드")
		return Alternate
	}
}
