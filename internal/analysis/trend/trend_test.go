package trend

import (
	"math"
	"testing"
	"time"

	"github.com/assist-by/cyclone/internal/domain"
)

// flatCandles는 고정 가격의 캔들 n개를 생성합니다
func flatCandles(n int, price float64) domain.CandleList {
	candles := make(domain.CandleList, n)
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range candles {
		candles[i] = domain.Candle{
			OpenTime: base.Add(time.Duration(i) * time.Minute),
			Open:     price,
			High:     price,
			Low:      price,
			Close:    price,
		}
	}
	return candles
}

// trendingCandles는 시작가에서 일정 폭으로 움직이는 캔들 n개를 생성합니다
func trendingCandles(n int, start, step float64) domain.CandleList {
	candles := make(domain.CandleList, n)
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range candles {
		price := start + float64(i)*step
		candles[i] = domain.Candle{
			OpenTime: base.Add(time.Duration(i) * time.Minute),
			Open:     price,
			High:     price + math.Abs(step)/2,
			Low:      price - math.Abs(step)/2,
			Close:    price,
		}
	}
	return candles
}

func TestSMA(t *testing.T) {
	closes := []float64{1, 2, 3, 4, 5}

	got, err := SMA(closes, 3)
	if err != nil {
		t.Fatalf("예상치 못한 에러: %v", err)
	}
	if math.Abs(got-4.0) > 1e-9 {
		t.Errorf("SMA(3) = %v, want 4.0", got)
	}

	if _, err := SMA(closes, 10); err == nil {
		t.Error("데이터 부족 시 에러가 발생해야 함")
	}
}

func TestATR(t *testing.T) {
	// 고저폭 1.0, 갭 없는 캔들이면 ATR은 정확히 1.0
	candles := make(domain.CandleList, 20)
	for i := range candles {
		candles[i] = domain.Candle{Open: 100, High: 100.5, Low: 99.5, Close: 100}
	}

	got, err := ATR(candles, 14)
	if err != nil {
		t.Fatalf("예상치 못한 에러: %v", err)
	}
	if math.Abs(got-1.0) > 1e-9 {
		t.Errorf("ATR = %v, want 1.0", got)
	}
}

func TestPredict(t *testing.T) {
	cfg := Config{FastPeriod: 5, SlowPeriod: 10, ATRPeriod: 3, VolatilityLimit: 100}

	tests := []struct {
		name    string
		candles domain.CandleList
		cfg     Config
		want    Direction
	}{
		{
			name:    "상승 추세면 BUY 선행",
			candles: trendingCandles(30, 2000, 1.0),
			cfg:     cfg,
			want:    BuyOnly,
		},
		{
			name:    "하락 추세면 SELL 선행",
			candles: trendingCandles(30, 2000, -1.0),
			cfg:     cfg,
			want:    SellOnly,
		},
		{
			name:    "횡보면 교대 모드",
			candles: flatCandles(30, 2000),
			cfg:     cfg,
			want:    Alternate,
		},
		{
			name:    "변동성 과다면 진입 보류",
			candles: trendingCandles(30, 2000, 5.0),
			cfg:     Config{FastPeriod: 5, SlowPeriod: 10, ATRPeriod: 3, VolatilityLimit: 0.1},
			want:    Wait,
		},
		{
			name:    "데이터 부족이면 교대 모드로 폴백",
			candles: flatCandles(5, 2000),
			cfg:     cfg,
			want:    Alternate,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Predict(tt.candles, tt.cfg); got != tt.want {
				t.Errorf("Predict() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDirectionFirstSide(t *testing.T) {
	if got := BuyOnly.FirstSide(); got != domain.Buy {
		t.Errorf("BuyOnly.FirstSide() = %v, want BUY", got)
	}
	if got := SellOnly.FirstSide(); got != domain.Sell {
		t.Errorf("SellOnly.FirstSide() = %v, want SELL", got)
	}
	if got := Alternate.FirstSide(); got != domain.Buy {
		t.Errorf("Alternate.FirstSide() = %v, want BUY", got)
	}
}
