package pricing

import (
	"math"

	"github.com/assist-by/cyclone/internal/domain"
)

// safetyBufferPoints는 스탑 가격을 브로커 최소 거리보다 얼마나 더 띄울지를 정합니다.
// 정규화와 주문 전송 사이의 가격 변동에 대한 여유분입니다.
const safetyBufferPoints = 3

// NormalizeVolume은 요청 수량을 브로커 제약에 맞게 보정합니다.
// 최소 수량으로부터 VolumeStep의 배수로 양자화한 뒤 (가장 가까운 배수로 반올림,
// 0.5는 0에서 먼 쪽으로), [VolumeMin, VolumeMax] 범위로 클램프합니다.
// 같은 값을 다시 넣어도 결과가 변하지 않습니다.
func NormalizeVolume(rules *domain.SymbolRules, volume float64) float64 {
	if volume <= rules.VolumeMin {
		return rules.VolumeMin
	}

	steps := math.Round((volume - rules.VolumeMin) / rules.VolumeStep)
	normalized := rules.VolumeMin + steps*rules.VolumeStep

	if normalized > rules.VolumeMax {
		normalized = rules.VolumeMax
	}
	if normalized < rules.VolumeMin {
		normalized = rules.VolumeMin
	}

	// 부동소수점 누적 오차 제거 (0.060000000000000005 같은 값 방지)
	return math.Round(normalized*1e8) / 1e8
}

// RoundPrice는 가격을 심볼의 소수점 자릿수로 반올림합니다
func RoundPrice(rules *domain.SymbolRules, price float64) float64 {
	scale := math.Pow(10, float64(rules.Digits))
	return math.Round(price*scale) / scale
}

// NormalizePrice는 스탑 주문의 트리거 가격을 브로커 최소 거리 규정에 맞게 보정합니다.
// BUY 스탑은 매수 호가 위로, SELL 스탑은 매도 호가 아래로 스탑/프리즈 레벨과
// 스프레드, 안전 버퍼만큼 밀어냅니다. 반환 가격은 계산 시점의 호가 기준으로
// 항상 규정 거리를 만족합니다.
func NormalizePrice(rules *domain.SymbolRules, side domain.OrderSide, requested float64, tick *domain.Tick) float64 {
	buffer := safetyBufferPoints * rules.Point
	margin := rules.StopLevel + rules.FreezeLevel + tick.Spread() + buffer

	var price float64
	if side == domain.Buy {
		minPrice := tick.Ask + margin
		price = math.Max(requested, minPrice)
	} else {
		maxPrice := tick.Bid - margin
		price = math.Min(requested, maxPrice)
	}

	price = RoundPrice(rules, price)

	// 반올림이 거리를 다시 깎아먹는 경우에 대한 최종 재확인
	if side == domain.Buy && price <= tick.Ask+rules.StopLevel+rules.FreezeLevel {
		price = RoundPrice(rules, tick.Ask+margin)
	}
	if side == domain.Sell && price >= tick.Bid-rules.StopLevel-rules.FreezeLevel {
		price = RoundPrice(rules, tick.Bid-margin)
	}

	return price
}

// MinStopDistance는 현재 호가 기준으로 스탑 주문이 지켜야 하는 최소 거리를 반환합니다
func MinStopDistance(rules *domain.SymbolRules, tick *domain.Tick) float64 {
	return rules.StopLevel + rules.FreezeLevel + tick.Spread() + safetyBufferPoints*rules.Point
}
