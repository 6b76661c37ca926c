// internal/sequence/sequence.go
package sequence

import (
	"log"
	"math"

	"github.com/assist-by/cyclone/internal/domain"
	"github.com/assist-by/cyclone/internal/pricing"
)

// Step은 사이클의 다음 레그에 사용할 수량과 목표 수익을 담습니다
type Step struct {
	Volume float64 // 정규화된 주문 수량 (랏)
	Target float64 // 이 레그가 체결됐을 때 적용할 목표 수익 ($)
}

// Sequence는 수량/목표 수익 진행을 생성합니다.
// 무한 수열이며, 시드 파라미터가 같으면 Reset 후 동일한 수열을 재생합니다.
type Sequence interface {
	// Next는 다음 (수량, 목표 수익) 쌍을 반환합니다
	Next() Step

	// Reset은 수열을 시드 상태로 되돌립니다
	Reset()

	// Name은 수열 정책의 이름을 반환합니다
	Name() string
}

// Config는 수열 생성에 필요한 설정을 정의합니다
type Config struct {
	Rules       *domain.SymbolRules // 심볼 거래 제약 (수량 정규화에 사용)
	BaseVolume  float64             // 시작 수량 (0이면 심볼 최소 수량)
	Multiplier  float64             // 25% 공식의 수익 배수 (25/75/100)
	FixedTarget float64             // 고정 패턴 정책의 레그당 목표 수익
}

// baseVolume은 시작 수량을 결정합니다
func (c Config) baseVolume() float64 {
	if c.BaseVolume > 0 {
		return c.BaseVolume
	}
	return c.Rules.VolumeMin
}

// round2는 금액 표시용 반올림입니다
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// clampVolume은 수량을 정규화하고, 최대치에 고정된 경우 이를 로그로 남깁니다.
// 수열은 소진되지 않고 최대 수량을 계속 반환합니다.
func clampVolume(rules *domain.SymbolRules, raw float64, policy string) float64 {
	vol := pricing.NormalizeVolume(rules, raw)
	if raw > rules.VolumeMax {
		log.Printf("⚠️ [%s] 요청 수량 %.2f이 브로커 최대치를 초과하여 %.2f으로 고정됩니다", policy, raw, vol)
	}
	return vol
}

// formula25는 "25% 공식" 수열입니다.
// 수량은 시작 수량에서 스텝만큼 증가하고, 목표 수익은 수량×배수의 누적 합입니다.
// 예: 최소 0.01, 배수 75 → (0.01, 0.75), (0.02, 2.25), (0.03, 4.50), ...
type formula25 struct {
	cfg Config
	n   int
	cum float64
}

func newFormula25(cfg Config) Sequence {
	return &formula25{cfg: cfg}
}

func (s *formula25) Next() Step {
	raw := s.cfg.baseVolume() + float64(s.n)*s.cfg.Rules.VolumeStep
	vol := clampVolume(s.cfg.Rules, raw, s.Name())
	s.cum += vol * s.cfg.Multiplier
	s.n++
	return Step{Volume: vol, Target: round2(s.cum)}
}

func (s *formula25) Reset() {
	s.n = 0
	s.cum = 0
}

func (s *formula25) Name() string { return "formula25" }

// arithmeticVariant는 등차 수열의 변형을 정의합니다
type arithmeticVariant int

const (
	variantAscending arithmeticVariant = iota // 0.01, 0.02, 0.03, ...
	variantEven                               // 0.02, 0.04, 0.06, ...
	variantOdd                                // 0.01, 0.03, 0.05, ...
	variantMega                               // 0.10, 0.11, 0.12, ...
)

// megaBaseVolume은 mega 변형의 시작 수량입니다
const megaBaseVolume = 0.10

// arithmetic은 등차 수량 수열과 그에 짝지어진 수익 진행을 생성합니다
type arithmetic struct {
	cfg     Config
	variant arithmeticVariant
	name    string
	n       int

	// 수익 진행 상태
	profit     float64
	profitStep float64
}

func newArithmetic(cfg Config, variant arithmeticVariant, name string) Sequence {
	s := &arithmetic{cfg: cfg, variant: variant, name: name}
	s.Reset()
	return s
}

func (s *arithmetic) Next() Step {
	s.n++
	min := s.cfg.baseVolume()
	step := s.cfg.Rules.VolumeStep

	var raw float64
	switch s.variant {
	case variantEven:
		raw = min + float64(2*s.n-1)*step
	case variantOdd:
		raw = min + float64(2*s.n-2)*step
	case variantMega:
		raw = megaBaseVolume + float64(s.n-1)*step
	default:
		raw = min + float64(s.n-1)*step
	}

	vol := clampVolume(s.cfg.Rules, raw, s.name)
	target := round2(s.profit)
	s.advanceProfit()

	return Step{Volume: vol, Target: target}
}

// advanceProfit은 변형별 수익 진행을 한 단계 전진시킵니다
func (s *arithmetic) advanceProfit() {
	switch s.variant {
	case variantEven:
		s.profit += s.profitStep
		s.profitStep += 1.0
	case variantMega:
		s.profit += 0.5
	default:
		s.profit += s.profitStep
		s.profitStep += 0.5
	}
}

func (s *arithmetic) Reset() {
	s.n = 0
	switch s.variant {
	case variantEven:
		s.profit = 1.5
		s.profitStep = 2.0
	case variantMega:
		s.profit = 3.0
		s.profitStep = 0
	default:
		s.profit = 0.5
		s.profitStep = 0.5
	}
}

func (s *arithmetic) Name() string { return s.name }

// patternMultipliers는 고정 패턴 정책의 반복 배수 목록입니다
var patternMultipliers = []int{1, 2, 2, 2, 2, 3, 4, 4, 4, 4, 5, 6, 6, 6, 6, 7, 8, 8, 8, 8}

// pattern은 시작 수량의 고정 배수 패턴을 무한 반복하며, 목표 수익은 레그마다 동일합니다
type pattern struct {
	cfg Config
	idx int
}

func newPattern(cfg Config) Sequence {
	return &pattern{cfg: cfg}
}

func (s *pattern) Next() Step {
	mult := patternMultipliers[s.idx%len(patternMultipliers)]
	s.idx++

	raw := s.cfg.baseVolume() * float64(mult)
	vol := clampVolume(s.cfg.Rules, raw, s.Name())

	return Step{Volume: vol, Target: s.cfg.FixedTarget}
}

func (s *pattern) Reset() {
	s.idx = 0
}

func (s *pattern) Name() string { return "pattern" }
