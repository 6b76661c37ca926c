package sequence

import (
	"math"
	"testing"

	"github.com/assist-by/cyclone/internal/domain"
)

func testRules() *domain.SymbolRules {
	return &domain.SymbolRules{
		Symbol:     "XAUUSD_",
		Point:      0.01,
		Digits:     2,
		VolumeMin:  0.01,
		VolumeMax:  10.0,
		VolumeStep: 0.01,
	}
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}

func TestFormula25(t *testing.T) {
	seq, err := DefaultRegistry().Create("formula25", Config{
		Rules:      testRules(),
		Multiplier: 75,
	})
	if err != nil {
		t.Fatalf("수열 생성 실패: %v", err)
	}

	// 수량은 0.01씩 증가, 목표는 수량×75의 누적 합
	wants := []Step{
		{Volume: 0.01, Target: 0.75},
		{Volume: 0.02, Target: 2.25},
		{Volume: 0.03, Target: 4.50},
		{Volume: 0.04, Target: 7.50},
	}
	for i, want := range wants {
		got := seq.Next()
		if !almostEqual(got.Volume, want.Volume) || !almostEqual(got.Target, want.Target) {
			t.Errorf("Next() #%d = %+v, want %+v", i+1, got, want)
		}
	}
}

// TestFormula25Restart는 Reset 후 동일한 수열이 재생되는지 검증합니다
func TestFormula25Restart(t *testing.T) {
	seq, _ := DefaultRegistry().Create("formula25", Config{
		Rules:      testRules(),
		Multiplier: 25,
	})

	var first []Step
	for i := 0; i < 10; i++ {
		first = append(first, seq.Next())
	}

	seq.Reset()
	for i := 0; i < 10; i++ {
		got := seq.Next()
		if got != first[i] {
			t.Fatalf("Reset 후 #%d 스텝 불일치: %+v != %+v", i+1, got, first[i])
		}
	}
}

// TestAscendingMonotonic은 등차 정책의 수량이 감소하지 않음을 검증합니다
func TestAscendingMonotonic(t *testing.T) {
	for _, policy := range []string{"ascending", "even", "odd", "mega", "formula25"} {
		t.Run(policy, func(t *testing.T) {
			seq, err := DefaultRegistry().Create(policy, Config{
				Rules:      testRules(),
				Multiplier: 25,
			})
			if err != nil {
				t.Fatalf("수열 생성 실패: %v", err)
			}

			prev := 0.0
			for i := 0; i < 200; i++ {
				step := seq.Next()
				if step.Volume < prev {
					t.Fatalf("#%d에서 수량 감소: %v < %v", i+1, step.Volume, prev)
				}
				if step.Volume < testRules().VolumeMin || step.Volume > testRules().VolumeMax {
					t.Fatalf("#%d에서 수량 범위 위반: %v", i+1, step.Volume)
				}
				prev = step.Volume
			}
		})
	}
}

// TestPatternPeriod는 고정 패턴이 주기대로 반복되는지 검증합니다
func TestPatternPeriod(t *testing.T) {
	seq, err := DefaultRegistry().Create("pattern", Config{
		Rules:       testRules(),
		BaseVolume:  0.02,
		FixedTarget: 300,
	})
	if err != nil {
		t.Fatalf("수열 생성 실패: %v", err)
	}

	period := len(patternMultipliers)
	var firstCycle []Step
	for i := 0; i < period; i++ {
		firstCycle = append(firstCycle, seq.Next())
	}

	// 두 번째 주기는 첫 번째와 동일해야 함
	for i := 0; i < period; i++ {
		got := seq.Next()
		if got != firstCycle[i] {
			t.Errorf("주기 반복 위반 #%d: %+v != %+v", i+1, got, firstCycle[i])
		}
		if !almostEqual(got.Target, 300) {
			t.Errorf("고정 목표 위반 #%d: %v", i+1, got.Target)
		}
	}
}

// TestVolumeClampAtMax는 최대 수량 도달 시 수열이 최대치에 고정되는지 검증합니다
func TestVolumeClampAtMax(t *testing.T) {
	rules := testRules()
	rules.VolumeMax = 0.05

	seq, _ := DefaultRegistry().Create("formula25", Config{
		Rules:      rules,
		Multiplier: 25,
	})

	var last Step
	for i := 0; i < 20; i++ {
		last = seq.Next()
	}
	if !almostEqual(last.Volume, 0.05) {
		t.Errorf("최대치 고정 실패: %v, want 0.05", last.Volume)
	}
}

func TestRegistryUnknownPolicy(t *testing.T) {
	_, err := DefaultRegistry().Create("없는정책", Config{Rules: testRules()})
	if err == nil {
		t.Error("존재하지 않는 정책에 대해 에러가 없음")
	}
}
