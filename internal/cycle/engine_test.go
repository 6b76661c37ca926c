package cycle

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/assist-by/cyclone/internal/broker/brokertest"
	"github.com/assist-by/cyclone/internal/domain"
	"github.com/assist-by/cyclone/internal/gateway"
	"github.com/assist-by/cyclone/internal/report"
	"github.com/assist-by/cyclone/internal/sequence"
)

func testRules() *domain.SymbolRules {
	return &domain.SymbolRules{
		Symbol:      "XAUUSD_",
		Point:       0.01,
		Digits:      2,
		VolumeMin:   0.01,
		VolumeMax:   10.0,
		VolumeStep:  0.01,
		StopLevel:   0.30,
		FreezeLevel: 0.10,
	}
}

func testConfig() Config {
	return Config{
		Gap:             1.00,
		LossLimit:       50,
		StartOffset:     1.00,
		FirstSide:       domain.Buy,
		PollInterval:    time.Millisecond,
		MaxPollFailures: 3,
	}
}

// newTestEngine은 formula25 수열(배수 75)과 빠른 재시도 정책으로 엔진을 구성합니다
func newTestEngine(t *testing.T, fake *brokertest.FakeBroker, rep *report.Report, cfg Config) *Engine {
	t.Helper()

	seq, err := sequence.DefaultRegistry().Create("formula25", sequence.Config{
		Rules:      fake.Rules,
		Multiplier: 75,
	})
	require.NoError(t, err)

	gw := gateway.New(fake, fake.Rules,
		gateway.WithRetryPolicy(gateway.RetryPolicy{MaxAttempts: 2, BaseDelay: time.Millisecond, Factor: 1.0}),
		gateway.WithReport(rep),
	)

	return New(fake, gw, seq, fake.Rules, cfg, WithReport(rep))
}

func marketOrders(fake *brokertest.FakeBroker) []domain.OrderRequest {
	var out []domain.OrderRequest
	for _, o := range fake.Placed {
		if o.Type == domain.Market {
			out = append(out, o)
		}
	}
	return out
}

// TestCycleBuyFillThenSellStop은 기본 시나리오를 검증합니다.
// BUY 체결 후 체결가−갭 위치에 수열의 다음 (0.02, 2.25)로 SELL 스탑이 걸려야 합니다.
func TestCycleBuyFillThenSellStop(t *testing.T) {
	fake := brokertest.New(testRules(), domain.Tick{Bid: 2400.00, Ask: 2400.20, Time: time.Now()})
	rep := report.New("XAUUSD_")
	eng := newTestEngine(t, fake, rep, testConfig())

	fake.OnPoll = func(n int) {
		switch n {
		case 1:
			// 첫 대기 주문 체결, 시장은 체결가 부근으로 이동
			require.NotNil(t, fake.FillFirstPending())
			fake.Tick = domain.Tick{Bid: 2401.10, Ask: 2401.30, Time: time.Now()}
		case 2:
			fake.SetProfit(0.80)
		}
	}

	outcome, err := eng.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeProfit, outcome)
	assert.Equal(t, StateTerminated, eng.State())

	stops := fake.PlacedStops()
	require.Len(t, stops, 2)

	// 첫 레그: ask+오프셋 = 2401.20에 BUY 스탑
	assert.Equal(t, domain.Buy, stops[0].Side)
	assert.InDelta(t, 0.01, stops[0].Volume, 1e-9)
	assert.InDelta(t, 2401.20, stops[0].Price, 1e-9)

	// 다음 레그: 체결가−1.00에 SELL 스탑, 수량 0.02
	assert.Equal(t, domain.Sell, stops[1].Side)
	assert.InDelta(t, 0.02, stops[1].Volume, 1e-9)
	assert.InDelta(t, 2400.20, stops[1].Price, 1e-9)

	// 리포트: 첫 레그 목표 0.75, 다음 레그 누적 목표 2.25
	entries := rep.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, 0, entries[0].Trigger)
	assert.InDelta(t, 0.75, entries[0].Target, 1e-9)
	assert.Equal(t, 1, entries[1].Trigger)
	assert.InDelta(t, 2.25, entries[1].Target, 1e-9)

	// 종료 후 포지션과 대기 주문이 남아있으면 안 됨
	positions, _ := fake.ListPositions(context.Background(), "XAUUSD_")
	assert.Empty(t, positions)
	pendings, _ := fake.ListPendingOrders(context.Background(), "XAUUSD_")
	assert.Empty(t, pendings)

	assert.Equal(t, domain.OutcomeProfit, rep.Outcome())
	assert.InDelta(t, 0.80, rep.FinalProfit(), 1e-9)
}

// TestCycleLossLimit은 기준점 대비 손익 −55가 한도 50을 넘으면
// LOSS로 종료하고 청산이 정확히 한 번 수행되는지 검증합니다
func TestCycleLossLimit(t *testing.T) {
	fake := brokertest.New(testRules(), domain.Tick{Bid: 2400.00, Ask: 2400.20, Time: time.Now()})
	rep := report.New("XAUUSD_")
	eng := newTestEngine(t, fake, rep, testConfig())

	fake.OnPoll = func(n int) {
		switch n {
		case 1:
			require.NotNil(t, fake.FillFirstPending())
			fake.Tick = domain.Tick{Bid: 2401.10, Ask: 2401.30, Time: time.Now()}
		case 2:
			fake.SetProfit(-55)
		}
	}

	outcome, err := eng.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeLoss, outcome)

	// 포지션 하나에 청산 주문 하나, 두 번 청산하면 안 됨
	closes := marketOrders(fake)
	require.Len(t, closes, 1)
	assert.Equal(t, domain.Sell, closes[0].Side)

	positions, _ := fake.ListPositions(context.Background(), "XAUUSD_")
	assert.Empty(t, positions)

	assert.Equal(t, domain.OutcomeLoss, rep.Outcome())
	assert.InDelta(t, -55, rep.FinalProfit(), 1e-9)
}

// TestCycleNeverTwoPendings는 어느 시점에도 대기 주문이 두 개 이상
// 걸려있지 않음을 검증합니다
func TestCycleNeverTwoPendings(t *testing.T) {
	fake := brokertest.New(testRules(), domain.Tick{Bid: 2400.00, Ask: 2400.20, Time: time.Now()})
	rep := report.New("XAUUSD_")
	eng := newTestEngine(t, fake, rep, testConfig())

	maxPendings := 0
	fake.OnPoll = func(n int) {
		if len(fake.Pendings) > maxPendings {
			maxPendings = len(fake.Pendings)
		}
		switch n {
		case 1, 2, 3:
			// 연속 체결: BUY → SELL → BUY
			require.NotNil(t, fake.FillFirstPending())
		case 4:
			fake.SetProfit(100)
		}
	}

	outcome, err := eng.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeProfit, outcome)
	assert.Equal(t, 3, eng.Triggers())
	assert.LessOrEqual(t, maxPendings, 1, "대기 주문이 동시에 두 개 이상 걸리면 안 됨")
}

// TestCycleContinuityGap은 대기 주문 접수 실패 시 엔진이 죽지 않고
// 감시를 계속하는지 검증합니다
func TestCycleContinuityGap(t *testing.T) {
	fake := brokertest.New(testRules(), domain.Tick{Bid: 2400.00, Ask: 2400.20, Time: time.Now()})
	rep := report.New("XAUUSD_")
	eng := newTestEngine(t, fake, rep, testConfig())

	fake.OnPoll = func(n int) {
		switch n {
		case 1:
			require.NotNil(t, fake.FillFirstPending())
			fake.Tick = domain.Tick{Bid: 2401.10, Ask: 2401.30, Time: time.Now()}
			// 다음 SELL 접수가 재시도 한도(2회)까지 거부되도록 설정
			fake.RejectNext = 2
		case 2:
			fake.SetProfit(0.80)
		}
	}

	outcome, err := eng.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeProfit, outcome)

	// SELL 접수는 실패했으므로 스탑은 첫 BUY 하나만 기록됨
	stops := fake.PlacedStops()
	require.Len(t, stops, 1)
	assert.Equal(t, domain.Buy, stops[0].Side)
}

// TestCyclePollFailureFatal은 연속 폴링 실패가 한도를 넘으면
// ERROR로 종료하는지 검증합니다
func TestCyclePollFailureFatal(t *testing.T) {
	fake := brokertest.New(testRules(), domain.Tick{Bid: 2400.00, Ask: 2400.20, Time: time.Now()})
	rep := report.New("XAUUSD_")
	eng := newTestEngine(t, fake, rep, testConfig())

	pollErr := errors.New("bridge unreachable")
	fake.PositionsErr = pollErr

	outcome, err := eng.Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, pollErr))
	assert.Equal(t, domain.OutcomeError, outcome)
	assert.Equal(t, domain.OutcomeError, rep.Outcome())
}

// TestCycleInterruptFlattens는 중단 신호를 받으면 대기 주문까지
// 모두 정리하고 종료하는지 검증합니다
func TestCycleInterruptFlattens(t *testing.T) {
	fake := brokertest.New(testRules(), domain.Tick{Bid: 2400.00, Ask: 2400.20, Time: time.Now()})
	rep := report.New("XAUUSD_")
	eng := newTestEngine(t, fake, rep, testConfig())

	ctx, cancel := context.WithCancel(context.Background())
	fake.OnPoll = func(n int) {
		if n == 1 {
			cancel()
		}
	}

	outcome, err := eng.Run(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, domain.OutcomeError, outcome)

	// 첫 대기 주문이 취소되어 있어야 함
	pendings, _ := fake.ListPendingOrders(context.Background(), "XAUUSD_")
	assert.Empty(t, pendings)
}
