package gateway

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/assist-by/cyclone/internal/broker/brokertest"
	"github.com/assist-by/cyclone/internal/domain"
	"github.com/assist-by/cyclone/internal/report"
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

func testTick() domain.Tick {
	return domain.Tick{Bid: 2400.00, Ask: 2400.20, Time: time.Now()}
}

func fastRetry(attempts int) RetryPolicy {
	return RetryPolicy{MaxAttempts: attempts, BaseDelay: time.Millisecond, Factor: 1.0}
}

func TestPlacePendingStop(t *testing.T) {
	fake := brokertest.New(testRules(), testTick())
	rep := report.New("XAUUSD_")
	g := New(fake, testRules(), WithRetryPolicy(fastRetry(3)), WithReport(rep))

	price, err := g.PlacePendingStop(context.Background(), domain.Buy, 2405.00, 0.01, 0.75, 0)
	require.NoError(t, err)
	assert.InDelta(t, 2405.00, price, 1e-9)

	// 대기 주문이 하나 남아있어야 함
	pendings, err := fake.ListPendingOrders(context.Background(), "XAUUSD_")
	require.NoError(t, err)
	require.Len(t, pendings, 1)
	assert.Equal(t, domain.Buy, pendings[0].Side)

	// 리포트에 레그가 기록되어야 함
	entries := rep.Entries()
	require.Len(t, entries, 1)
	assert.InDelta(t, 0.75, entries[0].Target, 1e-9)
}

// TestPlacePendingStopCancelsExisting은 접수 전에 기존 대기 주문이 정리되는지 검증합니다
func TestPlacePendingStopCancelsExisting(t *testing.T) {
	fake := brokertest.New(testRules(), testTick())
	fake.Pendings = []domain.PendingOrder{
		{Ticket: 1, Side: domain.Sell, Price: 2395.00, Volume: 0.01},
	}
	g := New(fake, testRules(), WithRetryPolicy(fastRetry(3)))

	_, err := g.PlacePendingStop(context.Background(), domain.Buy, 2405.00, 0.02, 2.25, 1)
	require.NoError(t, err)

	pendings, _ := fake.ListPendingOrders(context.Background(), "XAUUSD_")
	require.Len(t, pendings, 1)
	assert.Equal(t, domain.Buy, pendings[0].Side, "이전 SELL 대기 주문이 남아있으면 안 됨")
}

// TestPlacePendingStopRetriesRejection은 거부 후 재시도로 성공하는 경로를 검증합니다
func TestPlacePendingStopRetriesRejection(t *testing.T) {
	fake := brokertest.New(testRules(), testTick())
	fake.RejectNext = 2
	g := New(fake, testRules(), WithRetryPolicy(fastRetry(3)))

	_, err := g.PlacePendingStop(context.Background(), domain.Sell, 2395.00, 0.01, 1.0, 1)
	require.NoError(t, err)
}

// TestPlacePendingStopBoundedFailure는 제한 재시도 소진 시 에러 반환을 검증합니다
func TestPlacePendingStopBoundedFailure(t *testing.T) {
	fake := brokertest.New(testRules(), testTick())
	fake.RejectNext = 10
	g := New(fake, testRules(), WithRetryPolicy(fastRetry(2)))

	_, err := g.PlacePendingStop(context.Background(), domain.Buy, 2405.00, 0.01, 1.0, 1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRetryExceeded), "재시도 초과 에러여야 함: %v", err)

	var gwErr *GatewayError
	assert.True(t, errors.As(err, &gwErr))
	assert.Equal(t, "place", gwErr.Op)
}

// TestCloseAllPositionsEmpty는 포지션이 없을 때 무동작인지 검증합니다
func TestCloseAllPositionsEmpty(t *testing.T) {
	fake := brokertest.New(testRules(), testTick())
	g := New(fake, testRules(), WithRetryPolicy(fastRetry(3)))

	require.NoError(t, g.CloseAllPositions(context.Background()))
	assert.Empty(t, fake.Placed, "포지션이 없으면 주문이 나가면 안 됨")
}

func TestCloseAllPositions(t *testing.T) {
	fake := brokertest.New(testRules(), testTick())
	fake.Positions = []domain.Position{
		{Ticket: 11, Side: domain.Buy, Volume: 0.01, OpenPrice: 2405.00},
		{Ticket: 12, Side: domain.Sell, Volume: 0.02, OpenPrice: 2399.00},
	}
	fake.Pendings = []domain.PendingOrder{
		{Ticket: 21, Side: domain.Buy, Price: 2410.00, Volume: 0.03},
	}
	g := New(fake, testRules(), WithRetryPolicy(fastRetry(3)))

	require.NoError(t, g.CloseAllPositions(context.Background()))

	// 전 포지션이 반대 방향 시장가로 청산되어야 함
	require.Len(t, fake.Placed, 2)
	assert.Equal(t, domain.Sell, fake.Placed[0].Side)
	assert.Equal(t, int64(11), fake.Placed[0].PositionTicket)
	assert.InDelta(t, 0.01, fake.Placed[0].Volume, 1e-9)
	assert.Equal(t, domain.Buy, fake.Placed[1].Side)

	positions, _ := fake.ListPositions(context.Background(), "XAUUSD_")
	assert.Empty(t, positions)

	// 청산 후 대기 주문도 남아있으면 안 됨
	pendings, _ := fake.ListPendingOrders(context.Background(), "XAUUSD_")
	assert.Empty(t, pendings)
}

// TestRetryPolicyValidationFailsFast는 검증 에러가 재시도 없이 실패하는지 확인합니다
func TestRetryPolicyValidationFailsFast(t *testing.T) {
	calls := 0
	policy := fastRetry(5)
	err := policy.Do(context.Background(), "검증 테스트", func() error {
		calls++
		return ErrValidation
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls, "검증 에러는 재시도하면 안 됨")
}
