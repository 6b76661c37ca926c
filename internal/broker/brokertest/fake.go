// Package brokertest는 테스트용 브로커 구현을 제공합니다.
// 대기 주문과 포지션을 메모리에 유지하며, 테스트가 체결/손익을 직접 조작할 수 있습니다.
package brokertest

import (
	"context"
	"sync"
	"time"

	"github.com/assist-by/cyclone/internal/domain"
)

// FakeBroker는 broker.Broker의 인메모리 구현입니다
type FakeBroker struct {
	mu sync.Mutex

	Rules   *domain.SymbolRules
	Tick    domain.Tick
	TickErr error
	Account domain.AccountSnapshot
	Candles domain.CandleList

	Positions []domain.Position
	Pendings  []domain.PendingOrder

	// Placed는 접수된 모든 주문 요청의 기록입니다
	Placed []domain.OrderRequest

	// RejectNext가 양수면 다음 n건의 주문을 거부합니다
	RejectNext int
	PlaceErr   error

	// PositionsErr가 설정되면 ListPositions가 해당 에러를 반환합니다
	PositionsErr error

	// OnPoll은 ListPositions 호출 시마다 호출 순번과 함께 실행됩니다.
	// 테스트가 폴 시점 기준으로 체결/손익을 조작할 때 사용합니다.
	OnPoll func(n int)

	pollCount  int
	nextTicket int64
}

// New는 주어진 제약과 호가로 FakeBroker를 생성합니다
func New(rules *domain.SymbolRules, tick domain.Tick) *FakeBroker {
	return &FakeBroker{
		Rules:      rules,
		Tick:       tick,
		nextTicket: 1000,
	}
}

// GetTick은 설정된 호가를 반환합니다
func (f *FakeBroker) GetTick(ctx context.Context, symbol string) (*domain.Tick, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.TickErr != nil {
		return nil, f.TickErr
	}
	t := f.Tick
	return &t, nil
}

// GetSymbolRules는 설정된 제약을 반환합니다
func (f *FakeBroker) GetSymbolRules(ctx context.Context, symbol string) (*domain.SymbolRules, error) {
	return f.Rules, nil
}

// GetKlines는 설정된 캔들 목록을 반환합니다
func (f *FakeBroker) GetKlines(ctx context.Context, symbol string, interval domain.TimeInterval, limit int) (domain.CandleList, error) {
	return f.Candles, nil
}

// FindSymbol은 설정된 심볼 이름을 반환합니다
func (f *FakeBroker) FindSymbol(ctx context.Context, keyword string) (string, error) {
	return f.Rules.Symbol, nil
}

// GetAccountSnapshot은 설정된 계정 상태를 반환합니다
func (f *FakeBroker) GetAccountSnapshot(ctx context.Context) (*domain.AccountSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a := f.Account
	return &a, nil
}

// ListPositions는 현재 포지션 목록을 반환합니다
func (f *FakeBroker) ListPositions(ctx context.Context, symbol string) ([]domain.Position, error) {
	f.mu.Lock()
	f.pollCount++
	n := f.pollCount
	hook := f.OnPoll
	f.mu.Unlock()

	if hook != nil {
		hook(n)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.PositionsErr != nil {
		return nil, f.PositionsErr
	}
	out := make([]domain.Position, len(f.Positions))
	copy(out, f.Positions)
	return out, nil
}

// ListPendingOrders는 현재 대기 주문 목록을 반환합니다
func (f *FakeBroker) ListPendingOrders(ctx context.Context, symbol string) ([]domain.PendingOrder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.PendingOrder, len(f.Pendings))
	copy(out, f.Pendings)
	return out, nil
}

// PlaceOrder는 주문을 접수합니다.
// 스탑 주문은 대기 주문 목록에 추가되고, 포지션 티켓이 있는 시장가 주문은 해당 포지션을 제거합니다.
func (f *FakeBroker) PlaceOrder(ctx context.Context, order domain.OrderRequest) (*domain.OrderResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.PlaceErr != nil {
		return nil, f.PlaceErr
	}
	if f.RejectNext > 0 {
		f.RejectNext--
		return &domain.OrderResponse{
			Accepted: false,
			RetCode:  domain.RetcodeInvalidStops,
			Message:  "Invalid stops",
		}, nil
	}

	f.Placed = append(f.Placed, order)
	f.nextTicket++

	switch order.Type {
	case domain.Stop:
		f.Pendings = append(f.Pendings, domain.PendingOrder{
			Ticket: f.nextTicket,
			Side:   order.Side,
			Price:  order.Price,
			Volume: order.Volume,
		})
	case domain.Market:
		if order.PositionTicket != 0 {
			kept := f.Positions[:0]
			for _, p := range f.Positions {
				if p.Ticket != order.PositionTicket {
					kept = append(kept, p)
				}
			}
			f.Positions = kept
		}
	}

	return &domain.OrderResponse{
		Accepted: true,
		RetCode:  domain.RetcodeDone,
		Ticket:   f.nextTicket,
		Price:    order.Price,
	}, nil
}

// CancelOrder는 대기 주문을 목록에서 제거합니다
func (f *FakeBroker) CancelOrder(ctx context.Context, ticket int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := f.Pendings[:0]
	for _, o := range f.Pendings {
		if o.Ticket != ticket {
			kept = append(kept, o)
		}
	}
	f.Pendings = kept
	return nil
}

// FillFirstPending은 첫 번째 대기 주문을 체결시켜 포지션으로 전환합니다
func (f *FakeBroker) FillFirstPending() *domain.Position {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.Pendings) == 0 {
		return nil
	}
	o := f.Pendings[0]
	f.Pendings = f.Pendings[1:]

	pos := domain.Position{
		Ticket:    o.Ticket,
		Side:      o.Side,
		Volume:    o.Volume,
		OpenPrice: o.Price,
		OpenTime:  time.Now(),
	}
	f.Positions = append(f.Positions, pos)
	return &pos
}

// SetProfit은 계정의 미실현 손익을 설정합니다
func (f *FakeBroker) SetProfit(profit float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Account.Profit = profit
}

// PlacedStops는 접수된 스탑 주문 요청만 반환합니다
func (f *FakeBroker) PlacedStops() []domain.OrderRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	var stops []domain.OrderRequest
	for _, o := range f.Placed {
		if o.Type == domain.Stop {
			stops = append(stops, o)
		}
	}
	return stops
}
