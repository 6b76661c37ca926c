// internal/broker/broker.go
package broker

import (
	"context"

	"github.com/assist-by/cyclone/internal/domain"
)

// Broker는 거래 서버와의 상호작용을 위한 인터페이스입니다.
// 사이클 엔진이 의존하는 기능 집합 전체를 정의합니다.
type Broker interface {
	// 시장 데이터 조회
	GetTick(ctx context.Context, symbol string) (*domain.Tick, error)
	GetSymbolRules(ctx context.Context, symbol string) (*domain.SymbolRules, error)
	GetKlines(ctx context.Context, symbol string, interval domain.TimeInterval, limit int) (domain.CandleList, error)

	// 심볼 검색 (브로커마다 접미사가 다른 심볼의 자동 탐색)
	FindSymbol(ctx context.Context, keyword string) (string, error)

	// 계정 데이터 조회
	GetAccountSnapshot(ctx context.Context) (*domain.AccountSnapshot, error)
	ListPositions(ctx context.Context, symbol string) ([]domain.Position, error)
	ListPendingOrders(ctx context.Context, symbol string) ([]domain.PendingOrder, error)

	// 거래 기능
	PlaceOrder(ctx context.Context, order domain.OrderRequest) (*domain.OrderResponse, error)
	CancelOrder(ctx context.Context, ticket int64) error
}
