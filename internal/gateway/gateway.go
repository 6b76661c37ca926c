// internal/gateway/gateway.go
package gateway

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/assist-by/cyclone/internal/broker"
	"github.com/assist-by/cyclone/internal/domain"
	"github.com/assist-by/cyclone/internal/metrics"
	"github.com/assist-by/cyclone/internal/notification"
	"github.com/assist-by/cyclone/internal/pricing"
	"github.com/assist-by/cyclone/internal/report"
)

// Gateway는 대기 주문 접수, 전체 취소, 전체 청산을 담당합니다.
// 상태를 갖지 않는 서비스이며 브로커 호출의 재시도와 기록을 책임집니다.
type Gateway struct {
	broker   broker.Broker
	rules    *domain.SymbolRules
	retry    RetryPolicy
	report   *report.Report
	notifier notification.Notifier
	slippage int
	magic    int64
}

// Option은 게이트웨이 생성 옵션을 정의합니다
type Option func(*Gateway)

// WithRetryPolicy는 재시도 정책을 설정합니다
func WithRetryPolicy(policy RetryPolicy) Option {
	return func(g *Gateway) {
		g.retry = policy
	}
}

// WithReport는 레그 기록 대상 리포트를 설정합니다
func WithReport(r *report.Report) Option {
	return func(g *Gateway) {
		g.report = r
	}
}

// WithNotifier는 알림 클라이언트를 설정합니다
func WithNotifier(n notification.Notifier) Option {
	return func(g *Gateway) {
		g.notifier = n
	}
}

// WithSlippage는 허용 슬리피지를 포인트 단위로 설정합니다
func WithSlippage(points int) Option {
	return func(g *Gateway) {
		g.slippage = points
	}
}

// WithMagic은 주문 식별용 매직 넘버를 설정합니다
func WithMagic(magic int64) Option {
	return func(g *Gateway) {
		g.magic = magic
	}
}

// New는 새로운 주문 게이트웨이를 생성합니다
func New(b broker.Broker, rules *domain.SymbolRules, opts ...Option) *Gateway {
	g := &Gateway{
		broker:   b,
		rules:    rules,
		retry:    RetryPolicy{MaxAttempts: 5, BaseDelay: time.Second, Factor: 1.0},
		slippage: 500,
		magic:    12345,
	}

	for _, opt := range opts {
		opt(g)
	}

	return g
}

// PlacePendingStop은 스탑 대기 주문을 접수합니다.
// 기존 대기 주문을 모두 취소한 뒤, 시도마다 새 호가를 받아 가격을 정규화하고 제출합니다.
// 접수에 성공하면 실제 접수 가격을 반환하고 리포트에 레그를 기록합니다.
func (g *Gateway) PlacePendingStop(ctx context.Context, side domain.OrderSide, requestedPrice, volume, target float64, trigger int) (float64, error) {
	// 한 방향에 대기 주문이 두 개 이상 남지 않도록 먼저 정리
	if _, err := g.CancelAllPending(ctx); err != nil {
		log.Printf("대기 주문 정리 실패 (무시하고 진행): %v", err)
	}

	vol := pricing.NormalizeVolume(g.rules, volume)
	if vol < g.rules.VolumeMin || vol > g.rules.VolumeMax {
		return 0, NewGatewayError(g.rules.Symbol, "place",
			fmt.Errorf("%w: 수량 %v", ErrValidation, vol))
	}

	var placedPrice float64
	operation := fmt.Sprintf("%s STOP 접수", side)

	err := g.retry.Do(ctx, operation, func() error {
		tick, err := g.broker.GetTick(ctx, g.rules.Symbol)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrNoTick, err)
		}

		price := pricing.NormalizePrice(g.rules, side, requestedPrice, tick)

		resp, err := g.broker.PlaceOrder(ctx, domain.OrderRequest{
			Symbol:        g.rules.Symbol,
			Side:          side,
			Type:          domain.Stop,
			Volume:        vol,
			Price:         price,
			Deviation:     g.slippage,
			ClientOrderID: uuid.NewString(),
			Comment:       fmt.Sprintf("Cyclic %s STOP", side),
			Magic:         g.magic,
		})
		if err != nil {
			return err
		}
		if !resp.Accepted {
			return fmt.Errorf("%w (retcode %d): %s, 요청가 %v, ask=%v, bid=%v",
				ErrOrderRejected, resp.RetCode, resp.Message, price, tick.Ask, tick.Bid)
		}

		placedPrice = price
		return nil
	})
	if err != nil {
		return 0, NewGatewayError(g.rules.Symbol, "place", err)
	}

	log.Printf("✅ %s STOP 접수 완료: %.5g (vol=%.2f, TP=$%.2f)", side, placedPrice, vol, target)
	metrics.ObserveOrder(side)

	if g.report != nil {
		g.report.Append(report.Entry{
			Trigger: trigger,
			Side:    side,
			Volume:  vol,
			Price:   placedPrice,
			Target:  target,
			Time:    time.Now(),
		})
	}
	if g.notifier != nil {
		if err := g.notifier.SendTrigger(notification.TriggerInfo{
			Symbol:  g.rules.Symbol,
			Side:    side,
			Volume:  vol,
			Price:   placedPrice,
			Target:  target,
			Trigger: trigger,
		}); err != nil {
			log.Printf("주문 알림 전송 실패: %v", err)
		}
	}

	return placedPrice, nil
}

// CancelAllPending은 심볼의 모든 대기 주문을 취소합니다.
// 개별 취소 실패는 로그만 남기고 계속 진행하며, 취소된 주문 수를 반환합니다.
func (g *Gateway) CancelAllPending(ctx context.Context) (int, error) {
	orders, err := g.broker.ListPendingOrders(ctx, g.rules.Symbol)
	if err != nil {
		return 0, NewGatewayError(g.rules.Symbol, "cancel", err)
	}

	removed := 0
	for _, o := range orders {
		if err := g.broker.CancelOrder(ctx, o.Ticket); err != nil {
			log.Printf("⚠️ 대기 주문 취소 실패 (티켓 %d): %v", o.Ticket, err)
			continue
		}
		removed++
	}

	if removed > 0 {
		log.Printf("🗑️ 대기 주문 %d건 정리 완료", removed)
	}
	return removed, nil
}

// CloseAllPositions는 모든 포지션을 시장가 반대 주문으로 청산하고 대기 주문을 정리합니다.
// 포지션이 없으면 아무것도 하지 않으며, 개별 청산은 재시도 정책을 따릅니다.
func (g *Gateway) CloseAllPositions(ctx context.Context) error {
	positions, err := g.broker.ListPositions(ctx, g.rules.Symbol)
	if err != nil {
		return NewGatewayError(g.rules.Symbol, "close", err)
	}

	if len(positions) == 0 {
		if _, err := g.CancelAllPending(ctx); err != nil {
			log.Printf("대기 주문 정리 실패: %v", err)
		}
		log.Printf("✅ 청산할 포지션이 없습니다")
		return nil
	}

	failed := 0
	var lastErr error
	for _, pos := range positions {
		pos := pos
		operation := fmt.Sprintf("포지션 %d 청산", pos.Ticket)

		err := g.retry.Do(ctx, operation, func() error {
			resp, err := g.broker.PlaceOrder(ctx, domain.OrderRequest{
				Symbol:         g.rules.Symbol,
				Side:           pos.Side.Opposite(),
				Type:           domain.Market,
				Volume:         pos.Volume,
				PositionTicket: pos.Ticket,
				Deviation:      g.slippage,
				ClientOrderID:  uuid.NewString(),
				Comment:        "Cycle close",
				Magic:          g.magic,
			})
			if err != nil {
				return err
			}
			if !resp.Accepted {
				return fmt.Errorf("%w (retcode %d): %s", ErrOrderRejected, resp.RetCode, resp.Message)
			}
			return nil
		})
		if err != nil {
			log.Printf("⚠️ 포지션 %d 청산 실패: %v", pos.Ticket, err)
			failed++
			lastErr = err
			continue
		}
		log.Printf("✅ 포지션 %d 청산 완료 (vol=%.2f)", pos.Ticket, pos.Volume)
	}

	// 청산 성패와 무관하게 대기 주문은 반드시 정리
	if _, err := g.CancelAllPending(ctx); err != nil {
		log.Printf("대기 주문 정리 실패: %v", err)
	}

	if failed > 0 {
		return NewGatewayError(g.rules.Symbol, "close",
			fmt.Errorf("%d개 포지션 청산 실패: %w", failed, lastErr))
	}

	log.Printf("✅ 전체 포지션 및 대기 주문 정리 완료")
	return nil
}
