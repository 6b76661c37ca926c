// Package cycle은 사이클 전략의 핵심 상태 기계를 구현합니다.
// 첫 대기 주문 접수 후 체결을 감시하며, 체결마다 반대 방향 대기 주문을
// 수열에 따라 다시 걸고, 목표 수익이나 손실 한도에 도달하면 전부 청산합니다.
package cycle

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/assist-by/cyclone/internal/broker"
	"github.com/assist-by/cyclone/internal/domain"
	"github.com/assist-by/cyclone/internal/gateway"
	"github.com/assist-by/cyclone/internal/metrics"
	"github.com/assist-by/cyclone/internal/notification"
	"github.com/assist-by/cyclone/internal/report"
	"github.com/assist-by/cyclone/internal/sequence"
)

// State는 사이클 엔진의 상태를 정의합니다
type State int

const (
	StateAwaitingFirstFill State = iota // 첫 대기 주문 체결 대기
	StateMonitoring                     // 체결/손익 감시
	StateClosing                        // 전체 청산 진행
	StateTerminated                     // 종료
)

// String은 State의 문자열 표현을 반환합니다
func (s State) String() string {
	switch s {
	case StateAwaitingFirstFill:
		return "AWAITING_FIRST_FILL"
	case StateMonitoring:
		return "MONITORING"
	case StateClosing:
		return "CLOSING"
	default:
		return "TERMINATED"
	}
}

// Leg는 사이클의 한 레그를 표현합니다.
// 목표 수익은 생성 시 고정되며 이후 다시 계산하지 않습니다.
type Leg struct {
	Side   domain.OrderSide
	Volume float64
	Price  float64
	Target float64
	Status domain.LegStatus
}

// Config는 사이클 엔진 설정을 정의합니다
type Config struct {
	Gap             float64          // 레그 간 가격 간격 (가격 단위)
	LossLimit       float64          // 손실 한도 ($, 기준점 대비)
	StartOffset     float64          // 첫 대기 주문의 시장가 대비 오프셋 (가격 단위)
	FirstSide       domain.OrderSide // 첫 레그 방향
	PollInterval    time.Duration    // 폴링 간격
	MaxPollFailures int              // 연속 폴링 실패 허용치 (초과 시 치명 에러)
}

// Engine은 한 사이클 세션을 소유하는 상태 기계입니다.
// 인스턴스 하나가 심볼 하나의 세션 하나를 담당하며 상태를 공유하지 않습니다.
type Engine struct {
	broker   broker.Broker
	gw       *gateway.Gateway
	seq      sequence.Sequence
	rules    *domain.SymbolRules
	cfg      Config
	report   *report.Report
	notifier notification.Notifier

	state        State
	legs         []Leg
	pending      *Leg // 현재 걸려있는 대기 레그
	baseline     float64
	prev         []domain.Position
	triggers     int
	activeTarget float64
	lastProfit   float64
	startedAt    time.Time
}

// Option은 엔진 생성 옵션을 정의합니다
type Option func(*Engine)

// WithReport는 세션 리포트를 설정합니다
func WithReport(r *report.Report) Option {
	return func(e *Engine) {
		e.report = r
	}
}

// WithNotifier는 알림 클라이언트를 설정합니다
func WithNotifier(n notification.Notifier) Option {
	return func(e *Engine) {
		e.notifier = n
	}
}

// New는 새로운 사이클 엔진을 생성합니다
func New(b broker.Broker, gw *gateway.Gateway, seq sequence.Sequence, rules *domain.SymbolRules, cfg Config, opts ...Option) *Engine {
	if cfg.FirstSide == "" {
		cfg.FirstSide = domain.Buy
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 500 * time.Millisecond
	}
	if cfg.MaxPollFailures <= 0 {
		cfg.MaxPollFailures = 10
	}

	e := &Engine{
		broker: b,
		gw:     gw,
		seq:    seq,
		rules:  rules,
		cfg:    cfg,
		state:  StateAwaitingFirstFill,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// State는 현재 엔진 상태를 반환합니다
func (e *Engine) State() State {
	return e.state
}

// Triggers는 지금까지 체결된 레그 수를 반환합니다
func (e *Engine) Triggers() int {
	return e.triggers
}

// Legs는 체결된 레그 기록의 복사본을 반환합니다
func (e *Engine) Legs() []Leg {
	out := make([]Leg, len(e.legs))
	copy(out, e.legs)
	return out
}

// Run은 사이클 한 번을 끝까지 실행하고 결과를 반환합니다.
// 중단 신호(ctx 취소)를 받으면 반드시 전체 청산을 수행한 뒤 종료합니다.
func (e *Engine) Run(ctx context.Context) (domain.Outcome, error) {
	e.startedAt = time.Now()
	e.seq.Reset()

	if err := e.placeFirstLeg(ctx); err != nil {
		e.finish(domain.OutcomeError, 0)
		return domain.OutcomeError, err
	}

	ticker := time.NewTicker(e.cfg.PollInterval)
	defer ticker.Stop()

	failures := 0
	for {
		select {
		case <-ctx.Done():
			return e.abort(ctx.Err())
		case <-ticker.C:
			if ctx.Err() != nil {
				return e.abort(ctx.Err())
			}
		}

		outcome, done, err := e.pollOnce(ctx)
		if err != nil {
			failures++
			log.Printf("⚠️ 폴링 실패 (%d/%d): %v", failures, e.cfg.MaxPollFailures, err)
			if failures >= e.cfg.MaxPollFailures {
				fatal := fmt.Errorf("브로커 연결을 신뢰할 수 없습니다 (연속 %d회 실패): %w", failures, err)
				return e.abort(fatal)
			}
			continue
		}
		failures = 0

		if done {
			return outcome, nil
		}
	}
}

// placeFirstLeg는 첫 대기 스탑 주문을 접수합니다
func (e *Engine) placeFirstLeg(ctx context.Context) error {
	tick, err := e.broker.GetTick(ctx, e.rules.Symbol)
	if err != nil {
		return fmt.Errorf("시작 호가 조회 실패: %w", err)
	}

	step := e.seq.Next()
	side := e.cfg.FirstSide

	var price float64
	if side == domain.Buy {
		price = tick.Ask + e.cfg.StartOffset
	} else {
		price = tick.Bid - e.cfg.StartOffset
	}

	placed, err := e.gw.PlacePendingStop(ctx, side, price, step.Volume, step.Target, 0)
	if err != nil {
		return fmt.Errorf("첫 대기 주문 접수 실패: %w", err)
	}

	e.pending = &Leg{
		Side:   side,
		Volume: step.Volume,
		Price:  placed,
		Target: step.Target,
		Status: domain.LegPending,
	}
	log.Printf("🚀 사이클 시작 [%s]: %s STOP @ %.5g (vol=%.2f, TP=$%.2f)",
		e.rules.Symbol, side, placed, step.Volume, step.Target)
	return nil
}

// pollOnce는 폴링 한 틱을 처리합니다.
// 사이클이 종료되면 done=true와 함께 결과를 반환합니다.
func (e *Engine) pollOnce(ctx context.Context) (domain.Outcome, bool, error) {
	positions, err := e.broker.ListPositions(ctx, e.rules.Symbol)
	if err != nil {
		return domain.OutcomeNone, false, err
	}
	account, err := e.broker.GetAccountSnapshot(ctx)
	if err != nil {
		return domain.OutcomeNone, false, err
	}

	switch e.state {
	case StateAwaitingFirstFill:
		if len(positions) == 0 {
			return domain.OutcomeNone, false, nil
		}
		// 기준 손익은 첫 포지션이 나타난 순간 한 번만 잡는다
		e.baseline = account.Profit
		e.state = StateMonitoring
		log.Printf("🎬 첫 체결 감지, 기준 손익 %.2f 확보 → MONITORING", e.baseline)

		e.processFills(ctx, positions)
		e.prev = positions
		return domain.OutcomeNone, false, nil

	case StateMonitoring:
		profit := account.Profit - e.baseline
		e.lastProfit = profit
		metrics.SetRelativeProfit(profit)

		// 손익 판정이 체결 처리보다 우선한다
		if profit >= e.activeTarget {
			log.Printf("🎯 목표 수익 도달: %.2f >= %.2f", profit, e.activeTarget)
			return e.closeCycle(ctx, domain.OutcomeProfit, profit)
		}
		if e.cfg.LossLimit > 0 && profit <= -e.cfg.LossLimit {
			log.Printf("❌ 손실 한도 도달: %.2f <= -%.2f", profit, e.cfg.LossLimit)
			return e.closeCycle(ctx, domain.OutcomeLoss, profit)
		}

		e.processFills(ctx, positions)
		e.prev = positions
		return domain.OutcomeNone, false, nil
	}

	return domain.OutcomeNone, false, nil
}

// processFills는 새로 체결된 포지션을 티켓 순으로 처리합니다.
// 체결마다 수열을 전진시키고 반대 방향 대기 주문을 새로 접수합니다.
func (e *Engine) processFills(ctx context.Context, positions []domain.Position) {
	for _, pos := range DiffPositions(e.prev, positions) {
		e.triggers++
		metrics.ObserveTrigger()

		if e.pending != nil && e.pending.Side == pos.Side {
			// 체결된 대기 레그의 목표가 청산 판정 기준이 된다
			e.activeTarget = e.pending.Target
			e.pending.Status = domain.LegFilled
			e.legs = append(e.legs, *e.pending)
			e.pending = nil
		}
		log.Printf("🔔 트리거 #%d: %s %.2f랏 @ %.5g 체결 (목표 $%.2f)",
			e.triggers, pos.Side, pos.Volume, pos.OpenPrice, e.activeTarget)

		step := e.seq.Next()
		nextSide := pos.Side.Opposite()
		nextPrice := pos.OpenPrice - e.cfg.Gap
		if nextSide == domain.Buy {
			nextPrice = pos.OpenPrice + e.cfg.Gap
		}

		placed, err := e.gw.PlacePendingStop(ctx, nextSide, nextPrice, step.Volume, step.Target, e.triggers)
		if err != nil {
			// 재시도 소진: 해당 방향 대기 주문 없이 감시를 계속한다
			log.Printf("🚨 %s 대기 주문 접수 실패, 사이클 연속성 공백 상태로 감시를 계속합니다: %v", nextSide, err)
			if e.notifier != nil {
				if nerr := e.notifier.SendError(err); nerr != nil {
					log.Printf("에러 알림 전송 실패: %v", nerr)
				}
			}
			continue
		}

		e.pending = &Leg{
			Side:   nextSide,
			Volume: step.Volume,
			Price:  placed,
			Target: step.Target,
			Status: domain.LegPending,
		}
	}
}

// closeCycle은 전체 청산을 수행하고 세션을 종료합니다
func (e *Engine) closeCycle(ctx context.Context, outcome domain.Outcome, profit float64) (domain.Outcome, bool, error) {
	e.state = StateClosing
	log.Printf("🔒 청산 시작 (결과: %s, 손익: %.2f)", outcome, profit)

	if err := e.gw.CloseAllPositions(ctx); err != nil {
		log.Printf("⚠️ 청산 중 일부 실패: %v", err)
		if e.notifier != nil {
			if nerr := e.notifier.SendError(err); nerr != nil {
				log.Printf("에러 알림 전송 실패: %v", nerr)
			}
		}
	}

	e.finish(outcome, profit)
	return outcome, true, nil
}

// abort는 중단 신호나 치명 에러 발생 시 최선을 다해 정리하고 종료합니다.
// 취소된 컨텍스트로는 청산 주문이 나갈 수 없으므로 새 컨텍스트를 사용합니다.
func (e *Engine) abort(cause error) (domain.Outcome, error) {
	log.Printf("🛑 사이클 중단: %v, 포지션 정리를 시작합니다", cause)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := e.gw.CloseAllPositions(ctx); err != nil {
		log.Printf("🚨 중단 중 청산 실패, 수동 확인이 필요합니다: %v", err)
	}

	e.finish(domain.OutcomeError, e.lastProfit)
	return domain.OutcomeError, cause
}

// finish는 세션을 확정하고 요약을 기록/전송합니다
func (e *Engine) finish(outcome domain.Outcome, profit float64) {
	e.state = StateTerminated
	metrics.ObserveCycle(outcome)

	totalVolume := 0.0
	if e.report != nil {
		e.report.Finalize(outcome, profit)
		totalVolume = e.report.TotalVolume()
		log.Print(e.report.Summary())
	}

	if e.notifier != nil {
		err := e.notifier.SendCycleSummary(notification.CycleSummary{
			Symbol:      e.rules.Symbol,
			Outcome:     outcome,
			Profit:      profit,
			Triggers:    e.triggers,
			TotalVolume: totalVolume,
			Elapsed:     time.Since(e.startedAt),
		})
		if err != nil {
			log.Printf("사이클 요약 알림 전송 실패: %v", err)
		}
	}
}
