// internal/metrics/metrics.go
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/assist-by/cyclone/internal/domain"
)

var (
	ordersPlaced = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cyclone_orders_total",
			Help: "접수된 주문 수 (방향별)",
		},
		[]string{"side"},
	)

	orderRetries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cyclone_order_retries_total",
			Help: "브로커 호출 재시도 수 (작업별)",
		},
		[]string{"op"},
	)

	triggers = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "cyclone_triggers_total",
			Help: "대기 주문이 포지션으로 체결된 횟수",
		},
	)

	cycles = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cyclone_cycles_total",
			Help: "종료된 사이클 수 (결과별)",
		},
		[]string{"outcome"},
	)

	relativeProfit = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "cyclone_relative_profit",
			Help: "기준점 대비 현재 상대 손익 ($)",
		},
	)
)

func init() {
	prometheus.MustRegister(
		ordersPlaced,
		orderRetries,
		triggers,
		cycles,
		relativeProfit,
	)
}

// ObserveOrder는 주문 접수를 기록합니다
func ObserveOrder(side domain.OrderSide) {
	ordersPlaced.WithLabelValues(string(side)).Inc()
}

// ObserveRetry는 브로커 호출 재시도를 기록합니다
func ObserveRetry(op string) {
	orderRetries.WithLabelValues(op).Inc()
}

// ObserveTrigger는 레그 체결을 기록합니다
func ObserveTrigger() {
	triggers.Inc()
}

// ObserveCycle은 사이클 종료를 기록합니다
func ObserveCycle(outcome domain.Outcome) {
	cycles.WithLabelValues(string(outcome)).Inc()
}

// SetRelativeProfit은 현재 상대 손익을 기록합니다
func SetRelativeProfit(profit float64) {
	relativeProfit.Set(profit)
}

// Handler는 /metrics 엔드포인트 핸들러를 반환합니다
func Handler() http.Handler {
	return promhttp.Handler()
}
