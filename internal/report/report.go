// internal/report/report.go
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/assist-by/cyclone/internal/domain"
)

// Entry는 한 레그의 기록을 표현합니다
type Entry struct {
	Trigger int              `json:"trigger"` // 트리거 순번 (0이면 아직 미체결 대기 주문)
	Side    domain.OrderSide `json:"side"`    // 매수/매도
	Volume  float64          `json:"volume"`  // 주문 수량
	Price   float64          `json:"price"`   // 접수 가격
	Target  float64          `json:"target"`  // 목표 수익
	Time    time.Time        `json:"time"`    // 접수 시간
}

// Report는 한 사이클 세션의 레그 기록을 누적합니다.
// 추가 전용이며 사이클 종료 시 Finalize로 결과가 확정됩니다.
type Report struct {
	mu          sync.Mutex
	symbol      string
	startedAt   time.Time
	entries     []Entry
	outcome     domain.Outcome
	finalProfit float64
	closedAt    time.Time
}

// New는 새로운 세션 리포트를 생성합니다
func New(symbol string) *Report {
	return &Report{
		symbol:    symbol,
		startedAt: time.Now(),
	}
}

// Append는 레그 기록을 추가합니다
func (r *Report) Append(e Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, e)
}

// Finalize는 사이클 종료 결과를 기록합니다
func (r *Report) Finalize(outcome domain.Outcome, profit float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcome = outcome
	r.finalProfit = profit
	r.closedAt = time.Now()
}

// Entries는 기록된 레그 목록의 복사본을 반환합니다
func (r *Report) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Outcome은 확정된 사이클 결과를 반환합니다
func (r *Report) Outcome() domain.Outcome {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.outcome
}

// FinalProfit은 확정된 상대 손익을 반환합니다
func (r *Report) FinalProfit() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.finalProfit
}

// TotalVolume은 기록된 전체 주문 수량을 반환합니다
func (r *Report) TotalVolume() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	total := 0.0
	for _, e := range r.entries {
		total += e.Volume
	}
	return total
}

// Summary는 사이클 종료 시 출력할 요약 문자열을 생성합니다
func (r *Report) Summary() string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var b strings.Builder
	b.WriteString("📊 사이클 요약\n")
	b.WriteString(fmt.Sprintf("   심볼: %s\n", r.symbol))
	b.WriteString(fmt.Sprintf("   주문 수: %d\n", len(r.entries)))

	total := 0.0
	for _, e := range r.entries {
		total += e.Volume
	}
	b.WriteString(fmt.Sprintf("   총 수량: %.2f\n", total))

	if r.outcome != domain.OutcomeNone {
		b.WriteString(fmt.Sprintf("   결과: %s (손익 %.2f)\n", r.outcome, r.finalProfit))
	}

	for i, e := range r.entries {
		b.WriteString(fmt.Sprintf("   %d. %s @ %.5g vol=%.2f TP=%.2f\n",
			i+1, e.Side, e.Price, e.Volume, e.Target))
	}

	return b.String()
}

// WriteCSV는 레그 기록을 CSV로 내보냅니다
func (r *Report) WriteCSV(w io.Writer) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"trigger", "side", "volume", "price", "target", "time"}); err != nil {
		return fmt.Errorf("CSV 헤더 기록 실패: %w", err)
	}

	for _, e := range r.entries {
		record := []string{
			strconv.Itoa(e.Trigger),
			string(e.Side),
			strconv.FormatFloat(e.Volume, 'f', -1, 64),
			strconv.FormatFloat(e.Price, 'f', -1, 64),
			strconv.FormatFloat(e.Target, 'f', -1, 64),
			e.Time.Format(time.RFC3339),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("CSV 레코드 기록 실패: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// MarshalJSON은 외부 소비용 구조화 데이터를 생성합니다
func (r *Report) MarshalJSON() ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return json.Marshal(struct {
		Symbol      string         `json:"symbol"`
		StartedAt   time.Time      `json:"started_at"`
		ClosedAt    *time.Time     `json:"closed_at,omitempty"`
		Outcome     domain.Outcome `json:"outcome,omitempty"`
		FinalProfit float64        `json:"final_profit"`
		Entries     []Entry        `json:"entries"`
	}{
		Symbol:      r.symbol,
		StartedAt:   r.startedAt,
		ClosedAt:    closedAtOrNil(r.closedAt),
		Outcome:     r.outcome,
		FinalProfit: r.finalProfit,
		Entries:     r.entries,
	})
}

func closedAtOrNil(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
