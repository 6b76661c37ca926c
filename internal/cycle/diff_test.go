package cycle

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/assist-by/cyclone/internal/domain"
)

func TestDiffPositions(t *testing.T) {
	tests := []struct {
		name string
		prev []domain.Position
		curr []domain.Position
		want []int64
	}{
		{
			name: "빈 스냅샷에서 새 포지션 감지",
			prev: nil,
			curr: []domain.Position{{Ticket: 5}},
			want: []int64{5},
		},
		{
			name: "변화 없음",
			prev: []domain.Position{{Ticket: 1}, {Ticket: 2}},
			curr: []domain.Position{{Ticket: 1}, {Ticket: 2}},
			want: nil,
		},
		{
			name: "청산된 포지션은 무시",
			prev: []domain.Position{{Ticket: 1}, {Ticket: 2}},
			curr: []domain.Position{{Ticket: 2}},
			want: nil,
		},
		{
			name: "여러 건 체결 시 티켓 순 정렬",
			prev: []domain.Position{{Ticket: 1}},
			curr: []domain.Position{{Ticket: 9}, {Ticket: 1}, {Ticket: 3}},
			want: []int64{3, 9},
		},
		{
			name: "둘 다 빔",
			prev: nil,
			curr: nil,
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DiffPositions(tt.prev, tt.curr)
			var tickets []int64
			for _, p := range got {
				tickets = append(tickets, p.Ticket)
			}
			assert.Equal(t, tt.want, tickets)
		})
	}
}
