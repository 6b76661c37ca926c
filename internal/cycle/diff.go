package cycle

import (
	"sort"

	"github.com/assist-by/cyclone/internal/domain"
)

// DiffPositions는 이전 스냅샷에 없던 새 포지션을 티켓 순으로 반환합니다.
// 한 폴 간격에 여러 건이 체결된 경우에도 생성 순서대로 처리할 수 있게 합니다.
func DiffPositions(prev, curr []domain.Position) []domain.Position {
	seen := make(map[int64]struct{}, len(prev))
	for _, p := range prev {
		seen[p.Ticket] = struct{}{}
	}

	var fresh []domain.Position
	for _, p := range curr {
		if _, ok := seen[p.Ticket]; !ok {
			fresh = append(fresh, p)
		}
	}

	sort.Slice(fresh, func(i, j int) bool {
		return fresh[i].Ticket < fresh[j].Ticket
	})
	return fresh
}
