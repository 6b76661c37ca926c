package runner

import (
	"context"
	"log"
	"time"

	"github.com/assist-by/cyclone/internal/domain"
)

// Task는 러너가 반복 실행할 사이클 작업을 정의하는 인터페이스입니다
type Task interface {
	Execute(ctx context.Context) (domain.Outcome, error)
}

// Runner는 사이클을 연속으로 실행하는 러너입니다.
// 한 사이클이 정상 종료되면 지정한 대기 시간 후 다음 사이클을 시작합니다.
type Runner struct {
	delay  time.Duration
	task   Task
	stopCh chan struct{}
}

// New는 새로운 사이클 러너를 생성합니다
func New(delay time.Duration, task Task) *Runner {
	return &Runner{
		delay:  delay,
		task:   task,
		stopCh: make(chan struct{}),
	}
}

// Start는 러너를 시작합니다.
// 사이클이 에러로 종료되면 재시작하지 않고 에러를 반환합니다.
func (r *Runner) Start(ctx context.Context) error {
	for run := 1; ; run++ {
		log.Printf("🔁 사이클 #%d 시작", run)

		outcome, err := r.task.Execute(ctx)
		if err != nil {
			log.Printf("사이클 #%d 비정상 종료: %v", run, err)
			return err
		}
		log.Printf("사이클 #%d 종료 (결과: %s), 다음 사이클까지 %v 대기",
			run, outcome, r.delay.Round(time.Second))

		timer := time.NewTimer(r.delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-r.stopCh:
			timer.Stop()
			return nil
		case <-timer.C:
		}
	}
}

// Stop은 현재 사이클이 끝난 뒤 러너를 중지합니다
func (r *Runner) Stop() {
	close(r.stopCh)
}
