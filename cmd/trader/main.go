package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	osSignal "os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/assist-by/cyclone/internal/analysis/trend"
	"github.com/assist-by/cyclone/internal/broker"
	"github.com/assist-by/cyclone/internal/broker/mtbridge"
	"github.com/assist-by/cyclone/internal/config"
	"github.com/assist-by/cyclone/internal/cycle"
	"github.com/assist-by/cyclone/internal/domain"
	"github.com/assist-by/cyclone/internal/gateway"
	"github.com/assist-by/cyclone/internal/metrics"
	"github.com/assist-by/cyclone/internal/notification/discord"
	"github.com/assist-by/cyclone/internal/report"
	"github.com/assist-by/cyclone/internal/runner"
	"github.com/assist-by/cyclone/internal/sequence"
)

// directionRecheckInterval은 변동성 과다로 진입이 보류됐을 때 재분석 간격입니다
const directionRecheckInterval = time.Minute

// CycleTask는 사이클 한 번의 구성과 실행을 정의합니다
type CycleTask struct {
	broker  broker.Broker
	rules   *domain.SymbolRules
	seq     sequence.Sequence
	cfg     *config.Config
	discord *discord.Client
}

// Execute는 사이클 한 번을 끝까지 실행합니다
func (t *CycleTask) Execute(ctx context.Context) (domain.Outcome, error) {
	firstSide, err := t.resolveFirstSide(ctx)
	if err != nil {
		return domain.OutcomeError, err
	}

	rep := report.New(t.rules.Symbol)

	gw := gateway.New(t.broker, t.rules,
		gateway.WithRetryPolicy(gateway.RetryPolicy{
			MaxAttempts: t.cfg.Retry.MaxAttempts,
			BaseDelay:   t.cfg.Retry.BaseDelay,
			MaxDelay:    t.cfg.Retry.MaxDelay,
			Factor:      t.cfg.Retry.Factor,
		}),
		gateway.WithReport(rep),
		gateway.WithNotifier(t.discord),
		gateway.WithSlippage(t.cfg.Trading.Slippage),
		gateway.WithMagic(t.cfg.Trading.Magic),
	)

	engine := cycle.New(t.broker, gw, t.seq, t.rules, cycle.Config{
		Gap:          t.cfg.Trading.Gap,
		LossLimit:    t.cfg.Trading.LossLimit,
		StartOffset:  float64(t.cfg.Trading.StartOffsetPoints) * t.rules.Point,
		FirstSide:    firstSide,
		PollInterval: t.cfg.App.PollInterval,
	}, cycle.WithReport(rep), cycle.WithNotifier(t.discord))

	outcome, err := engine.Run(ctx)
	t.saveReport(rep)
	return outcome, err
}

// resolveFirstSide는 설정된 방향 모드에 따라 첫 레그 방향을 결정합니다.
// auto 모드에서는 변동성이 가라앉을 때까지 진입을 보류할 수 있습니다.
func (t *CycleTask) resolveFirstSide(ctx context.Context) (domain.OrderSide, error) {
	switch t.cfg.Trading.Direction {
	case "sell":
		return domain.Sell, nil
	case "auto":
	default:
		return domain.Buy, nil
	}

	trendCfg := trend.DefaultConfig(t.cfg.Trading.VolatilityLimit)
	limit := trendCfg.SlowPeriod + trendCfg.ATRPeriod + 1

	for {
		candles, err := t.broker.GetKlines(ctx, t.rules.Symbol, domain.Interval15m, limit)
		if err != nil {
			return "", fmt.Errorf("추세 분석용 캔들 조회 실패: %w", err)
		}

		dir := trend.Predict(candles, trendCfg)
		if dir != trend.Wait {
			return dir.FirstSide(), nil
		}

		log.Printf("⏳ 변동성이 가라앉을 때까지 %v 후 재분석합니다", directionRecheckInterval)
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(directionRecheckInterval):
		}
	}
}

// saveReport는 사이클 리포트를 CSV 파일로 저장합니다
func (t *CycleTask) saveReport(rep *report.Report) {
	if t.cfg.App.ReportDir == "" {
		return
	}

	if err := os.MkdirAll(t.cfg.App.ReportDir, 0o755); err != nil {
		log.Printf("리포트 디렉토리 생성 실패: %v", err)
		return
	}

	name := fmt.Sprintf("cycle_%s_%s.csv", t.rules.Symbol, time.Now().Format("20060102_150405"))
	path := filepath.Join(t.cfg.App.ReportDir, name)

	f, err := os.Create(path)
	if err != nil {
		log.Printf("리포트 파일 생성 실패: %v", err)
		return
	}
	defer f.Close()

	if err := rep.WriteCSV(f); err != nil {
		log.Printf("리포트 저장 실패: %v", err)
		return
	}
	log.Printf("🧾 사이클 리포트 저장: %s", path)
}

func main() {
	// 명령줄 플래그 정의
	symbolFlag := flag.String("symbol", "", "거래 심볼 (설정보다 우선)")
	autoFlag := flag.Bool("auto", false, "사이클 자동 재시작 모드로 실행")

	// 플래그 파싱
	flag.Parse()

	// 컨텍스트 생성
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 로그 설정
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.Println("사이클 트레이딩 봇 시작...")

	// 설정 로드
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("설정 로드 실패: %v", err)
	}

	// Discord 클라이언트 생성
	discordClient := discord.NewClient(
		cfg.Discord.TradeWebhook,
		cfg.Discord.ErrorWebhook,
		cfg.Discord.InfoWebhook,
		discord.WithTimeout(10*time.Second),
	)

	// 시작 알림 전송
	if err := discordClient.SendInfo("🌀 사이클 트레이딩 봇이 시작되었습니다."); err != nil {
		log.Printf("시작 알림 전송 실패: %v", err)
	}

	// 메트릭 서버 시작
	if cfg.App.MetricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", metrics.Handler())
			log.Printf("메트릭 서버 시작: %s/metrics", cfg.App.MetricsAddr)
			if err := http.ListenAndServe(cfg.App.MetricsAddr, mux); err != nil {
				log.Printf("메트릭 서버 종료: %v", err)
			}
		}()
	}

	// 브리지 클라이언트 생성
	bridgeClient := mtbridge.NewClient(
		cfg.Bridge.URL,
		cfg.Bridge.Token,
		mtbridge.WithTimeout(10*time.Second),
	)

	// 거래 심볼 결정: 플래그 > 설정 > 키워드 검색
	symbol := *symbolFlag
	if symbol == "" {
		symbol = cfg.App.Symbol
	}
	if symbol == "" {
		found, err := bridgeClient.FindSymbol(ctx, cfg.App.SymbolKeyword)
		if err != nil {
			log.Fatalf("심볼 검색 실패 (키워드: %s): %v", cfg.App.SymbolKeyword, err)
		}
		symbol = found
		log.Printf("🔍 키워드 '%s'로 심볼 발견: %s", cfg.App.SymbolKeyword, symbol)
	}

	// 심볼 거래 제약 조회 (세션 동안 읽기 전용으로 공유)
	rules, err := bridgeClient.GetSymbolRules(ctx, symbol)
	if err != nil {
		log.Printf("심볼 제약 조회 실패: %v", err)
		if err := discordClient.SendError(fmt.Errorf("심볼 제약 조회 실패: %w", err)); err != nil {
			log.Printf("에러 알림 전송 실패: %v", err)
		}
		os.Exit(1)
	}
	log.Printf("📐 심볼 제약: point=%v digits=%d vol=[%v, %v] step=%v stop=%v freeze=%v",
		rules.Point, rules.Digits, rules.VolumeMin, rules.VolumeMax,
		rules.VolumeStep, rules.StopLevel, rules.FreezeLevel)

	// 수열 정책 생성
	seq, err := sequence.DefaultRegistry().Create(cfg.Sequence.Policy, sequence.Config{
		Rules:       rules,
		BaseVolume:  cfg.Sequence.BaseVolume,
		Multiplier:  cfg.Sequence.Multiplier,
		FixedTarget: cfg.Sequence.FixedTarget,
	})
	if err != nil {
		log.Fatalf("수열 정책 생성 실패: %v", err)
	}
	log.Printf("📈 수열 정책: %s", seq.Name())

	task := &CycleTask{
		broker:  bridgeClient,
		rules:   rules,
		seq:     seq,
		cfg:     cfg,
		discord: discordClient,
	}

	// 시그널 처리
	sigChan := make(chan os.Signal, 1)
	osSignal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		log.Printf("시스템 종료 신호 수신: %v", sig)
		cancel()
	}()

	// 실행: 자동 재시작 모드 또는 단일 사이클
	var runErr error
	if *autoFlag || cfg.App.AutoRestart {
		cycleRunner := runner.New(cfg.App.RestartDelay, task)
		runErr = cycleRunner.Start(ctx)
	} else {
		outcome, err := task.Execute(ctx)
		log.Printf("사이클 종료 (결과: %s)", outcome)
		runErr = err
	}

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		log.Printf("실행 중 에러 발생: %v", runErr)
		if err := discordClient.SendError(runErr); err != nil {
			log.Printf("에러 알림 전송 실패: %v", err)
		}
	}

	// 종료 알림 전송
	if err := discordClient.SendInfo("👋 사이클 트레이딩 봇이 종료되었습니다."); err != nil {
		log.Printf("종료 알림 전송 실패: %v", err)
	}

	log.Println("프로그램을 종료합니다.")
}
