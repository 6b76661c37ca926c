package config

import (
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// MT5 브리지 서버 설정
	Bridge struct {
		URL   string `envconfig:"BRIDGE_URL" required:"true"`
		Token string `envconfig:"BRIDGE_TOKEN"`
	}

	// 디스코드 웹훅 설정 (비워두면 해당 채널 알림 비활성화)
	Discord struct {
		TradeWebhook string `envconfig:"DISCORD_TRADE_WEBHOOK"`
		ErrorWebhook string `envconfig:"DISCORD_ERROR_WEBHOOK"`
		InfoWebhook  string `envconfig:"DISCORD_INFO_WEBHOOK"`
	}

	// 애플리케이션 설정
	App struct {
		Symbol        string        `envconfig:"SYMBOL"`
		SymbolKeyword string        `envconfig:"SYMBOL_KEYWORD" default:"XAUUSD"`
		PollInterval  time.Duration `envconfig:"POLL_INTERVAL" default:"500ms"`
		AutoRestart   bool          `envconfig:"AUTO_RESTART" default:"false"`
		RestartDelay  time.Duration `envconfig:"RESTART_DELAY" default:"10s"`
		MetricsAddr   string        `envconfig:"METRICS_ADDR"`
		ReportDir     string        `envconfig:"REPORT_DIR" default:"reports"`
	}

	// 거래 설정
	Trading struct {
		Gap               float64 `envconfig:"GAP" default:"1.0"`
		LossLimit         float64 `envconfig:"LOSS_LIMIT" default:"50"`
		StartOffsetPoints int     `envconfig:"START_OFFSET_POINTS" default:"100"`
		Slippage          int     `envconfig:"SLIPPAGE" default:"500"`
		Magic             int64   `envconfig:"MAGIC" default:"20250901"`
		Direction         string  `envconfig:"DIRECTION" default:"buy"`
		VolatilityLimit   float64 `envconfig:"VOLATILITY_LIMIT" default:"0"`
	}

	// 수열 정책 설정
	Sequence struct {
		Policy      string  `envconfig:"SEQUENCE_POLICY" default:"formula25"`
		BaseVolume  float64 `envconfig:"BASE_VOLUME"`
		Multiplier  float64 `envconfig:"MULTIPLIER" default:"75"`
		FixedTarget float64 `envconfig:"FIXED_TARGET"`
	}

	// 브로커 호출 재시도 설정 (MaxAttempts 0이면 무한 재시도)
	Retry struct {
		MaxAttempts int           `envconfig:"RETRY_MAX_ATTEMPTS" default:"5"`
		BaseDelay   time.Duration `envconfig:"RETRY_BASE_DELAY" default:"1s"`
		MaxDelay    time.Duration `envconfig:"RETRY_MAX_DELAY" default:"30s"`
		Factor      float64       `envconfig:"RETRY_FACTOR" default:"2.0"`
	}
}

// ValidateConfig는 설정이 유효한지 확인합니다.
func ValidateConfig(cfg *Config) error {
	if cfg.Trading.Gap <= 0 {
		return fmt.Errorf("GAP은 0보다 커야 합니다")
	}

	if cfg.Trading.LossLimit <= 0 {
		return fmt.Errorf("LOSS_LIMIT은 0보다 커야 합니다")
	}

	if cfg.App.PollInterval < 100*time.Millisecond {
		return fmt.Errorf("POLL_INTERVAL은 100ms 이상이어야 합니다")
	}

	switch cfg.Trading.Direction {
	case "buy", "sell", "auto":
	default:
		return fmt.Errorf("DIRECTION은 buy, sell, auto 중 하나여야 합니다 (현재: %s)", cfg.Trading.Direction)
	}

	if cfg.Sequence.Policy == "formula25" && cfg.Sequence.Multiplier <= 0 {
		return fmt.Errorf("formula25 정책에는 양수 MULTIPLIER가 필요합니다")
	}

	if cfg.Sequence.Policy == "pattern" && cfg.Sequence.FixedTarget <= 0 {
		return fmt.Errorf("pattern 정책에는 양수 FIXED_TARGET이 필요합니다")
	}

	return nil
}

// LoadConfig는 환경변수에서 설정을 로드합니다.
func LoadConfig() (*Config, error) {
	// .env 파일 로드 (없으면 환경변수만 사용)
	if err := godotenv.Load(); err != nil {
		log.Printf(".env 파일이 없어 환경변수만 사용합니다")
	}

	var cfg Config
	// 환경변수를 구조체로 파싱
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("환경변수 처리 실패: %w", err)
	}

	// 설정값 검증
	if err := ValidateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("설정값 검증 실패: %w", err)
	}

	return &cfg, nil
}
