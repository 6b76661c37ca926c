package discord

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/assist-by/cyclone/internal/notification"
)

// Client는 Discord 웹훅 알림 클라이언트를 구현합니다
type Client struct {
	tradeWebhook string
	errorWebhook string
	infoWebhook  string
	httpClient   *http.Client
}

// ClientOption은 클라이언트 생성 옵션을 정의합니다
type ClientOption func(*Client)

// WithTimeout은 HTTP 클라이언트의 타임아웃을 설정합니다
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// NewClient는 새로운 Discord 웹훅 클라이언트를 생성합니다
func NewClient(tradeWebhook, errorWebhook, infoWebhook string, opts ...ClientOption) *Client {
	c := &Client{
		tradeWebhook: tradeWebhook,
		errorWebhook: errorWebhook,
		infoWebhook:  infoWebhook,
		httpClient:   &http.Client{Timeout: 10 * time.Second},
	}

	// 옵션 적용
	for _, opt := range opts {
		opt(c)
	}

	return c
}

// sendToWebhook은 웹훅 URL로 메시지를 전송합니다.
// URL이 비어있으면 해당 채널 알림이 비활성화된 것으로 보고 조용히 넘어갑니다.
func (c *Client) sendToWebhook(webhookURL string, msg WebhookMessage) error {
	if webhookURL == "" {
		return nil
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("웹훅 메시지 직렬화 실패: %w", err)
	}

	resp, err := c.httpClient.Post(webhookURL, "application/json", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("웹훅 전송 실패: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("웹훅 응답 에러: HTTP %d", resp.StatusCode)
	}

	return nil
}

// SendInfo는 일반 정보 알림을 전송합니다
func (c *Client) SendInfo(message string) error {
	embed := NewEmbed().
		SetDescription(message).
		SetColor(notification.ColorInfo).
		SetFooter("Cyclone Trading Bot 🌀").
		SetTimestamp(time.Now())

	msg := WebhookMessage{
		Embeds: []Embed{*embed},
	}

	return c.sendToWebhook(c.infoWebhook, msg)
}

// SendError는 에러 알림을 전송합니다
func (c *Client) SendError(err error) error {
	embed := NewEmbed().
		SetTitle("에러 발생").
		SetDescription(fmt.Sprintf("```%v```", err)).
		SetColor(notification.ColorError).
		SetFooter("Cyclone Trading Bot 🌀").
		SetTimestamp(time.Now())

	msg := WebhookMessage{
		Embeds: []Embed{*embed},
	}

	return c.sendToWebhook(c.errorWebhook, msg)
}
