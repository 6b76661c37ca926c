package discord

import (
	"fmt"
	"time"

	"github.com/assist-by/cyclone/internal/domain"
	"github.com/assist-by/cyclone/internal/notification"
)

// SendTrigger는 레그 트리거/주문 접수 알림을 Discord로 전송합니다
func (c *Client) SendTrigger(info notification.TriggerInfo) error {
	var emoji string
	var color int

	switch info.Side {
	case domain.Buy:
		emoji = "🚀"
		color = notification.ColorSuccess
	default:
		emoji = "🔻"
		color = notification.ColorError
	}

	embed := NewEmbed().
		SetTitle(fmt.Sprintf("%s %s STOP 접수: %s", emoji, info.Side, info.Symbol)).
		SetDescription(fmt.Sprintf(
			"**트리거**: #%d\n**수량**: %.2f\n**가격**: %.5g\n**목표 수익**: $%.2f",
			info.Trigger, info.Volume, info.Price, info.Target,
		)).
		SetColor(color).
		SetFooter("Cyclone Trading Bot 🌀").
		SetTimestamp(time.Now())

	msg := WebhookMessage{
		Embeds: []Embed{*embed},
	}

	return c.sendToWebhook(c.tradeWebhook, msg)
}

// SendCycleSummary는 사이클 종료 요약을 Discord로 전송합니다
func (c *Client) SendCycleSummary(summary notification.CycleSummary) error {
	var emoji string
	switch summary.Outcome {
	case domain.OutcomeProfit:
		emoji = "🎯"
	case domain.OutcomeLoss:
		emoji = "❌"
	default:
		emoji = "⚠️"
	}

	embed := NewEmbed().
		SetTitle(fmt.Sprintf("%s 사이클 종료: %s (%s)", emoji, summary.Symbol, summary.Outcome)).
		SetColor(notification.GetColorForOutcome(summary.Outcome)).
		SetFooter("Cyclone Trading Bot 🌀").
		SetTimestamp(time.Now())

	embed.AddField("손익", fmt.Sprintf("$%.2f", summary.Profit), true)
	embed.AddField("트리거 수", fmt.Sprintf("%d", summary.Triggers), true)
	embed.AddField("총 수량", fmt.Sprintf("%.2f", summary.TotalVolume), true)
	embed.AddField("소요 시간", summary.Elapsed.Round(time.Second).String(), true)

	msg := WebhookMessage{
		Embeds: []Embed{*embed},
	}

	return c.sendToWebhook(c.tradeWebhook, msg)
}
