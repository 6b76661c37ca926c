// internal/broker/mtbridge/client.go
package mtbridge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/assist-by/cyclone/internal/domain"
)

// Client는 MT5 REST 브리지 API 클라이언트를 구현합니다.
// 브리지 서버는 로컬 터미널의 MetaTrader5 세션을 HTTP로 중계합니다.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// ClientOption은 클라이언트 생성 옵션을 정의합니다
type ClientOption func(*Client)

// WithTimeout은 HTTP 클라이언트의 타임아웃을 설정합니다
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithBaseURL은 브리지 서버 주소를 설정합니다
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// NewClient는 새로운 브리지 API 클라이언트를 생성합니다
func NewClient(baseURL, token string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    baseURL,
		token:      token,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}

	// 옵션 적용
	for _, opt := range opts {
		opt(c)
	}

	return c
}

// doRequest는 HTTP 요청을 실행하고 결과를 반환합니다
func (c *Client) doRequest(ctx context.Context, method, endpoint string, params url.Values, body interface{}) ([]byte, error) {
	reqURL, err := url.Parse(c.baseURL + endpoint)
	if err != nil {
		return nil, fmt.Errorf("URL 파싱 실패: %w", err)
	}
	if params != nil {
		reqURL.RawQuery = params.Encode()
	}

	// 요청 본문 직렬화
	var reqBody io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("요청 본문 직렬화 실패: %w", err)
		}
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), reqBody)
	if err != nil {
		return nil, fmt.Errorf("요청 생성 실패: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("X-Bridge-Token", c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("API 요청 실패: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("응답 읽기 실패: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		}
		if err := json.Unmarshal(respBody, &apiErr); err != nil {
			return nil, fmt.Errorf("HTTP 에러(%d): %s", resp.StatusCode, string(respBody))
		}
		return nil, fmt.Errorf("브리지 에러(코드: %d): %s", apiErr.Code, apiErr.Message)
	}

	return respBody, nil
}

// GetTick은 현재 호가를 조회합니다
func (c *Client) GetTick(ctx context.Context, symbol string) (*domain.Tick, error) {
	params := url.Values{}
	params.Add("symbol", symbol)

	resp, err := c.doRequest(ctx, http.MethodGet, "/api/v1/tick", params, nil)
	if err != nil {
		return nil, err
	}

	var raw struct {
		Bid     float64 `json:"bid"`
		Ask     float64 `json:"ask"`
		TimeMsc int64   `json:"time_msc"`
	}
	if err := json.Unmarshal(resp, &raw); err != nil {
		return nil, fmt.Errorf("호가 파싱 실패: %w", err)
	}

	// 브리지가 틱을 중계하지 못하는 순간이 있습니다 (터미널 재접속 등)
	if raw.Bid == 0 && raw.Ask == 0 {
		return nil, fmt.Errorf("심볼 %s의 호가가 비어있습니다", symbol)
	}

	return &domain.Tick{
		Bid:  raw.Bid,
		Ask:  raw.Ask,
		Time: time.Unix(0, raw.TimeMsc*int64(time.Millisecond)),
	}, nil
}

// GetSymbolRules는 심볼의 거래 제약 조건을 조회합니다.
// 스탑/프리즈 레벨은 포인트 수로 내려오므로 가격 단위로 환산하여 반환합니다.
func (c *Client) GetSymbolRules(ctx context.Context, symbol string) (*domain.SymbolRules, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/api/v1/symbols/"+url.PathEscape(symbol), nil, nil)
	if err != nil {
		return nil, fmt.Errorf("심볼 정보 조회 실패: %w", err)
	}

	var raw struct {
		Symbol          string  `json:"symbol"`
		Point           float64 `json:"point"`
		Digits          int     `json:"digits"`
		VolumeMin       float64 `json:"volume_min"`
		VolumeMax       float64 `json:"volume_max"`
		VolumeStep      float64 `json:"volume_step"`
		TradeStopsLevel int     `json:"trade_stops_level"`
		FreezeLevel     int     `json:"freeze_level"`
	}
	if err := json.Unmarshal(resp, &raw); err != nil {
		return nil, fmt.Errorf("심볼 정보 파싱 실패: %w", err)
	}

	if raw.Symbol == "" {
		return nil, fmt.Errorf("심볼 정보를 찾을 수 없음: %s", symbol)
	}

	return &domain.SymbolRules{
		Symbol:      raw.Symbol,
		Point:       raw.Point,
		Digits:      raw.Digits,
		VolumeMin:   raw.VolumeMin,
		VolumeMax:   raw.VolumeMax,
		VolumeStep:  raw.VolumeStep,
		StopLevel:   float64(raw.TradeStopsLevel) * raw.Point,
		FreezeLevel: float64(raw.FreezeLevel) * raw.Point,
	}, nil
}

// FindSymbol은 키워드가 포함된 첫 번째 거래 가능 심볼을 반환합니다.
// 브로커마다 심볼 접미사가 다르기 때문에 (XAUUSD, XAUUSD_, XAUUSD.m 등) 탐색이 필요합니다.
func (c *Client) FindSymbol(ctx context.Context, keyword string) (string, error) {
	params := url.Values{}
	params.Add("keyword", keyword)

	resp, err := c.doRequest(ctx, http.MethodGet, "/api/v1/symbols", params, nil)
	if err != nil {
		return "", fmt.Errorf("심볼 검색 실패: %w", err)
	}

	var raw struct {
		Symbols []string `json:"symbols"`
	}
	if err := json.Unmarshal(resp, &raw); err != nil {
		return "", fmt.Errorf("심볼 목록 파싱 실패: %w", err)
	}

	if len(raw.Symbols) == 0 {
		return "", fmt.Errorf("'%s'를 포함하는 심볼을 찾을 수 없습니다", keyword)
	}

	return raw.Symbols[0], nil
}

// GetKlines는 캔들 데이터를 조회합니다
func (c *Client) GetKlines(ctx context.Context, symbol string, interval domain.TimeInterval, limit int) (domain.CandleList, error) {
	params := url.Values{}
	params.Add("symbol", symbol)
	params.Add("interval", string(interval))
	params.Add("limit", strconv.Itoa(limit))

	resp, err := c.doRequest(ctx, http.MethodGet, "/api/v1/klines", params, nil)
	if err != nil {
		return nil, err
	}

	var rawCandles []struct {
		Time   int64   `json:"time"`
		Open   float64 `json:"open"`
		High   float64 `json:"high"`
		Low    float64 `json:"low"`
		Close  float64 `json:"close"`
		Volume float64 `json:"tick_volume"`
	}
	if err := json.Unmarshal(resp, &rawCandles); err != nil {
		return nil, fmt.Errorf("캔들 데이터 파싱 실패: %w", err)
	}

	candles := make(domain.CandleList, len(rawCandles))
	for i, raw := range rawCandles {
		candles[i] = domain.Candle{
			OpenTime: time.Unix(raw.Time, 0),
			Open:     raw.Open,
			High:     raw.High,
			Low:      raw.Low,
			Close:    raw.Close,
			Volume:   raw.Volume,
			Symbol:   symbol,
			Interval: interval,
		}
	}

	return candles, nil
}

// GetAccountSnapshot은 계정 상태를 조회합니다
func (c *Client) GetAccountSnapshot(ctx context.Context) (*domain.AccountSnapshot, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/api/v1/account", nil, nil)
	if err != nil {
		return nil, fmt.Errorf("계정 정보 조회 실패: %w", err)
	}

	var raw struct {
		Balance float64 `json:"balance"`
		Equity  float64 `json:"equity"`
		Profit  float64 `json:"profit"`
	}
	if err := json.Unmarshal(resp, &raw); err != nil {
		return nil, fmt.Errorf("계정 정보 파싱 실패: %w", err)
	}

	return &domain.AccountSnapshot{
		Balance: raw.Balance,
		Equity:  raw.Equity,
		Profit:  raw.Profit,
	}, nil
}

// ListPositions는 특정 심볼의 체결된 포지션 목록을 조회합니다
func (c *Client) ListPositions(ctx context.Context, symbol string) ([]domain.Position, error) {
	params := url.Values{}
	params.Add("symbol", symbol)

	resp, err := c.doRequest(ctx, http.MethodGet, "/api/v1/positions", params, nil)
	if err != nil {
		return nil, fmt.Errorf("포지션 조회 실패: %w", err)
	}

	var rawPositions []struct {
		Ticket    int64   `json:"ticket"`
		Type      string  `json:"type"` // "buy" | "sell"
		Volume    float64 `json:"volume"`
		PriceOpen float64 `json:"price_open"`
		Profit    float64 `json:"profit"`
		Time      int64   `json:"time"`
	}
	if err := json.Unmarshal(resp, &rawPositions); err != nil {
		return nil, fmt.Errorf("포지션 파싱 실패: %w", err)
	}

	positions := make([]domain.Position, len(rawPositions))
	for i, raw := range rawPositions {
		side := domain.Buy
		if raw.Type == "sell" {
			side = domain.Sell
		}
		positions[i] = domain.Position{
			Ticket:    raw.Ticket,
			Side:      side,
			Volume:    raw.Volume,
			OpenPrice: raw.PriceOpen,
			Profit:    raw.Profit,
			OpenTime:  time.Unix(raw.Time, 0),
		}
	}

	return positions, nil
}

// ListPendingOrders는 특정 심볼의 대기 주문 목록을 조회합니다
func (c *Client) ListPendingOrders(ctx context.Context, symbol string) ([]domain.PendingOrder, error) {
	params := url.Values{}
	params.Add("symbol", symbol)

	resp, err := c.doRequest(ctx, http.MethodGet, "/api/v1/orders", params, nil)
	if err != nil {
		return nil, fmt.Errorf("대기 주문 조회 실패: %w", err)
	}

	var rawOrders []struct {
		Ticket    int64   `json:"ticket"`
		Type      string  `json:"type"` // "buy_stop" | "sell_stop"
		PriceOpen float64 `json:"price_open"`
		Volume    float64 `json:"volume_current"`
	}
	if err := json.Unmarshal(resp, &rawOrders); err != nil {
		return nil, fmt.Errorf("대기 주문 파싱 실패: %w", err)
	}

	orders := make([]domain.PendingOrder, len(rawOrders))
	for i, raw := range rawOrders {
		side := domain.Buy
		if raw.Type == "sell_stop" {
			side = domain.Sell
		}
		orders[i] = domain.PendingOrder{
			Ticket: raw.Ticket,
			Side:   side,
			Price:  raw.PriceOpen,
			Volume: raw.Volume,
		}
	}

	return orders, nil
}

// PlaceOrder는 주문을 제출합니다
func (c *Client) PlaceOrder(ctx context.Context, order domain.OrderRequest) (*domain.OrderResponse, error) {
	payload := map[string]interface{}{
		"symbol":          order.Symbol,
		"side":            string(order.Side),
		"type":            string(order.Type),
		"volume":          order.Volume,
		"deviation":       order.Deviation,
		"client_order_id": order.ClientOrderID,
		"comment":         order.Comment,
		"magic":           order.Magic,
	}
	if order.Type == domain.Stop {
		payload["price"] = order.Price
	}
	if order.PositionTicket != 0 {
		payload["position"] = order.PositionTicket
	}

	resp, err := c.doRequest(ctx, http.MethodPost, "/api/v1/orders", nil, payload)
	if err != nil {
		return nil, fmt.Errorf("주문 전송 실패: %w", err)
	}

	var raw struct {
		Retcode int     `json:"retcode"`
		Ticket  int64   `json:"order"`
		Price   float64 `json:"price"`
		Comment string  `json:"comment"`
	}
	if err := json.Unmarshal(resp, &raw); err != nil {
		return nil, fmt.Errorf("주문 응답 파싱 실패: %w", err)
	}

	return &domain.OrderResponse{
		Accepted: raw.Retcode == domain.RetcodeDone,
		RetCode:  raw.Retcode,
		Ticket:   raw.Ticket,
		Price:    raw.Price,
		Message:  raw.Comment,
	}, nil
}

// CancelOrder는 대기 주문을 취소합니다
func (c *Client) CancelOrder(ctx context.Context, ticket int64) error {
	_, err := c.doRequest(ctx, http.MethodDelete, "/api/v1/orders/"+strconv.FormatInt(ticket, 10), nil, nil)
	if err != nil {
		return fmt.Errorf("주문 취소 실패 (티켓 %d): %w", ticket, err)
	}
	return nil
}
