// Package cms — клиент внешней системы учёта клиентов.
package cms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/loms/internal/domain"
)

const defaultTimeout = 5 * time.Second

// Client ходит в CMS по HTTP. Любой не-2xx ответ или транспортная
// ошибка трактуется как недоступность — вызывающий уводит шаг в outbox.
type Client struct {
	baseURL string
	http    *http.Client
	timeout time.Duration
	logger  *log.Entry
}

// NewClient создаёт клиент CMS.
func NewClient(baseURL string, timeout time.Duration, logger *log.Entry) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if logger == nil {
		logger = log.WithField("component", "cms-client")
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{},
		timeout: timeout,
		logger:  logger,
	}
}

type registerRequest struct {
	ClientID string `json:"clientId"`
	OrderID  string `json:"orderId"`
}

type registerResponse struct {
	CMSOrderID string `json:"cmsOrderId"`
}

// RegisterOrder регистрирует заказ клиента в CMS и возвращает внешний
// идентификатор. Дедлайн вызова ограничен timeout; истечение дедлайна
// эквивалентно недоступности системы.
func (c *Client) RegisterOrder(ctx context.Context, clientID, orderID string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	body, err := json.Marshal(registerRequest{ClientID: clientID, OrderID: orderID})
	if err != nil {
		return "", fmt.Errorf("marshal cms request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/orders", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build cms request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrCMSUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("%w: unexpected status %d", domain.ErrCMSUnavailable, resp.StatusCode)
	}

	var out registerResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("%w: decode response: %v", domain.ErrCMSUnavailable, err)
	}
	if out.CMSOrderID == "" {
		return "", fmt.Errorf("%w: empty cmsOrderId in response", domain.ErrCMSUnavailable)
	}

	return out.CMSOrderID, nil
}

var _ domain.CMSService = (*Client)(nil)
