// Package wms — клиент внешней складской системы.
package wms

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

// Client ходит в WMS по HTTP. WMS назначает посылкам канонические
// идентификаторы и начальные статусы; ответ замещает локальный список.
type Client struct {
	baseURL string
	http    *http.Client
	timeout time.Duration
	logger  *log.Entry
}

// NewClient создаёт клиент WMS.
func NewClient(baseURL string, timeout time.Duration, logger *log.Entry) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if logger == nil {
		logger = log.WithField("component", "wms-client")
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{},
		timeout: timeout,
		logger:  logger,
	}
}

type wirePackage struct {
	ID          string `json:"id,omitempty"`
	Description string `json:"description"`
	Address     string `json:"address"`
	Status      string `json:"status,omitempty"`
}

type registerRequest struct {
	Packages []wirePackage `json:"packages"`
}

type registerResponse struct {
	Packages []wirePackage `json:"packages"`
}

// RegisterPackages передаёт посылки складу и возвращает канонический
// список из ответа WMS.
func (c *Client) RegisterPackages(ctx context.Context, packages []domain.Package) ([]domain.Package, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req := registerRequest{Packages: make([]wirePackage, 0, len(packages))}
	for _, p := range packages {
		req.Packages = append(req.Packages, wirePackage{
			Description: p.Description,
			Address:     p.Address,
		})
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal wms request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/packages", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build wms request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrWMSUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: unexpected status %d", domain.ErrWMSUnavailable, resp.StatusCode)
	}

	var out registerResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", domain.ErrWMSUnavailable, err)
	}
	if len(out.Packages) == 0 {
		return nil, fmt.Errorf("%w: empty package list in response", domain.ErrWMSUnavailable)
	}

	result := make([]domain.Package, 0, len(out.Packages))
	for _, p := range out.Packages {
		status := domain.PackageStatus(p.Status)
		if status == "" {
			status = domain.PackageStatusWaiting
		}
		result = append(result, domain.Package{
			ID:          p.ID,
			Description: p.Description,
			Address:     p.Address,
			Status:      status,
		})
	}

	return result, nil
}

var _ domain.WMSService = (*Client)(nil)
