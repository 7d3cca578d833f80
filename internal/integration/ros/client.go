// Package ros — клиент внешней системы оптимизации маршрутов.
package ros

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

// Client ходит в ROS по HTTP и получает маршрут для набора посылок.
type Client struct {
	baseURL string
	http    *http.Client
	timeout time.Duration
	logger  *log.Entry
}

// NewClient создаёт клиент ROS.
func NewClient(baseURL string, timeout time.Duration, logger *log.Entry) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if logger == nil {
		logger = log.WithField("component", "ros-client")
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{},
		timeout: timeout,
		logger:  logger,
	}
}

type wirePackage struct {
	ID      string `json:"id"`
	Address string `json:"address"`
}

type planRequest struct {
	Packages []wirePackage `json:"packages"`
	DriverID string        `json:"driverId"`
}

type planResponse struct {
	RouteID    string   `json:"routeId"`
	DriverID   string   `json:"driverId"`
	Waypoints  []string `json:"waypoints"`
	Status     string   `json:"status"`
	PackageIDs []string `json:"packageIds"`
}

// PlanRoute запрашивает маршрут у ROS.
func (c *Client) PlanRoute(ctx context.Context, packages []domain.Package, driverID string) (domain.Route, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req := planRequest{DriverID: driverID, Packages: make([]wirePackage, 0, len(packages))}
	for _, p := range packages {
		req.Packages = append(req.Packages, wirePackage{ID: p.ID, Address: p.Address})
	}

	body, err := json.Marshal(req)
	if err != nil {
		return domain.Route{}, fmt.Errorf("marshal ros request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/routes", bytes.NewReader(body))
	if err != nil {
		return domain.Route{}, fmt.Errorf("build ros request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return domain.Route{}, fmt.Errorf("%w: %v", domain.ErrROSUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return domain.Route{}, fmt.Errorf("%w: unexpected status %d", domain.ErrROSUnavailable, resp.StatusCode)
	}

	var out planResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return domain.Route{}, fmt.Errorf("%w: decode response: %v", domain.ErrROSUnavailable, err)
	}
	if out.RouteID == "" {
		return domain.Route{}, fmt.Errorf("%w: empty routeId in response", domain.ErrROSUnavailable)
	}

	route := domain.Route{
		ID:         out.RouteID,
		DriverID:   out.DriverID,
		Waypoints:  out.Waypoints,
		Status:     domain.RouteStatus(out.Status),
		PackageIDs: out.PackageIDs,
	}
	if route.DriverID == "" {
		route.DriverID = driverID
	}
	if route.Status == "" {
		route.Status = domain.RouteStatusAssigned
	}

	return route, nil
}

var _ domain.ROSService = (*Client)(nil)
