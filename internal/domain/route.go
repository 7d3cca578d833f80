package domain

import "time"

// RouteStatus отражает состояние маршрута водителя.
type RouteStatus string

const (
	// RouteStatusAssigned — маршрут построен и закреплён за водителем.
	RouteStatusAssigned RouteStatus = "ASSIGNED"
	// RouteStatusInProgress — водитель выполняет маршрут.
	RouteStatusInProgress RouteStatus = "IN_PROGRESS"
	// RouteStatusCompleted — маршрут завершён.
	RouteStatusCompleted RouteStatus = "COMPLETED"
)

// Route — построенный маршрут доставки для набора посылок.
type Route struct {
	ID         string      `json:"id"`
	DriverID   string      `json:"driver_id"`
	Waypoints  []string    `json:"waypoints"`
	Status     RouteStatus `json:"status"`
	PackageIDs []string    `json:"package_ids"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
}

// Clone возвращает копию маршрута с собственными срезами.
func (r Route) Clone() Route {
	dst := r
	dst.Waypoints = append([]string(nil), r.Waypoints...)
	dst.PackageIDs = append([]string(nil), r.PackageIDs...)
	return dst
}
