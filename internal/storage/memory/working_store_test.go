package memory

import (
	"errors"
	"testing"
	"time"

	"github.com/vladislavdragonenkov/loms/internal/domain"
)

func TestWorkingStorePutGetIsolation(t *testing.T) {
	store := NewWorkingStore()

	order := domain.Order{
		ID:       "ord_1",
		ClientID: "cl_1",
		Status:   domain.OrderStatusPending,
		Packages: []domain.Package{{ID: "pkg_1", Status: domain.PackageStatusWaiting}},
	}
	store.PutOrder(order)

	// мутация исходника не должна быть видна в кэше
	order.Packages[0].Status = domain.PackageStatusFailed

	got, ok := store.GetOrder("ord_1")
	if !ok {
		t.Fatal("order not found")
	}
	if got.Packages[0].Status != domain.PackageStatusWaiting {
		t.Errorf("cache shares package slice with caller: %s", got.Packages[0].Status)
	}

	// и мутация прочитанной копии не должна попасть в кэш
	got.Packages[0].Status = domain.PackageStatusDelivered
	again, _ := store.GetOrder("ord_1")
	if again.Packages[0].Status != domain.PackageStatusWaiting {
		t.Errorf("GetOrder returned shared slice: %s", again.Packages[0].Status)
	}

	if _, ok := store.GetOrder("ord_missing"); ok {
		t.Error("GetOrder(missing) = ok")
	}
}

func TestWorkingStoreUpdateOrder(t *testing.T) {
	store := NewWorkingStore()
	store.PutOrder(domain.Order{ID: "ord_1", Status: domain.OrderStatusPending})

	updated, err := store.UpdateOrder("ord_1", func(o *domain.Order) error {
		return o.Advance(domain.OrderStatusInWMS, time.Now())
	})
	if err != nil {
		t.Fatalf("UpdateOrder() error = %v", err)
	}
	if updated.Status != domain.OrderStatusInWMS {
		t.Errorf("returned status = %s, want %s", updated.Status, domain.OrderStatusInWMS)
	}

	// ошибка fn отменяет запись
	boom := errors.New("boom")
	if _, err := store.UpdateOrder("ord_1", func(o *domain.Order) error {
		o.Status = domain.OrderStatusFailed
		return boom
	}); !errors.Is(err, boom) {
		t.Fatalf("UpdateOrder() error = %v, want %v", err, boom)
	}
	got, _ := store.GetOrder("ord_1")
	if got.Status != domain.OrderStatusInWMS {
		t.Errorf("rejected update leaked: status = %s", got.Status)
	}

	if _, err := store.UpdateOrder("ord_missing", func(*domain.Order) error { return nil }); !errors.Is(err, domain.ErrOrderNotFound) {
		t.Errorf("UpdateOrder(missing) error = %v, want %v", err, domain.ErrOrderNotFound)
	}
}

func TestWorkingStoreUpdateOrderByPackage(t *testing.T) {
	store := NewWorkingStore()
	store.PutOrder(domain.Order{
		ID:       "ord_1",
		Packages: []domain.Package{{ID: "pkg_a", Status: domain.PackageStatusInTransit}},
	})
	store.PutOrder(domain.Order{
		ID:       "ord_2",
		Packages: []domain.Package{{ID: "pkg_b", Status: domain.PackageStatusInTransit}},
	})

	updated, err := store.UpdateOrderByPackage("pkg_b", func(o *domain.Order) error {
		idx := o.FindPackage("pkg_b")
		return o.Packages[idx].MarkDelivered(domain.DeliveryProof{}, time.Now())
	})
	if err != nil {
		t.Fatalf("UpdateOrderByPackage() error = %v", err)
	}
	if updated.ID != "ord_2" {
		t.Errorf("updated order = %s, want ord_2", updated.ID)
	}
	if updated.Packages[0].Status != domain.PackageStatusDelivered {
		t.Errorf("package status = %s, want %s", updated.Packages[0].Status, domain.PackageStatusDelivered)
	}

	if _, err := store.UpdateOrderByPackage("pkg_missing", func(*domain.Order) error { return nil }); !errors.Is(err, domain.ErrPackageNotFound) {
		t.Errorf("UpdateOrderByPackage(missing) error = %v, want %v", err, domain.ErrPackageNotFound)
	}
}

func TestWorkingStoreRoutes(t *testing.T) {
	store := NewWorkingStore()

	store.PutRoute(domain.Route{ID: "rt_1", DriverID: "drv_1", Waypoints: []string{"a"}})

	route, ok := store.GetRoute("rt_1")
	if !ok {
		t.Fatal("route not found")
	}
	route.Waypoints[0] = "mutated"

	again, _ := store.GetRoute("rt_1")
	if again.Waypoints[0] != "a" {
		t.Errorf("GetRoute returned shared slice: %s", again.Waypoints[0])
	}

	if _, ok := store.GetRoute("rt_missing"); ok {
		t.Error("GetRoute(missing) = ok")
	}
}

func TestWorkingStoreListOrders(t *testing.T) {
	store := NewWorkingStore()
	store.PutOrder(domain.Order{ID: "ord_1"})
	store.PutOrder(domain.Order{ID: "ord_2"})

	if got := len(store.ListOrders()); got != 2 {
		t.Fatalf("ListOrders() = %d orders, want 2", got)
	}
}
