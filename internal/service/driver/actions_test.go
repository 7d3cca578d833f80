package driver

import (
	"context"
	"errors"
	"testing"

	"github.com/vladislavdragonenkov/loms/internal/bus"
	"github.com/vladislavdragonenkov/loms/internal/domain"
	"github.com/vladislavdragonenkov/loms/internal/storage/memory"
)

func newDriverTestEnv(t *testing.T) (*Service, domain.WorkingStore, *[]domain.Event) {
	t.Helper()

	eventBus := bus.New(nil)
	var events []domain.Event
	eventBus.Subscribe(func(e domain.Event) { events = append(events, e) })

	working := memory.NewWorkingStore()
	svc := NewService(working, memory.NewDocumentStore(), eventBus, nil)
	return svc, working, &events
}

func seedOrder(working domain.WorkingStore) {
	working.PutOrder(domain.Order{
		ID:       "ord_1",
		ClientID: "cl_1",
		Status:   domain.OrderStatusRouted,
		Packages: []domain.Package{
			{ID: "pkg_a", Status: domain.PackageStatusInTransit},
			{ID: "pkg_b", Status: domain.PackageStatusInTransit},
		},
	})
}

func TestDeliverPackage(t *testing.T) {
	svc, working, events := newDriverTestEnv(t)
	seedOrder(working)

	order, err := svc.Deliver(context.Background(), "pkg_a", domain.DeliveryProof{PhotoURL: "http://proof"})
	if err != nil {
		t.Fatalf("Deliver() error = %v", err)
	}

	idx := order.FindPackage("pkg_a")
	if order.Packages[idx].Status != domain.PackageStatusDelivered {
		t.Errorf("package status = %s", order.Packages[idx].Status)
	}
	if order.Packages[idx].Proof == nil || order.Packages[idx].Proof.PhotoURL != "http://proof" {
		t.Errorf("proof not recorded: %+v", order.Packages[idx].Proof)
	}
	// вторая посылка ещё в пути, заказ не завершён
	if order.Status != domain.OrderStatusRouted {
		t.Errorf("order status = %s, want %s", order.Status, domain.OrderStatusRouted)
	}

	got := *events
	if len(got) != 2 {
		t.Fatalf("events = %d, want 2", len(got))
	}
	if got[0].Kind() != domain.EventPackageUpdated || got[1].Kind() != domain.EventOrderUpdated {
		t.Errorf("event order = %s, %s", got[0].Kind(), got[1].Kind())
	}
}

func TestDeliverLastPackageCompletesOrder(t *testing.T) {
	svc, working, _ := newDriverTestEnv(t)
	seedOrder(working)

	ctx := context.Background()
	if _, err := svc.Deliver(ctx, "pkg_a", domain.DeliveryProof{}); err != nil {
		t.Fatalf("Deliver(pkg_a) error = %v", err)
	}
	order, err := svc.Deliver(ctx, "pkg_b", domain.DeliveryProof{})
	if err != nil {
		t.Fatalf("Deliver(pkg_b) error = %v", err)
	}
	if order.Status != domain.OrderStatusDelivered {
		t.Errorf("order status = %s, want %s", order.Status, domain.OrderStatusDelivered)
	}
}

func TestFailPackageFailsOrderSticky(t *testing.T) {
	svc, working, _ := newDriverTestEnv(t)
	seedOrder(working)

	ctx := context.Background()
	order, err := svc.Fail(ctx, "pkg_a", "recipient absent")
	if err != nil {
		t.Fatalf("Fail() error = %v", err)
	}
	if order.Status != domain.OrderStatusFailed {
		t.Errorf("order status = %s, want %s", order.Status, domain.OrderStatusFailed)
	}

	// доставка оставшейся посылки не снимает FAILED с заказа
	order, err = svc.Deliver(ctx, "pkg_b", domain.DeliveryProof{})
	if err != nil {
		t.Fatalf("Deliver() error = %v", err)
	}
	if order.Status != domain.OrderStatusFailed {
		t.Errorf("order status = %s, want sticky %s", order.Status, domain.OrderStatusFailed)
	}
}

func TestFailRequiresReason(t *testing.T) {
	svc, working, events := newDriverTestEnv(t)
	seedOrder(working)

	_, err := svc.Fail(context.Background(), "pkg_a", "")
	if !errors.Is(err, domain.ErrProofReasonRequired) {
		t.Fatalf("Fail() error = %v, want %v", err, domain.ErrProofReasonRequired)
	}
	if len(*events) != 0 {
		t.Errorf("rejected transition published %d events", len(*events))
	}

	// состояние посылки не изменилось
	order, _ := working.GetOrder("ord_1")
	if order.Packages[0].Status != domain.PackageStatusInTransit {
		t.Errorf("package status = %s", order.Packages[0].Status)
	}
}

func TestTerminalPackageRejectsSecondTransition(t *testing.T) {
	svc, working, _ := newDriverTestEnv(t)
	seedOrder(working)

	ctx := context.Background()
	if _, err := svc.Deliver(ctx, "pkg_a", domain.DeliveryProof{}); err != nil {
		t.Fatalf("Deliver() error = %v", err)
	}
	if _, err := svc.Fail(ctx, "pkg_a", "late"); !errors.Is(err, domain.ErrPackageTerminal) {
		t.Errorf("Fail() on delivered package error = %v, want %v", err, domain.ErrPackageTerminal)
	}
	if _, err := svc.Deliver(ctx, "pkg_a", domain.DeliveryProof{}); !errors.Is(err, domain.ErrPackageTerminal) {
		t.Errorf("second Deliver() error = %v, want %v", err, domain.ErrPackageTerminal)
	}
}

func TestUnknownPackage(t *testing.T) {
	svc, working, _ := newDriverTestEnv(t)
	seedOrder(working)

	if _, err := svc.Deliver(context.Background(), "pkg_missing", domain.DeliveryProof{}); !errors.Is(err, domain.ErrPackageNotFound) {
		t.Fatalf("Deliver(missing) error = %v, want %v", err, domain.ErrPackageNotFound)
	}
}
