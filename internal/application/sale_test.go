package application

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/pagemarket/marketplace/internal/adapters/memstore"
	"github.com/pagemarket/marketplace/internal/domain"
	"github.com/pagemarket/marketplace/internal/schema"
)

// capturingPublisher records every publish so tests can assert on the event
// stream without a broker.
type capturingPublisher struct {
	mu     sync.Mutex
	events []capturedEvent
	fail   error
}

type capturedEvent struct {
	topic string
	dto   schema.SaleDto
}

func (p *capturingPublisher) Publish(_ context.Context, topic string, payload []byte) error {
	if p.fail != nil {
		return p.fail
	}
	var dto schema.SaleDto
	if err := json.Unmarshal(payload, &dto); err != nil {
		return err
	}
	p.mu.Lock()
	p.events = append(p.events, capturedEvent{topic: topic, dto: dto})
	p.mu.Unlock()
	return nil
}

func (p *capturingPublisher) captured() []capturedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]capturedEvent, len(p.events))
	copy(out, p.events)
	return out
}

func newSaleFixture(publisher *capturingPublisher) (*SaleService, *memstore.SaleStore) {
	store := memstore.NewSaleStore()
	return NewSaleService(testLogger(), store, newsCatalog(), publisher), store
}

func TestCreateSalePersistsAndPublishes(t *testing.T) {
	t.Parallel()

	publisher := &capturingPublisher{}
	svc, _ := newSaleFixture(publisher)

	created, err := svc.CreateSale(context.Background(), "alice", schema.SaleDto{
		Book:      schema.Ptr(int64(1)),
		Price:     schema.Ptr(100),
		Condition: schema.Ptr("good"),
	})
	if err != nil {
		t.Fatalf("create sale: %v", err)
	}
	if *created.ID != 1 || *created.Seller != "alice" {
		t.Fatalf("unexpected created sale: %+v", created)
	}

	events := publisher.captured()
	if len(events) != 1 || events[0].topic != schema.TopicSaleCreated {
		t.Fatalf("expected one sale-created event, got %+v", events)
	}
	if *events[0].dto.ID != 1 || *events[0].dto.Seller != "alice" || *events[0].dto.Price != 100 {
		t.Fatalf("event payload is not the full snapshot: %+v", events[0].dto)
	}
}

func TestCreateSaleRejectsClientAssignedFields(t *testing.T) {
	t.Parallel()

	svc, _ := newSaleFixture(&capturingPublisher{})
	ctx := context.Background()

	_, err := svc.CreateSale(ctx, "alice", schema.SaleDto{
		ID:        schema.Ptr(int64(5)),
		Book:      schema.Ptr(int64(1)),
		Price:     schema.Ptr(100),
		Condition: schema.Ptr("good"),
	})
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid-input for client id, got %v", err)
	}

	_, err = svc.CreateSale(ctx, "alice", schema.SaleDto{
		Seller:    schema.Ptr("mallory"),
		Book:      schema.Ptr(int64(1)),
		Price:     schema.Ptr(100),
		Condition: schema.Ptr("good"),
	})
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid-input for client seller, got %v", err)
	}
}

func TestCreateSalePropagatesUpstreamError(t *testing.T) {
	t.Parallel()

	publisher := &capturingPublisher{}
	store := memstore.NewSaleStore()
	svc := NewSaleService(testLogger(), store, &stubBookClient{books: map[int64]schema.BookDto{}}, publisher)

	_, err := svc.CreateSale(context.Background(), "alice", schema.SaleDto{
		Book:      schema.Ptr(int64(404)),
		Price:     schema.Ptr(100),
		Condition: schema.Ptr("good"),
	})
	var upstream *domain.UpstreamError
	if !errors.As(err, &upstream) || upstream.StatusCode != 404 {
		t.Fatalf("expected upstream 404, got %v", err)
	}
	if sales, _ := store.List(context.Background()); len(sales) != 0 {
		t.Fatalf("expected no sale persisted, got %+v", sales)
	}
	if len(publisher.captured()) != 0 {
		t.Fatalf("expected no event published")
	}
}

func TestCreateSaleSurvivesPublishFailure(t *testing.T) {
	t.Parallel()

	publisher := &capturingPublisher{fail: errors.New("broker down")}
	svc, store := newSaleFixture(publisher)

	created, err := svc.CreateSale(context.Background(), "alice", schema.SaleDto{
		Book:      schema.Ptr(int64(1)),
		Price:     schema.Ptr(100),
		Condition: schema.Ptr("good"),
	})
	if err != nil {
		t.Fatalf("expected local write to succeed despite publish failure, got %v", err)
	}
	if sale, err := store.GetByID(context.Background(), *created.ID); err != nil || sale.Price != 100 {
		t.Fatalf("expected sale persisted, got %+v err=%v", sale, err)
	}
}

func TestUpdateSaleOwnershipAndConflicts(t *testing.T) {
	t.Parallel()

	publisher := &capturingPublisher{}
	svc, _ := newSaleFixture(publisher)
	ctx := context.Background()

	created, err := svc.CreateSale(ctx, "alice", schema.SaleDto{
		Book:      schema.Ptr(int64(1)),
		Price:     schema.Ptr(100),
		Condition: schema.Ptr("good"),
	})
	if err != nil {
		t.Fatalf("create sale: %v", err)
	}
	id := *created.ID

	if err := svc.UpdateSale(ctx, "alice", id, schema.SaleDto{ID: schema.Ptr(id + 1)}); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected conflict on body/path id mismatch, got %v", err)
	}
	if err := svc.UpdateSale(ctx, "mallory", id, schema.SaleDto{Price: schema.Ptr(1)}); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected forbidden for non-owner, got %v", err)
	}
	if err := svc.UpdateSale(ctx, "alice", 999, schema.SaleDto{Price: schema.Ptr(1)}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not-found for unknown sale, got %v", err)
	}

	if err := svc.UpdateSale(ctx, "alice", id, schema.SaleDto{Price: schema.Ptr(80), Condition: schema.Ptr("worn")}); err != nil {
		t.Fatalf("update sale: %v", err)
	}
	events := publisher.captured()
	last := events[len(events)-1]
	if last.topic != schema.TopicSaleUpdated || *last.dto.Price != 80 || *last.dto.Condition != "worn" {
		t.Fatalf("expected sale-updated with post-mutation snapshot, got %+v", last)
	}
}

func TestDeleteSalePublishesFinalSnapshot(t *testing.T) {
	t.Parallel()

	publisher := &capturingPublisher{}
	svc, store := newSaleFixture(publisher)
	ctx := context.Background()

	created, err := svc.CreateSale(ctx, "alice", schema.SaleDto{
		Book:      schema.Ptr(int64(1)),
		Price:     schema.Ptr(100),
		Condition: schema.Ptr("good"),
	})
	if err != nil {
		t.Fatalf("create sale: %v", err)
	}
	id := *created.ID

	if err := svc.DeleteSale(ctx, "mallory", id); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected forbidden for non-owner, got %v", err)
	}
	if err := svc.DeleteSale(ctx, "alice", id); err != nil {
		t.Fatalf("delete sale: %v", err)
	}
	if _, err := store.GetByID(ctx, id); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected sale gone, got %v", err)
	}

	events := publisher.captured()
	last := events[len(events)-1]
	if last.topic != schema.TopicSaleDeleted || *last.dto.ID != id {
		t.Fatalf("expected sale-deleted carrying the removed snapshot, got %+v", last)
	}
}

func TestCreateSaleValidatesPrice(t *testing.T) {
	t.Parallel()

	svc, _ := newSaleFixture(&capturingPublisher{})
	_, err := svc.CreateSale(context.Background(), "alice", schema.SaleDto{
		Book:      schema.Ptr(int64(1)),
		Price:     schema.Ptr(-5),
		Condition: schema.Ptr("good"),
	})
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid-input for negative price, got %v", err)
	}
}
