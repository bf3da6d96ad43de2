package application_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pagemarket/marketplace/internal/adapters/cache"
	"github.com/pagemarket/marketplace/internal/adapters/events"
	httpadapter "github.com/pagemarket/marketplace/internal/adapters/http"
	"github.com/pagemarket/marketplace/internal/adapters/httpclient"
	"github.com/pagemarket/marketplace/internal/adapters/memstore"
	"github.com/pagemarket/marketplace/internal/adapters/security"
	"github.com/pagemarket/marketplace/internal/application"
	"github.com/pagemarket/marketplace/internal/domain"
	"github.com/pagemarket/marketplace/internal/schema"
)

// replicationWorld wires every service onto one in-memory broker the way the
// per-service runtimes do, with httptest standing in for the network.
type replicationWorld struct {
	broker *events.InMemoryBroker

	gateway *application.AuthService
	sales   *application.SaleService

	sellerStore *memstore.DirectoryStore
	userStore   *memstore.DirectoryStore
	newsStore   *memstore.NewsStore

	sellerURL string
}

func newReplicationWorld(t *testing.T) *replicationWorld {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	broker := events.NewInMemoryBroker(64)
	t.Cleanup(func() { _ = broker.Close() })

	bookStore := memstore.NewBookStore()
	if _, err := bookStore.Create(context.Background(), domain.Book{Title: "Dune", Author: "Herbert"}); err != nil {
		t.Fatalf("seed book: %v", err)
	}
	tokens, err := security.NewJWTManager("replication-secret", time.Hour)
	if err != nil {
		t.Fatalf("jwt manager: %v", err)
	}

	bookSvc := application.NewBookService(logger, bookStore)
	bookServer := httptest.NewServer(httpadapter.NewBookRouter(logger, httpadapter.NewBookHandler(bookSvc), httpadapter.ParserValidator{Tokens: tokens}))
	t.Cleanup(bookServer.Close)
	books := httpclient.NewBookClient(bookServer.URL)

	w := &replicationWorld{
		broker:      broker,
		sellerStore: memstore.NewDirectoryStore(),
		userStore:   memstore.NewDirectoryStore(),
		newsStore:   memstore.NewNewsStore(),
	}

	w.gateway = application.NewAuthService(logger, memstore.NewAuthUserStore(), security.NewBcryptHasher(4), tokens, cache.NewMemoryRevocationStore(), broker)
	w.sales = application.NewSaleService(logger, memstore.NewSaleStore(), books, broker)

	sellerSvc := application.NewDirectoryService(logger, w.sellerStore)
	userSvc := application.NewDirectoryService(logger, w.userStore)
	newsSvc := application.NewNewsService(logger, w.newsStore, books)

	sellerServer := httptest.NewServer(httpadapter.NewDirectoryRouter(logger, httpadapter.NewDirectoryHandler(sellerSvc), "sellers"))
	t.Cleanup(sellerServer.Close)
	w.sellerURL = sellerServer.URL

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	for _, svc := range []*application.DirectoryService{sellerSvc, userSvc} {
		loop := events.NewConsumerLoop(logger, broker)
		loop.On(schema.TopicUserCreated, svc.HandleUserCreated)
		loop.On(schema.TopicSaleCreated, svc.HandleSaleCreated)
		loop.On(schema.TopicSaleDeleted, svc.HandleSaleDeleted)
		go func() { _ = loop.Run(ctx) }()
	}
	newsLoop := events.NewConsumerLoop(logger, broker)
	newsLoop.On(schema.TopicSaleCreated, newsSvc.HandleSaleCreated)
	newsLoop.On(schema.TopicSaleUpdated, newsSvc.HandleSaleUpdated)
	newsLoop.On(schema.TopicSaleDeleted, newsSvc.HandleSaleDeleted)
	go func() { _ = newsLoop.Run(ctx) }()

	w.awaitBindings(t)
	return w
}

// awaitBindings republishes idempotent probe events until every consumer
// queue demonstrably receives them. The bus is at-most-once, so the real
// scenario must not start before the queues are bound.
func (w *replicationWorld) awaitBindings(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	probeUser := mustJSON(t, schema.SellerDto{Username: schema.Ptr("probe")})
	probeSale := mustJSON(t, schema.SaleDto{
		ID:        schema.Ptr(int64(9999)),
		Seller:    schema.Ptr("probe"),
		Book:      schema.Ptr(int64(1)),
		Price:     schema.Ptr(1),
		Condition: schema.Ptr("probe"),
	})
	probeUpdate := mustJSON(t, schema.SaleDto{
		ID:        schema.Ptr(int64(9999)),
		Seller:    schema.Ptr("probe"),
		Price:     schema.Ptr(2),
		Condition: schema.Ptr("probe"),
	})

	w.publishUntil(t, schema.TopicUserCreated, probeUser, func() bool {
		_, errSeller := w.sellerStore.GetByUsername(ctx, "probe")
		_, errUser := w.userStore.GetByUsername(ctx, "probe")
		return errSeller == nil && errUser == nil
	})
	w.publishUntil(t, schema.TopicSaleCreated, probeSale, func() bool {
		seller, _ := w.sellerStore.GetByUsername(ctx, "probe")
		user, _ := w.userStore.GetByUsername(ctx, "probe")
		_, errNews := w.newsStore.GetBySale(ctx, 9999)
		return len(seller.Sales) > 0 && len(user.Sales) > 0 && errNews == nil
	})
	w.publishUntil(t, schema.TopicSaleUpdated, probeUpdate, func() bool {
		entry, err := w.newsStore.GetBySale(ctx, 9999)
		return err == nil && entry.BookPrice == 2
	})
	w.publishUntil(t, schema.TopicSaleDeleted, probeSale, func() bool {
		seller, _ := w.sellerStore.GetByUsername(ctx, "probe")
		user, _ := w.userStore.GetByUsername(ctx, "probe")
		_, errNews := w.newsStore.GetBySale(ctx, 9999)
		return len(seller.Sales) == 0 && len(user.Sales) == 0 && errors.Is(errNews, domain.ErrNotFound)
	})
}

func (w *replicationWorld) publishUntil(t *testing.T, topic string, payload []byte, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		if err := w.broker.Publish(context.Background(), topic, payload); err != nil {
			t.Fatalf("publish %s probe: %v", topic, err)
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("%s consumer never observed the probe", topic)
}

func eventually(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	payload, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return payload
}

func TestSaleLifecycleReplicatesAcrossServices(t *testing.T) {
	w := newReplicationWorld(t)
	ctx := context.Background()

	if _, err := w.gateway.Register(ctx, "alice", "secret", "Alice", "alice@example.com"); err != nil {
		t.Fatalf("register: %v", err)
	}
	eventually(t, "directory entries for alice", func() bool {
		_, errSeller := w.sellerStore.GetByUsername(ctx, "alice")
		_, errUser := w.userStore.GetByUsername(ctx, "alice")
		return errSeller == nil && errUser == nil
	})

	created, err := w.sales.CreateSale(ctx, "alice", schema.SaleDto{
		Book:      schema.Ptr(int64(1)),
		Price:     schema.Ptr(120),
		Condition: schema.Ptr("good"),
	})
	if err != nil {
		t.Fatalf("create sale: %v", err)
	}
	saleID := *created.ID

	eventually(t, "sale replicated to directories and news", func() bool {
		seller, _ := w.sellerStore.GetByUsername(ctx, "alice")
		user, _ := w.userStore.GetByUsername(ctx, "alice")
		entry, errNews := w.newsStore.GetBySale(ctx, saleID)
		return len(seller.Sales) == 1 && seller.Sales[0] == saleID &&
			len(user.Sales) == 1 && user.Sales[0] == saleID &&
			errNews == nil && entry.BookTitle == "Dune" && entry.BookPrice == 120 && entry.SellerName == "alice"
	})

	// The seller-server's REST surface serves the projection, and the lookup
	// client other services use can read it back.
	sellers := httpclient.NewSellerClient(w.sellerURL)
	remote, err := sellers.GetSeller(ctx, "alice")
	if err != nil {
		t.Fatalf("get seller over http: %v", err)
	}
	if len(remote.Sales) != 1 || remote.Sales[0] != saleID {
		t.Fatalf("unexpected remote seller entry: %+v", remote)
	}

	if err := w.sales.UpdateSale(ctx, "alice", saleID, schema.SaleDto{Price: schema.Ptr(90), Condition: schema.Ptr("worn")}); err != nil {
		t.Fatalf("update sale: %v", err)
	}
	eventually(t, "news entry updated in place", func() bool {
		entry, err := w.newsStore.GetBySale(ctx, saleID)
		return err == nil && entry.BookPrice == 90 && entry.BookCondition == "worn" && entry.BookTitle == "Dune"
	})

	if err := w.sales.DeleteSale(ctx, "alice", saleID); err != nil {
		t.Fatalf("delete sale: %v", err)
	}
	eventually(t, "sale removed everywhere", func() bool {
		seller, _ := w.sellerStore.GetByUsername(ctx, "alice")
		user, _ := w.userStore.GetByUsername(ctx, "alice")
		_, errNews := w.newsStore.GetBySale(ctx, saleID)
		return len(seller.Sales) == 0 && len(user.Sales) == 0 && errors.Is(errNews, domain.ErrNotFound)
	})
}

func TestSaleByUnknownSellerReachesNewsButNotDirectories(t *testing.T) {
	w := newReplicationWorld(t)
	ctx := context.Background()

	// "bob" never registered: the directories have no entry to append to, so
	// they drop the event, while the news feed happily takes the snapshot.
	created, err := w.sales.CreateSale(ctx, "bob", schema.SaleDto{
		Book:      schema.Ptr(int64(1)),
		Price:     schema.Ptr(30),
		Condition: schema.Ptr("worn"),
	})
	if err != nil {
		t.Fatalf("create sale: %v", err)
	}
	saleID := *created.ID

	eventually(t, "news entry for bob's sale", func() bool {
		entry, err := w.newsStore.GetBySale(ctx, saleID)
		return err == nil && entry.SellerName == "bob"
	})

	// The directory update is gone for good, not retried.
	if _, err := w.sellerStore.GetByUsername(ctx, "bob"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected no seller entry for bob, got %v", err)
	}
	if _, err := w.userStore.GetByUsername(ctx, "bob"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected no user entry for bob, got %v", err)
	}
}
