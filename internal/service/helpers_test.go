package service

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	mfotel "github.com/Strob0t/MenuForge/internal/adapter/otel"
	"github.com/Strob0t/MenuForge/internal/config"
	"github.com/Strob0t/MenuForge/internal/domain/provision"
	"github.com/Strob0t/MenuForge/internal/port/messagequeue"
	"github.com/Strob0t/MenuForge/internal/port/qrencoder"
	"github.com/Strob0t/MenuForge/internal/seed"
)

const testBaseURL = "https://menus.example.com"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeEncoder struct {
	err   error
	calls int
}

func (f *fakeEncoder) Encode(text string, _ qrencoder.Options) ([]byte, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return []byte("png:" + text), nil
}

type published struct {
	subject string
	data    []byte
}

type fakeQueue struct {
	mu       sync.Mutex
	messages []published
	handlers map[string]messagequeue.Handler
}

func (q *fakeQueue) Publish(_ context.Context, subject string, data []byte) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.messages = append(q.messages, published{subject: subject, data: data})
	return nil
}

func (q *fakeQueue) Subscribe(_ context.Context, subject string, h messagequeue.Handler) (func(), error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.handlers == nil {
		q.handlers = map[string]messagequeue.Handler{}
	}
	q.handlers[subject] = h
	return func() {}, nil
}

func (q *fakeQueue) Drain() error      { return nil }
func (q *fakeQueue) Close() error      { return nil }
func (q *fakeQueue) IsConnected() bool { return true }

func (q *fakeQueue) count(subject string) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := 0
	for _, m := range q.messages {
		if m.subject == subject {
			n++
		}
	}
	return n
}

type memCache struct {
	mu      sync.Mutex
	data    map[string][]byte
	deleted []string
}

func newMemCache() *memCache { return &memCache{data: map[string][]byte{}} }

func (c *memCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	return v, ok, nil
}

func (c *memCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	return nil
}

func (c *memCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	c.deleted = append(c.deleted, key)
	return nil
}

type testEnv struct {
	store   *mockStore
	encoder *fakeEncoder
	queue   *fakeQueue
	cache   *memCache
	qr      *QRService
	audit   *AuditRecorder
	public  *PublicService
	catalog *CatalogService
	prov    *Provisioner
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	log := discardLogger()
	metrics := mfotel.MustMetrics()

	env := &testEnv{
		store:   newMockStore(),
		encoder: &fakeEncoder{},
		queue:   &fakeQueue{},
		cache:   newMemCache(),
	}
	env.qr = NewQRService(env.encoder, qrencoder.Options{Size: 256, Margin: 2}, testBaseURL, log, metrics)
	env.audit = NewAuditRecorder(log, metrics)
	env.public = NewPublicService(env.store, env.cache, time.Minute, log, metrics)
	env.catalog = NewCatalogService(env.store, env.qr, env.audit, env.public, NewPublisher(env.queue, log), log)
	env.prov = NewProvisioner(env.store, env.catalog, NewBcryptHasher(bcrypt.MinCost),
		config.Defaults().TenantDefaults, 8, log, metrics)
	return env
}

// seedDemo loads the icon catalog and provisions the demo tenant.
func (env *testEnv) seedDemo(t *testing.T) *provision.Result {
	t.Helper()
	icons, err := seed.Icons()
	if err != nil {
		t.Fatalf("icons: %v", err)
	}
	if _, err := env.prov.EnsureIcons(context.Background(), icons); err != nil {
		t.Fatalf("EnsureIcons: %v", err)
	}
	d, err := seed.Demo()
	if err != nil {
		t.Fatalf("demo: %v", err)
	}
	res, err := env.prov.Provision(context.Background(), d)
	if err != nil {
		t.Fatalf("Provision: %v", err)
	}
	return res
}

func ptr[T any](v T) *T { return &v }
