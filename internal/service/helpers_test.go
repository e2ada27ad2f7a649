package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/graphkart/storefront/internal/repo"
	"github.com/graphkart/storefront/internal/tokenstore"
)

type sentMail struct{ to, token string }

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (f *fakeMailer) SendVerification(_ context.Context, to, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentMail{to: to, token: token})
	return nil
}

func (f *fakeMailer) last() sentMail {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sent[len(f.sent)-1]
}

type published struct {
	topic, key string
	event      any
}

type fakePublisher struct {
	mu     sync.Mutex
	events []published
}

func (f *fakePublisher) PublishEvent(_ context.Context, topic, key string, event any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, published{topic: topic, key: key, event: event})
	return nil
}

func (f *fakePublisher) Close() error { return nil }

func (f *fakePublisher) topics() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.events))
	for _, e := range f.events {
		out = append(out, e.topic)
	}
	return out
}

func newTokenStore(t *testing.T) *tokenstore.Store {
	t.Helper()

	s, err := tokenstore.Open(context.Background(), "sqlite", fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

type testEnv struct {
	Repo    *repo.MemoryRepo
	Mailer  *fakeMailer
	Events  *fakePublisher
	Auth    *AuthService
	Catalog *CatalogService
}

// skipTokenClock moves the token store past d from now.
func (e *testEnv) skipTokenClock(d time.Duration) {
	at := time.Now().Add(d)
	e.Auth.Tokens.(*tokenstore.Store).Clock = func() time.Time { return at }
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	r := repo.NewMemoryRepo()
	m := &fakeMailer{}
	pub := &fakePublisher{}
	return &testEnv{
		Repo:   r,
		Mailer: m,
		Events: pub,
		Auth: &AuthService{
			Users:         r,
			Tokens:        newTokenStore(t),
			Mailer:        m,
			Events:        pub,
			AccessSecret:  []byte("test-access-secret"),
			RefreshSecret: []byte("test-refresh-secret"),
			AccessTTL:     15 * time.Minute,
			RefreshTTL:    time.Hour,
			AdminEmails:   []string{"boss@example.com"},
		},
		Catalog: &CatalogService{Products: r, Categories: r, Events: pub},
	}
}
