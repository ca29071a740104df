package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/charlesng35/autodetail/internal/auth"
	"github.com/charlesng35/autodetail/internal/database/testutil"
	"github.com/charlesng35/autodetail/internal/models"
	"github.com/charlesng35/autodetail/internal/notify"
	"github.com/charlesng35/autodetail/internal/storage"
	"github.com/charlesng35/autodetail/pkg/crypto"
)

func openServiceTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	return testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
}

type recordingNotifier struct {
	mu         sync.Mutex
	configured bool
	err        error
	sent       []notify.Message
}

func (n *recordingNotifier) Configured() bool { return n.configured }

func (n *recordingNotifier) Send(_ context.Context, msg notify.Message) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, msg)
	return nil
}

func (n *recordingNotifier) messages() []notify.Message {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]notify.Message(nil), n.sent...)
}

type memoryBlobStore struct {
	mu      sync.Mutex
	seq     int
	objects map[string]storage.Object
	deleted []string
	failPut bool
}

func newMemoryBlobStore() *memoryBlobStore {
	return &memoryBlobStore{objects: make(map[string]storage.Object)}
}

func (m *memoryBlobStore) Driver() string { return "memory" }

func (m *memoryBlobStore) Put(_ context.Context, obj storage.Object) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failPut {
		return "", fmt.Errorf("memory store: put disabled")
	}
	m.seq++
	url := fmt.Sprintf("/uploads/blob-%d%s", m.seq, obj.Ext)
	m.objects[url] = obj
	return url, nil
}

func (m *memoryBlobStore) Delete(_ context.Context, url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.objects[url]; !ok {
		return storage.ErrForeignURL
	}
	delete(m.objects, url)
	m.deleted = append(m.deleted, url)
	return nil
}

func (m *memoryBlobStore) has(url string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.objects[url]
	return ok
}

func newTestImages(t *testing.T) (*storage.Images, *memoryBlobStore) {
	t.Helper()
	store := newMemoryBlobStore()
	images, err := storage.NewImages(store)
	require.NoError(t, err)
	return images, store
}

type fakeIssuer struct{}

func (fakeIssuer) GenerateAccessToken(input auth.AccessTokenInput) (string, error) {
	return "token-for-" + input.Email, nil
}

type fixedClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFixedClock() *fixedClock {
	return &fixedClock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func createTestAccount(t *testing.T, db *gorm.DB, email, role string) *models.Account {
	t.Helper()
	hash, err := crypto.HashPassword("Password123!")
	require.NoError(t, err)
	name := strings.Split(email, "@")[0]
	account := &models.Account{
		DisplayName:  name,
		Email:        models.NormalizeEmail(email),
		PasswordHash: hash,
		Role:         role,
	}
	require.NoError(t, db.Create(account).Error)
	return account
}

func strPtr(v string) *string { return &v }

func intPtr(v int) *int { return &v }
