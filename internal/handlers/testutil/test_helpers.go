package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/charlesng35/autodetail/internal/api"
	"github.com/charlesng35/autodetail/internal/app"
	iauth "github.com/charlesng35/autodetail/internal/auth"
	sharedtestutil "github.com/charlesng35/autodetail/internal/database/testutil"
	"github.com/charlesng35/autodetail/internal/models"
	"github.com/charlesng35/autodetail/internal/notify"
	"github.com/charlesng35/autodetail/internal/rates"
	"github.com/charlesng35/autodetail/internal/storage"
	"github.com/charlesng35/autodetail/pkg/crypto"
	"github.com/charlesng35/autodetail/pkg/response"
)

// DefaultPassword is the password of accounts created through CreateAccount.
const DefaultPassword = "Secret123!"

// Env encapsulates a fully-wired API instance backed by an in-memory database for handler tests.
type Env struct {
	T       *testing.T
	DB      *gorm.DB
	Router  *gin.Engine
	JWT     *iauth.JWTService
	Config  *app.Config
	Outbox  *Outbox
	Rates   *StubRates
	Uploads *storage.LocalStore
}

// EnvOption customises a test environment before the router is built.
type EnvOption func(*app.Config)

// WithContactRecipient configures the contact form recipient.
func WithContactRecipient(to string) EnvOption {
	return func(cfg *app.Config) {
		cfg.Contact.To = to
	}
}

// NewEnv provisions a fresh handler test environment with migrations applied.
func NewEnv(t *testing.T, opts ...EnvOption) *Env {
	t.Helper()

	gin.SetMode(gin.TestMode)

	db := sharedtestutil.MustOpenTestDB(t, sharedtestutil.WithAutoMigrate())

	jwtSecret := "test-suite-super-secret-key-32-bytes!!"
	cfg := &app.Config{
		Server: app.ServerConfig{
			Environment: "test",
			Uploads: app.UploadsConfig{
				MaxImageBytes:   1 << 20,
				MaxImages:       3,
				MaxProfileBytes: 1 << 20,
			},
		},
		Auth: app.AuthConfig{
			JWT: app.JWTSettings{
				Secret: jwtSecret,
				Issuer: "test-suite",
				TTL:    time.Hour,
			},
		},
		Rates: app.RatesConfig{
			TTL:           time.Hour,
			DefaultBase:   "USD",
			DefaultTarget: "AZN",
		},
		Monitoring:  app.MonitoringConfig{Prometheus: app.PrometheusConfig{Enabled: true, Endpoint: "/metrics"}},
		FrontendURL: "http://localhost:3000",
	}
	for _, opt := range opts {
		opt(cfg)
	}

	jwtSvc, err := iauth.NewJWTService(cfg.Auth.JWTServiceConfig())
	require.NoError(t, err)

	uploads, err := storage.NewLocalStore(t.TempDir(), "/uploads")
	require.NoError(t, err)

	outbox := &Outbox{configured: true}
	stubRates := &StubRates{Tables: map[string]rates.Table{
		"USD": {Base: "USD", Rates: map[string]float64{"AZN": 1.7, "EUR": 0.92}, Updated: "Mon, 01 Jan 2024 00:00:01 +0000"},
	}}

	router, err := api.NewRouter(db, jwtSvc, cfg,
		api.WithBlobStore(uploads),
		api.WithNotifier(outbox),
		api.WithRatesProvider(stubRates),
	)
	require.NoError(t, err)

	return &Env{
		T:       t,
		DB:      db,
		Router:  router,
		JWT:     jwtSvc,
		Config:  cfg,
		Outbox:  outbox,
		Rates:   stubRates,
		Uploads: uploads,
	}
}

// CreateAccount inserts a verified account with DefaultPassword and the given role.
func (e *Env) CreateAccount(role string) *models.Account {
	e.T.Helper()

	hashed, err := crypto.HashPassword(DefaultPassword)
	require.NoError(e.T, err)

	name := role + "-" + uuid.NewString()[:8]
	account := &models.Account{
		DisplayName:  name,
		Email:        name + "@example.com",
		PasswordHash: hashed,
		Role:         role,
	}
	require.NoError(e.T, e.DB.Create(account).Error)
	return account
}

// LoginResult bundles the JSON response from POST /api/auth/login.
type LoginResult struct {
	Message     string         `json:"message"`
	AccessToken string         `json:"access_token"`
	ExpiresIn   int            `json:"expires_in"`
	User        models.Account `json:"user"`
}

// Login authenticates with email and password and returns the issued token.
func (e *Env) Login(email, password string) LoginResult {
	e.T.Helper()

	payload := map[string]string{
		"email":    email,
		"password": password,
	}

	w := e.Request(http.MethodPost, "/api/auth/login", payload, "")
	require.Equal(e.T, http.StatusOK, w.Code, w.Body.String())

	resp := DecodeResponse(e.T, w)
	require.True(e.T, resp.Success, w.Body.String())

	var result LoginResult
	DecodeInto(e.T, resp.Data, &result)
	require.NotEmpty(e.T, result.AccessToken)
	require.Greater(e.T, result.ExpiresIn, 0)
	require.Equal(e.T, email, result.User.Email)

	return result
}

// Token creates an account with role and returns it with a valid access token.
func (e *Env) Token(role string) (*models.Account, string) {
	e.T.Helper()
	account := e.CreateAccount(role)
	return account, e.Login(account.Email, DefaultPassword).AccessToken
}

// APIResponse represents the canonical API envelope returned by handlers.
type APIResponse struct {
	Success bool                `json:"success"`
	Data    json.RawMessage     `json:"data"`
	Error   *response.ErrorInfo `json:"error"`
	Meta    *response.Meta      `json:"meta"`
}

// DecodeResponse parses the standard API response object from a recorder.
func DecodeResponse(t *testing.T, w *httptest.ResponseRecorder) APIResponse {
	t.Helper()
	var resp APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp
}

// DecodeInto unmarshals the data payload into the provided destination.
func DecodeInto[T any](t *testing.T, raw json.RawMessage, dest *T) {
	t.Helper()
	if dest == nil {
		t.Fatal("destination must not be nil")
	}
	require.NoError(t, json.Unmarshal(raw, dest))
}

// Request executes an HTTP request against the test router, applying JSON encoding and auth headers automatically.
func (e *Env) Request(method, path string, body any, token string) *httptest.ResponseRecorder {
	e.T.Helper()

	var buf *bytes.Buffer
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(e.T, err)
		buf = bytes.NewBuffer(data)
	} else {
		buf = bytes.NewBuffer(nil)
	}

	req, err := http.NewRequest(method, path, buf)
	require.NoError(e.T, err)

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return e.serve(req, token)
}

// File is a multipart file part.
type File struct {
	Field string
	Name  string
	Data  []byte
}

// Multipart sends fields and files as multipart/form-data.
func (e *Env) Multipart(method, path string, fields map[string]string, files []File, token string) *httptest.ResponseRecorder {
	e.T.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for key, value := range fields {
		require.NoError(e.T, writer.WriteField(key, value))
	}
	for _, file := range files {
		part, err := writer.CreateFormFile(file.Field, file.Name)
		require.NoError(e.T, err)
		_, err = part.Write(file.Data)
		require.NoError(e.T, err)
	}
	require.NoError(e.T, writer.Close())

	req, err := http.NewRequest(method, path, &buf)
	require.NoError(e.T, err)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return e.serve(req, token)
}

func (e *Env) serve(req *http.Request, token string) *httptest.ResponseRecorder {
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.Router.ServeHTTP(w, req)
	return w
}

// Outbox records notifier traffic in memory.
type Outbox struct {
	mu         sync.Mutex
	configured bool
	sent       []notify.Message
	err        error
}

// Configured reports whether sends are attempted.
func (o *Outbox) Configured() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.configured
}

// Send records msg or returns the configured failure.
func (o *Outbox) Send(_ context.Context, msg notify.Message) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.err != nil {
		return o.err
	}
	o.sent = append(o.sent, msg)
	return nil
}

// Fail makes subsequent sends return err.
func (o *Outbox) Fail(err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.err = err
}

// Disable marks the notifier as unconfigured.
func (o *Outbox) Disable() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.configured = false
}

// Messages returns a copy of the delivered messages.
func (o *Outbox) Messages() []notify.Message {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]notify.Message(nil), o.sent...)
}

// LastTo returns the most recent message sent to recipient.
func (o *Outbox) LastTo(recipient string) (notify.Message, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	for i := len(o.sent) - 1; i >= 0; i-- {
		if strings.EqualFold(o.sent[i].To, recipient) {
			return o.sent[i], true
		}
	}
	return notify.Message{}, false
}

// ErrRatesUnavailable is returned by StubRates for unknown bases.
var ErrRatesUnavailable = errors.New("rates unavailable")

// StubRates serves fixed rate tables and counts upstream calls.
type StubRates struct {
	mu     sync.Mutex
	Tables map[string]rates.Table
	calls  int
}

// Latest implements rates.Provider.
func (s *StubRates) Latest(_ context.Context, base string) (rates.Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	table, ok := s.Tables[base]
	if !ok {
		return rates.Table{}, ErrRatesUnavailable
	}
	return table, nil
}

// Calls reports how many times the provider was queried.
func (s *StubRates) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}
