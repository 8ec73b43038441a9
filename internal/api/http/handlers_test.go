package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/triage-service/internal/api/http/handlers"
	"github.com/spec-kit/triage-service/internal/auth"
	"github.com/spec-kit/triage-service/internal/classifier"
	"github.com/spec-kit/triage-service/internal/config"
	"github.com/spec-kit/triage-service/internal/domain"
	"github.com/spec-kit/triage-service/internal/events"
	"github.com/spec-kit/triage-service/internal/observability"
	"github.com/spec-kit/triage-service/internal/persistence"
	"github.com/spec-kit/triage-service/internal/repository"
	"github.com/spec-kit/triage-service/internal/service"
)

type fakeTicketRepo struct {
	tickets    []domain.Ticket
	lastFilter repository.TicketFilter
	lastUpdate repository.TicketUpdate
	aggregates *repository.TicketAggregates
	nextID     int
}

func (f *fakeTicketRepo) Create(ctx context.Context, ticket *domain.Ticket) error {
	f.nextID++
	ticket.ID = fmt.Sprintf("tck-%04d", f.nextID)
	ticket.CreatedAt = time.Now()
	f.tickets = append(f.tickets, *ticket)
	return nil
}

// lookupErr mimics postgres: a malformed id fails the uuid cast, a
// well-formed unknown one yields no rows.
func (f *fakeTicketRepo) lookupErr(id string) error {
	if !strings.HasPrefix(id, "tck-") {
		return &pgconn.PgError{Code: "22P02", Message: "invalid input syntax for type uuid: " + id}
	}
	return pgx.ErrNoRows
}

func (f *fakeTicketRepo) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	for i := range f.tickets {
		if f.tickets[i].ID == id {
			ticket := f.tickets[i]
			return &ticket, nil
		}
	}
	return nil, f.lookupErr(id)
}

func (f *fakeTicketRepo) UpdateFields(ctx context.Context, id string, update repository.TicketUpdate) (*domain.Ticket, error) {
	f.lastUpdate = update
	for i := range f.tickets {
		if f.tickets[i].ID != id {
			continue
		}
		if update.Category != nil {
			f.tickets[i].Category = *update.Category
		}
		if update.Priority != nil {
			f.tickets[i].Priority = *update.Priority
		}
		if update.Status != nil {
			f.tickets[i].Status = *update.Status
		}
		ticket := f.tickets[i]
		return &ticket, nil
	}
	return nil, f.lookupErr(id)
}

func (f *fakeTicketRepo) ListWithFilter(ctx context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	f.lastFilter = filter
	return f.tickets, nil
}

func (f *fakeTicketRepo) Aggregates(ctx context.Context) (*repository.TicketAggregates, error) {
	if f.aggregates != nil {
		return f.aggregates, nil
	}
	return &repository.TicketAggregates{
		ByCategory: map[domain.TicketCategory]int64{},
		ByPriority: map[domain.TicketPriority]int64{},
	}, nil
}

type fakeStaffRepo struct {
	byEmail map[string]*domain.StaffMember
	nextID  int
}

func newFakeStaffRepo() *fakeStaffRepo {
	return &fakeStaffRepo{byEmail: map[string]*domain.StaffMember{}}
}

func (f *fakeStaffRepo) Create(ctx context.Context, staff *domain.StaffMember) error {
	f.nextID++
	staff.ID = fmt.Sprintf("stf-%04d", f.nextID)
	staff.CreatedAt = time.Now()
	copied := *staff
	f.byEmail[staff.Email] = &copied
	return nil
}

func (f *fakeStaffRepo) GetByEmail(ctx context.Context, email string) (*domain.StaffMember, error) {
	if staff, ok := f.byEmail[email]; ok {
		copied := *staff
		return &copied, nil
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeStaffRepo) GetByID(ctx context.Context, id string) (*domain.StaffMember, error) {
	for _, staff := range f.byEmail {
		if staff.ID == id {
			copied := *staff
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

type fakeClassifier struct {
	suggestion *domain.Suggestion
	err        error
}

func (f *fakeClassifier) Classify(ctx context.Context, description string) (*domain.Suggestion, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.suggestion, nil
}

type testEnv struct {
	app        *fiber.App
	tickets    *fakeTicketRepo
	staff      *fakeStaffRepo
	metrics    *observability.Metrics
	requireJWT bool
}

func newTestApp(t *testing.T, cls classifier.Classifier, opts ...func(*testEnv)) *testEnv {
	t.Helper()
	if cls == nil {
		cls = classifier.NewDisabled()
	}

	env := &testEnv{
		tickets: &fakeTicketRepo{},
		staff:   newFakeStaffRepo(),
		metrics: observability.NewMetrics(),
	}
	for _, opt := range opts {
		opt(env)
	}

	logger := zap.NewNop()
	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo: env.tickets,
		Classifier: cls,
		Dispatcher: events.NewInMemoryDispatcher(),
	})
	authService := service.NewAuthService(config.AuthConfig{
		JWTSecret:             "test-secret",
		AccessTokenTTLMinutes: 5,
		BcryptCost:            4,
	}, env.staff)

	app := fiber.New()
	RegisterMiddlewares(app, logger, env.metrics, 0)
	RegisterRoutes(app, RouteConfig{
		Health:            handlers.NewHealthHandler("test", "dev", &persistence.Postgres{}, &persistence.Redis{}),
		Tickets:           handlers.NewTicketsHandler(ticketService),
		Classify:          handlers.NewClassifyHandler(ticketService),
		Staff:             handlers.NewStaffHandler(authService),
		AuthMiddleware:    auth.NewMiddleware(authService.TokenManager(), env.staff),
		RequireStaffToken: env.requireJWT,
	})
	env.app = app
	return env
}

func withStaffToken() func(*testEnv) {
	return func(env *testEnv) { env.requireJWT = true }
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body any) (*http.Response, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var decoded map[string]any
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &decoded), string(raw))
	}
	return resp, decoded
}

func TestCreateTicketReturns201(t *testing.T) {
	env := newTestApp(t, nil)

	resp, body := doJSON(t, env.app, http.MethodPost, "/tickets/", map[string]string{
		"title":       "Refund request",
		"description": "I was charged twice for my May invoice",
		"category":    "billing",
		"priority":    "high",
	})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	data := body["data"].(map[string]any)
	assert.NotEmpty(t, data["id"])
	assert.Equal(t, "Refund request", data["title"])
	assert.Equal(t, "open", data["status"])
	assert.NotEmpty(t, data["created_at"])
}

func TestCreateTicketMissingDescriptionReturns400(t *testing.T) {
	env := newTestApp(t, nil)

	resp, body := doJSON(t, env.app, http.MethodPost, "/tickets/", map[string]string{
		"title":    "Refund request",
		"category": "billing",
		"priority": "high",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	errBody := body["error"].(map[string]any)
	details := errBody["details"].(map[string]any)
	assert.Contains(t, details, "description")
	assert.Empty(t, env.tickets.tickets)
}

func TestCreateTicketInvalidEnumReturns400(t *testing.T) {
	env := newTestApp(t, nil)

	resp, _ := doJSON(t, env.app, http.MethodPost, "/tickets/", map[string]string{
		"title":       "Refund request",
		"description": "charged twice",
		"category":    "sales",
		"priority":    "high",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestListTicketsAppliesConjunctiveFilters(t *testing.T) {
	env := newTestApp(t, nil)
	env.tickets.tickets = []domain.Ticket{{
		ID:          "tck-0001",
		Title:       "Refund for order 1234",
		Description: "please refund",
		Category:    domain.TicketCategoryBilling,
		Priority:    domain.TicketPriorityHigh,
		Status:      domain.TicketStatusOpen,
		CreatedAt:   time.Now(),
	}}

	resp, body := doJSON(t, env.app, http.MethodGet, "/tickets/?category=billing&search=refund&status=open", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	require.NotNil(t, env.tickets.lastFilter.Category)
	assert.Equal(t, domain.TicketCategoryBilling, *env.tickets.lastFilter.Category)
	require.NotNil(t, env.tickets.lastFilter.Status)
	assert.Equal(t, domain.TicketStatusOpen, *env.tickets.lastFilter.Status)
	require.NotNil(t, env.tickets.lastFilter.SearchTerm)
	assert.Equal(t, "refund", *env.tickets.lastFilter.SearchTerm)

	data := body["data"].([]any)
	assert.Len(t, data, 1)
}

func TestListTicketsNoPaginationByDefault(t *testing.T) {
	env := newTestApp(t, nil)

	resp, _ := doJSON(t, env.app, http.MethodGet, "/tickets/", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 0, env.tickets.lastFilter.Limit)
}

func TestUpdateTicketNoFieldsReturns400(t *testing.T) {
	env := newTestApp(t, nil)

	resp, _ := doJSON(t, env.app, http.MethodPatch, "/tickets/tck-0001/", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestUpdateTicketUnknownIDReturns404(t *testing.T) {
	env := newTestApp(t, nil)

	resp, _ := doJSON(t, env.app, http.MethodPatch, "/tickets/tck-9999/", map[string]string{
		"status": "resolved",
	})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

// An id that fails the uuid cast is indistinguishable from an absent
// one to the client: 404, never 500.
func TestUpdateTicketMalformedIDReturns404(t *testing.T) {
	env := newTestApp(t, nil)

	resp, body := doJSON(t, env.app, http.MethodPatch, "/tickets/123/", map[string]string{
		"status": "resolved",
	})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	errBody := body["error"].(map[string]any)
	assert.Equal(t, "NOT_FOUND", errBody["code"])
}

func TestGetTicketByID(t *testing.T) {
	env := newTestApp(t, nil)
	env.tickets.tickets = []domain.Ticket{{
		ID:          "tck-0001",
		Title:       "Refund request",
		Description: "charged twice",
		Category:    domain.TicketCategoryBilling,
		Priority:    domain.TicketPriorityHigh,
		Status:      domain.TicketStatusOpen,
		CreatedAt:   time.Now(),
	}}

	resp, body := doJSON(t, env.app, http.MethodGet, "/tickets/tck-0001/", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	data := body["data"].(map[string]any)
	assert.Equal(t, "tck-0001", data["id"])
	assert.Equal(t, "Refund request", data["title"])
}

func TestGetTicketMalformedIDReturns404(t *testing.T) {
	env := newTestApp(t, nil)

	resp, _ := doJSON(t, env.app, http.MethodGet, "/tickets/123/", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestUpdateTicketStatusOnly(t *testing.T) {
	env := newTestApp(t, nil)
	env.tickets.tickets = []domain.Ticket{{
		ID:          "tck-0001",
		Title:       "Password reset loop",
		Description: "reset email never arrives",
		Category:    domain.TicketCategoryAccount,
		Priority:    domain.TicketPriorityMedium,
		Status:      domain.TicketStatusOpen,
		CreatedAt:   time.Now(),
	}}

	resp, body := doJSON(t, env.app, http.MethodPatch, "/tickets/tck-0001/", map[string]string{
		"status": "resolved",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	data := body["data"].(map[string]any)
	assert.Equal(t, "resolved", data["status"])
	assert.Equal(t, "Password reset loop", data["title"])
	assert.Equal(t, "account", data["category"])
	assert.Equal(t, "medium", data["priority"])
	assert.Nil(t, env.tickets.lastUpdate.Category)
	assert.Nil(t, env.tickets.lastUpdate.Priority)
}

func TestStatsZeroTicketsZeroFilled(t *testing.T) {
	env := newTestApp(t, nil)

	resp, body := doJSON(t, env.app, http.MethodGet, "/tickets/stats/", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	data := body["data"].(map[string]any)
	assert.Equal(t, float64(0), data["total_tickets"])
	assert.Equal(t, float64(0), data["open_tickets"])
	assert.Equal(t, float64(0), data["avg_tickets_per_day"])

	categories := data["category_breakdown"].(map[string]any)
	assert.Len(t, categories, 4)
	for _, category := range []string{"billing", "technical", "account", "general"} {
		assert.Equal(t, float64(0), categories[category])
	}
	priorities := data["priority_breakdown"].(map[string]any)
	assert.Len(t, priorities, 4)
	for _, priority := range []string{"low", "medium", "high", "critical"} {
		assert.Equal(t, float64(0), priorities[priority])
	}
}

func TestClassifyEmptyDescriptionReturns400(t *testing.T) {
	env := newTestApp(t, &fakeClassifier{suggestion: &domain.Suggestion{
		Category: domain.TicketCategoryBilling,
		Priority: domain.TicketPriorityLow,
	}})

	resp, _ := doJSON(t, env.app, http.MethodPost, "/tickets/classify/", map[string]string{
		"description": "   ",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestClassifyUnavailableReturns503(t *testing.T) {
	env := newTestApp(t, nil) // disabled classifier

	resp, body := doJSON(t, env.app, http.MethodPost, "/tickets/classify/", map[string]string{
		"description": "cannot log in",
	})
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, "Classification service unavailable", body["error"])
	assert.NotEmpty(t, body["detail"])
}

func TestClassifySuccess(t *testing.T) {
	env := newTestApp(t, &fakeClassifier{suggestion: &domain.Suggestion{
		Category: domain.TicketCategoryTechnical,
		Priority: domain.TicketPriorityCritical,
	}})

	resp, body := doJSON(t, env.app, http.MethodPost, "/tickets/classify/", map[string]string{
		"description": "the API returns 500 for every request since this morning",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "technical", body["suggested_category"])
	assert.Equal(t, "critical", body["suggested_priority"])
}

// Out-of-enum model replies must surface as 503 through the full stack,
// not leak to the client.
func TestClassifyOutOfEnumBackendReplyReturns503(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"content":[{"type":"text","text":"{\"category\":\"sales\",\"priority\":\"high\"}"}]}`))
	}))
	t.Cleanup(backend.Close)

	env := newTestApp(t, classifier.NewAnthropic(config.ClassifierConfig{
		APIKey:         "test-key",
		Model:          "claude-3-5-sonnet-20241022",
		BaseURL:        backend.URL,
		MaxTokens:      200,
		TimeoutSeconds: 5,
	}, zap.NewNop()))

	resp, body := doJSON(t, env.app, http.MethodPost, "/tickets/classify/", map[string]string{
		"description": "pricing question",
	})
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, "Classification service unavailable", body["error"])
}

func TestStaffRegisterAndLogin(t *testing.T) {
	env := newTestApp(t, nil)

	resp, body := doJSON(t, env.app, http.MethodPost, "/auth/staff/register", map[string]string{
		"email":        "agent@example.com",
		"display_name": "Agent Smith",
		"password":     "correct-horse",
	})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	data := body["data"].(map[string]any)
	assert.NotEmpty(t, data["token"])

	resp, body = doJSON(t, env.app, http.MethodPost, "/auth/staff/login", map[string]string{
		"email":    "agent@example.com",
		"password": "correct-horse",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, body["data"].(map[string]any)["token"])

	resp, _ = doJSON(t, env.app, http.MethodPost, "/auth/staff/login", map[string]string{
		"email":    "agent@example.com",
		"password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestStaffMeRequiresToken(t *testing.T) {
	env := newTestApp(t, nil)

	resp, _ := doJSON(t, env.app, http.MethodGet, "/auth/staff/me", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	_, body := doJSON(t, env.app, http.MethodPost, "/auth/staff/register", map[string]string{
		"email":        "agent@example.com",
		"display_name": "Agent Smith",
		"password":     "correct-horse",
	})
	token := body["data"].(map[string]any)["token"].(string)

	req := httptest.NewRequest(http.MethodGet, "/auth/staff/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	authedResp, err := env.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, authedResp.StatusCode)

	raw, err := io.ReadAll(authedResp.Body)
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	data := decoded["data"].(map[string]any)
	assert.Equal(t, "agent@example.com", data["email"])
	assert.Equal(t, "Agent Smith", data["display_name"])
}

// Request metrics must reflect the status the client receives, not the
// pre-translation handler status.
func TestRequestMetricsSeeTranslatedStatus(t *testing.T) {
	env := newTestApp(t, nil)

	resp, _ := doJSON(t, env.app, http.MethodPatch, "/tickets/tck-9999/", map[string]string{
		"status": "resolved",
	})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, int64(1), env.metrics.RequestTotals()["/tickets/tck-9999/|PATCH|404"])
}

func TestUpdateTicketWithRequiredStaffToken(t *testing.T) {
	env := newTestApp(t, nil, withStaffToken())
	env.tickets.tickets = []domain.Ticket{{
		ID:       "tck-0001",
		Title:    "Refund",
		Category: domain.TicketCategoryBilling,
		Priority: domain.TicketPriorityLow,
		Status:   domain.TicketStatusOpen,
	}}

	// unauthenticated PATCH is rejected
	resp, _ := doJSON(t, env.app, http.MethodPatch, "/tickets/tck-0001/", map[string]string{
		"status": "in_progress",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	_, body := doJSON(t, env.app, http.MethodPost, "/auth/staff/register", map[string]string{
		"email":        "agent@example.com",
		"display_name": "Agent Smith",
		"password":     "correct-horse",
	})
	token := body["data"].(map[string]any)["token"].(string)

	raw, err := json.Marshal(map[string]string{"status": "in_progress"})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPatch, "/tickets/tck-0001/", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	authedResp, err := env.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, authedResp.StatusCode)
}
