package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/zidir/medcom-backend/internal/access"
	"github.com/zidir/medcom-backend/internal/monitor"
	"github.com/zidir/medcom-backend/internal/notifications"
	"github.com/zidir/medcom-backend/internal/pharmacies"
	"github.com/zidir/medcom-backend/internal/products"
	"github.com/zidir/medcom-backend/internal/watchlist"
	pkgAuth "github.com/zidir/medcom-backend/pkg/auth"
	"github.com/zidir/medcom-backend/pkg/config"
	"github.com/zidir/medcom-backend/pkg/db/models"
	"github.com/zidir/medcom-backend/pkg/enums"
	"github.com/zidir/medcom-backend/pkg/logger"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error { return nil }

type stubPharmacyService struct{}

func (stubPharmacyService) GetOwn(ctx context.Context, actor access.Actor) (*models.Pharmacy, error) {
	return &models.Pharmacy{}, nil
}

func (stubPharmacyService) UpdateOwn(ctx context.Context, actor access.Actor, dto pharmacies.UpdatePharmacyDTO) (*models.Pharmacy, error) {
	return &models.Pharmacy{}, nil
}

func (stubPharmacyService) ListMembers(ctx context.Context, actor access.Actor) ([]models.User, error) {
	return nil, nil
}

type stubProductService struct{}

func (stubProductService) List(ctx context.Context, params products.ListParams) (*products.ListResult, error) {
	return &products.ListResult{}, nil
}

func (stubProductService) Get(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	return &models.Product{ID: id}, nil
}

type stubWatchlistService struct{}

func (stubWatchlistService) Create(ctx context.Context, actor access.Actor, dto watchlist.CreateWatchItemDTO) (*models.WatchListItem, error) {
	return &models.WatchListItem{}, nil
}

func (stubWatchlistService) List(ctx context.Context, actor access.Actor, params watchlist.ListParams) (*watchlist.ListResult, error) {
	return &watchlist.ListResult{}, nil
}

func (stubWatchlistService) Get(ctx context.Context, actor access.Actor, id uuid.UUID) (*models.WatchListItem, error) {
	return &models.WatchListItem{ID: id}, nil
}

func (stubWatchlistService) Patch(ctx context.Context, actor access.Actor, id uuid.UUID, dto watchlist.UpdateWatchItemDTO) (*models.WatchListItem, error) {
	return &models.WatchListItem{ID: id}, nil
}

func (stubWatchlistService) Delete(ctx context.Context, actor access.Actor, id uuid.UUID) error {
	return nil
}

type stubNotificationsService struct{}

func (stubNotificationsService) List(ctx context.Context, actor access.Actor, params notifications.ListParams) (*notifications.ListResult, error) {
	return &notifications.ListResult{}, nil
}

func (stubNotificationsService) ListByPharmacy(ctx context.Context, actor access.Actor, params notifications.PharmacyListParams) (*notifications.ListResult, error) {
	return &notifications.ListResult{}, nil
}

func (stubNotificationsService) MarkRead(ctx context.Context, actor access.Actor, notificationID uuid.UUID) (*models.Notification, error) {
	return &models.Notification{ID: notificationID}, nil
}

func (stubNotificationsService) MarkAllRead(ctx context.Context, actor access.Actor) (int64, error) {
	return 0, nil
}

func (stubNotificationsService) CountUnread(ctx context.Context, actor access.Actor) (int64, error) {
	return 0, nil
}

func (stubNotificationsService) Delete(ctx context.Context, actor access.Actor, notificationID uuid.UUID) error {
	return nil
}

type stubLock struct{}

func (stubLock) Acquire(context.Context) (bool, error) { return true, nil }
func (stubLock) Release(context.Context) error         { return nil }

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "0"},
		JWT: config.JWTConfig{
			Secret:            "secret",
			Issuer:            "issuer",
			ExpirationMinutes: 60,
		},
	}
}

func newTestRouter(t *testing.T, cfg *config.Config) http.Handler {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "test-routing", Level: logger.ParseLevel("debug"), Output: io.Discard})
	monitorService, err := monitor.NewService(monitor.ServiceParams{
		Logger:   logg,
		Registry: monitor.NewRegistry(),
		Lock:     stubLock{},
	})
	if err != nil {
		t.Fatalf("construct monitor service: %v", err)
	}
	return NewRouter(
		cfg,
		logg,
		stubPinger{},
		nil,
		stubPharmacyService{},
		stubProductService{},
		stubWatchlistService{},
		stubNotificationsService{},
		monitorService,
	)
}

func TestHealthLiveIsPublic(t *testing.T) {
	router := newTestRouter(t, testConfig())
	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for health live got %d", resp.Code)
	}
}

func TestPrivateGroupRejectsMissingJWT(t *testing.T) {
	router := newTestRouter(t, testConfig())
	req := httptest.NewRequest(http.MethodGet, "/api/ping", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token got %d", resp.Code)
	}
}

func TestPrivateGroupSucceedsWithJWT(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(t, cfg)
	req := httptest.NewRequest(http.MethodGet, "/api/ping", nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.RoleUser))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for private ping got %d", resp.Code)
	}
}

func TestAdminGroupRequiresAdminRole(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(t, cfg)

	nonAdmin := httptest.NewRequest(http.MethodGet, "/api/admin/ping", nil)
	nonAdmin.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.RoleUser))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, nonAdmin)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-admin got %d", resp.Code)
	}

	admin := httptest.NewRequest(http.MethodGet, "/api/admin/ping", nil)
	admin.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.RoleAdmin))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, admin)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin got %d", resp.Code)
	}
}

func TestMonitorRunRequiresAdminRole(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(t, cfg)

	nonAdmin := httptest.NewRequest(http.MethodPost, "/api/admin/v1/monitor/run", nil)
	nonAdmin.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.RoleUser))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, nonAdmin)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-admin trigger got %d", resp.Code)
	}

	admin := httptest.NewRequest(http.MethodPost, "/api/admin/v1/monitor/run", nil)
	admin.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.RoleAdmin))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, admin)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin trigger got %d", resp.Code)
	}
}

func TestWatchlistCreateRejectsBadJSON(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(t, cfg)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/watchlist", strings.NewReader("{"))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.RoleUser))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid payload got %d", resp.Code)
	}
}

func TestWatchlistCreateAcceptsGoodJSON(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(t, cfg)
	body := `{"product_id":"` + uuid.NewString() + `"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/watchlist", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.RoleUser))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 for valid payload got %d", resp.Code)
	}
}

func TestNotificationsListWithJWT(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(t, cfg)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/notifications?limit=10&unreadOnly=true", nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.RoleUser))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for notifications list got %d", resp.Code)
	}
}

func buildToken(t *testing.T, cfg *config.Config, role enums.Role) string {
	t.Helper()
	pharmacyID := uuid.New()
	token, err := pkgAuth.MintAccessToken(cfg.JWT, time.Now(), pkgAuth.AccessTokenPayload{
		UserID:     uuid.New(),
		Login:      "tester",
		PharmacyID: &pharmacyID,
		Role:       role,
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}
