package handler

import (
	"testing"
	"time"

	"github.com/Anshu331/harness-portal/internal/config"
	"github.com/Anshu331/harness-portal/internal/tracker/entity"
	"github.com/Anshu331/harness-portal/internal/tracker/policy"
	"github.com/Anshu331/harness-portal/internal/tracker/repository"
	"github.com/Anshu331/harness-portal/internal/tracker/service"
	"github.com/Anshu331/harness-portal/internal/tracker/sse"
	"github.com/Anshu331/harness-portal/internal/tracker/storage"
	"github.com/Anshu331/harness-portal/internal/tracker/testutil"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type testEnv struct {
	DB     *gorm.DB
	Router *gin.Engine
	Hub    *sse.Hub

	Admin, Vendor, OtherVendor, DVP, TNV *entity.User
}

func (e *testEnv) token(u *entity.User) string {
	return testutil.GenerateToken(u)
}

func setupApp(t *testing.T) *testEnv {
	t.Helper()
	RegisterValidators()
	db := testutil.SetupTestDB(t)
	router := testutil.SetupRouter()

	store, err := storage.NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("local store: %v", err)
	}
	cfg := &config.Config{
		Storage: config.StorageConfig{MaxUploadSize: 1 << 20},
		JWT: config.JWTConfig{
			Secret:             testutil.JWTSecret,
			AccessTokenExpire:  time.Hour,
			RefreshTokenExpire: 24 * time.Hour,
			Issuer:             "harness-portal",
		},
	}
	pol := policy.MustNew()
	hub := sse.NewHub(nil)
	svc := service.NewServices(service.Deps{
		DB:     db,
		Repos:  repository.NewRepositories(db),
		Store:  store,
		Hub:    hub,
		Policy: pol,
		Config: cfg,
	})
	RegisterRoutes(router, RouteDeps{
		Handlers:   NewHandlers(svc, store, hub, cfg.Storage.MaxUploadSize, nil),
		Policy:     pol,
		JWTSecret:  cfg.JWT.Secret,
		Revocation: svc.Auth,
	})

	return &testEnv{
		DB:          db,
		Router:      router,
		Hub:         hub,
		Admin:       testutil.SeedUser(t, db, entity.RoleAdmin, "admin@test.com"),
		Vendor:      testutil.SeedUser(t, db, entity.RoleVendor, "v1@test.com"),
		OtherVendor: testutil.SeedUser(t, db, entity.RoleVendor, "v2@test.com"),
		DVP:         testutil.SeedUser(t, db, entity.RoleDVP, "dvp@test.com"),
		TNV:         testutil.SeedUser(t, db, entity.RoleTNV, "tnv@test.com"),
	}
}

// createHarness 以管理员身份创建线束，返回ID
func (e *testEnv) createHarness(t *testing.T, partNo string, vendors ...string) string {
	t.Helper()
	if vendors == nil {
		vendors = []string{}
	}
	w := testutil.DoRequest(e.Router, "POST", "/api/harness", map[string]interface{}{
		"partNo":          partNo,
		"partDescription": "main harness",
		"assignedVendors": vendors,
	}, e.token(e.Admin))
	if w.Code != 201 {
		t.Fatalf("create harness: expected 201, got %d: %s", w.Code, w.Body.String())
	}
	return testutil.Data(t, w)["id"].(string)
}

// patch 发送 PATCH 并校验状态码
func (e *testEnv) patch(t *testing.T, path string, body interface{}, u *entity.User, want int) map[string]interface{} {
	t.Helper()
	w := testutil.DoRequest(e.Router, "PATCH", path, body, e.token(u))
	if w.Code != want {
		t.Fatalf("PATCH %s: expected %d, got %d: %s", path, want, w.Code, w.Body.String())
	}
	return testutil.ParseResponse(w)
}

// toAssigned 创建线束并推进到 ASSIGNED
func (e *testEnv) toAssigned(t *testing.T, partNo string) string {
	t.Helper()
	id := e.createHarness(t, partNo, e.Vendor.ID)
	e.patch(t, "/api/harness/release/"+id, map[string]string{"drawingsReleaseDate": "2024-01-10"}, e.Admin, 200)
	return id
}

// dispatch 供应商发运，返回发运ID
func (e *testEnv) dispatch(t *testing.T, harnessID string) string {
	t.Helper()
	w := testutil.DoRequest(e.Router, "POST", "/api/shipment/dispatch/"+harnessID, map[string]string{
		"transporter": "ABC",
		"lrNo":        "LR1",
	}, e.token(e.Vendor))
	if w.Code != 201 {
		t.Fatalf("dispatch: expected 201, got %d: %s", w.Code, w.Body.String())
	}
	return testutil.Data(t, w)["id"].(string)
}

func statusOf(resp map[string]interface{}) string {
	data, _ := resp["data"].(map[string]interface{})
	s, _ := data["status"].(string)
	return s
}
