package app_test

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/photoarchive/pkg/app"
	"github.com/yeisme/photoarchive/pkg/configs"
	"github.com/yeisme/photoarchive/pkg/internal/auth"
	"github.com/yeisme/photoarchive/pkg/internal/jobs"
	"github.com/yeisme/photoarchive/pkg/internal/model"
	"github.com/yeisme/photoarchive/pkg/internal/storage"
	"github.com/yeisme/photoarchive/pkg/internal/storage/blob"
	dbc "github.com/yeisme/photoarchive/pkg/internal/storage/db"
	"github.com/yeisme/photoarchive/pkg/internal/storage/kv"
	"github.com/yeisme/photoarchive/pkg/internal/storage/mq"
	"github.com/yeisme/photoarchive/pkg/internal/types"
	nlog "github.com/yeisme/photoarchive/pkg/log"
	"github.com/yeisme/photoarchive/pkg/scheduler"
)

type server struct {
	engine *gin.Engine
	svcs   *app.Services
}

// newServer 在内存 sqlite、afero 与 gochannel 上组装完整的 HTTP 引擎.
func newServer(t *testing.T) *server {
	t.Helper()

	gin.SetMode(gin.TestMode)
	nlog.Init()

	cfg := configs.Defaults()
	cfg.Auth.BcryptCost = 4
	cfg.Auth.JWTSecret = "test-secret-test-secret-test-secret"
	cfg.Metrics.Enabled = false
	cfg.RateLimit.Enabled = false
	cfg.Server.Debug = false

	ctx := context.Background()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := dbc.NewWithDialector(ctx, sqlite.Open(dsn))
	require.NoError(t, err)

	kvStore, err := kv.NewMemoryKV(ctx, nil)
	require.NoError(t, err)

	mqClient, err := mq.New(ctx, cfg.MQ, mq.Options{})
	require.NoError(t, err)

	mgr := &storage.Manager{
		DB:   db,
		Blob: blob.NewFsStore(afero.NewMemMapFs()),
		KV:   &kv.Client{KVStore: kvStore, Type: kv.KVType(cfg.KV.Type)},
		MQ:   mqClient,
	}
	t.Cleanup(func() { _ = mgr.Close() })

	svcs, err := app.NewServices(&cfg, mgr)
	require.NoError(t, err)

	sched, err := scheduler.NewScheduler()
	require.NoError(t, err)
	require.NoError(t, jobs.RegisterCronJobs(sched, svcs.Resources))
	t.Cleanup(func() { _ = sched.Stop() })

	return &server{engine: app.NewEngine(&cfg, mgr, sched, svcs), svcs: svcs}
}

func (s *server) do(t *testing.T, req *http.Request, token string) *httptest.ResponseRecorder {
	t.Helper()

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)

	return w
}

func (s *server) json(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		b, err := sonic.Marshal(body)
		require.NoError(t, err)
		buf.Write(b)
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")

	return s.do(t, req, token)
}

func (s *server) upload(t *testing.T, method, path, token string, fields map[string]string, name, ctype string, data []byte) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, name))
	h.Set("Content-Type", ctype)

	part, err := mw.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	return s.do(t, req, token)
}

// account 直接写入账号并签发令牌.
func (s *server) account(t *testing.T, name, group string, status model.AccountStatus) (*model.Account, string) {
	t.Helper()

	hash, err := auth.HashPassword("password123", 4)
	require.NoError(t, err)

	a := &model.Account{
		Username:         name,
		Email:            name + "@example.com",
		PasswordHash:     hash,
		Status:           status,
		PermissionGroup:  group,
		UniqueIdentifier: uuid.NewString(),
	}
	require.NoError(t, s.svcs.AccountRepo.Create(context.Background(), a))

	token, _, err := s.svcs.Tokens.Issue(a.ID, a.Username)
	require.NoError(t, err)

	return a, token
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	require.NoError(t, sonic.Unmarshal(w.Body.Bytes(), &v), w.Body.String())

	return v
}

func pngBytes(t *testing.T) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for x := range 4 {
		for y := range 4 {
			img.Set(x, y, color.RGBA{R: 200, G: 40, A: 255})
		}
	}

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))

	return buf.Bytes()
}

func TestRegisterVerifyLogin(t *testing.T) {
	s := newServer(t)

	w := s.json(t, http.MethodPost, "/api/v1/accounts/register", "", types.RegisterRequest{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "password123",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.NotContains(t, w.Body.String(), "unique_identifier")

	reg := decode[types.RegisterResponse](t, w)
	assert.Equal(t, model.AccountPending, reg.Account.Status)
	assert.False(t, reg.Enhanced)

	stored, err := s.svcs.AccountRepo.GetByUsername(context.Background(), "alice")
	require.NoError(t, err)

	w = s.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/verify/"+stored.UniqueIdentifier, nil), "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	verified := decode[types.VerifyResponse](t, w)
	assert.Equal(t, model.AccountActive, verified.Account.Status)

	w = s.json(t, http.MethodPost, "/api/v1/accounts/login", "", types.LoginRequest{Username: "alice", Password: "password123"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	login := decode[types.LoginResponse](t, w)
	assert.Equal(t, "Bearer", login.TokenType)

	w = s.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/me", nil), login.Token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"username":"alice"`)
}

func TestRegisterReportsFieldErrors(t *testing.T) {
	s := newServer(t)

	w := s.json(t, http.MethodPost, "/api/v1/accounts/register", "", map[string]string{
		"username": "alice",
		"email":    "not-an-email",
		"password": "password123",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)

	resp := decode[types.ErrorResponse](t, w)
	assert.Equal(t, "ValidationError", resp.Error)
	assert.Contains(t, resp.Fields, "email")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/accounts/register", strings.NewReader("{"))
	req.Header.Set("Content-Type", "application/json")
	w = s.do(t, req, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAuthRequired(t *testing.T) {
	s := newServer(t)

	w := s.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/me", nil), "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.NotEmpty(t, w.Header().Get("WWW-Authenticate"))

	w = s.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/me", nil), "not-a-jwt")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/resources/1", nil), "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestDeactivatedAccountLosesAccess(t *testing.T) {
	s := newServer(t)
	_, token := s.account(t, "alice", "user", model.AccountActive)

	w := s.do(t, httptest.NewRequest(http.MethodPost, "/api/v1/me/deactivate", nil), token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/me", nil), token)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestResourceLifecycle(t *testing.T) {
	s := newServer(t)
	_, ownerToken := s.account(t, "alice", "user", model.AccountActive)
	_, strangerToken := s.account(t, "mallory", "viewer", model.AccountActive)

	data := pngBytes(t)

	w := s.upload(t, http.MethodPost, "/api/v1/resources", ownerToken,
		map[string]string{"type": configs.ResourceTypeGeneral}, "photo.png", "image/png", data)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	created := decode[types.ResourceResponse](t, w)
	require.True(t, created.OK)
	require.NotNil(t, created.Resource)
	assert.NotEmpty(t, created.ContentIdentifier)

	path := fmt.Sprintf("/api/v1/resources/%d", created.Resource.ID)

	w = s.do(t, httptest.NewRequest(http.MethodGet, path, nil), ownerToken)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, data, w.Body.Bytes())
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.Equal(t, created.ContentIdentifier, w.Header().Get("X-Content-Identifier"))

	w = s.do(t, httptest.NewRequest(http.MethodGet, path, nil), strangerToken)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, httptest.NewRequest(http.MethodGet, "/static/"+created.StoragePath, nil), "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/resources/abc", nil), ownerToken)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, httptest.NewRequest(http.MethodDelete, path, nil), ownerToken)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(t, httptest.NewRequest(http.MethodGet, path, nil), ownerToken)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateRejectsMismatchedUpload(t *testing.T) {
	s := newServer(t)
	_, token := s.account(t, "alice", "user", model.AccountActive)

	w := s.upload(t, http.MethodPost, "/api/v1/resources", token,
		map[string]string{"type": configs.ResourceTypeGeneral}, "photo.png", "image/jpeg", pngBytes(t))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/resources", strings.NewReader("type=general"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w = s.do(t, req, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAvatarIsPublic(t *testing.T) {
	s := newServer(t)
	_, token := s.account(t, "alice", "user", model.AccountActive)

	data := pngBytes(t)

	w := s.upload(t, http.MethodPut, "/api/v1/me/avatar", token, nil, "me.png", "image/png", data)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	avatar := decode[types.AvatarResponse](t, w)
	require.True(t, strings.HasPrefix(avatar.Avatar, "/static/"))

	w = s.do(t, httptest.NewRequest(http.MethodGet, avatar.Avatar, nil), "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, data, w.Body.Bytes())
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))

	w = s.do(t, httptest.NewRequest(http.MethodGet, "/static/../config.yaml", nil), "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAdminRoutesRequireAdminGroup(t *testing.T) {
	s := newServer(t)
	_, userToken := s.account(t, "alice", "user", model.AccountActive)
	_, adminToken := s.account(t, "root", "admin", model.AccountActive)

	w := s.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/admin/scheduler/jobs", nil), userToken)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/admin/scheduler/jobs", nil), adminToken)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), jobs.JobOrphanBytesSweep)

	w = s.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/admin/scheduler/jobs/missing", nil), adminToken)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHealthEndpoints(t *testing.T) {
	s := newServer(t)

	for _, component := range []string{"db", "blob", "mq"} {
		w := s.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/health/"+component, nil), "")
		require.Equal(t, http.StatusOK, w.Code, component)

		resp := decode[types.HealthResponse](t, w)
		assert.Equal(t, component, resp.Component)
		assert.Equal(t, "ok", resp.Status)
	}
}
