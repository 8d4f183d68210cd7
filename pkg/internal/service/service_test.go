package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"sync"
	"testing"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/photoarchive/pkg/cache"
	"github.com/yeisme/photoarchive/pkg/configs"
	"github.com/yeisme/photoarchive/pkg/internal/auth"
	"github.com/yeisme/photoarchive/pkg/internal/model"
	"github.com/yeisme/photoarchive/pkg/internal/notify"
	"github.com/yeisme/photoarchive/pkg/internal/permission"
	"github.com/yeisme/photoarchive/pkg/internal/repository"
	"github.com/yeisme/photoarchive/pkg/internal/storage/blob"
	dbc "github.com/yeisme/photoarchive/pkg/internal/storage/db"
	"github.com/yeisme/photoarchive/pkg/internal/storage/kv"
	nlog "github.com/yeisme/photoarchive/pkg/log"
)

// sentMail 记录一次发送.
type sentMail struct {
	To      string
	Subject string
	Content notify.Content
}

// fakeSender 记录发送内容，fail 为 true 时模拟投递失败.
type fakeSender struct {
	mu   sync.Mutex
	sent []sentMail
	fail bool
}

func (f *fakeSender) Send(_ context.Context, to, subject string, content notify.Content) (bool, string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.fail {
		return false, "smtp unavailable"
	}

	f.sent = append(f.sent, sentMail{To: to, Subject: subject, Content: content})

	return true, "sent"
}

func (f *fakeSender) last(t *testing.T) sentMail {
	t.Helper()

	f.mu.Lock()
	defer f.mu.Unlock()

	require.NotEmpty(t, f.sent)

	return f.sent[len(f.sent)-1]
}

// flakyStore Remove 可以被设置为失败.
type flakyStore struct {
	blob.Store

	mu         sync.Mutex
	failRemove bool
}

func (s *flakyStore) setFailRemove(v bool) {
	s.mu.Lock()
	s.failRemove = v
	s.mu.Unlock()
}

func (s *flakyStore) Remove(ctx context.Context, name string) error {
	s.mu.Lock()
	fail := s.failRemove
	s.mu.Unlock()

	if fail {
		return errors.New("remove: backend unavailable")
	}

	return s.Store.Remove(ctx, name)
}

type env struct {
	cfg          *configs.AppConfig
	accounts     repository.AccountRepository
	resources    repository.ResourceRepository
	store        *flakyStore
	sender       *fakeSender
	eval         *permission.Evaluator
	resourceSvc  *ResourceService
	verification *VerificationService
	accountSvc   *AccountService
	tokens       *auth.TokenManager
}

type envOption func(cfg *configs.AppConfig)

func withEnhanced(cfg *configs.AppConfig) { cfg.Verification.Enhanced = true }

// newEnv 组装内存 sqlite、afero 内存文件系统与内存 KV 上的全部服务.
func newEnv(t *testing.T, pub message.Publisher, opts ...envOption) *env {
	t.Helper()

	nlog.Init()

	cfg := configs.Defaults()
	cfg.Auth.BcryptCost = 4
	cfg.Auth.JWTSecret = "test-secret-test-secret-test-secret"

	for _, opt := range opts {
		opt(&cfg)
	}

	ctx := context.Background()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	client, err := dbc.NewWithDialector(ctx, sqlite.Open(dsn))
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	kvStore, err := kv.NewMemoryKV(ctx, nil)
	require.NoError(t, err)

	accounts := repository.NewAccountRepository(client.DB)
	resources := repository.NewResourceRepository(client.DB)
	store := &flakyStore{Store: blob.NewFsStore(afero.NewMemMapFs())}
	sender := &fakeSender{}
	events := NewEventSink(pub, cfg.Events, nlog.Component("events"))
	eval := permission.NewEvaluator(accounts, resources, cfg.Files)
	tokens := auth.NewTokenManager(cfg.Auth)

	resourceSvc := NewResourceService(resources, eval, store, cfg.Files, events)
	verification := NewVerificationService(accounts, cfg.Verification, cfg.Mail, sender,
		cache.NewCache(kvStore, "verify"), events)
	accountSvc := NewAccountService(AccountDeps{
		Accounts:     accounts,
		Resources:    resourceSvc,
		Verification: verification,
		Tokens:       tokens,
		Sender:       sender,
		Events:       events,
		Config:       &cfg,
	})

	return &env{
		cfg:          &cfg,
		accounts:     accounts,
		resources:    resources,
		store:        store,
		sender:       sender,
		eval:         eval,
		resourceSvc:  resourceSvc,
		verification: verification,
		accountSvc:   accountSvc,
		tokens:       tokens,
	}
}

// activeAccount 直接写入一个已激活账号.
func (e *env) activeAccount(t *testing.T, name, group string) *model.Account {
	t.Helper()

	hash, err := auth.HashPassword("password123", 4)
	require.NoError(t, err)

	a := &model.Account{
		Username:         name,
		Email:            name + "@example.com",
		PasswordHash:     hash,
		Status:           model.AccountActive,
		PermissionGroup:  group,
		UniqueIdentifier: uuid.NewString(),
	}
	require.NoError(t, e.accounts.Create(context.Background(), a))

	return a
}

func pngBytes(t *testing.T, c color.Color) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for x := range 4 {
		for y := range 4 {
			img.Set(x, y, c)
		}
	}

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))

	return buf.Bytes()
}

func jpegBytes(t *testing.T, c color.Color) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for x := range 8 {
		for y := range 8 {
			img.Set(x, y, c)
		}
	}

	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))

	return buf.Bytes()
}

var (
	red  = color.RGBA{R: 255, A: 255}
	blue = color.RGBA{B: 255, A: 255}
)
