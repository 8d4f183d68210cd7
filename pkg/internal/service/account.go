package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/yeisme/photoarchive/pkg/configs"
	"github.com/yeisme/photoarchive/pkg/errcode"
	"github.com/yeisme/photoarchive/pkg/internal/auth"
	"github.com/yeisme/photoarchive/pkg/internal/model"
	"github.com/yeisme/photoarchive/pkg/internal/notify"
	"github.com/yeisme/photoarchive/pkg/internal/repository"
	"github.com/yeisme/photoarchive/pkg/internal/types"
	nlog "github.com/yeisme/photoarchive/pkg/log"
	"github.com/yeisme/photoarchive/pkg/rule"
)

// StaticPrefix 公开资源的访问前缀.
const StaticPrefix = "/static/"

// 资料更新白名单与禁止字段.
var (
	updatableFields = []string{"username", "email", "bio"}
	protectedFields = []string{"avatar", "password"}
)

var fieldRules = map[string]string{
	"username": "required,username",
	"email":    "required,email,max=255",
	"bio":      "max=500",
}

// AccountService 注册、登录与个人资料.
type AccountService struct {
	accounts     repository.AccountRepository
	resources    *ResourceService
	verification *VerificationService
	tokens       *auth.TokenManager
	sender       notify.Sender
	events       *EventSink
	authCfg      configs.AuthConfig
	verifyCfg    configs.VerificationConfig
	mailCfg      configs.MailConfig
	logger       zerolog.Logger
	now          func() time.Time
}

// AccountDeps AccountService 的依赖.
type AccountDeps struct {
	Accounts     repository.AccountRepository
	Resources    *ResourceService
	Verification *VerificationService
	Tokens       *auth.TokenManager
	Sender       notify.Sender
	Events       *EventSink
	Config       *configs.AppConfig
}

// NewAccountService 创建账号服务.
func NewAccountService(deps AccountDeps) *AccountService {
	return &AccountService{
		accounts:     deps.Accounts,
		resources:    deps.Resources,
		verification: deps.Verification,
		tokens:       deps.Tokens,
		sender:       deps.Sender,
		events:       deps.Events,
		authCfg:      deps.Config.Auth,
		verifyCfg:    deps.Config.Verification,
		mailCfg:      deps.Config.Mail,
		logger:       nlog.Component("account"),
		now:          time.Now,
	}
}

// Register 创建待验证账号并发送验证信息.
func (s *AccountService) Register(ctx context.Context, req *types.RegisterRequest) (*types.RegisterResponse, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	if err := s.ensureAvailable(ctx, req.Username, req.Email, 0); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(req.Password, s.authCfg.BcryptCost)
	if err != nil {
		return nil, errcode.Internal(err)
	}

	account := &model.Account{
		Username:         req.Username,
		Email:            req.Email,
		PasswordHash:     hash,
		Status:           model.AccountPending,
		PermissionGroup:  s.verifyCfg.PendingGroup,
		UniqueIdentifier: uuid.NewString(),
	}

	if err := s.accounts.Create(ctx, account); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, errcode.Validation("username or email is already taken")
		}

		return nil, errcode.Internal(err)
	}

	ch, err := s.verification.Issue(ctx, account)
	if err != nil {
		return nil, err
	}

	warnings := s.verification.Notify(ctx, account, ch)
	s.events.AccountRegistered(ctx, account, s.verification.Enhanced())

	s.logger.Info().Uint("account_id", account.ID).Str("username", account.Username).Msg("账号已注册")

	return &types.RegisterResponse{
		Account:  account,
		Enhanced: s.verification.Enhanced(),
		Warnings: warnings,
	}, nil
}

func (s *AccountService) ensureAvailable(ctx context.Context, username, email string, excludeID uint) error {
	if username != "" {
		taken, err := s.accounts.UsernameTaken(ctx, username, excludeID)
		if err != nil {
			return errcode.Internal(err)
		}

		if taken {
			return errcode.Validation("username %q is already taken", username)
		}
	}

	if email != "" {
		taken, err := s.accounts.EmailTaken(ctx, email, excludeID)
		if err != nil {
			return errcode.Internal(err)
		}

		if taken {
			return errcode.Validation("email %q is already registered", email)
		}
	}

	return nil
}

// Login 校验口令并签发令牌. 待验证账号可以登录以提交验证码.
func (s *AccountService) Login(ctx context.Context, req *types.LoginRequest) (*types.LoginResponse, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	invalid := errcode.Unauthorized("invalid username or password")

	account, err := s.accounts.GetByUsername(ctx, req.Username)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, invalid
	}

	if err != nil {
		return nil, errcode.Internal(err)
	}

	if err := auth.CheckPassword(account.PasswordHash, req.Password); err != nil {
		return nil, invalid
	}

	if account.Status == model.AccountDeactivated {
		return nil, errcode.PermissionDenied("account is deactivated")
	}

	now := s.now()
	if err := s.accounts.TouchLogin(ctx, account.ID, now); err != nil {
		return nil, errcode.Internal(err)
	}

	account.LastLoginAt = &now

	token, exp, err := s.tokens.Issue(account.ID, account.Username)
	if err != nil {
		return nil, errcode.Internal(err)
	}

	return &types.LoginResponse{
		Token:     token,
		TokenType: "Bearer",
		ExpiresAt: exp,
		Account:   account,
	}, nil
}

// Me 返回当前账号.
func (s *AccountService) Me(ctx context.Context, accountID uint) (*model.Account, error) {
	account, err := s.accounts.GetByID(ctx, accountID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, errcode.NotFound("account not found")
	}

	if err != nil {
		return nil, errcode.Internal(err)
	}

	return account, nil
}

// UpdateProfile 按白名单更新资料，只有实际变化的字段会写入并通知.
func (s *AccountService) UpdateProfile(ctx context.Context, accountID uint, fields map[string]any) (*types.UpdateProfileResponse, error) {
	values, err := parseProfileFields(fields)
	if err != nil {
		return nil, err
	}

	account, err := s.Me(ctx, accountID)
	if err != nil {
		return nil, err
	}

	current := map[string]string{
		"username": account.Username,
		"email":    account.Email,
		"bio":      account.Bio,
	}

	var (
		changes []types.FieldChange
		upd     repository.ProfileUpdate
	)

	for _, field := range updatableFields {
		v, ok := values[field]
		if !ok || v == current[field] {
			continue
		}

		changes = append(changes, types.FieldChange{Field: field, Old: current[field], New: v})

		switch field {
		case "username":
			upd.Username = &v
		case "email":
			upd.Email = &v
		case "bio":
			upd.Bio = &v
		}
	}

	if len(changes) == 0 {
		return nil, errcode.Validation("nothing to update")
	}

	var newName, newEmail string
	if upd.Username != nil {
		newName = *upd.Username
	}

	if upd.Email != nil {
		newEmail = *upd.Email
	}

	if err := s.ensureAvailable(ctx, newName, newEmail, accountID); err != nil {
		return nil, err
	}

	if err := s.accounts.UpdateProfile(ctx, accountID, upd); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, errcode.Validation("username or email is already taken")
		}

		return nil, errcode.Internal(err)
	}

	notifyTo := account.Email

	for _, c := range changes {
		switch c.Field {
		case "username":
			account.Username = c.New
		case "email":
			account.Email = c.New
		case "bio":
			account.Bio = c.New
		}
	}

	var warnings []string

	ok, msg := s.sender.Send(ctx, notifyTo, "Your account details were updated", notify.Content{
		Template: notify.TemplateInfoUpdate,
		Vars: map[string]any{
			"Username":    account.Username,
			"CompanyName": s.mailCfg.CompanyName,
			"Changes":     changes,
		},
	})
	if !ok {
		warnings = append(warnings, "update notification not sent: "+msg)
	}

	return &types.UpdateProfileResponse{Account: account, Changes: changes, Warnings: warnings}, nil
}

// parseProfileFields 头像与口令有专门入口，返回 403；其他未知字段返回 400.
func parseProfileFields(fields map[string]any) (map[string]string, error) {
	if len(fields) == 0 {
		return nil, errcode.Validation("nothing to update")
	}

	out := make(map[string]string, len(fields))

	for k, raw := range fields {
		if slices.Contains(protectedFields, k) {
			return nil, errcode.PermissionDenied(fmt.Sprintf("field %q cannot be updated here", k))
		}

		if !slices.Contains(updatableFields, k) {
			return nil, errcode.Validation("unknown field %q", k)
		}

		v, ok := raw.(string)
		if !ok {
			return nil, errcode.Validation("field %q must be a string", k)
		}

		if err := rule.ValidateVar(v, fieldRules[k]); err != nil {
			return nil, errcode.Validation("field %q is invalid", k)
		}

		out[k] = v
	}

	return out, nil
}

// UploadAvatar 保存头像并替换旧头像，账号的 avatar 字段指向公开路径.
func (s *AccountService) UploadAvatar(ctx context.Context, accountID uint, fileName, contentType string, data []byte) (*types.AvatarResponse, error) {
	res, err := s.resources.Create(ctx, CreateRequest{
		PrincipalID:  accountID,
		ResourceType: configs.ResourceTypeAvatar,
		FileName:     fileName,
		ContentType:  contentType,
		Data:         data,
		RelatedTable: AccountsTable,
		RelatedID:    strconv.FormatUint(uint64(accountID), 10),
	})
	if err != nil {
		return nil, err
	}

	path := StaticPrefix + res.StoragePath
	if err := s.accounts.SetAvatar(ctx, accountID, path); err != nil {
		return nil, errcode.Internal(err)
	}

	return &types.AvatarResponse{
		Avatar:            path,
		ResourceID:        res.Resource.ID,
		StoragePath:       res.StoragePath,
		ContentIdentifier: res.ContentID,
	}, nil
}

// Deactivate 自助注销，任意状态 -> 4.
func (s *AccountService) Deactivate(ctx context.Context, accountID uint) error {
	prev, err := s.accounts.Deactivate(ctx, accountID)
	if errors.Is(err, repository.ErrNotFound) {
		return errcode.NotFound("account not found")
	}

	if err != nil {
		return errcode.Internal(err)
	}

	if prev == model.AccountDeactivated {
		return errcode.Gone("account is already deactivated")
	}

	account, err := s.accounts.GetByID(ctx, accountID)
	if err == nil {
		s.events.AccountDeactivated(ctx, account, prev)
	}

	s.logger.Info().Uint("account_id", accountID).Int("previous_status", int(prev)).Msg("账号已注销")

	return nil
}

func validateStruct(v any) error {
	if err := rule.ValidateStruct(v); err != nil {
		if verrs := rule.Errors(err); verrs != nil {
			return errcode.Validation("%s", verrs.Error()).WithFields(verrs)
		}

		return errcode.Validation("%s", err.Error())
	}

	return nil
}
