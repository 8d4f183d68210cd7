// Package permission 判定主体能否对资源执行某个操作.
//
// 判定每次都从存储读取账号与资源的当前快照，不做缓存.
package permission

import (
	"context"
	"errors"
	"slices"

	"github.com/yeisme/photoarchive/pkg/configs"
	"github.com/yeisme/photoarchive/pkg/internal/model"
	"github.com/yeisme/photoarchive/pkg/internal/repository"
	"github.com/yeisme/photoarchive/pkg/metrics"
)

// Operation 资源操作.
type Operation string

const (
	OpCreate Operation = "create"
	OpRead   Operation = "read"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
)

// 拒绝原因.
const (
	ReasonAllowed          = "allowed"
	ReasonAccountUnusable  = "account_unusable"
	ReasonGroupNotAllowed  = "group_not_allowed"
	ReasonUnknownType      = "unknown_type"
	ReasonResourceMissing  = "resource_missing"
	ReasonResourceDeleted  = "resource_deleted"
	ReasonNoGrant          = "no_grant"
	ReasonUnknownOperation = "unknown_operation"
)

// Target 判定对象：create 使用 ResourceType，其余操作使用 ResourceID.
type Target struct {
	ResourceType string
	ResourceID   uint
}

// Decision 判定结果，Account / Resource 为判定时读取的快照.
type Decision struct {
	Allowed  bool
	Reason   string
	Account  *model.Account
	Resource *model.Resource
}

func deny(reason string) Decision {
	return Decision{Reason: reason}
}

// Evaluator 权限判定器.
type Evaluator struct {
	accounts  repository.AccountRepository
	resources repository.ResourceRepository
	files     configs.FilesConfig
}

// NewEvaluator 创建判定器.
func NewEvaluator(accounts repository.AccountRepository, resources repository.ResourceRepository, files configs.FilesConfig) *Evaluator {
	return &Evaluator{accounts: accounts, resources: resources, files: files}
}

// Evaluate 判定 principalID 能否对 target 执行 op. 存储错误以 error 返回，其余情况都体现在 Decision 中.
func (e *Evaluator) Evaluate(ctx context.Context, principalID uint, op Operation, target Target) (Decision, error) {
	d, err := e.evaluate(ctx, principalID, op, target)
	if err != nil {
		return Decision{}, err
	}

	outcome := "deny"
	if d.Allowed {
		outcome = "allow"
	}

	metrics.PermissionDecisions.WithLabelValues(string(op), outcome).Inc()

	return d, nil
}

func (e *Evaluator) evaluate(ctx context.Context, principalID uint, op Operation, target Target) (Decision, error) {
	account, err := e.accounts.GetByID(ctx, principalID)
	if errors.Is(err, repository.ErrNotFound) {
		return deny(ReasonAccountUnusable), nil
	}

	if err != nil {
		return Decision{}, err
	}

	if !account.Status.Usable() {
		d := deny(ReasonAccountUnusable)
		d.Account = account

		return d, nil
	}

	switch op {
	case OpCreate:
		return e.evaluateCreate(account, target), nil
	case OpRead, OpUpdate, OpDelete:
		return e.evaluateExisting(ctx, account, target)
	default:
		return Decision{Reason: ReasonUnknownOperation, Account: account}, nil
	}
}

func (e *Evaluator) evaluateCreate(account *model.Account, target Target) Decision {
	rule, ok := e.files.Rule(target.ResourceType)
	if !ok {
		return Decision{Reason: ReasonUnknownType, Account: account}
	}

	if !rule.AllowsGroup(account.PermissionGroup) {
		return Decision{Reason: ReasonGroupNotAllowed, Account: account}
	}

	return Decision{Allowed: true, Reason: ReasonAllowed, Account: account}
}

func (e *Evaluator) evaluateExisting(ctx context.Context, account *model.Account, target Target) (Decision, error) {
	res, err := e.resources.GetByID(ctx, target.ResourceID)
	if errors.Is(err, repository.ErrNotFound) {
		return Decision{Reason: ReasonResourceMissing, Account: account}, nil
	}

	if err != nil {
		return Decision{}, err
	}

	d := Decision{Account: account, Resource: res}

	switch {
	case !res.Live():
		d.Reason = ReasonResourceDeleted
	case Granted(account, res):
		d.Allowed = true
		d.Reason = ReasonAllowed
	default:
		d.Reason = ReasonNoGrant
	}

	return d, nil
}

// Granted 判断账号是否通过所有者、权限组或显式列表之一获得资源访问权.
func Granted(account *model.Account, res *model.Resource) bool {
	if res.OwnerID == account.ID {
		return true
	}

	if res.ACLGroup != "" && res.ACLGroup == account.PermissionGroup {
		return true
	}

	return slices.Contains(res.Principals(), account.ID)
}
