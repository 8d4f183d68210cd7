package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/yeisme/photoarchive/pkg/configs"
	"github.com/yeisme/photoarchive/pkg/errcode"
	"github.com/yeisme/photoarchive/pkg/internal/contentid"
	"github.com/yeisme/photoarchive/pkg/internal/model"
	"github.com/yeisme/photoarchive/pkg/internal/permission"
	"github.com/yeisme/photoarchive/pkg/internal/repository"
	"github.com/yeisme/photoarchive/pkg/internal/storage/blob"
	nlog "github.com/yeisme/photoarchive/pkg/log"
	"github.com/yeisme/photoarchive/pkg/metrics"
	"github.com/yeisme/photoarchive/pkg/tracing"
)

// 软删除原因.
const (
	ReasonDelete     = "delete"
	ReasonSuperseded = "superseded"
)

// AccountsTable 关联到账号时使用的表名.
const AccountsTable = "accounts"

// CreateRequest 创建资源.
type CreateRequest struct {
	PrincipalID   uint   `json:"-"`
	ResourceType  string `json:"type"          rule:"required,max=64"`
	FileName      string `json:"file_name"     rule:"required,max=255"`
	ContentType   string `json:"content_type"  rule:"required,max=255"`
	Data          []byte `json:"-"`
	RelatedTable  string `json:"related_table" rule:"omitempty,token"`
	RelatedID     string `json:"related_id"    rule:"omitempty,token"`
	Public        *bool  `json:"public"`
	ACLGroup      string `json:"acl_group"     rule:"omitempty,max=64"`
	ACLPrincipals []uint `json:"acl_principals"`
}

// UpdateRequest 用新内容替换 ResourceID 指向的资源.
type UpdateRequest struct {
	CreateRequest

	ResourceID uint
}

// Command 单一入口的资源操作.
type Command struct {
	Operation   permission.Operation
	PrincipalID uint
	ResourceID  uint          // read / update / delete
	Payload     CreateRequest // create / update
}

// Result 操作结果.
type Result struct {
	Resource    *model.Resource `json:"resource"`
	StoragePath string          `json:"storage_path"`
	ContentID   string          `json:"content_identifier"`
	Superseded  []uint          `json:"superseded,omitempty"`
	Data        []byte          `json:"-"`
}

// Object 读取到的资源及其字节.
type Object struct {
	Resource *model.Resource
	Data     []byte
}

// ResourceService 资源生命周期管理.
type ResourceService struct {
	resources repository.ResourceRepository
	eval      *permission.Evaluator
	store     blob.Store
	files     configs.FilesConfig
	events    *EventSink
	logger    zerolog.Logger
}

// NewResourceService 创建资源服务.
func NewResourceService(resources repository.ResourceRepository, eval *permission.Evaluator,
	store blob.Store, files configs.FilesConfig, events *EventSink,
) *ResourceService {
	return &ResourceService{
		resources: resources,
		eval:      eval,
		store:     store,
		files:     files,
		events:    events,
		logger:    nlog.Component("resource"),
	}
}

// Execute 按 cmd.Operation 分发.
func (s *ResourceService) Execute(ctx context.Context, cmd Command) (*Result, error) {
	payload := cmd.Payload
	payload.PrincipalID = cmd.PrincipalID

	switch cmd.Operation {
	case permission.OpCreate:
		return s.Create(ctx, payload)
	case permission.OpUpdate:
		return s.Update(ctx, UpdateRequest{CreateRequest: payload, ResourceID: cmd.ResourceID})
	case permission.OpRead:
		obj, err := s.Read(ctx, cmd.PrincipalID, cmd.ResourceID)
		if err != nil {
			return nil, err
		}

		return &Result{
			Resource:    obj.Resource,
			StoragePath: obj.Resource.StorageName,
			ContentID:   obj.Resource.ContentID,
			Data:        obj.Data,
		}, nil
	case permission.OpDelete:
		if err := s.Delete(ctx, cmd.PrincipalID, cmd.ResourceID); err != nil {
			return nil, err
		}

		return &Result{}, nil
	default:
		return nil, errcode.Validation("unknown operation %q", cmd.Operation)
	}
}

// Create 校验并保存新资源. 单实例类型会替换同一关联下的存活资源.
func (s *ResourceService) Create(ctx context.Context, req CreateRequest) (*Result, error) {
	ctx, span := tracing.StartSpan(ctx, "ResourceService.Create")
	defer span.End()

	res, err := s.create(ctx, req, nil)
	tracing.RecordError(span, err)

	return res, err
}

// Update 先校验对旧资源的 update 权限，再以替换方式创建.
func (s *ResourceService) Update(ctx context.Context, req UpdateRequest) (*Result, error) {
	ctx, span := tracing.StartSpan(ctx, "ResourceService.Update")
	defer span.End()

	res, err := s.update(ctx, req)
	tracing.RecordError(span, err)

	return res, err
}

func (s *ResourceService) update(ctx context.Context, req UpdateRequest) (*Result, error) {
	d, err := s.eval.Evaluate(ctx, req.PrincipalID, permission.OpUpdate, permission.Target{ResourceID: req.ResourceID})
	if err != nil {
		return nil, errcode.Internal(err)
	}

	if !d.Allowed {
		return nil, deniedError(d)
	}

	old := d.Resource
	payload := req.CreateRequest

	switch {
	case payload.ResourceType == "":
		payload.ResourceType = old.ResourceType
	case !strings.EqualFold(payload.ResourceType, old.ResourceType):
		return nil, errcode.Validation("resource type cannot change from %s to %s", old.ResourceType, payload.ResourceType)
	}

	if payload.RelatedTable == "" && payload.RelatedID == "" {
		payload.RelatedTable = old.RelatedTable
		payload.RelatedID = old.RelatedID
	}

	return s.create(ctx, payload, []*model.Resource{old})
}

func (s *ResourceService) create(ctx context.Context, req CreateRequest, superseded []*model.Resource) (*Result, error) {
	req.ResourceType = strings.ToLower(req.ResourceType)

	d, err := s.eval.Evaluate(ctx, req.PrincipalID, permission.OpCreate, permission.Target{ResourceType: req.ResourceType})
	if err != nil {
		return nil, errcode.Internal(err)
	}

	if !d.Allowed {
		if d.Reason == permission.ReasonUnknownType {
			return nil, errcode.Validation("unknown resource type %q", req.ResourceType)
		}

		return nil, errcode.PermissionDenied(fmt.Sprintf("not allowed to create %s resources", req.ResourceType))
	}

	typeRule, _ := s.files.Rule(req.ResourceType)

	if err := validateStruct(req); err != nil {
		return nil, err
	}

	if req.RelatedTable == AccountsTable && req.RelatedID != strconv.FormatUint(uint64(req.PrincipalID), 10) {
		return nil, errcode.PermissionDenied("resources can only be bound to the caller's own account")
	}

	p, err := validatePayload(typeRule, req)
	if err != nil {
		return nil, err
	}

	if typeRule.SingleInstance {
		if req.RelatedTable == "" || req.RelatedID == "" {
			return nil, errcode.Validation("related_table and related_id are required for %s resources", req.ResourceType)
		}

		if req.RelatedTable != typeRule.RelatedTable {
			return nil, errcode.Validation("%s resources must be related to %s", req.ResourceType, typeRule.RelatedTable)
		}

		superseded, err = s.collectSingleInstance(ctx, req, superseded)
		if err != nil {
			return nil, err
		}
	}

	cid, err := s.contentID(ctx, req.Data)
	if err != nil {
		return nil, err
	}

	name := storageName(typeRule, req.RelatedID, p.ext, req.Data)

	if err := s.checkNameFree(ctx, name, superseded); err != nil {
		return nil, err
	}

	// 顺序固定：先淘汰旧资源，再写字节，最后写元数据
	evicted, err := s.evict(ctx, superseded, name)
	if err != nil {
		return nil, err
	}

	if err := s.store.Put(ctx, name, req.Data, p.contentType); err != nil {
		return nil, errcode.Internal(fmt.Errorf("put %s: %w", name, err))
	}

	res := &model.Resource{
		OwnerID:      req.PrincipalID,
		ContentID:    cid,
		StorageName:  name,
		ResourceType: req.ResourceType,
		RelatedTable: req.RelatedTable,
		RelatedID:    req.RelatedID,
		Public:       typeRule.Public,
		ACLGroup:     req.ACLGroup,
		Status:       model.ResourceLive,
		Size:         int64(len(req.Data)),
		ContentType:  p.contentType,
	}
	if req.Public != nil {
		res.Public = *req.Public
	}

	if err := res.SetPrincipals(req.ACLPrincipals); err != nil {
		return nil, errcode.Internal(err)
	}

	if err := s.saveMetadata(ctx, res); err != nil {
		if rmErr := s.store.Remove(ctx, name); rmErr != nil {
			s.logger.Warn().Err(rmErr).Str("storage_name", name).Msg("元数据写入失败后清理字节失败")
		}

		return nil, errcode.Internal(err)
	}

	metrics.ResourcesStored.WithLabelValues(res.ResourceType).Inc()
	s.events.ResourceStored(ctx, res, evicted)

	s.logger.Info().
		Uint("resource_id", res.ID).
		Uint("owner_id", res.OwnerID).
		Str("type", res.ResourceType).
		Str("storage_name", name).
		Int("superseded", len(evicted)).
		Msg("资源已保存")

	return &Result{
		Resource:    res,
		StoragePath: name,
		ContentID:   cid,
		Superseded:  evicted,
	}, nil
}

// collectSingleInstance 把同一关联下的存活资源加入替换列表，每一个都需要 update 权限.
func (s *ResourceService) collectSingleInstance(ctx context.Context, req CreateRequest, superseded []*model.Resource) ([]*model.Resource, error) {
	live, err := s.resources.FindLiveByRelation(ctx, req.ResourceType, req.RelatedTable, req.RelatedID)
	if err != nil {
		return nil, errcode.Internal(err)
	}

	seen := make(map[uint]bool, len(superseded))
	for _, r := range superseded {
		seen[r.ID] = true
	}

	for i := range live {
		if seen[live[i].ID] {
			continue
		}

		d, err := s.eval.Evaluate(ctx, req.PrincipalID, permission.OpUpdate, permission.Target{ResourceID: live[i].ID})
		if err != nil {
			return nil, errcode.Internal(err)
		}

		if !d.Allowed {
			return nil, errcode.PermissionDenied(fmt.Sprintf("resource %d cannot be replaced", live[i].ID))
		}

		superseded = append(superseded, &live[i])
		seen[live[i].ID] = true
	}

	return superseded, nil
}

// checkNameFree 单实例的固定存储名不能覆盖不在替换列表中的存活资源.
func (s *ResourceService) checkNameFree(ctx context.Context, name string, superseded []*model.Resource) error {
	holder, err := s.resources.GetLiveByStorageName(ctx, name)
	if errors.Is(err, repository.ErrNotFound) {
		return nil
	}

	if err != nil {
		return errcode.Internal(err)
	}

	for _, r := range superseded {
		if r.ID == holder.ID {
			return nil
		}
	}

	return errcode.Validation("storage name %s is held by another resource", name)
}

func (s *ResourceService) contentID(ctx context.Context, data []byte) (string, error) {
	cid, err := contentid.Generate(data)
	if errors.Is(err, contentid.ErrEmptyPayload) {
		return "", errcode.Validation("empty payload")
	}

	if err != nil {
		return "", errcode.Internal(err)
	}

	exists, err := s.resources.ContentIDExists(ctx, cid)
	if err != nil {
		return "", errcode.Internal(err)
	}

	if exists {
		cid = contentid.Disambiguate(cid)
	}

	return cid, nil
}

// saveMetadata 内容标识并发冲突时追加后缀重试一次.
func (s *ResourceService) saveMetadata(ctx context.Context, res *model.Resource) error {
	base := res.ContentID

	err := s.resources.Create(ctx, res)
	if errors.Is(err, repository.ErrDuplicate) {
		res.ID = 0
		res.ContentID = contentid.Disambiguate(strings.SplitN(base, "-", 2)[0])
		err = s.resources.Create(ctx, res)
	}

	return err
}

// evict 软删除被替换的资源并尽力删除字节，返回实际被替换的资源 id.
// 与 name 同名的旧字节会被随后的 Put 覆盖，只标记为已删除，不交给清理任务.
func (s *ResourceService) evict(ctx context.Context, victims []*model.Resource, name string) ([]uint, error) {
	var evicted []uint

	for _, v := range victims {
		changed, err := s.resources.SoftDelete(ctx, v.ID)
		if err != nil {
			return evicted, errcode.Internal(fmt.Errorf("supersede resource %d: %w", v.ID, err))
		}

		if !changed {
			continue
		}

		v.Status = model.ResourceDeleted
		evicted = append(evicted, v.ID)
		metrics.ResourcesDeleted.WithLabelValues(v.ResourceType, ReasonSuperseded).Inc()

		var removed bool
		if v.StorageName == name {
			removed = s.markBytesRemoved(ctx, v)
		} else {
			removed = s.removeBytes(ctx, v)
		}

		s.events.ResourceDeleted(ctx, v, ReasonSuperseded, removed)
	}

	return evicted, nil
}

// removeBytes 失败只记录，由清理任务重试.
func (s *ResourceService) removeBytes(ctx context.Context, res *model.Resource) bool {
	if err := s.store.Remove(ctx, res.StorageName); err != nil {
		metrics.BytesRemovalFailures.Inc()
		s.logger.Warn().Err(err).
			Uint("resource_id", res.ID).
			Str("storage_name", res.StorageName).
			Msg("删除资源字节失败，等待清理任务重试")

		return false
	}

	return s.markBytesRemoved(ctx, res)
}

func (s *ResourceService) markBytesRemoved(ctx context.Context, res *model.Resource) bool {
	if err := s.resources.MarkBytesRemoved(ctx, res.ID); err != nil {
		s.logger.Warn().Err(err).Uint("resource_id", res.ID).Msg("标记字节已删除失败")
	}

	res.BytesRemoved = true

	return true
}

// Read 读取资源字节. 不存在与无权限同样返回 NotFound.
func (s *ResourceService) Read(ctx context.Context, principalID, resourceID uint) (*Object, error) {
	ctx, span := tracing.StartSpan(ctx, "ResourceService.Read")
	defer span.End()

	obj, err := s.read(ctx, principalID, resourceID)
	tracing.RecordError(span, err)

	return obj, err
}

func (s *ResourceService) read(ctx context.Context, principalID, resourceID uint) (*Object, error) {
	d, err := s.eval.Evaluate(ctx, principalID, permission.OpRead, permission.Target{ResourceID: resourceID})
	if err != nil {
		return nil, errcode.Internal(err)
	}

	if !d.Allowed {
		return nil, errcode.NotFound("resource not found")
	}

	return s.load(ctx, d.Resource)
}

func (s *ResourceService) load(ctx context.Context, res *model.Resource) (*Object, error) {
	data, err := s.store.Get(ctx, res.StorageName)
	if errors.Is(err, blob.ErrNotExist) {
		s.logger.Error().
			Uint("resource_id", res.ID).
			Str("storage_name", res.StorageName).
			Msg("存活资源的字节缺失")

		return nil, errcode.StorageIntegrity(fmt.Errorf("resource %d: %w", res.ID, err))
	}

	if err != nil {
		return nil, errcode.Internal(err)
	}

	return &Object{Resource: res, Data: data}, nil
}

// ReadPublic 匿名读取公开资源，只按存储名查找存活且公开的记录.
func (s *ResourceService) ReadPublic(ctx context.Context, storageName string) (*Object, error) {
	name, err := blob.CleanName(storageName)
	if err != nil {
		return nil, errcode.NotFound("resource not found")
	}

	res, err := s.resources.GetLiveByStorageName(ctx, name)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, errcode.NotFound("resource not found")
	}

	if err != nil {
		return nil, errcode.Internal(err)
	}

	if !res.Public {
		return nil, errcode.NotFound("resource not found")
	}

	return s.load(ctx, res)
}

// Delete 软删除后尽力删除字节，字节删除失败不回滚状态.
func (s *ResourceService) Delete(ctx context.Context, principalID, resourceID uint) error {
	ctx, span := tracing.StartSpan(ctx, "ResourceService.Delete")
	defer span.End()

	err := s.delete(ctx, principalID, resourceID)
	tracing.RecordError(span, err)

	return err
}

func (s *ResourceService) delete(ctx context.Context, principalID, resourceID uint) error {
	d, err := s.eval.Evaluate(ctx, principalID, permission.OpDelete, permission.Target{ResourceID: resourceID})
	if err != nil {
		return errcode.Internal(err)
	}

	if !d.Allowed {
		return deniedError(d)
	}

	changed, err := s.resources.SoftDelete(ctx, resourceID)
	if err != nil {
		return errcode.Internal(err)
	}

	if !changed {
		return errcode.NotFound("resource not found")
	}

	res := d.Resource
	res.Status = model.ResourceDeleted
	metrics.ResourcesDeleted.WithLabelValues(res.ResourceType, ReasonDelete).Inc()

	removed := s.removeBytes(ctx, res)
	s.events.ResourceDeleted(ctx, res, ReasonDelete, removed)

	return nil
}

// SweepOrphanBytes 清理已删除资源遗留的字节，返回处理的记录数.
// 存活记录仍引用同一存储名时字节属于新记录，只做标记.
func (s *ResourceService) SweepOrphanBytes(ctx context.Context, limit int) (int, error) {
	pending, err := s.resources.ListPendingByteRemoval(ctx, limit)
	if err != nil {
		return 0, err
	}

	done := 0

	for i := range pending {
		res := &pending[i]

		_, err := s.resources.GetLiveByStorageName(ctx, res.StorageName)
		switch {
		case err == nil:
			if err := s.resources.MarkBytesRemoved(ctx, res.ID); err != nil {
				return done, err
			}
		case errors.Is(err, repository.ErrNotFound):
			if !s.removeBytes(ctx, res) {
				continue
			}
		default:
			return done, err
		}

		done++
	}

	return done, nil
}

func deniedError(d permission.Decision) error {
	switch d.Reason {
	case permission.ReasonResourceMissing, permission.ReasonResourceDeleted:
		return errcode.NotFound("resource not found")
	default:
		return errcode.PermissionDenied("operation not permitted")
	}
}
