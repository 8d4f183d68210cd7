package service

import (
	"context"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/rs/zerolog"

	"github.com/yeisme/photoarchive/pkg/configs"
	ctxPkg "github.com/yeisme/photoarchive/pkg/context"
	"github.com/yeisme/photoarchive/pkg/internal/model"
	"github.com/yeisme/photoarchive/pkg/queue"
)

// EventSink 按 events 开关发布领域事件，发布失败只记日志.
type EventSink struct {
	pub    message.Publisher
	cfg    configs.EventsConfig
	logger zerolog.Logger
}

// NewEventSink pub 为 nil 时所有事件被丢弃.
func NewEventSink(pub message.Publisher, cfg configs.EventsConfig, logger zerolog.Logger) *EventSink {
	return &EventSink{pub: pub, cfg: cfg, logger: logger}
}

func (e *EventSink) enabled(flag bool) bool {
	return e != nil && e.pub != nil && e.cfg.Enabled && flag
}

func (e *EventSink) report(ctx context.Context, topic string, err error) {
	if err == nil {
		return
	}

	e.logger.Warn().Err(err).
		Str("topic", topic).
		Str("trace_id", ctxPkg.TraceID(ctx)).
		Msg("事件发布失败")
}

func headerOpts(ctx context.Context) []queue.HeaderOption {
	if id := ctxPkg.TraceID(ctx); id != "" {
		return []queue.HeaderOption{queue.WithTraceID(id)}
	}

	return nil
}

func accountRef(a *model.Account) queue.AccountRef {
	return queue.AccountRef{
		ID:              a.ID,
		Username:        a.Username,
		Status:          int(a.Status),
		PermissionGroup: a.PermissionGroup,
	}
}

func resourceRef(r *model.Resource) queue.ResourceRef {
	return queue.ResourceRef{
		ID:           r.ID,
		OwnerID:      r.OwnerID,
		ContentID:    r.ContentID,
		StorageName:  r.StorageName,
		ResourceType: r.ResourceType,
		RelatedTable: r.RelatedTable,
		RelatedID:    r.RelatedID,
		Size:         r.Size,
		ContentType:  r.ContentType,
		Public:       r.Public,
	}
}

func (e *EventSink) AccountRegistered(ctx context.Context, a *model.Account, enhanced bool) {
	if !e.enabled(e.cfg.Account.Registered) {
		return
	}

	err := queue.PublishAccountRegistered(e.pub, queue.AccountRegisteredPayload{
		Account:  accountRef(a),
		Enhanced: enhanced,
	}, headerOpts(ctx)...)
	e.report(ctx, queue.TopicAccountRegistered, err)
}

func (e *EventSink) AccountActivated(ctx context.Context, a *model.Account, mode string) {
	if !e.enabled(e.cfg.Account.Activated) {
		return
	}

	err := queue.PublishAccountActivated(e.pub, queue.AccountActivatedPayload{
		Account: accountRef(a),
		Mode:    mode,
	}, headerOpts(ctx)...)
	e.report(ctx, queue.TopicAccountActivated, err)
}

func (e *EventSink) AccountDeactivated(ctx context.Context, a *model.Account, prev model.AccountStatus) {
	if !e.enabled(e.cfg.Account.Deactivated) {
		return
	}

	err := queue.PublishAccountDeactivated(e.pub, queue.AccountDeactivatedPayload{
		Account:        accountRef(a),
		PreviousStatus: int(prev),
	}, headerOpts(ctx)...)
	e.report(ctx, queue.TopicAccountDeactivated, err)
}

func (e *EventSink) ResourceStored(ctx context.Context, r *model.Resource, superseded []uint) {
	if !e.enabled(e.cfg.Resource.Stored) {
		return
	}

	err := queue.PublishResourceStored(e.pub, queue.ResourceStoredPayload{
		Resource:   resourceRef(r),
		Superseded: superseded,
	}, headerOpts(ctx)...)
	e.report(ctx, queue.TopicResourceStored, err)
}

func (e *EventSink) ResourceDeleted(ctx context.Context, r *model.Resource, reason string, bytesRemoved bool) {
	if !e.enabled(e.cfg.Resource.Deleted) {
		return
	}

	err := queue.PublishResourceDeleted(e.pub, queue.ResourceDeletedPayload{
		Resource:     resourceRef(r),
		Reason:       reason,
		BytesRemoved: bytesRemoved,
	}, headerOpts(ctx)...)
	e.report(ctx, queue.TopicResourceDeleted, err)
}

// SecurityAlert 返回是否已发布.
func (e *EventSink) SecurityAlert(ctx context.Context, payload queue.SecurityAlertPayload) bool {
	if !e.enabled(e.cfg.Security) {
		return false
	}

	err := queue.PublishSecurityAlert(e.pub, payload, headerOpts(ctx)...)
	e.report(ctx, queue.TopicSecurityAlert, err)

	return err == nil
}
