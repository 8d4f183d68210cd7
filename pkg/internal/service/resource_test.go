package service

import (
	"context"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/photoarchive/pkg/configs"
	"github.com/yeisme/photoarchive/pkg/errcode"
	"github.com/yeisme/photoarchive/pkg/internal/model"
	"github.com/yeisme/photoarchive/pkg/internal/permission"
	"github.com/yeisme/photoarchive/pkg/queue"
)

func generalRequest(owner uint, name, ctype string, data []byte) CreateRequest {
	return CreateRequest{
		PrincipalID:  owner,
		ResourceType: configs.ResourceTypeGeneral,
		FileName:     name,
		ContentType:  ctype,
		Data:         data,
	}
}

func avatarRequest(owner uint, name, ctype string, data []byte) CreateRequest {
	return CreateRequest{
		PrincipalID:  owner,
		ResourceType: configs.ResourceTypeAvatar,
		FileName:     name,
		ContentType:  ctype,
		Data:         data,
		RelatedTable: AccountsTable,
		RelatedID:    strconv.FormatUint(uint64(owner), 10),
	}
}

func TestCreateThenReadReturnsIdenticalBytes(t *testing.T) {
	e := newEnv(t, nil)
	ctx := context.Background()
	owner := e.activeAccount(t, "alice", "user")

	cases := []struct {
		name  string
		file  string
		ctype string
		data  []byte
	}{
		{"png", "a.png", "image/png", pngBytes(t, red)},
		{"jpeg", "b.JPG", "image/jpeg", jpegBytes(t, blue)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res, err := e.resourceSvc.Create(ctx, generalRequest(owner.ID, tc.file, tc.ctype, tc.data))
			require.NoError(t, err)
			assert.Equal(t, model.ResourceLive, res.Resource.Status)
			assert.NotEmpty(t, res.ContentID)
			assert.NotEqual(t, res.ContentID, res.StoragePath)

			obj, err := e.resourceSvc.Read(ctx, owner.ID, res.Resource.ID)
			require.NoError(t, err)
			assert.Equal(t, tc.data, obj.Data)
		})
	}
}

func TestGeneralStorageNameShape(t *testing.T) {
	e := newEnv(t, nil)
	owner := e.activeAccount(t, "alice", "user")

	res, err := e.resourceSvc.Create(context.Background(), generalRequest(owner.ID, "x.png", "image/png", pngBytes(t, red)))
	require.NoError(t, err)
	assert.Regexp(t, `^unknown_[0-9a-f]{8}_[0-9a-f]{8}\.png$`, res.StoragePath)

	req := generalRequest(owner.ID, "x.png", "image/png", pngBytes(t, red))
	req.RelatedTable = "albums"
	req.RelatedID = "12"
	res, err = e.resourceSvc.Create(context.Background(), req)
	require.NoError(t, err)
	assert.Regexp(t, `^12_[0-9a-f]{8}_[0-9a-f]{8}\.png$`, res.StoragePath)
}

func TestDuplicateBytesGetDistinctContentIDs(t *testing.T) {
	e := newEnv(t, nil)
	ctx := context.Background()
	owner := e.activeAccount(t, "alice", "user")
	data := pngBytes(t, red)

	first, err := e.resourceSvc.Create(ctx, generalRequest(owner.ID, "a.png", "image/png", data))
	require.NoError(t, err)

	second, err := e.resourceSvc.Create(ctx, generalRequest(owner.ID, "a.png", "image/png", data))
	require.NoError(t, err)

	assert.NotEqual(t, first.ContentID, second.ContentID)
	assert.True(t, strings.HasPrefix(second.ContentID, first.ContentID+"-"))
}

func TestCreateValidation(t *testing.T) {
	e := newEnv(t, nil)
	ctx := context.Background()
	owner := e.activeAccount(t, "alice", "user")

	pngData := pngBytes(t, red)
	broken := append([]byte{}, pngData[:24]...)

	large := make([]byte, e.cfg.Files.Rules[configs.ResourceTypeGeneral].MaxSizeBytes+1)
	copy(large, pngData)

	cases := []struct {
		name string
		req  CreateRequest
	}{
		{"empty", generalRequest(owner.ID, "a.png", "image/png", nil)},
		{"too large", generalRequest(owner.ID, "a.png", "image/png", large)},
		{"extension not allowed", generalRequest(owner.ID, "a.gif", "image/png", pngData)},
		{"declared type not allowed", generalRequest(owner.ID, "a.png", "image/gif", pngData)},
		{"declared type disagrees with content", generalRequest(owner.ID, "a.png", "image/jpeg", pngData)},
		{"extension disagrees with content", generalRequest(owner.ID, "a.jpg", "image/png", pngData)},
		{"not a well-formed image", generalRequest(owner.ID, "a.png", "image/png", broken)},
		{"text payload", generalRequest(owner.ID, "a.png", "image/png", []byte("hello world"))},
		{"unknown type", CreateRequest{PrincipalID: owner.ID, ResourceType: "video", FileName: "a.png", ContentType: "image/png", Data: pngData}},
		{"bad related id", func() CreateRequest {
			r := generalRequest(owner.ID, "a.png", "image/png", pngData)
			r.RelatedTable, r.RelatedID = "albums", "../etc"

			return r
		}()},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := e.resourceSvc.Create(ctx, tc.req)
			require.Error(t, err)
			assert.True(t, errcode.IsKind(err, errcode.KindValidation), "got %v", err)
		})
	}
}

func TestUnusableAccountsAreDenied(t *testing.T) {
	e := newEnv(t, nil)
	ctx := context.Background()
	owner := e.activeAccount(t, "alice", "user")

	res, err := e.resourceSvc.Create(ctx, generalRequest(owner.ID, "a.png", "image/png", pngBytes(t, red)))
	require.NoError(t, err)

	_, err = e.accounts.Deactivate(ctx, owner.ID)
	require.NoError(t, err)

	_, err = e.resourceSvc.Create(ctx, generalRequest(owner.ID, "b.png", "image/png", pngBytes(t, blue)))
	assert.True(t, errcode.IsKind(err, errcode.KindPermissionDenied))

	_, err = e.resourceSvc.Read(ctx, owner.ID, res.Resource.ID)
	assert.True(t, errcode.IsKind(err, errcode.KindNotFound))

	err = e.resourceSvc.Delete(ctx, owner.ID, res.Resource.ID)
	assert.True(t, errcode.IsKind(err, errcode.KindPermissionDenied))

	_, err = e.resourceSvc.Update(ctx, UpdateRequest{
		CreateRequest: generalRequest(owner.ID, "c.png", "image/png", pngBytes(t, blue)),
		ResourceID:    res.Resource.ID,
	})
	assert.True(t, errcode.IsKind(err, errcode.KindPermissionDenied))
}

func TestReadHidesForbiddenAndMissing(t *testing.T) {
	e := newEnv(t, nil)
	ctx := context.Background()
	owner := e.activeAccount(t, "alice", "user")
	stranger := e.activeAccount(t, "mallory", "user")

	res, err := e.resourceSvc.Create(ctx, generalRequest(owner.ID, "a.png", "image/png", pngBytes(t, red)))
	require.NoError(t, err)

	_, errForbidden := e.resourceSvc.Read(ctx, stranger.ID, res.Resource.ID)
	_, errMissing := e.resourceSvc.Read(ctx, stranger.ID, 9999)

	assert.True(t, errcode.IsKind(errForbidden, errcode.KindNotFound))
	assert.True(t, errcode.IsKind(errMissing, errcode.KindNotFound))
	assert.Equal(t, errcode.As(errForbidden).Message, errcode.As(errMissing).Message)
}

func TestACLGrantsRead(t *testing.T) {
	e := newEnv(t, nil)
	ctx := context.Background()
	owner := e.activeAccount(t, "alice", "user")
	friend := e.activeAccount(t, "bob", "user")
	editor := e.activeAccount(t, "carol", "editors")

	req := generalRequest(owner.ID, "a.png", "image/png", pngBytes(t, red))
	req.ACLPrincipals = []uint{friend.ID}
	req.ACLGroup = "editors"

	res, err := e.resourceSvc.Create(ctx, req)
	require.NoError(t, err)

	for _, who := range []uint{friend.ID, editor.ID} {
		obj, err := e.resourceSvc.Read(ctx, who, res.Resource.ID)
		require.NoError(t, err)
		assert.Equal(t, owner.ID, obj.Resource.OwnerID)
	}
}

func TestDeletedResourcesAreNeverServed(t *testing.T) {
	e := newEnv(t, nil)
	ctx := context.Background()
	owner := e.activeAccount(t, "alice", "user")

	req := generalRequest(owner.ID, "a.png", "image/png", pngBytes(t, red))
	req.ACLGroup = "user"
	res, err := e.resourceSvc.Create(ctx, req)
	require.NoError(t, err)

	require.NoError(t, e.resourceSvc.Delete(ctx, owner.ID, res.Resource.ID))

	_, err = e.resourceSvc.Read(ctx, owner.ID, res.Resource.ID)
	assert.True(t, errcode.IsKind(err, errcode.KindNotFound))

	d, err := e.eval.Evaluate(ctx, owner.ID, permission.OpRead, permission.Target{ResourceID: res.Resource.ID})
	require.NoError(t, err)
	assert.False(t, d.Allowed)

	exists, err := e.store.Exists(ctx, res.StoragePath)
	require.NoError(t, err)
	assert.False(t, exists)

	got, err := e.resources.GetByID(ctx, res.Resource.ID)
	require.NoError(t, err)
	assert.True(t, got.BytesRemoved)

	err = e.resourceSvc.Delete(ctx, owner.ID, res.Resource.ID)
	assert.True(t, errcode.IsKind(err, errcode.KindNotFound))
}

func TestDeleteKeepsStatusWhenByteRemovalFails(t *testing.T) {
	e := newEnv(t, nil)
	ctx := context.Background()
	owner := e.activeAccount(t, "alice", "user")

	res, err := e.resourceSvc.Create(ctx, generalRequest(owner.ID, "a.png", "image/png", pngBytes(t, red)))
	require.NoError(t, err)

	e.store.setFailRemove(true)
	require.NoError(t, e.resourceSvc.Delete(ctx, owner.ID, res.Resource.ID))

	got, err := e.resources.GetByID(ctx, res.Resource.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ResourceDeleted, got.Status)
	assert.False(t, got.BytesRemoved)

	_, err = e.resourceSvc.Read(ctx, owner.ID, res.Resource.ID)
	assert.True(t, errcode.IsKind(err, errcode.KindNotFound))

	// 清理任务在存储恢复后删除遗留字节
	e.store.setFailRemove(false)
	n, err := e.resourceSvc.SweepOrphanBytes(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	exists, err := e.store.Exists(ctx, res.StoragePath)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestReadMissingBytesIsStorageIntegrityError(t *testing.T) {
	e := newEnv(t, nil)
	ctx := context.Background()
	owner := e.activeAccount(t, "alice", "user")

	res, err := e.resourceSvc.Create(ctx, generalRequest(owner.ID, "a.png", "image/png", pngBytes(t, red)))
	require.NoError(t, err)

	require.NoError(t, e.store.Store.Remove(ctx, res.StoragePath))

	_, err = e.resourceSvc.Read(ctx, owner.ID, res.Resource.ID)
	assert.True(t, errcode.IsKind(err, errcode.KindStorageIntegrity))
	assert.False(t, errcode.IsKind(err, errcode.KindNotFound))
}

func TestSingleInstanceUpdateLeavesOneLiveRecord(t *testing.T) {
	cases := []struct {
		name   string
		second func(t *testing.T) (string, string, []byte)
	}{
		{"same extension", func(t *testing.T) (string, string, []byte) { return "b.png", "image/png", pngBytes(t, blue) }},
		{"other extension", func(t *testing.T) (string, string, []byte) { return "b.jpg", "image/jpeg", jpegBytes(t, blue) }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := newEnv(t, nil)
			ctx := context.Background()
			owner := e.activeAccount(t, "alice", "user")

			first, err := e.resourceSvc.Create(ctx, avatarRequest(owner.ID, "a.png", "image/png", pngBytes(t, red)))
			require.NoError(t, err)
			assert.Equal(t, "accounts_"+strconv.FormatUint(uint64(owner.ID), 10)+".png", first.StoragePath)

			// 旧字节删除失败也不能留下可访问的旧版本
			e.store.setFailRemove(true)

			file, ctype, data := tc.second(t)
			second, err := e.resourceSvc.Update(ctx, UpdateRequest{
				CreateRequest: avatarRequest(owner.ID, file, ctype, data),
				ResourceID:    first.Resource.ID,
			})
			require.NoError(t, err)
			assert.Equal(t, []uint{first.Resource.ID}, second.Superseded)

			live, err := e.resources.FindLiveByRelation(ctx, configs.ResourceTypeAvatar, AccountsTable, second.Resource.RelatedID)
			require.NoError(t, err)
			require.Len(t, live, 1)
			assert.Equal(t, second.Resource.ID, live[0].ID)

			_, err = e.resourceSvc.Read(ctx, owner.ID, first.Resource.ID)
			assert.True(t, errcode.IsKind(err, errcode.KindNotFound))

			_, err = e.resourceSvc.ReadPublic(ctx, first.StoragePath)
			if first.StoragePath == second.StoragePath {
				require.NoError(t, err)
			} else {
				assert.True(t, errcode.IsKind(err, errcode.KindNotFound))
			}

			obj, err := e.resourceSvc.ReadPublic(ctx, second.StoragePath)
			require.NoError(t, err)
			assert.Equal(t, data, obj.Data)
		})
	}
}

func TestSingleInstanceCreateReplacesImplicitly(t *testing.T) {
	e := newEnv(t, nil)
	ctx := context.Background()
	owner := e.activeAccount(t, "alice", "user")

	first, err := e.resourceSvc.Create(ctx, avatarRequest(owner.ID, "a.png", "image/png", pngBytes(t, red)))
	require.NoError(t, err)

	second, err := e.resourceSvc.Create(ctx, avatarRequest(owner.ID, "b.png", "image/png", pngBytes(t, blue)))
	require.NoError(t, err)
	assert.Equal(t, []uint{first.Resource.ID}, second.Superseded)
	assert.Equal(t, first.StoragePath, second.StoragePath)
}

func TestAvatarCannotTargetAnotherAccount(t *testing.T) {
	e := newEnv(t, nil)
	ctx := context.Background()
	victim := e.activeAccount(t, "alice", "user")
	attacker := e.activeAccount(t, "mallory", "user")

	req := avatarRequest(attacker.ID, "a.png", "image/png", pngBytes(t, red))
	req.RelatedID = strconv.FormatUint(uint64(victim.ID), 10)

	_, err := e.resourceSvc.Create(ctx, req)
	assert.True(t, errcode.IsKind(err, errcode.KindPermissionDenied))
}

func TestAvatarMustRelateToAccounts(t *testing.T) {
	e := newEnv(t, nil)
	ctx := context.Background()
	victim := e.activeAccount(t, "alice", "user")
	attacker := e.activeAccount(t, "mallory", "user")

	// 其它关联表上的同名 id 不能占用受害者的头像存储名
	req := avatarRequest(attacker.ID, "a.png", "image/png", pngBytes(t, red))
	req.RelatedTable = "albums"
	req.RelatedID = strconv.FormatUint(uint64(victim.ID), 10)

	_, err := e.resourceSvc.Create(ctx, req)
	assert.True(t, errcode.IsKind(err, errcode.KindValidation))

	live, err := e.resources.FindLiveByRelation(ctx, configs.ResourceTypeAvatar, "albums", req.RelatedID)
	require.NoError(t, err)
	assert.Empty(t, live)

	res, err := e.accountSvc.UploadAvatar(ctx, victim.ID, "me.png", "image/png", pngBytes(t, blue))
	require.NoError(t, err)
	assert.Equal(t, AccountsTable+"_"+req.RelatedID+".png", res.StoragePath)

	got, err := e.resources.GetByID(ctx, res.ResourceID)
	require.NoError(t, err)
	assert.Equal(t, victim.ID, got.OwnerID)
}

func TestSupersededAvatarBytesAreNotSwept(t *testing.T) {
	e := newEnv(t, nil)
	ctx := context.Background()
	owner := e.activeAccount(t, "alice", "user")

	first, err := e.resourceSvc.Create(ctx, avatarRequest(owner.ID, "a.png", "image/png", pngBytes(t, red)))
	require.NoError(t, err)

	e.store.setFailRemove(true)

	data := pngBytes(t, blue)
	second, err := e.resourceSvc.Create(ctx, avatarRequest(owner.ID, "b.png", "image/png", data))
	require.NoError(t, err)
	require.Equal(t, first.StoragePath, second.StoragePath)

	// 同名字节已被新头像覆盖，旧记录不再等待清理
	old, err := e.resources.GetByID(ctx, first.Resource.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ResourceDeleted, old.Status)
	assert.True(t, old.BytesRemoved)

	pending, err := e.resources.ListPendingByteRemoval(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)

	e.store.setFailRemove(false)
	n, err := e.resourceSvc.SweepOrphanBytes(ctx, 10)
	require.NoError(t, err)
	assert.Zero(t, n)

	obj, err := e.resourceSvc.ReadPublic(ctx, second.StoragePath)
	require.NoError(t, err)
	assert.Equal(t, data, obj.Data)
}

func TestUpdateChecksPermissionOnSupersededResource(t *testing.T) {
	e := newEnv(t, nil)
	ctx := context.Background()
	owner := e.activeAccount(t, "alice", "user")
	stranger := e.activeAccount(t, "mallory", "user")

	res, err := e.resourceSvc.Create(ctx, generalRequest(owner.ID, "a.png", "image/png", pngBytes(t, red)))
	require.NoError(t, err)

	_, err = e.resourceSvc.Update(ctx, UpdateRequest{
		CreateRequest: generalRequest(stranger.ID, "b.png", "image/png", pngBytes(t, blue)),
		ResourceID:    res.Resource.ID,
	})
	assert.True(t, errcode.IsKind(err, errcode.KindPermissionDenied))

	got, err := e.resources.GetByID(ctx, res.Resource.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ResourceLive, got.Status)

	_, err = e.resourceSvc.Update(ctx, UpdateRequest{
		CreateRequest: generalRequest(owner.ID, "b.png", "image/png", pngBytes(t, blue)),
		ResourceID:    9999,
	})
	assert.True(t, errcode.IsKind(err, errcode.KindNotFound))
}

func TestExecuteDispatches(t *testing.T) {
	e := newEnv(t, nil)
	ctx := context.Background()
	owner := e.activeAccount(t, "alice", "user")
	data := pngBytes(t, red)

	created, err := e.resourceSvc.Execute(ctx, Command{
		Operation:   permission.OpCreate,
		PrincipalID: owner.ID,
		Payload:     CreateRequest{ResourceType: configs.ResourceTypeGeneral, FileName: "a.png", ContentType: "image/png", Data: data},
	})
	require.NoError(t, err)

	read, err := e.resourceSvc.Execute(ctx, Command{Operation: permission.OpRead, PrincipalID: owner.ID, ResourceID: created.Resource.ID})
	require.NoError(t, err)
	assert.Equal(t, data, read.Data)
	assert.Equal(t, created.ContentID, read.ContentID)

	updated, err := e.resourceSvc.Execute(ctx, Command{
		Operation:   permission.OpUpdate,
		PrincipalID: owner.ID,
		ResourceID:  created.Resource.ID,
		Payload:     CreateRequest{FileName: "b.png", ContentType: "image/png", Data: pngBytes(t, blue)},
	})
	require.NoError(t, err)
	assert.Equal(t, configs.ResourceTypeGeneral, updated.Resource.ResourceType)

	_, err = e.resourceSvc.Execute(ctx, Command{Operation: permission.OpDelete, PrincipalID: owner.ID, ResourceID: updated.Resource.ID})
	require.NoError(t, err)

	_, err = e.resourceSvc.Execute(ctx, Command{Operation: "archive", PrincipalID: owner.ID})
	assert.True(t, errcode.IsKind(err, errcode.KindValidation))
}

func TestPublicReadRequiresPublicFlag(t *testing.T) {
	e := newEnv(t, nil)
	ctx := context.Background()
	owner := e.activeAccount(t, "alice", "user")

	private, err := e.resourceSvc.Create(ctx, generalRequest(owner.ID, "a.png", "image/png", pngBytes(t, red)))
	require.NoError(t, err)

	_, err = e.resourceSvc.ReadPublic(ctx, private.StoragePath)
	assert.True(t, errcode.IsKind(err, errcode.KindNotFound))

	_, err = e.resourceSvc.ReadPublic(ctx, "../"+private.StoragePath)
	assert.True(t, errcode.IsKind(err, errcode.KindNotFound))

	public := true
	req := generalRequest(owner.ID, "b.png", "image/png", pngBytes(t, blue))
	req.Public = &public

	shared, err := e.resourceSvc.Create(ctx, req)
	require.NoError(t, err)

	obj, err := e.resourceSvc.ReadPublic(ctx, shared.StoragePath)
	require.NoError(t, err)
	assert.Equal(t, req.Data, obj.Data)
}

func TestResourceEventsArePublished(t *testing.T) {
	ps := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 8}, watermill.NopLogger{})
	t.Cleanup(func() { _ = ps.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	stored, err := ps.Subscribe(ctx, queue.TopicResourceStored)
	require.NoError(t, err)

	e := newEnv(t, ps)
	owner := e.activeAccount(t, "alice", "user")

	res, err := e.resourceSvc.Create(ctx, generalRequest(owner.ID, "a.png", "image/png", pngBytes(t, red)))
	require.NoError(t, err)

	select {
	case msg := <-stored:
		env, err := queue.ParseResourceStored(msg)
		require.NoError(t, err)
		msg.Ack()
		assert.Equal(t, res.Resource.ID, env.Payload.Resource.ID)
		assert.Equal(t, res.ContentID, env.Payload.Resource.ContentID)
	case <-ctx.Done():
		t.Fatal("resource.stored not published")
	}
}
