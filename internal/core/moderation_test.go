package core

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/wirechat-presence/internal/presence"
	"github.com/vovakirdan/wirechat-presence/internal/store"
)

func TestDeleteMessageRetractsEverywhere(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.roles["u:1"] = store.RoleModerator

	mod := env.connect(t, "c-mod", "u:1")
	author := env.connect(t, "c-author", "u:42")
	reader := env.connect(t, "c-reader", "u:7")
	env.join(t, mod, pune)
	env.join(t, author, pune)
	env.join(t, reader, pune)

	msg := env.send(t, author, pune, "regrettable")

	// The author walks out of the room but stays connected.
	require.NoError(t, env.hub.Leave(ctx, author, pune))
	drain(mod.Events)
	drain(author.Events)
	drain(reader.Events)

	require.NoError(t, env.hub.DeleteMessage(ctx, mod, pune, msg.ID))

	readerEv := mustEvent(t, reader.Events, EventMessageDeleted)
	require.Equal(t, msg.ID, readerEv.MessageID)

	modEv := mustEvent(t, mod.Events, EventMessageDeleted)
	require.Equal(t, msg.ID, modEv.MessageID)

	authorEv := mustEvent(t, author.Events, EventMessageDeletedForSender)
	require.Equal(t, msg.ID, authorEv.MessageID)
	require.Equal(t, noticeDeletedByModerator, authorEv.Text)

	_, err := env.db.GetMessage(ctx, msg.ID)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestDeleteMessagePermissions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	author := env.connect(t, "c1", "u:42")
	other := env.connect(t, "c2", "u:7")
	env.join(t, author, pune)
	env.join(t, other, pune)

	msg := env.send(t, author, pune, "mine")
	drain(other.Events)

	env.hub.Handle(ctx, other, &Command{Kind: CommandDeleteMessage, Room: pune, MessageID: msg.ID})
	ev := mustEvent(t, other.Events, EventSystemNotice)
	require.Equal(t, ErrCodeUnauthorized, ev.Error.Code)

	_, err := env.db.GetMessage(ctx, msg.ID)
	require.NoError(t, err, "unauthorized delete must not mutate state")

	drain(author.Events)
	require.NoError(t, env.hub.DeleteMessage(ctx, author, pune, msg.ID))
	require.Empty(t, ofKind(drain(author.Events), EventMessageDeletedForSender), "own deletes are not moderator deletes")

	require.ErrorIs(t, env.hub.DeleteMessage(ctx, author, pune, msg.ID), ErrMessageNotFound)
}

func TestBanMember(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.roles["u:1"] = store.RoleAdmin

	mod := env.connect(t, "c-mod", "u:1")
	troll := env.connect(t, "c-troll", "a:troll")
	env.join(t, mod, pune)
	env.join(t, troll, pune)
	drain(mod.Events)
	drain(troll.Events)

	require.NoError(t, env.hub.BanMember(ctx, mod, pune, "a:troll"))

	require.Contains(t, noticeTexts(drain(troll.Events)), noticeYouWereBanned)
	require.Contains(t, noticeTexts(drain(mod.Events)), noticeBanned)

	present, err := env.hub.registry.IsPresent(ctx, pune, "a:troll")
	require.NoError(t, err)
	require.False(t, present)

	members, err := env.db.ListMembers(ctx, pune)
	require.NoError(t, err)
	require.Equal(t, []presence.Identity{"u:1"}, members)

	require.ErrorIs(t, env.hub.Join(ctx, troll, pune), ErrBanned)

	_, err = env.hub.Pipeline().Send(ctx, pune, troll.Identity, troll.Label, troll.ID, "let me in")
	require.ErrorIs(t, err, ErrNotAMember)
}

func TestModeratorOnlyActions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.roles["u:1"] = store.RoleModerator
	env.roles["u:5"] = store.RoleHelper

	mod := env.connect(t, "c-mod", "u:1")
	helper := env.connect(t, "c-help", "u:5")
	env.join(t, mod, pune)
	env.join(t, helper, pune)

	_, err := env.hub.ToggleSlowMode(ctx, helper, pune)
	require.ErrorIs(t, err, ErrUnauthorized)
	require.ErrorIs(t, env.hub.PurgeHistory(ctx, helper, pune), ErrUnauthorized)
	require.ErrorIs(t, env.hub.BanMember(ctx, helper, pune, "u:1"), ErrUnauthorized)

	drain(helper.Events)
	enabled, err := env.hub.ToggleSlowMode(ctx, mod, pune)
	require.NoError(t, err)
	require.True(t, enabled)
	slow := mustEvent(t, helper.Events, EventSlowModeChanged)
	require.True(t, slow.Enabled)

	env.send(t, helper, pune, "soon gone")
	require.NoError(t, env.hub.PurgeHistory(ctx, mod, pune))
	mustEvent(t, helper.Events, EventHistoryCleared)

	history, err := env.db.RoomHistory(ctx, pune, env.clock.AddDate(0, 0, -1), 10, env.clock)
	require.NoError(t, err)
	require.Empty(t, history)
}

func TestReportMessage(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	author := env.connect(t, "c1", "u:42")
	reporter := env.connect(t, "c2", "a:Anon-331")
	outsider := env.connect(t, "c3", "u:9")
	env.join(t, author, pune)
	env.join(t, reporter, pune)

	msg := env.send(t, author, pune, "spam spam")

	require.NoError(t, env.hub.ReportMessage(ctx, reporter, pune, msg.ID))
	require.Contains(t, noticeTexts(drain(reporter.Events)), noticeReportFiled)
	require.ErrorIs(t, env.hub.ReportMessage(ctx, outsider, pune, msg.ID), ErrNotAMember)
	require.ErrorIs(t, env.hub.ReportMessage(ctx, reporter, pune, msg.ID+100), ErrMessageNotFound)

	reports, err := env.db.ListReports(ctx, pune)
	require.NoError(t, err)
	require.Len(t, reports, 1)
	require.Equal(t, presence.Identity("a:Anon-331"), reports[0].ReportedBy)
}
