package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rosterbot/roster-server/invites"
	"github.com/rosterbot/roster-server/models/userdata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sentDirect struct {
	userId int64
	msg    Message
}

type sentChannel struct {
	channelId int64
	msg       Message
}

type stubMessenger struct {
	directErr  error
	channelErr error
	direct     []sentDirect
	channel    []sentChannel
}

func (m *stubMessenger) SendDirect(ctx context.Context, userId int64, msg Message) error {
	if m.directErr != nil {
		return m.directErr
	}
	m.direct = append(m.direct, sentDirect{userId, msg})
	return nil
}

func (m *stubMessenger) SendToChannel(ctx context.Context, channelId int64, msg Message) error {
	if m.channelErr != nil {
		return m.channelErr
	}
	m.channel = append(m.channel, sentChannel{channelId, msg})
	return nil
}

type stubMailer struct {
	err  error
	sent []string
}

func (m *stubMailer) Send(ctx context.Context, to, subject, body string) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, to)
	return nil
}

type stubDirectory struct {
	teams    map[int64]*userdata.Team
	users    map[int64]*userdata.User
	channels map[int64]int64
}

func (d *stubDirectory) GetTeam(ctx context.Context, id int64) (*userdata.Team, error) {
	return d.teams[id], nil
}

func (d *stubDirectory) GetUser(ctx context.Context, id int64) (*userdata.User, error) {
	return d.users[id], nil
}

func (d *stubDirectory) ApprovalChannel(ctx context.Context, guildId int64) (int64, error) {
	return d.channels[guildId], nil
}

func testInvitation() *userdata.Invitation {
	return &userdata.Invitation{
		Id:        42,
		TeamId:    1,
		UserId:    200,
		InviterId: 100,
		Status:    userdata.InvitationPending,
		ExpiresAt: time.Date(2024, 5, 8, 12, 0, 0, 0, time.UTC),
	}
}

func testDirectory() *stubDirectory {
	return &stubDirectory{
		teams: map[int64]*userdata.Team{
			1: {Id: 1, GuildId: 9, Name: "Blue Falcons"},
		},
		users: map[int64]*userdata.User{
			100: {Id: 100, Username: "cap", Email: "cap@example.com"},
			200: {Id: 200, Username: "rook", Email: "rook@example.com"},
		},
		channels: map[int64]int64{9: 555},
	}
}

func TestInitialInviteFailurePropagates(t *testing.T) {
	messenger := &stubMessenger{directErr: errors.New("dms disabled")}
	mailer := &stubMailer{}
	dir := testDirectory()
	g := NewGateway(messenger, mailer, dir, dir, dir)

	err := g.NotifyInvitee(context.Background(), testInvitation(), invites.NotifyInvite)
	require.Error(t, err)
	assert.Empty(t, mailer.sent, "initial contact cannot degrade to email")
}

func TestInformationalSendDegradesToEmail(t *testing.T) {
	messenger := &stubMessenger{directErr: errors.New("dms disabled")}
	mailer := &stubMailer{}
	dir := testDirectory()
	g := NewGateway(messenger, mailer, dir, dir, dir)

	inv := testInvitation()
	inv.Status = userdata.InvitationApproved

	err := g.NotifyInvitee(context.Background(), inv, invites.NotifyApproved)
	require.NoError(t, err, "informational sends never fail the workflow")
	assert.Equal(t, []string{"rook@example.com"}, mailer.sent)
}

func TestInformationalSendSwallowsTotalFailure(t *testing.T) {
	messenger := &stubMessenger{directErr: errors.New("dms disabled")}
	mailer := &stubMailer{err: errors.New("smtp down")}
	dir := testDirectory()
	g := NewGateway(messenger, mailer, dir, dir, dir)

	err := g.NotifyInviter(context.Background(), testInvitation(), invites.NotifyDeclined)
	assert.NoError(t, err)
}

func TestInviteMessageContents(t *testing.T) {
	messenger := &stubMessenger{}
	dir := testDirectory()
	g := NewGateway(messenger, nil, dir, dir, dir)

	inv := testInvitation()
	require.NoError(t, g.NotifyInvitee(context.Background(), inv, invites.NotifyInvite))

	require.Len(t, messenger.direct, 1)
	sent := messenger.direct[0]
	assert.Equal(t, inv.UserId, sent.userId)
	assert.Equal(t, "Team Invitation from Blue Falcons", sent.msg.Title)
	assert.Contains(t, sent.msg.Body, "Blue Falcons")
	assert.Contains(t, sent.msg.Body, "<@100>")
	require.NotNil(t, sent.msg.ExpiresAt)
	assert.Equal(t, inv.ExpiresAt, *sent.msg.ExpiresAt)
}

func TestRejectionIncludesReason(t *testing.T) {
	messenger := &stubMessenger{}
	dir := testDirectory()
	g := NewGateway(messenger, nil, dir, dir, dir)

	inv := testInvitation()
	inv.Status = userdata.InvitationRejected
	inv.Reason = "roster full"

	require.NoError(t, g.NotifyInvitee(context.Background(), inv, invites.NotifyRejected))
	require.NoError(t, g.NotifyInviter(context.Background(), inv, invites.NotifyRejected))

	require.Len(t, messenger.direct, 2)
	assert.Contains(t, messenger.direct[0].msg.Body, "roster full")
	assert.Contains(t, messenger.direct[1].msg.Body, "roster full")
}

func TestRequestAdminApprovalPostsProjection(t *testing.T) {
	messenger := &stubMessenger{}
	dir := testDirectory()
	g := NewGateway(messenger, nil, dir, dir, dir)

	posted, err := g.RequestAdminApproval(context.Background(), testInvitation())
	require.NoError(t, err)
	assert.True(t, posted)

	require.Len(t, messenger.channel, 1)
	sent := messenger.channel[0]
	assert.Equal(t, int64(555), sent.channelId)
	assert.Equal(t, int64(42), sent.msg.InvitationId)
	assert.Contains(t, sent.msg.Body, "Blue Falcons")
	assert.Contains(t, sent.msg.Body, "<@100>")
	assert.Contains(t, sent.msg.Body, "<@200>")
}

func TestRequestAdminApprovalWithoutChannel(t *testing.T) {
	messenger := &stubMessenger{}
	dir := testDirectory()
	dir.channels = map[int64]int64{}
	g := NewGateway(messenger, nil, dir, dir, dir)

	posted, err := g.RequestAdminApproval(context.Background(), testInvitation())
	require.NoError(t, err)
	assert.False(t, posted)
	assert.Empty(t, messenger.channel)
}

func TestUnknownPartiesFallBackToIds(t *testing.T) {
	messenger := &stubMessenger{}
	dir := testDirectory()
	dir.users = map[int64]*userdata.User{}
	g := NewGateway(messenger, nil, dir, dir, dir)

	require.NoError(t, g.NotifyInviter(context.Background(), testInvitation(), invites.NotifyDeclined))

	require.Len(t, messenger.direct, 1)
	assert.Contains(t, messenger.direct[0].msg.Body, "User (ID: 200)")
}
