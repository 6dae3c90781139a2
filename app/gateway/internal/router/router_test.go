package router

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/concordchat-legacy/concord-gateway/app/gateway/internal/intents"
	"github.com/concordchat-legacy/concord-gateway/app/gateway/internal/model"
	"github.com/concordchat-legacy/concord-gateway/app/gateway/internal/session"
	"github.com/concordchat-legacy/concord-gateway/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sentEvent struct {
	name string
	data interface{}
}

type recordOutbound struct {
	mu     sync.Mutex
	events []sentEvent
	fail   bool
}

func (o *recordOutbound) SendEvent(t string, d interface{}) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.fail {
		return errors.New("queue full")
	}
	o.events = append(o.events, sentEvent{name: t, data: d})
	return nil
}

func (o *recordOutbound) SendRaw(interface{}) error { return nil }
func (o *recordOutbound) Close() error              { return nil }

func (o *recordOutbound) names() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	var out []string
	for _, e := range o.events {
		out = append(out, e.name)
	}
	return out
}

func newRouter() (*Router, *session.Registry) {
	reg := session.NewRegistry()
	return NewRouter(logger.NewNoop(), nil, reg, nil), reg
}

func addSession(reg *session.Registry, userID int64, mask uint64, guilds ...int64) (*session.Session, *recordOutbound) {
	out := &recordOutbound{}
	sess := session.New(&model.User{ID: userID}, intents.Decode(mask), out)
	for _, g := range guilds {
		sess.JoinGuild(g)
	}
	reg.Add(sess)
	return sess, out
}

func dispatch(t *testing.T, r *Router, envelope string) {
	t.Helper()
	require.True(t, json.Valid([]byte(envelope)), "bad test envelope")
	r.handleEvent([]byte(envelope))
}

const allIntents = 0x3f

func TestRouteUserEvent(t *testing.T) {
	r, reg := newRouter()
	_, out1 := addSession(reg, 42, allIntents)
	_, out2 := addSession(reg, 42, allIntents)
	_, out3 := addSession(reg, 7, allIntents)

	dispatch(t, r, `{"type":1,"name":"UPDATE","data":{"user_id":42,"username":"maya"}}`)

	assert.Equal(t, []string{"USER_UPDATE"}, out1.names())
	assert.Equal(t, []string{"USER_UPDATE"}, out2.names())
	assert.Empty(t, out3.names())
}

func TestRouteGuildCreate(t *testing.T) {
	r, reg := newRouter()
	sess, out := addSession(reg, 42, allIntents)
	_, other := addSession(reg, 7, allIntents)

	dispatch(t, r, `{"type":2,"user_id":42,"guild_id":9,"data":{"id":9,"name":"concord"}}`)

	assert.Equal(t, []string{"GUILD_CREATE"}, out.names())
	assert.True(t, sess.InGuild(9), "membership registered on create")
	assert.Empty(t, other.names())
}

func TestRouteGuildJoinAndDelete(t *testing.T) {
	r, reg := newRouter()
	sess, out := addSession(reg, 42, allIntents, 9)
	_, outside := addSession(reg, 7, allIntents)

	dispatch(t, r, `{"type":2,"name":"JOIN","guild_id":9,"data":{"id":1}}`)
	assert.Equal(t, []string{"GUILD_JOIN"}, out.names())
	assert.True(t, sess.InGuild(9), "repeated join keeps membership")

	dispatch(t, r, `{"type":2,"name":"DELETE","guild_id":9,"data":{"id":9}}`)
	assert.Equal(t, []string{"GUILD_JOIN", "GUILD_DELETE"}, out.names())
	assert.False(t, sess.InGuild(9))

	// 已移出后再次 DELETE：无投递，无副作用
	dispatch(t, r, `{"type":2,"name":"DELETE","guild_id":9,"data":{"id":9}}`)
	assert.Equal(t, []string{"GUILD_JOIN", "GUILD_DELETE"}, out.names())

	assert.Empty(t, outside.names())
}

func TestRouteGuildMessageIntentGating(t *testing.T) {
	r, reg := newRouter()
	_, withIntent := addSession(reg, 1, intents.BitGuildMessages, 9)
	_, withoutIntent := addSession(reg, 2, intents.BitGuildChannels, 9)

	dispatch(t, r, `{"type":3,"name":"CREATE","guild_id":9,"is_message":true,"data":{"id":5}}`)

	assert.Equal(t, []string{"MESSAGE_CREATE"}, withIntent.names())
	assert.Empty(t, withoutIntent.names())
}

func TestRouteGuildChannelIntentGating(t *testing.T) {
	r, reg := newRouter()
	_, withIntent := addSession(reg, 1, intents.BitGuildChannels, 9)
	_, withoutIntent := addSession(reg, 2, intents.BitGuildMessages, 9)

	dispatch(t, r, `{"type":3,"name":"UPDATE","guild_id":9,"is_message":false,"data":{"id":5}}`)

	assert.Equal(t, []string{"CHANNEL_UPDATE"}, withIntent.names())
	assert.Empty(t, withoutIntent.names())
}

func TestRouteDirectMessage(t *testing.T) {
	r, reg := newRouter()
	_, recipient := addSession(reg, 1, intents.BitDirectMessages)
	_, deaf := addSession(reg, 2, intents.BitGuildMessages)
	_, stranger := addSession(reg, 3, allIntents)

	dispatch(t, r, `{"type":3,"name":"CREATE","is_message":true,"channel":{"recipients":[{"id":1},{"id":2}]},"data":{"id":5}}`)

	assert.Equal(t, []string{"MESSAGE_CREATE"}, recipient.names())
	assert.Empty(t, deaf.names(), "recipient without direct_messages intent")
	assert.Empty(t, stranger.names())
}

func TestRouteFriendRequest(t *testing.T) {
	r, reg := newRouter()
	_, receiver := addSession(reg, 1, allIntents)
	_, requester := addSession(reg, 2, allIntents)

	dispatch(t, r, `{"type":5,"receiver_id":1,"requester_id":2,"data":{"id":77}}`)

	require.Len(t, receiver.events, 1)
	assert.Equal(t, "FRIEND_REQUEST", receiver.events[0].name)
	assert.NotNil(t, receiver.events[0].data)

	require.Len(t, requester.events, 1)
	assert.Equal(t, "FRIEND_ACK", requester.events[0].name)
	assert.Nil(t, requester.events[0].data, "ack carries no payload")
}

func TestRouteMemberIntentGating(t *testing.T) {
	r, reg := newRouter()
	_, withIntent := addSession(reg, 1, intents.BitGuildMembers, 9)
	_, withoutIntent := addSession(reg, 2, intents.BitGuilds, 9)

	dispatch(t, r, `{"type":6,"name":"JOIN","guild_id":9,"data":{"id":3}}`)

	assert.Equal(t, []string{"MEMBER_JOIN"}, withIntent.names())
	assert.Empty(t, withoutIntent.names())
}

func TestRoutePresence(t *testing.T) {
	r, reg := newRouter()
	_, actorOut := addSession(reg, 1, allIntents, 9)
	_, sharing := addSession(reg, 2, intents.BitPresences, 9)
	_, noIntent := addSession(reg, 3, intents.BitGuilds, 9)
	_, elsewhere := addSession(reg, 4, allIntents, 10)
	_, sameUser := addSession(reg, 1, allIntents, 9)

	dispatch(t, r, `{"type":7,"user_id":1,"data":{"status":"online"}}`)

	assert.Equal(t, []string{"PRESENCE_UPDATE"}, sharing.names())
	assert.Empty(t, noIntent.names())
	assert.Empty(t, elsewhere.names(), "no shared guild")

	// 执行会话本身被排除，该用户的其余会话照常投递
	ownDeliveries := append(actorOut.names(), sameUser.names()...)
	assert.Len(t, ownDeliveries, 1, "exactly one of the user's two sessions receives the update")
}

func TestDropSilently(t *testing.T) {
	r, reg := newRouter()
	_, out := addSession(reg, 1, allIntents, 9)

	r.handleEvent([]byte(`not json`))
	r.handleEvent([]byte(`[1,2,3]`))
	dispatch(t, r, `{"type":4,"name":"NOOP","data":{}}`)
	dispatch(t, r, `{"type":99,"name":"NOOP","data":{}}`)

	assert.Empty(t, out.names())
}

func TestSlowSessionDoesNotStall(t *testing.T) {
	r, reg := newRouter()
	_, stuck := addSession(reg, 1, allIntents, 9)
	stuck.fail = true
	_, healthy := addSession(reg, 2, allIntents, 9)

	dispatch(t, r, `{"type":6,"name":"JOIN","guild_id":9,"data":{"id":3}}`)

	assert.Empty(t, stuck.names())
	assert.Equal(t, []string{"MEMBER_JOIN"}, healthy.names())
}
