package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserSanitized(t *testing.T) {
	u := &User{
		ID:               42,
		Username:         "maya",
		Password:         "hunter2",
		VerificationCode: "123456",
	}

	s := u.Sanitized()
	assert.Empty(t, s.Password)
	assert.Empty(t, s.VerificationCode)
	assert.Equal(t, "maya", s.Username)

	// 原对象不受影响
	assert.Equal(t, "hunter2", u.Password)
}

func TestUserSanitizedJSON(t *testing.T) {
	u := &User{ID: 42, Username: "maya", Password: "hunter2"}

	data, err := json.Marshal(u.Sanitized())
	require.NoError(t, err)
	assert.NotContains(t, string(data), "hunter2")
	assert.Contains(t, string(data), `"id":"42"`)
}

func TestPresencePayloadStripsStickyFlag(t *testing.T) {
	p := &Presence{
		UserID:      7,
		Status:      StatusOnline,
		StayOffline: true,
	}

	payload := p.Payload()
	_, ok := payload["stay_offline"]
	assert.False(t, ok, "sticky flag must not leave the gateway")
	assert.Equal(t, StatusOnline, payload["status"])
}

func TestPresenceClone(t *testing.T) {
	since := int64(1700000000)
	p := &Presence{UserID: 7, Since: &since, Activity: &Activity{Name: "idle"}}

	clone := p.Clone()
	*clone.Since = 0
	clone.Activity.Name = "busy"

	assert.Equal(t, int64(1700000000), *p.Since)
	assert.Equal(t, "idle", p.Activity.Name)
}
