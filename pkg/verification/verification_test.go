package verification

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acgn-assistant/acgn-assistant/pkg/db/dbtest"
	"github.com/acgn-assistant/acgn-assistant/pkg/model"
	gormstore "github.com/acgn-assistant/acgn-assistant/pkg/server/store/gorm"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func newService(t *testing.T) (*Service, *clock) {
	c := &clock{t: time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)}
	codes := gormstore.NewVerificationCodesStore(dbtest.New(t))
	return New(codes).WithClock(c.now), c
}

func TestHashCode(t *testing.T) {
	assert.Equal(t, "71f79ddc5dba7d98fd09ade46f1d21c8c1ea9965b2acc9b4ccaf41fba8dd808e", HashCode("abc", "123456"))
	assert.NotEqual(t, HashCode("abc", "123456"), HashCode("abd", "123456"))
}

func TestIssueAndCheck(t *testing.T) {
	svc, _ := newService(t)

	code, err := svc.Issue(model.PurposeRegister, "a@qq.com", 10*time.Minute, time.Minute)
	require.NoError(t, err)
	assert.Regexp(t, `^\d{6}$`, code)

	_, err = svc.Check(model.PurposeRegister, "a@qq.com", "not-it")
	assert.ErrorIs(t, err, ErrCodeMismatch)

	_, err = svc.Check(model.PurposePasswordReset, "a@qq.com", code)
	assert.ErrorIs(t, err, ErrNoCode)

	record, err := svc.Check(model.PurposeRegister, "a@qq.com", " "+code+" ")
	require.NoError(t, err)
	require.NoError(t, svc.Consume(record))

	_, err = svc.Check(model.PurposeRegister, "a@qq.com", code)
	assert.ErrorIs(t, err, ErrNoCode)
}

func TestIssue_Cooldown(t *testing.T) {
	svc, c := newService(t)

	_, err := svc.Issue(model.PurposeRegister, "b@qq.com", 10*time.Minute, 60*time.Second)
	require.NoError(t, err)

	c.t = c.t.Add(20*time.Second + 500*time.Millisecond)
	_, err = svc.Issue(model.PurposeRegister, "b@qq.com", 10*time.Minute, 60*time.Second)
	var cooldown *CooldownError
	require.ErrorAs(t, err, &cooldown)
	assert.Equal(t, 40, cooldown.RetryAfterSeconds())

	c.t = c.t.Add(40 * time.Second)
	_, err = svc.Issue(model.PurposeRegister, "b@qq.com", 10*time.Minute, 60*time.Second)
	assert.NoError(t, err)
}

func TestIssue_ExpiredCodeSkipsCooldown(t *testing.T) {
	svc, c := newService(t)

	_, err := svc.Issue(model.PurposePasswordReset, "c@qq.com", time.Second, time.Hour)
	require.NoError(t, err)

	c.t = c.t.Add(time.Second)
	_, err = svc.Issue(model.PurposePasswordReset, "c@qq.com", 10*time.Minute, time.Hour)
	assert.NoError(t, err)
}

func TestCheck_Expired(t *testing.T) {
	svc, c := newService(t)

	code, err := svc.Issue(model.PurposeRegister, "d@qq.com", time.Minute, 0)
	require.NoError(t, err)

	c.t = c.t.Add(time.Minute)
	_, err = svc.Check(model.PurposeRegister, "d@qq.com", code)
	assert.ErrorIs(t, err, ErrCodeExpired)
}

func TestCooldownError_Rounding(t *testing.T) {
	assert.Equal(t, 1, (&CooldownError{Remaining: time.Millisecond}).RetryAfterSeconds())
	assert.Equal(t, 0, (&CooldownError{Remaining: -time.Second}).RetryAfterSeconds())
	assert.Contains(t, (&CooldownError{Remaining: 3 * time.Second}).Error(), "3s")
}
