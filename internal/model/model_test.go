package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMagicLinkExpired(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	l := &MagicLink{Token: "t", Email: "a@b.com", CreatedAt: now, ExpiresAt: now.Add(15 * time.Minute)}

	assert.False(t, l.Expired(now))
	assert.False(t, l.Expired(now.Add(15*time.Minute)))
	assert.True(t, l.Expired(now.Add(15*time.Minute+time.Nanosecond)))
}

func TestStartupUpdateApply(t *testing.T) {
	industry := "Fintech"
	s := &Startup{Name: "Old", Description: "desc", Industry: &industry}

	name := "New"
	stage := "MVP"
	u := &StartupUpdate{Name: &name, Stage: &stage}
	u.Apply(s)

	assert.Equal(t, "New", s.Name)
	assert.Equal(t, "desc", s.Description)
	assert.Equal(t, "Fintech", *s.Industry)
	assert.Equal(t, "MVP", *s.Stage)
	assert.Nil(t, s.Website)
}
