package handlers

import (
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

const verifiedKeyPrefix = "password_verified_"

// sessionVerifications keeps passed password challenges in the signed
// cookie session, one key per short code holding the expiry as unix seconds.
type sessionVerifications struct {
	session sessions.Session
	now     func() time.Time
}

func verifications(c *gin.Context) *sessionVerifications {
	return &sessionVerifications{session: sessions.Default(c), now: time.Now}
}

func (s *sessionVerifications) Verified(code string) bool {
	expiry, ok := s.session.Get(verifiedKeyPrefix + code).(int64)
	if !ok {
		return false
	}
	return s.now().Unix() < expiry
}

func (s *sessionVerifications) MarkVerified(code string, ttl time.Duration) error {
	s.session.Set(verifiedKeyPrefix+code, s.now().Add(ttl).Unix())
	return s.session.Save()
}
