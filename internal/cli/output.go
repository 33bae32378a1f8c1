package cli

import (
	"encoding/json"
	"io"
	"time"

	"github.com/aussiebroadwan/arcade/pkg/gamesdk"
)

// sessionOutput is what auth and refresh print. Its token fields can be fed
// back through ARCADE_TOKEN and ARCADE_REFRESH_TOKEN.
type sessionOutput struct {
	Token             string            `json:"token"`
	RefreshToken      string            `json:"refresh_token,omitempty"`
	Created           bool              `json:"created"`
	UserID            string            `json:"user_id"`
	Username          string            `json:"username"`
	Vars              map[string]string `json:"vars,omitempty"`
	ExpireTime        time.Time         `json:"expire_time"`
	RefreshExpireTime time.Time         `json:"refresh_expire_time,omitzero"`
}

func newSessionOutput(s *gamesdk.Session) sessionOutput {
	return sessionOutput{
		Token:             s.AuthToken(),
		RefreshToken:      s.RefreshToken(),
		Created:           s.Created(),
		UserID:            s.UserID(),
		Username:          s.Username(),
		Vars:              s.Vars(),
		ExpireTime:        s.ExpireTime(),
		RefreshExpireTime: s.RefreshExpireTime(),
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
