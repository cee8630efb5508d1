// Package flash carries a one-shot status message across a redirect.
// The message itself is a plain value returned by handlers; the signed cookie
// is only the transport for it.
package flash

import (
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/securecookie"
	log "github.com/sirupsen/logrus"
)

const (
	CookieName = "fitlog_flash"
	maxAge     = 5 * time.Minute
)

type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityDanger  Severity = "danger"
)

// Status is the user visible outcome of an operation.
type Status struct {
	Message  string   `json:"message"`
	Severity Severity `json:"severity"`
}

func Success(msg string) Status { return Status{Message: msg, Severity: SeveritySuccess} }
func Warning(msg string) Status { return Status{Message: msg, Severity: SeverityWarning} }
func Danger(msg string) Status { return Status{Message: msg, Severity: SeverityDanger} }

// Carrier stores a Status in a signed cookie and reads it back exactly once.
type Carrier struct {
	codec *securecookie.SecureCookie
}

func NewCarrier(secret []byte) (*Carrier, error) {
	if len(secret) < 16 {
		return nil, errors.New("flash secret must be at least 16 bytes")
	}
	codec := securecookie.New(secret, nil)
	codec.MaxAge(int(maxAge.Seconds()))
	codec.SetSerializer(securecookie.JSONEncoder{})
	return &Carrier{codec: codec}, nil
}

func (c *Carrier) Set(w http.ResponseWriter, status Status) {
	encoded, err := c.codec.Encode(CookieName, status)
	if err != nil {
		log.Errorf("flash: encode status: %s", err)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    encoded,
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// Pop returns the pending status, if any, and clears the cookie.
// Tampered or expired cookies are dropped silently.
func (c *Carrier) Pop(w http.ResponseWriter, r *http.Request) *Status {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return nil
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	var status Status
	if err := c.codec.Decode(CookieName, cookie.Value, &status); err != nil {
		log.Debugf("flash: dropping undecodable cookie: %s", err)
		return nil
	}
	return &status
}
