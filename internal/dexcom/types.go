package dexcom

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/tnunamak/glucobar/internal/glucose"
)

var (
	// ErrAccount means the service rejected the username or password.
	ErrAccount = errors.New("dexcom: account rejected")
	// ErrSession means the session id is unknown or expired.
	ErrSession = errors.New("dexcom: session invalid")
	// ErrNoReading means no value was reported in the lookup window.
	ErrNoReading = errors.New("dexcom: no recent reading")
)

// Reading is one glucose value.
type Reading struct {
	Value int           `json:"value" yaml:"value"`
	Trend glucose.Trend `json:"trend" yaml:"trend"`
	Time  time.Time     `json:"time" yaml:"time"`
}

// APIError is the error body the Share service returns with non-2xx
// responses.
type APIError struct {
	StatusCode int    `json:"-"`
	Code       string `json:"Code"`
	Message    string `json:"Message"`
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("dexcom: %s (HTTP %d): %s", e.Code, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("dexcom: %s (HTTP %d)", e.Code, e.StatusCode)
}

// Unwrap maps service error codes onto ErrAccount and ErrSession.
func (e *APIError) Unwrap() error {
	switch e.Code {
	case "AccountPasswordInvalid",
		"SSO_AuthenticatePasswordInvalid",
		"SSO_AuthenticateAccountNotFound",
		"SSO_AuthenticateMaxAttemptsExceeed",
		"SSO_AuthenticateMaxAttemptsExceeded":
		return ErrAccount
	case "SessionIdNotFound", "SessionNotValid":
		return ErrSession
	}
	return nil
}

// shareReading is the wire shape of one entry in the latest-values response.
type shareReading struct {
	WT    string        `json:"WT"`
	ST    string        `json:"ST"`
	DT    string        `json:"DT"`
	Value int           `json:"Value"`
	Trend glucose.Trend `json:"Trend"`
}

// Timestamps look like "Date(1691455258000-0400)"; the offset is optional.
var shareDate = regexp.MustCompile(`^Date\((\d+)([+-]\d{4})?\)$`)

func parseShareDate(s string) (time.Time, error) {
	m := shareDate.FindStringSubmatch(s)
	if m == nil {
		return time.Time{}, fmt.Errorf("dexcom: unexpected timestamp %q", s)
	}

	ms, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("dexcom: timestamp %q: %w", s, err)
	}

	t := time.UnixMilli(ms)
	if m[2] != "" {
		offset, _ := time.Parse("-0700", m[2])
		_, secs := offset.Zone()
		t = t.In(time.FixedZone("", secs))
	}
	return t, nil
}

func (r shareReading) reading() (Reading, error) {
	ts, err := parseShareDate(r.WT)
	if err != nil {
		return Reading{}, err
	}
	return Reading{Value: r.Value, Trend: r.Trend, Time: ts}, nil
}
