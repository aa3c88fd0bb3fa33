package dexcom

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tnunamak/glucobar/internal/credentials"
	"github.com/tnunamak/glucobar/internal/glucose"
)

const (
	testAccountID = "11111111-2222-3333-4444-555555555555"
	testSessionID = "aaaaaaaa-bbbb-cccc-dddd-eeeeeeeeeeee"
)

type fakeShare struct {
	t        *testing.T
	password string
	readings string
	readCode string
}

func (f *fakeShare) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		f.t.Errorf("method = %s, want POST", r.Method)
	}

	var body map[string]string
	_ = json.NewDecoder(r.Body).Decode(&body)

	switch r.URL.Path {
	case "/" + authenticatePath:
		if body["password"] != f.password {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"Code":"AccountPasswordInvalid","Message":"bad password"}`))
			return
		}
		_, _ = w.Write([]byte(`"` + testAccountID + `"`))
	case "/" + loginPath:
		if body["accountId"] != testAccountID {
			f.t.Errorf("accountId = %q, want %q", body["accountId"], testAccountID)
		}
		_, _ = w.Write([]byte(`"` + testSessionID + `"`))
	case "/" + latestPath:
		q := r.URL.Query()
		if q.Get("sessionId") != testSessionID {
			f.t.Errorf("sessionId = %q", q.Get("sessionId"))
		}
		if q.Get("minutes") != "10" || q.Get("maxCount") != "1" {
			f.t.Errorf("query = %v", q)
		}
		if f.readCode != "" {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"Code":"` + f.readCode + `"}`))
			return
		}
		_, _ = w.Write([]byte(f.readings))
	default:
		http.NotFound(w, r)
	}
}

func newTestClient(t *testing.T, share *fakeShare) *Client {
	t.Helper()
	share.t = t
	server := httptest.NewServer(share)
	t.Cleanup(server.Close)

	c, err := New("us", time.Second)
	require.NoError(t, err)
	return c.WithBaseURL(server.URL)
}

func TestNew_UnknownRegion(t *testing.T) {
	_, err := New("eu", 0)
	assert.Error(t, err)
}

func TestLoginAndCurrentReading(t *testing.T) {
	c := newTestClient(t, &fakeShare{
		password: "pw",
		readings: `[{"WT":"Date(1691455258000-0400)","ST":"Date(1691455258000)","DT":"Date(1691455258000-0400)","Value":120,"Trend":"Flat"}]`,
	})

	sess, err := c.Login(context.Background(), credentials.Credentials{Username: "alice", Password: "pw"})
	require.NoError(t, err)

	reading, err := sess.CurrentReading(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 120, reading.Value)
	assert.Equal(t, glucose.TrendFlat, reading.Trend)
	assert.Equal(t, int64(1691455258000), reading.Time.UnixMilli())
	_, offset := reading.Time.Zone()
	assert.Equal(t, -4*3600, offset)
}

func TestLogin_BadPassword(t *testing.T) {
	c := newTestClient(t, &fakeShare{password: "right"})

	_, err := c.Login(context.Background(), credentials.Credentials{Username: "alice", Password: "wrong"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAccount)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "AccountPasswordInvalid", apiErr.Code)
}

func TestLogin_IncompleteCredentials(t *testing.T) {
	c := newTestClient(t, &fakeShare{})

	_, err := c.Login(context.Background(), credentials.Credentials{Username: "alice"})
	assert.ErrorIs(t, err, ErrAccount)
}

func TestLogin_NilAccountID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`"00000000-0000-0000-0000-000000000000"`))
	}))
	t.Cleanup(server.Close)

	c, err := New("ous", time.Second)
	require.NoError(t, err)

	_, err = c.WithBaseURL(server.URL).Login(context.Background(), credentials.Credentials{Username: "a", Password: "b"})
	assert.ErrorIs(t, err, ErrAccount)
}

func TestCurrentReading_Failures(t *testing.T) {
	tests := []struct {
		name    string
		share   fakeShare
		wantErr error
	}{
		{"empty window", fakeShare{password: "pw", readings: `[]`}, ErrNoReading},
		{"expired session", fakeShare{password: "pw", readCode: "SessionNotValid"}, ErrSession},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			share := tt.share
			c := newTestClient(t, &share)

			sess, err := c.Login(context.Background(), credentials.Credentials{Username: "alice", Password: "pw"})
			require.NoError(t, err)

			_, err = sess.CurrentReading(context.Background())
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestCurrentReading_ServerDown(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(server.Close)

	c, err := New("us", time.Second)
	require.NoError(t, err)
	c.WithBaseURL(server.URL)

	sess := &Session{client: c}
	_, err = sess.CurrentReading(context.Background())
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrAccount))
	assert.False(t, errors.Is(err, ErrSession))
}

func TestParseShareDate(t *testing.T) {
	ts, err := parseShareDate("Date(1691455258000)")
	require.NoError(t, err)
	assert.Equal(t, int64(1691455258000), ts.UnixMilli())

	_, err = parseShareDate("yesterday")
	assert.Error(t, err)
}
