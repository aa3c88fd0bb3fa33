package monitor

import (
	"context"
	"errors"
	"image"
	"sync"

	"github.com/tnunamak/glucobar/internal/credentials"
	"github.com/tnunamak/glucobar/internal/dexcom"
)

type fakeStore struct {
	mu      sync.Mutex
	creds   credentials.Credentials
	deletes int
}

func (s *fakeStore) Load() (credentials.Credentials, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.creds.Complete() {
		return credentials.Credentials{}, credentials.ErrNotFound
	}
	return s.creds, nil
}

func (s *fakeStore) Save(c credentials.Credentials) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds = c
	return nil
}

func (s *fakeStore) Delete() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds = credentials.Credentials{}
	s.deletes++
	return nil
}

// fakePrompter runs onPrompt for every credential request; a nil onPrompt
// behaves like the user cancelling.
type fakePrompter struct {
	mu       sync.Mutex
	prompts  int
	errors   []string
	onPrompt func(n int) error
}

func (p *fakePrompter) RequestCredentials(context.Context) error {
	p.mu.Lock()
	p.prompts++
	n := p.prompts
	fn := p.onPrompt
	p.mu.Unlock()

	if fn == nil {
		return nil
	}
	return fn(n)
}

func (p *fakePrompter) ShowError(_ context.Context, title, message string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.errors = append(p.errors, title+": "+message)
}

func (p *fakePrompter) promptCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.prompts
}

// fakeClient accepts only the configured password.
type fakeClient struct {
	mu       sync.Mutex
	password string
	err      error
	logins   []credentials.Credentials
	session  Session
}

func (c *fakeClient) Login(_ context.Context, creds credentials.Credentials) (Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.logins = append(c.logins, creds)
	if c.err != nil {
		return nil, c.err
	}
	if creds.Password != c.password {
		return nil, &dexcom.APIError{StatusCode: 500, Code: "AccountPasswordInvalid"}
	}
	if c.session != nil {
		return c.session, nil
	}
	return &fakeSession{value: 100}, nil
}

type fakeSession struct {
	mu    sync.Mutex
	value int
	err   error
	calls int
}

func (s *fakeSession) CurrentReading(context.Context) (dexcom.Reading, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return dexcom.Reading{}, s.err
	}
	return dexcom.Reading{Value: s.value}, nil
}

func (s *fakeSession) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// fakeSource returns next() on every Authenticate call and signals called.
type fakeSource struct {
	mu     sync.Mutex
	calls  int
	next   func(n int) (Session, error)
	called chan struct{}
}

func newFakeSource(next func(n int) (Session, error)) *fakeSource {
	return &fakeSource{next: next, called: make(chan struct{}, 100)}
}

func (f *fakeSource) Authenticate(context.Context) (Session, error) {
	f.mu.Lock()
	f.calls++
	n := f.calls
	f.mu.Unlock()

	select {
	case f.called <- struct{}{}:
	default:
	}
	return f.next(n)
}

func (f *fakeSource) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeDisplay struct {
	mu       sync.Mutex
	icons    int
	tooltips []string
	updated  chan string
}

func newFakeDisplay() *fakeDisplay {
	return &fakeDisplay{updated: make(chan string, 100)}
}

func (d *fakeDisplay) SetIcon(image.Image) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.icons++
}

func (d *fakeDisplay) SetTooltip(text string) {
	d.mu.Lock()
	d.tooltips = append(d.tooltips, text)
	d.mu.Unlock()

	select {
	case d.updated <- text:
	default:
	}
}

func (d *fakeDisplay) lastTooltip() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.tooltips) == 0 {
		return ""
	}
	return d.tooltips[len(d.tooltips)-1]
}

func (d *fakeDisplay) iconCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.icons
}

type fakeRenderer struct {
	mu     sync.Mutex
	values []int
}

func (r *fakeRenderer) Render(value *int) *image.RGBA {
	r.mu.Lock()
	defer r.mu.Unlock()
	if value != nil {
		r.values = append(r.values, *value)
	}
	return image.NewRGBA(image.Rect(0, 0, 1, 1))
}

var errNetwork = errors.New("connection reset")
