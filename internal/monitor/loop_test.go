package monitor

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tnunamak/glucobar/internal/dexcom"
	"github.com/tnunamak/glucobar/internal/logging"
)

const waitTimeout = 2 * time.Second

func waitTooltip(t *testing.T, d *fakeDisplay) string {
	t.Helper()
	select {
	case tip := <-d.updated:
		return tip
	case <-time.After(waitTimeout):
		t.Fatal("timed out waiting for tooltip")
		return ""
	}
}

func runLoop(t *testing.T, l *Loop, session Session) (context.CancelFunc, <-chan struct{}) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		l.Run(ctx, session)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return cancel, done
}

func TestTooltip(t *testing.T) {
	at := time.Date(2024, 3, 9, 7, 5, 3, 0, time.Local)
	assert.Equal(t, "Glucose Level: 95 mg/dL\nRefreshed at 07:05:03", Tooltip(95, at))
}

func TestLoop_SuccessUpdatesIconAndTooltip(t *testing.T) {
	fetchedAt := time.Date(2024, 3, 9, 13, 4, 5, 0, time.Local)
	display := newFakeDisplay()
	renderer := &fakeRenderer{}
	source := newFakeSource(func(int) (Session, error) { return nil, nil })

	var seen []dexcom.Reading
	loop := &Loop{
		Display:   display,
		Renderer:  renderer,
		Auth:      source,
		Interval:  time.Hour,
		Logger:    logging.Discard(),
		Now:       func() time.Time { return fetchedAt },
		OnReading: func(r dexcom.Reading) { seen = append(seen, r) },
	}

	cancel, done := runLoop(t, loop, &fakeSession{value: 120})

	assert.Equal(t, "Glucose Level: 120 mg/dL\nRefreshed at 13:04:05", waitTooltip(t, display))
	assert.Equal(t, 1, display.iconCount())
	assert.Equal(t, []int{120}, renderer.values)
	assert.Zero(t, source.callCount())

	cancel()
	<-done
	require.Len(t, seen, 1)
	assert.Equal(t, 120, seen[0].Value)
}

func TestLoop_FailureShowsErrorAndReauthenticatesOnce(t *testing.T) {
	display := newFakeDisplay()
	failing := &fakeSession{err: errNetwork}
	source := newFakeSource(func(int) (Session, error) { return failing, nil })

	loop := &Loop{
		Display:  display,
		Renderer: &fakeRenderer{},
		Auth:     source,
		Interval: time.Hour,
		Logger:   logging.Discard(),
	}

	runLoop(t, loop, failing)

	assert.Equal(t, ErrorTooltip, waitTooltip(t, display))

	select {
	case <-source.called:
	case <-time.After(waitTimeout):
		t.Fatal("authenticator not called")
	}

	assert.Equal(t, 1, failing.callCount())
	assert.Equal(t, 1, source.callCount())
	assert.Zero(t, display.iconCount())
}

func TestLoop_ReplacesSessionAfterFailure(t *testing.T) {
	display := newFakeDisplay()
	good := &fakeSession{value: 95}
	source := newFakeSource(func(int) (Session, error) { return good, nil })

	loop := &Loop{
		Display:  display,
		Renderer: &fakeRenderer{},
		Auth:     source,
		Interval: 5 * time.Millisecond,
		Logger:   logging.Discard(),
	}

	runLoop(t, loop, &fakeSession{err: dexcom.ErrSession})

	assert.Equal(t, ErrorTooltip, waitTooltip(t, display))
	assert.Contains(t, waitTooltip(t, display), "Glucose Level: 95 mg/dL\nRefreshed at ")
	assert.Equal(t, 1, source.callCount())
}

func TestLoop_KeepsRunningWithoutSession(t *testing.T) {
	display := newFakeDisplay()
	source := newFakeSource(func(int) (Session, error) { return nil, nil })

	loop := &Loop{
		Display:  display,
		Renderer: &fakeRenderer{},
		Auth:     source,
		Interval: time.Millisecond,
		Logger:   logging.Discard(),
	}

	runLoop(t, loop, nil)

	for i := 0; i < 3; i++ {
		assert.Equal(t, ErrorTooltip, waitTooltip(t, display))
	}
	assert.Equal(t, StateRunning, loop.State())
	assert.GreaterOrEqual(t, source.callCount(), 2)
}

func TestLoop_CancelDuringSleepStopsPromptly(t *testing.T) {
	display := newFakeDisplay()
	loop := &Loop{
		Display:  display,
		Renderer: &fakeRenderer{},
		Auth:     newFakeSource(func(int) (Session, error) { return nil, nil }),
		Interval: time.Hour,
		Logger:   logging.Discard(),
	}

	cancel, done := runLoop(t, loop, &fakeSession{value: 110})
	waitTooltip(t, display)
	assert.Equal(t, StateRunning, loop.State())

	start := time.Now()
	cancel()

	select {
	case <-done:
	case <-time.After(waitTimeout):
		t.Fatal("loop did not stop after cancel")
	}

	assert.Less(t, time.Since(start), waitTimeout)
	assert.Equal(t, StateStopped, loop.State())
}

func TestLoop_DefaultInterval(t *testing.T) {
	assert.Equal(t, DefaultInterval, (&Loop{}).interval())
	assert.Equal(t, 300*time.Second, DefaultInterval)
}
