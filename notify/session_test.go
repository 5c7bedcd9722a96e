package notify_test

import (
	"bytes"
	"log/slog"
	"math"
	"sync"
	"testing"

	"github.com/delaneyj/reactnotify/notify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSequencer(t *testing.T) {
	t.Run("starts at one", func(t *testing.T) {
		seq := notify.NewSequencer()
		assert.Equal(t, notify.SessionID(1), seq.Next())
		assert.Equal(t, notify.SessionID(2), seq.Next())
	})

	t.Run("wraps past zero", func(t *testing.T) {
		seq := notify.NewSequencerFrom(math.MaxUint64 - 1)
		assert.Equal(t, notify.SessionID(math.MaxUint64), seq.Next())
		assert.Equal(t, notify.SessionID(1), seq.Next())
	})

	t.Run("unique under contention", func(t *testing.T) {
		seq := notify.NewSequencer()
		var (
			wg   sync.WaitGroup
			mu   sync.Mutex
			seen = map[notify.SessionID]struct{}{}
		)
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < 100; j++ {
					id := seq.Next()
					mu.Lock()
					seen[id] = struct{}{}
					mu.Unlock()
				}
			}()
		}
		wg.Wait()
		assert.Len(t, seen, 800)
	})
}

type countingObserver struct {
	started int
	ended   []notify.SessionStats
}

func (o *countingObserver) SessionStarted(notify.SessionID) { o.started++ }

func (o *countingObserver) SessionEnded(_ notify.SessionID, stats notify.SessionStats) {
	o.ended = append(o.ended, stats)
}

func TestSystemReportsSessions(t *testing.T) {
	obs := &countingObserver{}
	sys := notify.NewSystem(notify.WithObserver(obs), notify.WithSequencer(notify.NewSequencerFrom(100)))
	n := notify.NewNotifier(sys)
	n.PropertyOf("B").DependsOnProperty("A")

	var session notify.SessionID
	n.OnPropertyReaction(func(_ any, s notify.SessionID, _ string) { session = s })
	n.SetValue("A", 1)

	assert.Equal(t, notify.SessionID(101), session)
	assert.Equal(t, 1, obs.started)
	require.Len(t, obs.ended, 1)
	assert.Equal(t, notify.SessionStats{PropertyNotifications: 2, Targets: 1}, obs.ended[0])

	c := notify.NewCollection[int](sys)
	require.NoError(t, c.Add(1))
	require.Len(t, obs.ended, 2)
	assert.Equal(t, 1, obs.ended[1].CollectionNotifications)
	assert.Equal(t, 4, obs.ended[1].PropertyNotifications)
}

func TestEndSessionTwiceIsNoop(t *testing.T) {
	sys := notify.NewSystem()
	n := notify.NewNotifier(sys)
	r := record(n)

	session := sys.StartSession()
	n.ReactToProperty(session, "A")
	n.ReactToProperty(session, "A")
	assert.Equal(t, 1, sys.PendingSessions())

	sys.EndSession(session)
	sys.EndSession(session)
	assert.Equal(t, []string{"A"}, r.names())
	assert.Zero(t, sys.PendingSessions())
}

func TestSessionFlushIsLogged(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	sys := notify.NewSystem(notify.WithLogger(logger))

	notify.NewNotifier(sys).SetValue("A", 1)
	assert.Contains(t, buf.String(), "notify: session flushed")
	assert.Contains(t, buf.String(), "properties=1")
}

func TestConcurrentOwnersStayIsolated(t *testing.T) {
	sys := notify.NewSystem()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			n := notify.NewNotifier(sys)
			n.PropertyOf("Double").DependsOnProperty("Value")
			r := record(n)
			for j := 0; j < 50; j++ {
				n.SetValue("Value", i*1000+j)
			}
			assert.Equal(t, 50, r.count("Double"))
		}(i)
	}
	wg.Wait()
	assert.Zero(t, sys.PendingSessions())
}
