package daemon

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/charlie0129/calc/pkg/config"
	"github.com/charlie0129/calc/pkg/engine"
	"github.com/charlie0129/calc/pkg/events"
	"github.com/charlie0129/calc/pkg/version"
)

func newTestServer(t *testing.T) (*Server, http.Handler, string) {
	t.Helper()

	confPath := filepath.Join(t.TempDir(), "calc.json")
	conf := config.NewFileFromConfig(nil, confPath)
	conf.SetBlinkDelay(time.Millisecond)

	s := NewServer(conf)
	t.Cleanup(s.Close)
	return s, s.setupRoutes(), confPath
}

func request(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeState(t *testing.T, w *httptest.ResponseRecorder) engine.State {
	t.Helper()
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var st engine.State
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &st))
	return st
}

func TestWidgetIsServed(t *testing.T) {
	_, h, _ := newTestServer(t)

	w := request(h, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `class="calculator"`)

	for _, asset := range []string{"/static/app.js", "/static/style.css"} {
		w = request(h, http.MethodGet, asset, "")
		assert.Equal(t, http.StatusOK, w.Code, asset)
	}

	// every key the daemon resolves is also captured from the keyboard
	w = request(h, http.MethodGet, "/static/app.js", "")
	for _, key := range []string{`"c"`, `"C"`, `"_"`, `"±"`, `"F9"`, `"Delete"`} {
		assert.Contains(t, w.Body.String(), key)
	}
}

func TestGetState(t *testing.T) {
	_, h, _ := newTestServer(t)

	st := decodeState(t, request(h, http.MethodGet, "/state", ""))
	assert.Equal(t, "0", st.Display)
	assert.False(t, st.Error)
}

func TestDigitOperationEquals(t *testing.T) {
	_, h, _ := newTestServer(t)

	decodeState(t, request(h, http.MethodPost, "/digit", `"4"`))
	decodeState(t, request(h, http.MethodPost, "/digit", `","`))
	decodeState(t, request(h, http.MethodPost, "/digit", `"5"`))
	st := decodeState(t, request(h, http.MethodPost, "/operation", `"×"`))
	assert.Equal(t, engine.OpMultiply, st.Operation)

	decodeState(t, request(h, http.MethodPost, "/digit", `"2"`))
	st = decodeState(t, request(h, http.MethodPost, "/equals", ""))
	assert.Equal(t, "9", st.Display)
	assert.False(t, st.CanDelete)
}

func TestInvertAndDelete(t *testing.T) {
	_, h, _ := newTestServer(t)

	decodeState(t, request(h, http.MethodPost, "/press", `"25"`))
	st := decodeState(t, request(h, http.MethodPost, "/invert", ""))
	assert.Equal(t, "-25", st.Display)

	st = decodeState(t, request(h, http.MethodPost, "/delete", ""))
	assert.Equal(t, "-2", st.Display)
	st = decodeState(t, request(h, http.MethodPost, "/delete", ""))
	assert.Equal(t, "0", st.Display)
}

func TestBadInput(t *testing.T) {
	_, h, _ := newTestServer(t)

	cases := []struct {
		path string
		body string
	}{
		{"/digit", `"a"`},
		{"/digit", `5`},
		{"/digit", `"12"`},
		{"/operation", `"%"`},
		{"/operation", `not json`},
		{"/press", `"1+q"`},
		{"/press", `""`},
	}

	for _, c := range cases {
		w := request(h, http.MethodPost, c.path, c.body)
		assert.Equal(t, http.StatusBadRequest, w.Code, "%s %s", c.path, c.body)
	}

	// nothing reached the engine
	st := decodeState(t, request(h, http.MethodGet, "/state", ""))
	assert.Equal(t, "0", st.Display)
}

func TestPressSequence(t *testing.T) {
	_, h, _ := newTestServer(t)

	st := decodeState(t, request(h, http.MethodPost, "/press", `"12+3,5="`))
	assert.Equal(t, "15,5", st.Display)

	st = decodeState(t, request(h, http.MethodPost, "/press", `"Escape"`))
	assert.Equal(t, "0", st.Display)
}

func TestDivisionByZeroNeedsClear(t *testing.T) {
	_, h, _ := newTestServer(t)

	st := decodeState(t, request(h, http.MethodPost, "/press", `"5/0="`))
	assert.True(t, st.Error)
	assert.Equal(t, engine.ErrorToken, st.Display)

	st = decodeState(t, request(h, http.MethodPost, "/digit", `"1"`))
	assert.Equal(t, engine.ErrorToken, st.Display)

	st = decodeState(t, request(h, http.MethodPost, "/clear", ""))
	assert.False(t, st.Error)
	assert.Equal(t, "0", st.Display)
}

func TestActionsPublishEvents(t *testing.T) {
	s, h, _ := newTestServer(t)
	ch := s.Hub().Subscribe()

	decodeState(t, request(h, http.MethodPost, "/press", `"2*3="`))

	seen := map[string]json.RawMessage{}
	timeout := time.After(2 * time.Second)
	for seen[events.DisplayRestore] == nil || seen[events.KeyRelease] == nil {
		select {
		case ev := <-ch:
			seen[ev.Name] = ev.Data
		case <-timeout:
			t.Fatalf("missing events, got %v", seen)
		}
	}

	for _, name := range []string{
		events.DisplayUpdate,
		events.UIFocus,
		events.OperationHighlight,
		events.DisplayBlink,
		events.KeyPress,
	} {
		assert.Contains(t, seen, name)
	}

	restore, err := events.DecodeAs[events.DisplayEvent](events.Event{Data: seen[events.DisplayRestore]})
	require.NoError(t, err)
	assert.Equal(t, "6", restore.Text)
}

func TestNewInputCancelsBlinkRestore(t *testing.T) {
	s, h, _ := newTestServer(t)
	s.conf.SetBlinkDelay(50 * time.Millisecond)
	ch := s.Hub().Subscribe()

	decodeState(t, request(h, http.MethodPost, "/press", `"3+4="`))
	st := decodeState(t, request(h, http.MethodPost, "/digit", `"9"`))
	assert.Equal(t, "9", st.Display)

	time.Sleep(150 * time.Millisecond)

	var lastText string
	for done := false; !done; {
		select {
		case ev := <-ch:
			require.NotEqual(t, events.DisplayRestore, ev.Name, "stale restore after newer input")
			switch ev.Name {
			case events.DisplayUpdate:
				u, err := events.DecodeAs[engine.State](ev)
				require.NoError(t, err)
				lastText = u.Display
			}
		default:
			done = true
		}
	}
	assert.Equal(t, "9", lastText)
	assert.Zero(t, s.delays.Pending())
}

func TestBlinkRestoreSurvivesSameDisplay(t *testing.T) {
	s, h, _ := newTestServer(t)
	ch := s.Hub().Subscribe()

	decodeState(t, request(h, http.MethodPost, "/press", `"3+4="`))
	// reading the state does not publish and keeps the restore
	decodeState(t, request(h, http.MethodGet, "/state", ""))

	timeout := time.After(2 * time.Second)
	for {
		select {
		case ev := <-ch:
			if ev.Name != events.DisplayRestore {
				continue
			}
			restore, err := events.DecodeAs[events.DisplayEvent](ev)
			require.NoError(t, err)
			assert.Equal(t, "7", restore.Text)
			return
		case <-timeout:
			t.Fatal("no restore event")
		}
	}
}

func TestConcurrentUpdatesArriveInOrder(t *testing.T) {
	s, h, _ := newTestServer(t)

	const workers = 12
	for round := 0; round < 50; round++ {
		decodeState(t, request(h, http.MethodPost, "/clear", ""))
		ch := s.Hub().Subscribe()

		var wg sync.WaitGroup
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				request(h, http.MethodPost, "/digit", `"1"`)
			}()
		}
		wg.Wait()

		var updates []string
		for done := false; !done; {
			select {
			case ev := <-ch:
				if ev.Name != events.DisplayUpdate {
					continue
				}
				u, err := events.DecodeAs[engine.State](ev)
				require.NoError(t, err)
				updates = append(updates, u.Display)
			default:
				done = true
			}
		}
		s.Hub().Unsubscribe(ch)

		final := decodeState(t, request(h, http.MethodGet, "/state", ""))
		require.Len(t, updates, workers, "round %d", round)
		for i, text := range updates {
			require.Len(t, text, i+1, "round %d: updates out of order: %v", round, updates)
		}
		require.Equal(t, final.Display, updates[len(updates)-1], "round %d", round)
	}
}

func TestSetDecimalSeparator(t *testing.T) {
	_, h, confPath := newTestServer(t)

	decodeState(t, request(h, http.MethodPost, "/press", `"1,5"`))

	w := request(h, http.MethodPut, "/decimal-separator", `"."`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	st := decodeState(t, request(h, http.MethodGet, "/state", ""))
	assert.Equal(t, "1.5", st.Display)
	assert.Equal(t, ".", st.Separator)

	saved, err := os.ReadFile(confPath)
	require.NoError(t, err)
	assert.Contains(t, string(saved), `"decimalSeparator": "."`)

	w = request(h, http.MethodPut, "/decimal-separator", `";"`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAutoClearSchedule(t *testing.T) {
	_, h, _ := newTestServer(t)

	w := request(h, http.MethodPut, "/auto-clear-schedule", `"@every 1h"`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var st AutoClearStatus
	w = request(h, http.MethodGet, "/auto-clear-schedule", "")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &st))
	assert.Equal(t, "@every 1h", st.Schedule)
	assert.NotEmpty(t, st.NextRun)

	w = request(h, http.MethodPost, "/auto-clear-schedule/skip", "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var skipped AutoClearStatus
	w = request(h, http.MethodGet, "/auto-clear-schedule", "")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &skipped))
	assert.Greater(t, skipped.NextRun, st.NextRun)

	w = request(h, http.MethodPut, "/auto-clear-schedule", `"every now and then"`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = request(h, http.MethodPut, "/auto-clear-schedule", `""`)
	require.Equal(t, http.StatusCreated, w.Code)
	w = request(h, http.MethodGet, "/auto-clear-schedule", "")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &st))
	assert.Empty(t, st.Schedule)
	assert.Empty(t, st.NextRun)

	w = request(h, http.MethodPost, "/auto-clear-schedule/skip", "")
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestGetConfigAndVersion(t *testing.T) {
	_, h, _ := newTestServer(t)

	w := request(h, http.MethodGet, "/config", "")
	require.Equal(t, http.StatusOK, w.Code)
	var raw config.RawFileConfig
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &raw))
	require.NotNil(t, raw.MaxLength)
	assert.Equal(t, engine.DefaultMaxLength, *raw.MaxLength)

	w = request(h, http.MethodGet, "/version", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `"`+version.Version+`"`, w.Body.String())
}

func TestEventStream(t *testing.T) {
	_, h, _ := newTestServer(t)
	srv := httptest.NewServer(h)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/events", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Contains(t, resp.Header.Get("Content-Type"), "text/event-stream")

	sc := bufio.NewScanner(resp.Body)
	require.True(t, sc.Scan())
	assert.Equal(t, "event:"+events.DisplayUpdate, sc.Text())
	require.True(t, sc.Scan())
	assert.True(t, strings.HasPrefix(sc.Text(), "data:"))

	// a key press shows up on the stream
	go request(h, http.MethodPost, "/press", `"7"`)

	found := false
	for !found && sc.Scan() {
		found = sc.Text() == "event:"+events.KeyPress
	}
	assert.True(t, found)
}
