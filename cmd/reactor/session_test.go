//go:build integration

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/ancientHacker/reactor.go/dbprep"
	"github.com/ancientHacker/reactor.go/internal/testutil/containers"
	"github.com/ancientHacker/reactor.go/reactor"
	"github.com/ancientHacker/reactor.go/storage"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const clientCount = 5

func TestMain(m *testing.M) {
	containers.Main(m)
}

func startServer(t *testing.T) *httptest.Server {
	t.Helper()
	t.Setenv("STATIC_DIRECTORY", filepath.Join("..", "..", "static"))
	t.Setenv("TEMPLATE_DIRECTORY", filepath.Join("..", "..", "static", "tmpl"))
	require.NoError(t, dbprep.ReinitializeAll())
	_, _, err := storage.Connect()
	require.NoError(t, err)
	t.Cleanup(storage.Close)
	srv := httptest.NewServer(newRouter(prometheus.NewRegistry()))
	t.Cleanup(srv.Close)
	return srv
}

func newClient(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{Jar: jar}
}

func call(t *testing.T, c *http.Client, method, url string, out interface{}) int {
	t.Helper()
	req, err := http.NewRequest(method, url, nil)
	require.NoError(t, err)
	resp, err := c.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if out != nil {
		require.NoError(t, json.Unmarshal(body, out), "body: %s", body)
	}
	return resp.StatusCode
}

func TestSessionStepping(t *testing.T) {
	srv := startServer(t)
	c := newClient(t)

	var state reactor.State
	require.Equal(t, http.StatusOK, call(t, c, "GET", srv.URL+"/api/state", &state))
	assert.Equal(t, reactor.State{Mode: "full", Steps: 4}, state)

	for i, volume := range []int64{27, 46, 38, 39} {
		var u reactor.Update
		require.Equal(t, http.StatusOK, call(t, c, "POST", srv.URL+"/api/step", &u), "step %d", i+1)
		assert.Equal(t, volume, u.State.Volume, "step %d", i+1)
	}

	var e reactor.Error
	assert.Equal(t, http.StatusBadRequest, call(t, c, "POST", srv.URL+"/api/step", &e))
	assert.Equal(t, reactor.NoMoreInstructionsCondition, e.Condition)

	require.Equal(t, http.StatusOK, call(t, c, "POST", srv.URL+"/api/back/", &state))
	assert.Equal(t, 3, state.Step)
	assert.EqualValues(t, 38, state.Volume)

	var regions []reactor.Region
	require.Equal(t, http.StatusOK, call(t, c, "GET", srv.URL+"/api/regions", &regions))
	total := int64(0)
	for _, r := range regions {
		total += r.Volume()
	}
	assert.EqualValues(t, 38, total)

	var runs []storage.Run
	require.Equal(t, http.StatusOK, call(t, c, "GET", srv.URL+"/api/runs", &runs))
	require.Len(t, runs, 1)
	assert.EqualValues(t, 39, runs[0].Volume)
}

func TestSessionReset(t *testing.T) {
	srv := startServer(t)
	c := newClient(t)

	var state reactor.State
	require.Equal(t, http.StatusOK, call(t, c, "POST", srv.URL+"/api/reset/init-and-beyond?mode=init", &state))
	assert.Equal(t, reactor.State{Mode: "init", Steps: 3}, state)

	var summary reactor.Summary
	require.Equal(t, http.StatusOK, call(t, c, "GET", srv.URL+"/api/summary", &summary))
	assert.Equal(t, "init", summary.Mode)
	assert.Len(t, summary.Instructions, 3)

	var u reactor.Update
	require.Equal(t, http.StatusOK, call(t, c, "POST", srv.URL+"/api/step", &u))
	require.Equal(t, http.StatusOK, call(t, c, "POST", srv.URL+"/api/step", &u))
	assert.False(t, u.Applied)

	// no procedure ID keeps the procedure, no mode keeps the mode
	require.Equal(t, http.StatusOK, call(t, c, "POST", srv.URL+"/api/reset/", &state))
	assert.Equal(t, reactor.State{Mode: "init", Steps: 3}, state)

	var e reactor.Error
	assert.Equal(t, http.StatusBadRequest, call(t, c, "POST", srv.URL+"/api/reset/?mode=sideways", &e))
	assert.Equal(t, reactor.UnknownModeCondition, e.Condition)
	assert.Equal(t, http.StatusBadRequest, call(t, c, "POST", srv.URL+"/api/reset/no-such-thing", &e))
	assert.Contains(t, e.Message, "No such procedure")
}

func TestProcedureEndpoints(t *testing.T) {
	srv := startServer(t)
	c := newClient(t)

	req, err := http.NewRequest("PUT", srv.URL+"/api/procedures/tiny", strings.NewReader("on x=1..2,y=1..2,z=1..2\n"))
	require.NoError(t, err)
	resp, err := c.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var infos []storage.ProcedureInfo
	require.Equal(t, http.StatusOK, call(t, c, "GET", srv.URL+"/api/procedures", &infos))
	names := make([]string, len(infos))
	for i, info := range infos {
		names[i] = info.Name
	}
	assert.Contains(t, names, "tiny")
	assert.Contains(t, names, dbprep.DefaultProcedureName)

	var state reactor.State
	require.Equal(t, http.StatusOK, call(t, c, "POST", srv.URL+"/api/reset/tiny", &state))
	assert.Equal(t, 1, state.Steps)

	// a sample's body can't be saved again under a new name
	req, err = http.NewRequest("PUT", srv.URL+"/api/procedures/copy", strings.NewReader(dbprep.Samples[0].Body))
	require.NoError(t, err)
	resp, err = c.Do(req)
	require.NoError(t, err)
	var e reactor.Error
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&e))
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, e.Message, "another name")
}

func TestPages(t *testing.T) {
	srv := startServer(t)
	c := newClient(t)
	for _, path := range []string{"/reactor/", "/home/"} {
		resp, err := c.Get(srv.URL + path)
		require.NoError(t, err)
		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
		assert.Contains(t, string(body), dbprep.DefaultProcedureName, path)
	}
}

// TestConcurrentSessions runs several clients at once; each must
// see only its own steps.
func TestConcurrentSessions(t *testing.T) {
	srv := startServer(t)
	var wg sync.WaitGroup
	errs := make(chan error, clientCount)
	for i := 0; i < clientCount; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			jar, _ := cookiejar.New(nil)
			c := &http.Client{Jar: jar}
			for step := 1; step <= 4; step++ {
				resp, err := c.Post(srv.URL+"/api/step", "text/plain", nil)
				if err != nil {
					errs <- err
					return
				}
				var u reactor.Update
				err = json.NewDecoder(resp.Body).Decode(&u)
				resp.Body.Close()
				if err != nil {
					errs <- err
					return
				}
				if u.State.Step != step {
					errs <- fmt.Errorf("client %d: expected step %d, got %d", id, step, u.State.Step)
					return
				}
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}
