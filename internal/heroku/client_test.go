package heroku

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticKey string

func (k staticKey) Select() string { return string(k) }

type recordedRequest struct {
	Method string
	Path   string
	Auth   string
	Accept string
	Body   string
}

type fakeAPI struct {
	mu       sync.Mutex
	requests []recordedRequest
	handler  func(w http.ResponseWriter, r *http.Request)
}

func newFakeAPI(t *testing.T, handler func(w http.ResponseWriter, r *http.Request)) (*fakeAPI, *httptest.Server) {
	api := &fakeAPI{handler: handler}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		api.mu.Lock()
		api.requests = append(api.requests, recordedRequest{
			Method: r.Method,
			Path:   r.URL.Path,
			Auth:   r.Header.Get("Authorization"),
			Accept: r.Header.Get("Accept"),
			Body:   string(body),
		})
		api.mu.Unlock()
		if api.handler != nil {
			api.handler(w, r)
			return
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{}`))
	}))
	t.Cleanup(srv.Close)
	return api, srv
}

func (a *fakeAPI) last() recordedRequest {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.requests[len(a.requests)-1]
}

func TestCreateApp(t *testing.T) {
	api, srv := newFakeAPI(t, nil)
	c := NewClient(srv.URL, staticKey("secret"))

	require.NoError(t, c.CreateApp(context.Background(), "khanmd-abc123"))

	req := api.last()
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "/apps", req.Path)
	assert.Equal(t, "Bearer secret", req.Auth)
	assert.Equal(t, acceptHeader, req.Accept)
	assert.JSONEq(t, `{"name":"khanmd-abc123"}`, req.Body)
}

func TestCreateAppNameTaken(t *testing.T) {
	_, srv := newFakeAPI(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"id":"invalid_params","message":"Name is already taken"}`))
	})
	c := NewClient(srv.URL, staticKey("secret"))

	err := c.CreateApp(context.Background(), "taken")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAppCreationFailed)
	assert.True(t, IsNameTaken(err))

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "invalid_params", apiErr.ID)
	assert.Equal(t, "Name is already taken", Detail(err))
}

func TestSetConfig(t *testing.T) {
	api, srv := newFakeAPI(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	c := NewClient(srv.URL+"/", staticKey("secret"))

	err := c.SetConfig(context.Background(), "my-bot", map[string]string{"SESSION_ID": "s1", "PREFIX": "."})
	require.NoError(t, err)

	req := api.last()
	assert.Equal(t, http.MethodPatch, req.Method)
	assert.Equal(t, "/apps/my-bot/config-vars", req.Path)

	var vars map[string]string
	require.NoError(t, json.Unmarshal([]byte(req.Body), &vars))
	assert.Equal(t, map[string]string{"SESSION_ID": "s1", "PREFIX": "."}, vars)
}

func TestSetConfigEmptySkipsCall(t *testing.T) {
	api, srv := newFakeAPI(t, nil)
	c := NewClient(srv.URL, staticKey("secret"))

	require.NoError(t, c.SetConfig(context.Background(), "my-bot", nil))
	assert.Empty(t, api.requests)
}

func TestSetConfigFailure(t *testing.T) {
	_, srv := newFakeAPI(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"id":"forbidden","message":"You do not have access to the app"}`))
	})
	c := NewClient(srv.URL, staticKey("secret"))

	err := c.SetConfig(context.Background(), "my-bot", map[string]string{"A": "b"})
	assert.ErrorIs(t, err, ErrConfigUpdateFailed)
	assert.False(t, IsNameTaken(err))
	assert.Contains(t, err.Error(), "You do not have access to the app")
}

func TestTriggerBuild(t *testing.T) {
	api, srv := newFakeAPI(t, nil)
	c := NewClient(srv.URL, staticKey("secret"))

	err := c.TriggerBuild(context.Background(), "my-bot", "https://example.com/khan.tar.gz")
	require.NoError(t, err)

	req := api.last()
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "/apps/my-bot/builds", req.Path)
	assert.JSONEq(t, `{"source_blob":{"url":"https://example.com/khan.tar.gz"}}`, req.Body)
}

func TestTriggerBuildFailureKeepsRawBody(t *testing.T) {
	_, srv := newFakeAPI(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`upstream exploded`))
	})
	c := NewClient(srv.URL, staticKey("secret"))

	err := c.TriggerBuild(context.Background(), "my-bot", "https://example.com/khan.tar.gz")
	assert.ErrorIs(t, err, ErrBuildTriggerFailed)
	assert.Equal(t, "upstream exploded", Detail(err))
}

func TestDeleteApp(t *testing.T) {
	api, srv := newFakeAPI(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	c := NewClient(srv.URL, staticKey("secret"))

	require.NoError(t, c.DeleteApp(context.Background(), "my-bot"))
	req := api.last()
	assert.Equal(t, http.MethodDelete, req.Method)
	assert.Equal(t, "/apps/my-bot", req.Path)
	assert.Empty(t, req.Body)
}

func TestDeleteAppAlreadyGone(t *testing.T) {
	_, srv := newFakeAPI(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"id":"not_found","message":"Couldn't find that app."}`))
	})
	c := NewClient(srv.URL, staticKey("secret"))

	assert.NoError(t, c.DeleteApp(context.Background(), "gone"))
}

func TestDeleteAppFailure(t *testing.T) {
	_, srv := newFakeAPI(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	c := NewClient(srv.URL, staticKey("secret"))

	assert.ErrorIs(t, c.DeleteApp(context.Background(), "my-bot"), ErrAppDeletionFailed)
}

type countingKeys struct {
	keys []string
	n    int
}

func (c *countingKeys) Select() string {
	k := c.keys[c.n%len(c.keys)]
	c.n++
	return k
}

func TestEachCallSelectsCredential(t *testing.T) {
	api, srv := newFakeAPI(t, nil)
	keys := &countingKeys{keys: []string{"k1", "k2"}}
	c := NewClient(srv.URL, keys)

	require.NoError(t, c.CreateApp(context.Background(), "a"))
	require.NoError(t, c.TriggerBuild(context.Background(), "a", "https://example.com/src.tgz"))

	assert.Equal(t, "Bearer k1", api.requests[0].Auth)
	assert.Equal(t, "Bearer k2", api.requests[1].Auth)
}
