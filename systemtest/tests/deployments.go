package tests

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/EternisAI/bot-deployer/internal/api/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const KhanSource = "https://example.com/khan.tar.gz"

func deployBody(username, appName string) dto.DeployRequest {
	return dto.DeployRequest{
		Username:  username,
		SessionID: "session-" + username,
		AppName:   appName,
		BotType:   "khan",
		Config:    map[string]dto.ConfigValue{"PREFIX": {Value: "!"}},
	}
}

func deploy(t *testing.T, router *gin.Engine, body dto.DeployRequest) dto.DeployResponse {
	rr := doJSON(router, http.MethodPost, "/deploy", body)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var resp dto.DeployResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	return resp
}

func count(t *testing.T, router *gin.Engine, username string) int64 {
	rr := doJSON(router, http.MethodGet, "/api/deployments/"+username, nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var resp dto.CountResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	return resp.Count
}

func TestHealthCheck(t *testing.T, router *gin.Engine) {
	rr := doJSON(router, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok","database":"connected"}`, rr.Body.String())
}

func TestDeployLifecycle(t *testing.T, router *gin.Engine, heroku *FakeHeroku) {
	resp := deploy(t, router, deployBody("Carol", "Carol's Bot!!"))
	assert.Equal(t, "carol-s-bot", resp.AppName)
	assert.NotEmpty(t, resp.Token)

	assert.True(t, heroku.HasApp("carol-s-bot"))
	assert.Equal(t, map[string]string{"PREFIX": "!", "SESSION_ID": "session-Carol"}, heroku.ConfigVars("carol-s-bot"))
	assert.Equal(t, []string{KhanSource}, heroku.Builds("carol-s-bot"))

	second := deploy(t, router, deployBody("carol", ""))
	assert.Regexp(t, `^khanmd-[0-9a-f]{6}$`, second.AppName)
	assert.NotEqual(t, resp.Token, second.Token)

	t.Run("count is case-insensitive", func(t *testing.T) {
		assert.Equal(t, int64(2), count(t, router, "CAROL"))
		assert.Equal(t, int64(0), count(t, router, "nobody"))
	})

	t.Run("list by token returns owner's bots", func(t *testing.T) {
		deploy(t, router, deployBody("dave", "daves-bot"))

		rr := doJSON(router, http.MethodGet, "/api/bots?token="+resp.Token, nil)
		require.Equal(t, http.StatusOK, rr.Code)

		var list dto.ListBotsResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &list))
		names := make([]string, len(list.Bots))
		for i, b := range list.Bots {
			names[i] = b.Name
			assert.Equal(t, "khan", b.Type)
			assert.False(t, b.CreatedAt.IsZero())
		}
		assert.ElementsMatch(t, []string{"carol-s-bot", second.AppName}, names)
	})

	t.Run("quota blocks third deployment", func(t *testing.T) {
		rr := doJSON(router, http.MethodPost, "/deploy", deployBody("carol", "third"))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Contains(t, rr.Body.String(), "2 of 2")
		assert.False(t, heroku.HasApp("third"))
	})

	t.Run("delete with another app's token is forbidden", func(t *testing.T) {
		rr := doJSON(router, http.MethodDelete, "/api/bots/"+second.AppName+"?token="+resp.Token, nil)
		assert.Equal(t, http.StatusForbidden, rr.Code)
		assert.True(t, heroku.HasApp(second.AppName))
		assert.Equal(t, int64(2), count(t, router, "carol"))
	})

	t.Run("delete with unknown token", func(t *testing.T) {
		rr := doJSON(router, http.MethodDelete, "/api/bots/"+second.AppName+"?token=unknown", nil)
		assert.Equal(t, http.StatusNotFound, rr.Code)
		assert.True(t, heroku.HasApp(second.AppName))
	})

	t.Run("delete removes remote app and record", func(t *testing.T) {
		rr := doJSON(router, http.MethodDelete, "/api/bots/carol-s-bot?token="+resp.Token, nil)
		require.Equal(t, http.StatusOK, rr.Code)
		assert.False(t, heroku.HasApp("carol-s-bot"))
		assert.Equal(t, int64(1), count(t, router, "carol"))

		rr = doJSON(router, http.MethodGet, "/api/bots?token="+resp.Token, nil)
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("delete tolerates app already gone remotely", func(t *testing.T) {
		heroku.Remove(second.AppName)

		rr := doJSON(router, http.MethodDelete, "/api/bots/"+second.AppName+"?token="+second.Token, nil)
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, int64(0), count(t, router, "carol"))
	})
}

func TestDeployValidation(t *testing.T, router *gin.Engine) {
	tests := []struct {
		name string
		body dto.DeployRequest
		want string
	}{
		{"missing username", dto.DeployRequest{SessionID: "s", BotType: "khan"}, "username is required"},
		{"missing session", dto.DeployRequest{Username: "erin", BotType: "khan"}, "session_id is required"},
		{"unknown bot type", dto.DeployRequest{Username: "erin", SessionID: "s", BotType: "nope"}, "unsupported bot type"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := doJSON(router, http.MethodPost, "/deploy", tt.body)
			assert.Equal(t, http.StatusBadRequest, rr.Code)
			assert.Contains(t, rr.Body.String(), tt.want)
		})
	}
}

func TestConcurrentDuplicateName(t *testing.T, router *gin.Engine) {
	const workers = 5
	codes := make([]int, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			body := deployBody("racer"+string(rune('a'+i)), "race-bot")
			codes[i] = doJSON(router, http.MethodPost, "/deploy", body).Code
		}(i)
	}
	wg.Wait()

	ok, conflict := 0, 0
	for _, c := range codes {
		switch c {
		case http.StatusOK:
			ok++
		case http.StatusConflict:
			conflict++
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, workers-1, conflict)
}

func doJSON(router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}
