package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ether/blockpad-go/lib"
	"github.com/ether/blockpad-go/lib/block"
	"github.com/ether/blockpad-go/lib/db"
	"github.com/ether/blockpad-go/lib/settings"
	"github.com/ether/blockpad-go/lib/ws"
)

func newTestApp() *fiber.App {
	logger := zap.NewNop().Sugar()
	store := db.NewMemoryDataStore()
	app := fiber.New()

	hub := ws.NewHub(logger)
	go hub.Run()

	retrievedSettings, _ := settings.ReadConfig(`{"dbType": "memory"}`)

	InitAPI(&lib.InitStore{
		C:                 app,
		RetrievedSettings: retrievedSettings,
		Store:             store,
		BlockManager:      block.NewManager(store, logger),
		Notifier:          ws.NewNotifier(hub),
		Validator:         validator.New(validator.WithRequiredStructEnabled()),
		Logger:            logger,
	})
	return app
}

func postJSON(t *testing.T, app *fiber.App, path string, body any) (*http.Response, map[string]any) {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)

	request := httptest.NewRequest("POST", path, bytes.NewReader(raw))
	request.Header.Set("Content-Type", "application/json")
	response, err := app.Test(request, -1)
	require.NoError(t, err)
	return response, decodeBody(t, response)
}

func getJSON(t *testing.T, app *fiber.App, path string) (*http.Response, map[string]any) {
	t.Helper()
	response, err := app.Test(httptest.NewRequest("GET", path, nil), -1)
	require.NoError(t, err)
	return response, decodeBody(t, response)
}

func decodeBody(t *testing.T, response *http.Response) map[string]any {
	t.Helper()
	raw, err := io.ReadAll(response.Body)
	require.NoError(t, err)
	var decoded map[string]any
	if len(raw) > 0 && json.Unmarshal(raw, &decoded) == nil {
		return decoded
	}
	return nil
}

func TestLoadFileAndReadText(t *testing.T) {
	app := newTestApp()

	response, body := postJSON(t, app, "/api/files", map[string]any{
		"path":    "/a.go",
		"content": "x\ny\nz",
	})
	require.Equal(t, 200, response.StatusCode)
	fileId := body["fileID"].(string)
	require.NotEmpty(t, fileId)

	response, body = getJSON(t, app, "/api/files/"+fileId+"/root")
	require.Equal(t, 200, response.StatusCode)
	blockId := body["blockID"].(string)

	response, body = getJSON(t, app, "/api/blocks/text?blockID="+blockId)
	require.Equal(t, 200, response.StatusCode)
	assert.Equal(t, "x\ny\nz", body["text"])
}

func TestLoadFileValidation(t *testing.T) {
	app := newTestApp()

	response, _ := postJSON(t, app, "/api/files", map[string]any{
		"content": "no path",
	})
	assert.Equal(t, 422, response.StatusCode)
}

func TestUnknownBlockIs404(t *testing.T) {
	app := newTestApp()

	response, _ := getJSON(t, app, "/api/blocks/text?blockID=nope")
	assert.Equal(t, 404, response.StatusCode)
}

func TestChangeLinesEndpoint(t *testing.T) {
	app := newTestApp()

	_, body := postJSON(t, app, "/api/files", map[string]any{
		"path":    "/a.go",
		"content": "x\ny",
	})
	fileId := body["fileID"].(string)
	_, body = getJSON(t, app, "/api/files/"+fileId+"/root")
	blockId := body["blockID"].(string)

	response, body := postJSON(t, app, "/api/blocks/changes", map[string]any{
		"blockID": blockId,
		"change": map[string]any{
			"startLine": 1, "startCol": 1, "endLine": 1, "endCol": 2,
			"insertedText": "X", "lineText": "X",
		},
	})
	require.Equal(t, 200, response.StatusCode)
	assert.NotEmpty(t, body["blockIDs"])

	_, body = getJSON(t, app, "/api/blocks/text?blockID="+blockId)
	assert.Equal(t, "X\ny", body["text"])
}

func TestApplyIndexEndpointValidatesRange(t *testing.T) {
	app := newTestApp()

	_, body := postJSON(t, app, "/api/files", map[string]any{
		"path":    "/a.go",
		"content": "x",
	})
	fileId := body["fileID"].(string)
	_, body = getJSON(t, app, "/api/files/"+fileId+"/root")
	blockId := body["blockID"].(string)

	response, _ := postJSON(t, app, "/api/blocks/applyIndex", map[string]any{
		"blockID": blockId,
		"index":   5,
	})
	assert.Equal(t, 400, response.StatusCode)
}

func TestTagEndpoints(t *testing.T) {
	app := newTestApp()

	_, body := postJSON(t, app, "/api/files", map[string]any{
		"path":    "/a.go",
		"content": "x",
	})
	fileId := body["fileID"].(string)
	_, body = getJSON(t, app, "/api/files/"+fileId+"/root")
	blockId := body["blockID"].(string)

	response, body := postJSON(t, app, "/api/tags", map[string]any{
		"blockID": blockId,
		"name":    "T",
	})
	require.Equal(t, 200, response.StatusCode)
	tagId := body["tagID"].(string)

	_, _ = postJSON(t, app, "/api/blocks/updateLine", map[string]any{
		"blockID": blockId, "line": 1, "content": "edited",
	})

	response, body = getJSON(t, app, "/api/tags/"+tagId+"/text")
	require.Equal(t, 200, response.StatusCode)
	assert.Equal(t, "x", body["text"])

	response, body = postJSON(t, app, "/api/tags/"+tagId+"/load", nil)
	require.Equal(t, 200, response.StatusCode)
	assert.Equal(t, "x", body["text"])
}
