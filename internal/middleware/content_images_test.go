package middleware

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"blogsys/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupContentApp(t *testing.T) *fiber.App {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "blog", "first-post"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "blog", "first-post", "cover.png"), []byte("png-bytes"), 0o644))

	app := fiber.New()
	app.Use(ContentImages(root))
	app.Get("/other", func(c *fiber.Ctx) error { return c.SendString("next") })
	return app
}

func TestContentImages_ServesFile(t *testing.T) {
	app := setupContentApp(t)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/content-images/blog/first-post/cover.png", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "png-bytes", string(body))
}

func TestContentImages_Errors(t *testing.T) {
	app := setupContentApp(t)

	tests := []struct {
		name   string
		path   string
		status int
	}{
		{"missing file", "/content-images/blog/nope.png", fiber.StatusNotFound},
		{"directory", "/content-images/blog/first-post", fiber.StatusNotFound},
		{"empty path", "/content-images/", fiber.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := app.Test(httptest.NewRequest(http.MethodGet, tt.path, nil), -1)
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, tt.status, resp.StatusCode)

			var body models.ErrorResponse
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.NotEmpty(t, body.Error)
		})
	}
}

func TestContentImages_PassesThroughOtherPaths(t *testing.T) {
	app := setupContentApp(t)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/other", nil), -1)
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "next", string(body))
}

func TestCleanImagePath(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"a/b.png", "a/b.png", true},
		{"a//b.png", "a/b.png", true},
		{"./a.png", "a.png", true},
		{"../etc/passwd", "", false},
		{"a/../../b", "", false},
		{"a\\..\\b", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := cleanImagePath(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}
