package middleware

import (
	"errors"
	"io/fs"
	"log/slog"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"

	"blogsys/models"

	"github.com/gofiber/fiber/v2"
)

// ContentImagesPrefix is the URL prefix under which post images are served.
const ContentImagesPrefix = "/content-images/"

// ContentImages serves files below root for GET requests on
// /content-images/*. Paths that escape root are rejected with 400 and
// missing files answer 404 JSON.
func ContentImages(root string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Method() != fiber.MethodGet && c.Method() != fiber.MethodHead {
			return c.Next()
		}
		reqPath := c.Path()
		if !strings.HasPrefix(reqPath, ContentImagesPrefix) {
			return c.Next()
		}

		rel, ok := cleanImagePath(strings.TrimPrefix(reqPath, ContentImagesPrefix))
		if !ok {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("Invalid image path"))
		}

		full := filepath.Join(root, filepath.FromSlash(rel))
		data, err := os.ReadFile(full)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrInvalid) || isDirErr(full) {
				return models.RespondWithError(c, fiber.StatusNotFound,
					models.NewNotFoundError("Image", rel))
			}
			Logger.ErrorContext(c.UserContext(), "failed to read content image",
				slog.String("path", rel),
				slog.String("error", err.Error()),
			)
			return models.RespondWithError(c, fiber.StatusInternalServerError,
				models.NewInternalError(err))
		}

		if ct := mime.TypeByExtension(path.Ext(rel)); ct != "" {
			c.Set(fiber.HeaderContentType, ct)
		} else {
			c.Set(fiber.HeaderContentType, "application/octet-stream")
		}
		c.Set(fiber.HeaderCacheControl, "public, max-age=3600")
		return c.Send(data)
	}
}

// cleanImagePath normalizes a request path relative to the content root and
// reports false when it is empty or climbs out of the root.
func cleanImagePath(p string) (string, bool) {
	if p == "" || strings.Contains(p, "\\") || strings.ContainsRune(p, 0) {
		return "", false
	}
	for _, seg := range strings.Split(p, "/") {
		if seg == ".." {
			return "", false
		}
	}
	cleaned := path.Clean("/" + p)
	cleaned = strings.TrimPrefix(cleaned, "/")
	if cleaned == "" || cleaned == "." {
		return "", false
	}
	return cleaned, true
}

func isDirErr(p string) bool {
	info, err := os.Stat(p)
	return err == nil && info.IsDir()
}
