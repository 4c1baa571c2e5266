package controllers

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/whirik-dev/Music-Library-sub002/internal/pkg/middleware"
	"github.com/whirik-dev/Music-Library-sub002/internal/pkg/proxy"
)

// DownloadController proxies authenticated track downloads from the origin
// service. The session identifier never leaves the server; the client only
// sees the normalized payload.
type DownloadController struct {
	Backend *proxy.Client
}

func NewDownloadController(backend *proxy.Client) *DownloadController {
	return &DownloadController{Backend: backend}
}

// HandleTrackDownload forwards the download request upstream with the
// session bearer and streams the response back.
func (dc *DownloadController) HandleTrackDownload(c *fiber.Ctx) error {
	result := middleware.SessionFromLocals(c)
	if result == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"message": "Authentication required",
		})
	}

	trackID := strings.TrimSpace(c.Params("trackID"))
	if trackID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "trackID is required",
		})
	}

	res, err := dc.Backend.Forward(c.Context(), http.MethodGet, "/files/"+trackID+"/download", result.SSID, nil)
	if err != nil {
		classified := proxy.Classify(err)
		return c.Status(classified.Status).JSON(fiber.Map{
			"success":   false,
			"message":   classified.Message,
			"requestId": result.RequestID,
		})
	}

	if res.ContentType != "" {
		c.Set(fiber.HeaderContentType, res.ContentType)
	}
	return c.Status(res.Status).Send(res.Body)
}
