package web

import (
	"bytes"
	"encoding/json"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/go-eyehelper/pkg/camera"
	"github.com/teslashibe/go-eyehelper/pkg/hub"
)

// greetingLogs is how many buffered log lines a new log client receives.
const greetingLogs = 50

func errorJSON(c *fiber.Ctx, status int, err error) error {
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}

func unavailable(c *fiber.Ctx, what string) error {
	return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": what + " not configured"})
}

func (s *Server) handleStatus(c *fiber.Ctx) error {
	return c.JSON(s.Status())
}

func (s *Server) handleCues(c *fiber.Ctx) error {
	ctrl := s.ctrl
	if ctrl == nil {
		return unavailable(c, "controller")
	}
	return c.JSON(ctrl.Cues())
}

func (s *Server) handleLogs(c *fiber.Ctx) error {
	return c.JSON(s.Logs())
}

func (s *Server) handleActivate(c *fiber.Ctx) error {
	ctrl := s.ctrl
	if ctrl == nil {
		return unavailable(c, "controller")
	}
	if err := ctrl.Activate(s.ctx); err != nil {
		return errorJSON(c, fiber.StatusInternalServerError, err)
	}
	s.AddLog("session", "activated from dashboard")
	return c.JSON(fiber.Map{"active": true})
}

func (s *Server) handleDeactivate(c *fiber.Ctx) error {
	ctrl := s.ctrl
	if ctrl == nil {
		return unavailable(c, "controller")
	}
	if err := ctrl.Deactivate(); err != nil {
		return errorJSON(c, fiber.StatusInternalServerError, err)
	}
	s.AddLog("session", "deactivated from dashboard")
	return c.JSON(fiber.Map{"active": false})
}

// handleTemplate accepts either an encoded image (Content-Type image/*) or
// a JSON Region selecting part of the current frame.
func (s *Server) handleTemplate(c *fiber.Ctx) error {
	ctrl := s.ctrl
	if ctrl == nil {
		return unavailable(c, "controller")
	}

	contentType := c.Request().Header.ContentType()
	if bytes.HasPrefix(contentType, []byte("image/")) {
		if len(c.Body()) == 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "empty image"})
		}
		if err := ctrl.SetTemplate(c.Body()); err != nil {
			return errorJSON(c, fiber.StatusUnprocessableEntity, err)
		}
		s.AddLog("info", "tracking template uploaded")
		return c.JSON(fiber.Map{"source": "upload"})
	}

	var region Region
	if err := json.Unmarshal(c.Body(), &region); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, err)
	}
	if err := region.Validate(); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, err)
	}
	if err := ctrl.Retarget(region); err != nil {
		return errorJSON(c, fiber.StatusUnprocessableEntity, err)
	}
	s.AddLog("info", "tracking template taken from frame")
	return c.JSON(fiber.Map{"source": "frame", "region": region})
}

func (s *Server) cameraManager() *camera.Manager {
	s.cameraMu.RLock()
	defer s.cameraMu.RUnlock()
	return s.camera
}

func (s *Server) handleGetCamera(c *fiber.Ctx) error {
	m := s.cameraManager()
	if m == nil {
		return unavailable(c, "camera")
	}
	return c.JSON(m.GetConfig())
}

func (s *Server) handleSetCamera(c *fiber.Ctx) error {
	m := s.cameraManager()
	if m == nil {
		return unavailable(c, "camera")
	}

	var update camera.Update
	if err := json.Unmarshal(c.Body(), &update); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, err)
	}
	cfg, err := m.Apply(update)
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, err)
	}
	s.AddLog("info", "camera settings updated")
	return c.JSON(cfg)
}

func (s *Server) handlePresets(c *fiber.Ctx) error {
	return c.JSON(camera.PresetNames())
}

func (s *Server) handleStatusWS(c *websocket.Conn) {
	var greeting []hub.Message
	if data, err := json.Marshal(s.Status()); err == nil {
		greeting = append(greeting, hub.Text(data))
	}
	s.statusHub.Serve(c, greeting...)
}

func (s *Server) handleLogsWS(c *websocket.Conn) {
	logs := s.Logs()
	if len(logs) > greetingLogs {
		logs = logs[len(logs)-greetingLogs:]
	}
	greeting := make([]hub.Message, 0, len(logs))
	for _, entry := range logs {
		if data, err := json.Marshal(entry); err == nil {
			greeting = append(greeting, hub.Text(data))
		}
	}
	s.logHub.Serve(c, greeting...)
}

func (s *Server) handleCameraWS(c *websocket.Conn) {
	s.cameraHub.Serve(c)
}
