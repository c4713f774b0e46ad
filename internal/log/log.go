// Package log writes one JSON object per line through the standard logger.
// Request-scoped events carry the request id and the visitor's sid; events
// outside a request pass a nil *fiber.Ctx.
package log

import (
	"encoding/json"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
)

// LocalSID is the c.Locals key holding the visitor's session id.
const LocalSID = "sid"

type level string

const (
	levelInfo  level = "info"
	levelAudit level = "audit"
	levelWarn  level = "warn"
	levelError level = "error"
)

type entry struct {
	TS      string         `json:"ts"`
	Level   level          `json:"level"`
	Action  string         `json:"action,omitempty"`
	ReqID   string         `json:"req_id,omitempty"`
	Session string         `json:"sid,omitempty"`
	IP      string         `json:"ip,omitempty"`
	Method  string         `json:"method,omitempty"`
	Path    string         `json:"path,omitempty"`
	Err     string         `json:"err,omitempty"`
	Fields  map[string]any `json:"fields,omitempty"`
}

// The response status is left out: most events are logged before the
// handler has set it.
func (e *entry) fromRequest(c *fiber.Ctx) {
	e.IP, e.Method, e.Path = c.IP(), c.Method(), c.Path()
	e.ReqID, _ = c.Locals("requestid").(string)
	e.Session, _ = c.Locals(LocalSID).(string)
}

func emit(lv level, c *fiber.Ctx, action string, err error, fields map[string]any) {
	e := entry{TS: time.Now().UTC().Format(time.RFC3339), Level: lv, Action: action, Fields: fields}
	if c != nil {
		e.fromRequest(c)
	}
	if err != nil {
		e.Err = err.Error()
	}
	b, _ := json.Marshal(e)
	log.Println(string(b))
}

func Info(c *fiber.Ctx, action string, fields map[string]any) { emit(levelInfo, c, action, nil, fields) }
func Audit(c *fiber.Ctx, action string, fields map[string]any) { emit(levelAudit, c, action, nil, fields) }

// Security records refused or suspicious requests at warn level.
func Security(c *fiber.Ctx, action string, fields map[string]any) {
	emit(levelWarn, c, action, nil, fields)
}

func Warn(c *fiber.Ctx, action string, err error, fields map[string]any) {
	emit(levelWarn, c, action, err, fields)
}

func Error(c *fiber.Ctx, action string, err error, fields map[string]any) {
	emit(levelError, c, action, err, fields)
}
