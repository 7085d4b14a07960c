package httpapi

import (
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/julianstephens/skillpulse/internal/constants"
	perrors "github.com/julianstephens/skillpulse/internal/errors"
	"github.com/julianstephens/skillpulse/internal/engine"
	"github.com/julianstephens/skillpulse/internal/eventbus"
)

const (
	sseBuffer    = 32
	sseKeepalive = 15 * time.Second
)

type handler struct {
	proc      *engine.Processor
	hub       *eventbus.Hub
	startedAt time.Time
}

// statusFor maps protocol codes onto HTTP statuses. The body always carries
// the protocol response.
func statusFor(code string) int {
	switch perrors.Code(code) {
	case perrors.CodeValidation:
		return http.StatusBadRequest
	case perrors.CodeNotFound:
		return http.StatusNotFound
	case perrors.CodeRearm:
		return http.StatusConflict
	case perrors.CodeDailyCap:
		return http.StatusTooManyRequests
	case perrors.CodeQuotaExceeded:
		return http.StatusRequestEntityTooLarge
	default:
		return http.StatusInternalServerError
	}
}

func reply(c *gin.Context, resp engine.Response) {
	if resp.OK {
		c.JSON(http.StatusOK, resp)
		return
	}
	c.JSON(statusFor(resp.Code), resp)
}

func (h *handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"ok":        true,
		"version":   constants.Version,
		"startedAt": h.startedAt.UnixMilli(),
	})
}

func (h *handler) command(c *gin.Context) {
	var req engine.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		reply(c, engine.ErrorResponse("", perrors.New(perrors.CodeInternal, "Invalid message format")))
		return
	}
	reply(c, h.proc.Dispatch(c.Request.Context(), req))
}

func (h *handler) state(c *gin.Context) {
	reply(c, h.proc.Dispatch(c.Request.Context(), engine.Request{Type: engine.CmdGetState}))
}

func (h *handler) timer(c *gin.Context) {
	reply(c, h.proc.Dispatch(c.Request.Context(), engine.Request{Type: engine.CmdGetTimerStatus}))
}

func (h *handler) achievements(c *gin.Context) {
	list, err := h.proc.Achievements(c.Request.Context())
	if err != nil {
		reply(c, engine.ErrorResponse("GET_ACHIEVEMENTS", err))
		return
	}
	reply(c, engine.Response{OK: true, Result: list})
}

func (h *handler) badge(c *gin.Context) {
	reply(c, engine.Response{OK: true, Result: gin.H{"text": h.proc.Badge().Text()}})
}

// events streams hub events as server-sent events until the client leaves.
func (h *handler) events(c *gin.Context) {
	ctx := c.Request.Context()
	sub := h.hub.Subscribe(ctx, sseBuffer)

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	c.SSEvent("ready", gin.H{})
	c.Writer.Flush()

	ticker := time.NewTicker(sseKeepalive)
	defer ticker.Stop()

	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case <-ticker.C:
			c.SSEvent("ping", gin.H{})
			return true
		case evt, ok := <-sub:
			if !ok {
				return false
			}
			c.SSEvent(evt.Type, evt)
			return true
		}
	})
}
