package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"gitee.com/flycash/notification-service/internal/domain"
	"gitee.com/flycash/notification-service/internal/errs"
	notificationevt "gitee.com/flycash/notification-service/internal/event/notification"
	"gitee.com/flycash/notification-service/internal/pkg/mqx"
	"gitee.com/flycash/notification-service/internal/service/status"
	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid"
	"github.com/gotomicro/ego/core/elog"
)

// NotifyReq POST /notify 的请求体
type NotifyReq struct {
	To             string         `json:"to"`
	Channel        string         `json:"channel"`
	Template       string         `json:"template"`
	Data           map[string]any `json:"data"`
	IdempotencyKey string         `json:"idempotency_key"`
}

// PendingLister mock 模式下可以查看内存队列里积压的消息
type PendingLister interface {
	Pending() []*mqx.Message
}

// Handler 通知 API。入队是唯一的写路径：校验请求、构造载荷、投递到消息队列，
// 其余都是查询端点。
type Handler struct {
	producer notificationevt.Producer
	store    status.Store
	// 为 nil 表示接的是真实 broker
	pending PendingLister
	logger  *elog.Component
}

func NewHandler(producer notificationevt.Producer, store status.Store, pending PendingLister) *Handler {
	return &Handler{
		producer: producer,
		store:    store,
		pending:  pending,
		logger:   elog.DefaultLogger,
	}
}

func (h *Handler) RegisterRoutes(r gin.IRouter) {
	r.POST("/notify", h.Notify)
	r.GET("/health", h.Health)
	r.GET("/queue", h.Queue)
	r.GET("/status/:id", h.Status)
}

func (h *Handler) Notify(ctx *gin.Context) {
	requestID := h.requestID(ctx)

	var req NotifyReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{
			"error":      "invalid request body",
			"request_id": requestID,
		})
		return
	}

	missing := make([]string, 0, 3)
	if req.To == "" {
		missing = append(missing, "to")
	}
	if req.Channel == "" {
		missing = append(missing, "channel")
	}
	if req.Template == "" {
		missing = append(missing, "template")
	}
	if len(missing) > 0 {
		errMsg := fmt.Sprintf("missing required fields: %s", strings.Join(missing, ", "))
		h.logger.Warn("通知请求校验失败",
			elog.String("requestID", requestID),
			elog.String("error", errMsg))
		ctx.JSON(http.StatusBadRequest, gin.H{
			"error":      errMsg,
			"request_id": requestID,
		})
		return
	}

	ch := domain.Channel(req.Channel)
	if !ch.IsValid() {
		errMsg := fmt.Sprintf("channel must be email or sms (got: %s)", req.Channel)
		h.logger.Warn("通知请求校验失败",
			elog.String("requestID", requestID),
			elog.String("error", errMsg))
		ctx.JSON(http.StatusBadRequest, gin.H{
			"error":      errMsg,
			"request_id": requestID,
		})
		return
	}

	n, err := domain.NewNotification(req.IdempotencyKey, req.To, ch, req.Template, req.Data)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{
			"error":      err.Error(),
			"request_id": requestID,
		})
		return
	}

	if err := h.producer.Produce(ctx.Request.Context(), n); err != nil {
		h.logger.Error("投递通知事件失败",
			elog.String("requestID", requestID),
			elog.String("id", n.ID),
			elog.FieldErr(err))
		ctx.JSON(http.StatusInternalServerError, gin.H{
			"error":      "failed to publish",
			"request_id": requestID,
		})
		return
	}

	if err := h.store.Mark(ctx.Request.Context(), n.ID, status.StatusQueued); err != nil {
		h.logger.Warn("记录通知状态失败",
			elog.String("id", n.ID),
			elog.FieldErr(err))
	}

	h.logger.Info("通知已入队",
		elog.String("requestID", requestID),
		elog.String("id", n.ID),
		elog.String("channel", string(n.Channel)))
	ctx.JSON(http.StatusAccepted, gin.H{
		"status":     "queued",
		"id":         n.ID,
		"request_id": requestID,
	})
}

func (h *Handler) Health(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{
		"status":     "ok",
		"timestamp":  time.Now().Format(time.RFC3339),
		"request_id": h.requestID(ctx),
	})
}

// Queue 调试端点。mock 模式返回内存队列里的消息，
// 真实 broker 模式下只能告诉你消息在 broker 里。
func (h *Handler) Queue(ctx *gin.Context) {
	requestID := h.requestID(ctx)
	if h.pending == nil {
		ctx.JSON(http.StatusOK, gin.H{
			"mode":       "kafka",
			"message":    "messages are in the broker",
			"request_id": requestID,
		})
		return
	}

	msgs := h.pending.Pending()
	payloads := make([]domain.Notification, 0, len(msgs))
	for _, msg := range msgs {
		var n domain.Notification
		if err := json.Unmarshal(msg.Value, &n); err != nil {
			continue
		}
		payloads = append(payloads, n)
	}
	ctx.JSON(http.StatusOK, gin.H{
		"mode":       "memory",
		"pending":    payloads,
		"request_id": requestID,
	})
}

func (h *Handler) Status(ctx *gin.Context) {
	requestID := h.requestID(ctx)
	id := ctx.Param("id")

	s, err := h.store.Get(ctx.Request.Context(), id)
	if err != nil {
		if errors.Is(err, errs.ErrStatusNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{
				"error":      "status not found",
				"request_id": requestID,
			})
			return
		}
		ctx.JSON(http.StatusInternalServerError, gin.H{
			"error":      "failed to query status",
			"request_id": requestID,
		})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"id":         id,
		"status":     s,
		"request_id": requestID,
	})
}

func (h *Handler) requestID(ctx *gin.Context) string {
	if id := ctx.GetHeader("X-Request-Id"); id != "" {
		return id
	}
	uid, err := uuid.NewV4()
	if err != nil {
		return "unknown"
	}
	return uid.String()
}
