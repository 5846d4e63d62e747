package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/alexroche/boutique/internal/domain/contact"
	"github.com/alexroche/boutique/internal/jobs"
	"github.com/alexroche/boutique/internal/repo/postgres"
	"github.com/gin-gonic/gin"
)

type ContactsStore interface {
	Create(ctx context.Context, req contact.CreateMessageRequest) (contact.Message, error)
	List(ctx context.Context) ([]contact.Message, error)
	Delete(ctx context.Context, id string) error
}

type JobEnqueuer interface {
	Enqueue(ctx context.Context, j jobs.Job) error
}

type ContactsHandler struct {
	repo  ContactsStore
	queue JobEnqueuer
	log   *slog.Logger
}

// queue may be nil; acknowledgements are then skipped entirely.
func NewContactsHandler(repo ContactsStore, queue JobEnqueuer, log *slog.Logger) *ContactsHandler {
	return &ContactsHandler{
		repo:  repo,
		queue: queue,
		log:   log,
	}
}

func (h *ContactsHandler) Ping(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"response": "Contact API is running"})
}

func (h *ContactsHandler) Create(ctx *gin.Context) {
	var req contact.CreateMessageRequest

	if !BindJSON(ctx, CodeValidationError, &req) {
		return
	}

	if !contact.ValidPhone(req.Phone) {
		RespondBadRequest(ctx, CodeValidationError, "Invalid request body", gin.H{
			"fields": []FieldError{
				{Field: "phone", Rule: "phone", Message: "must be a valid French phone number"},
			},
		})
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	m, err := h.repo.Create(cctx, req)

	if err != nil {
		h.log.ErrorContext(cctx, "contact creation failed", "err", err)
		RespondInternal(ctx, "Could not store message")
		return
	}

	h.enqueueAck(ctx, m)

	ctx.JSON(http.StatusCreated, gin.H{
		"code":    "MESSAGE_RECEIVED",
		"message": "Message received successfully",
	})
}

// enqueueAck hands the acknowledgement off to the worker. Best effort: a
// queue failure is logged, never surfaced — the message itself is stored.
func (h *ContactsHandler) enqueueAck(ctx *gin.Context, m contact.Message) {
	if h.queue == nil {
		return
	}

	payload, err := jobs.EncodePayload(jobs.JobSendContactAck, jobs.SendContactAckPayload{
		ContactID: m.ID,
		Email:     m.Email,
		Fullname:  m.Fullname,
		Subject:   m.Subject,
		RequestID: requestIDFrom(ctx),
	})

	if err != nil {
		h.log.Error("contact ack payload encoding failed", "err", err)
		return
	}

	j, err := jobs.NewJob(jobs.JobSendContactAck, payload)

	if err != nil {
		h.log.Error("contact ack job build failed", "err", err)
		return
	}

	if err := h.queue.Enqueue(ctx.Request.Context(), j); err != nil {
		h.log.Error("contact ack enqueue failed", "job_id", j.ID, "err", err)
	}
}

func (h *ContactsHandler) GetAll(ctx *gin.Context) {
	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	messages, err := h.repo.List(cctx)

	if err != nil {
		h.log.ErrorContext(cctx, "contact listing failed", "err", err)
		RespondInternal(ctx, "Could not list messages")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"items": messages,
		"count": len(messages),
	})
}

func (h *ContactsHandler) Delete(ctx *gin.Context) {
	id := ctx.Param("id")

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	err := h.repo.Delete(cctx, id)

	if err != nil {
		if errors.Is(err, postgres.ErrContactNotFound) {
			RespondNotFound(ctx, CodeNotFound, "Message not found")
			return
		}

		h.log.ErrorContext(cctx, "contact deletion failed", "err", err)
		RespondInternal(ctx, "Could not delete message")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"code": "MESSAGE_DELETED"})
}
