package http

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/nurpe/engagements/internal/excel"
	"github.com/nurpe/engagements/internal/pdf"
	"github.com/nurpe/engagements/internal/service"
)

type Handler struct {
	bids         *service.BidService
	negotiations *service.NegotiationService
	orders       *service.WorkOrderService
	pdf          *pdf.Generator
	excel        *excel.Generator
	log          zerolog.Logger
}

func NewHandler(
	bids *service.BidService,
	negotiations *service.NegotiationService,
	orders *service.WorkOrderService,
	pdfGen *pdf.Generator,
	excelGen *excel.Generator,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		bids:         bids,
		negotiations: negotiations,
		orders:       orders,
		pdf:          pdfGen,
		excel:        excelGen,
		log:          log,
	}
}

func (h *Handler) Register(router *gin.Engine, authMiddleware gin.HandlerFunc) {
	protected := router.Group("/")
	protected.Use(authMiddleware)

	protected.POST("/bids", h.submitBid)
	protected.GET("/bids/:id", h.getBid)
	protected.GET("/service-requests/:id/bids", h.listBids)
	protected.POST("/bids/:id/accept", h.acceptBid)
	protected.POST("/bids/:id/reject", h.rejectBid)
	protected.POST("/bids/:id/renegotiate", h.renegotiateBid)
	protected.POST("/bids/accept", h.acceptBids)
	protected.POST("/bids/reject", h.rejectBids)
	protected.POST("/bids/renegotiate", h.renegotiateBids)
	protected.POST("/bids/:id/queries", h.postQuery)
	protected.POST("/bids/:id/queries/:queryId/replies", h.postReply)

	protected.GET("/negotiations/:id", h.getNegotiation)
	protected.POST("/negotiations/:id/inputs", h.postNegotiationInput)
	protected.POST("/negotiations/:id/complete", h.completeNegotiation)
	protected.POST("/negotiations/:id/cancel", h.cancelNegotiation)

	protected.POST("/work-orders", h.createWorkOrder)
	protected.GET("/work-orders", h.listWorkOrders)
	protected.GET("/work-orders/:id", h.getWorkOrder)
	protected.POST("/work-orders/:id/payments", h.recordPayment)
	protected.POST("/work-orders/:id/sign", h.sign)
	protected.POST("/work-orders/:id/disputes", h.raiseDispute)
	protected.POST("/work-orders/:id/disputes/:disputeId/resolve", h.resolveDispute)
	protected.POST("/work-orders/:id/complete", h.markComplete)
	protected.POST("/work-orders/:id/fee-advices", h.requestFeeAdvice)
	protected.POST("/work-orders/:id/fee-advices/:adviceId/accept", h.acceptFeeAdvice)
	protected.POST("/work-orders/:id/fee-advices/:adviceId/reject", h.rejectFeeAdvice)
	protected.POST("/work-orders/:id/fee-advices/:adviceId/pay", h.payFeeAdvice)
	protected.POST("/work-orders/:id/milestones", h.addMilestone)
	protected.PATCH("/work-orders/:id/milestones/:milestoneId/status", h.updateMilestoneStatus)
	protected.POST("/work-orders/:id/milestones/:milestoneId/documents", h.attachMilestoneDocument)
	protected.POST("/work-orders/:id/milestones/:milestoneId/comments", h.addMilestoneComment)
	protected.POST("/work-orders/:id/feedback", h.provideFeedback)
	protected.POST("/work-orders/:id/information-requests", h.requestInformation)
	protected.POST("/work-orders/:id/information-requests/:requestId/respond", h.respondInformation)
	protected.POST("/work-orders/:id/team-members", h.addTeamMember)
	protected.DELETE("/work-orders/:id/team-members/:userId", h.removeTeamMember)
	protected.GET("/work-orders/:id/proforma", h.downloadProforma)
	protected.GET("/work-orders/:id/ledger-statement", h.downloadLedgerStatement)
}

func (h *Handler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrPermissionDenied):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidTransition):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		h.log.Error().Err(err).Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func parseID(c *gin.Context, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(strings.TrimSpace(c.Param(param)))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + param})
		return uuid.Nil, false
	}
	return id, true
}

func uuidFromString(raw string) (uuid.UUID, error) {
	return uuid.Parse(strings.TrimSpace(raw))
}

func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	layouts := []string{
		time.RFC3339,
		"2006-01-02",
		"2006-01-02T15:04:05",
	}
	for _, layout := range layouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, errors.New("invalid date")
}
