package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/nurpe/engagements/internal/http/middleware"
	"github.com/nurpe/engagements/internal/model"
	"github.com/nurpe/engagements/internal/service"
)

type bidderRequest struct {
	UserID      string `json:"user_id" binding:"required"`
	OrgID       string `json:"org_id" binding:"required"`
	Name        string `json:"name" binding:"required"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	TaxID       string `json:"tax_id"`
	Credentials string `json:"credentials"`
}

type submitBidRequest struct {
	ServiceRequestID  string        `json:"service_request_id" binding:"required"`
	Bidder            bidderRequest `json:"bidder" binding:"required"`
	ProfessionalFee   int64         `json:"professional_fee" binding:"required"`
	Reimbursements    int64         `json:"reimbursements"`
	RegulatoryPayouts int64         `json:"regulatory_payouts"`
	OPE               int64         `json:"ope"`
	DeliveryDate      string        `json:"delivery_date" binding:"required"`
}

func (h *Handler) submitBid(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	var req submitBidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	serviceRequestID, err := uuid.Parse(strings.TrimSpace(req.ServiceRequestID))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid service_request_id"})
		return
	}
	bidderUserID, err := uuid.Parse(strings.TrimSpace(req.Bidder.UserID))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid bidder user_id"})
		return
	}
	bidderOrgID, err := uuid.Parse(strings.TrimSpace(req.Bidder.OrgID))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid bidder org_id"})
		return
	}
	deliveryDate, err := parseDate(req.DeliveryDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid delivery_date"})
		return
	}

	bid, err := h.bids.Submit(c.Request.Context(), principal, service.SubmitBidInput{
		ServiceRequestID: serviceRequestID,
		Bidder: model.BidderProfile{
			UserID:      bidderUserID,
			OrgID:       bidderOrgID,
			Name:        req.Bidder.Name,
			Email:       req.Bidder.Email,
			Phone:       req.Bidder.Phone,
			TaxID:       req.Bidder.TaxID,
			Credentials: req.Bidder.Credentials,
		},
		ProfessionalFee:   req.ProfessionalFee,
		Reimbursements:    req.Reimbursements,
		RegulatoryPayouts: req.RegulatoryPayouts,
		OPE:               req.OPE,
		DeliveryDate:      deliveryDate,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, bid)
}

func (h *Handler) getBid(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	bid, err := h.bids.Get(c.Request.Context(), principal, id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, bid)
}

func (h *Handler) listBids(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	bids, err := h.bids.ListByServiceRequest(c.Request.Context(), principal, id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bids": bids})
}

type partyRequest struct {
	UserID string `json:"user_id" binding:"required"`
	OrgID  string `json:"org_id" binding:"required"`
	Name   string `json:"name" binding:"required"`
	Email  string `json:"email"`
	Phone  string `json:"phone"`
	TaxID  string `json:"tax_id"`
}

func (p partyRequest) toModel() (model.Party, error) {
	userID, err := uuid.Parse(strings.TrimSpace(p.UserID))
	if err != nil {
		return model.Party{}, err
	}
	orgID, err := uuid.Parse(strings.TrimSpace(p.OrgID))
	if err != nil {
		return model.Party{}, err
	}
	return model.Party{
		UserID: userID,
		OrgID:  orgID,
		Name:   p.Name,
		Email:  p.Email,
		Phone:  p.Phone,
		TaxID:  p.TaxID,
	}, nil
}

type paymentStageRequest struct {
	Label   string  `json:"label" binding:"required"`
	Percent float64 `json:"percent" binding:"required"`
	Upfront bool    `json:"upfront"`
	DueDate string  `json:"due_date" binding:"required"`
}

func parseSchedule(stages []paymentStageRequest) ([]model.PaymentStage, error) {
	schedule := make([]model.PaymentStage, 0, len(stages))
	for _, stage := range stages {
		due, err := parseDate(stage.DueDate)
		if err != nil {
			return nil, err
		}
		schedule = append(schedule, model.PaymentStage{
			Label:   stage.Label,
			Percent: stage.Percent,
			Upfront: stage.Upfront,
			DueDate: due,
		})
	}
	return schedule, nil
}

type acceptBidRequest struct {
	Seeker       partyRequest          `json:"seeker" binding:"required"`
	ScopeOfWork  string                `json:"scope_of_work" binding:"required"`
	Deliverables []string              `json:"deliverables"`
	StartAt      string                `json:"start_at"`
	Schedule     []paymentStageRequest `json:"schedule" binding:"required"`
}

func (r acceptBidRequest) toInput() (service.AcceptBidInput, error) {
	seeker, err := r.Seeker.toModel()
	if err != nil {
		return service.AcceptBidInput{}, err
	}
	startAt, err := parseDate(r.StartAt)
	if err != nil {
		return service.AcceptBidInput{}, err
	}
	if startAt.IsZero() {
		startAt = time.Now().UTC()
	}
	schedule, err := parseSchedule(r.Schedule)
	if err != nil {
		return service.AcceptBidInput{}, err
	}
	return service.AcceptBidInput{
		Seeker:       seeker,
		ScopeOfWork:  r.ScopeOfWork,
		Deliverables: r.Deliverables,
		StartAt:      startAt,
		Schedule:     schedule,
	}, nil
}

func (h *Handler) acceptBid(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req acceptBidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	input, err := req.toInput()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	bid, wo, err := h.bids.Accept(c.Request.Context(), principal, id, input)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bid": bid, "work_order": wo})
}

func (h *Handler) rejectBid(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	bid, err := h.bids.Reject(c.Request.Context(), principal, id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, bid)
}

func (h *Handler) renegotiateBid(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	bid, thread, err := h.bids.Renegotiate(c.Request.Context(), principal, id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bid": bid, "negotiation_thread": thread})
}

type bulkBidRequest struct {
	BidIDs []string `json:"bid_ids" binding:"required,min=1"`
}

func parseBulkIDs(raw []string) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(raw))
	for _, item := range raw {
		id, err := uuid.Parse(strings.TrimSpace(item))
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

type bulkOutcomeResponse struct {
	BidID       string  `json:"bid_id"`
	Succeeded   bool    `json:"succeeded"`
	WorkOrderID *string `json:"work_order_id,omitempty"`
	Error       string  `json:"error,omitempty"`
}

func toBulkResponse(outcomes []service.BulkOutcome) []bulkOutcomeResponse {
	result := make([]bulkOutcomeResponse, 0, len(outcomes))
	for _, outcome := range outcomes {
		item := bulkOutcomeResponse{
			BidID:     outcome.BidID.String(),
			Succeeded: outcome.Err == nil,
		}
		if outcome.Err != nil {
			item.Error = outcome.Err.Error()
		}
		if outcome.WorkOrderID != nil {
			woID := outcome.WorkOrderID.String()
			item.WorkOrderID = &woID
		}
		result = append(result, item)
	}
	return result
}

type bulkAcceptRequest struct {
	BidIDs []string         `json:"bid_ids" binding:"required,min=1"`
	Terms  acceptBidRequest `json:"terms" binding:"required"`
}

func (h *Handler) acceptBids(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	var req bulkAcceptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ids, err := parseBulkIDs(req.BidIDs)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid bid id"})
		return
	}
	input, err := req.Terms.toInput()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	outcomes := h.bids.AcceptMany(c.Request.Context(), principal, ids, input)
	c.JSON(http.StatusOK, gin.H{"results": toBulkResponse(outcomes)})
}

func (h *Handler) rejectBids(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	var req bulkBidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ids, err := parseBulkIDs(req.BidIDs)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid bid id"})
		return
	}
	outcomes := h.bids.RejectMany(c.Request.Context(), principal, ids)
	c.JSON(http.StatusOK, gin.H{"results": toBulkResponse(outcomes)})
}

func (h *Handler) renegotiateBids(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	var req bulkBidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ids, err := parseBulkIDs(req.BidIDs)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid bid id"})
		return
	}
	outcomes := h.bids.RenegotiateMany(c.Request.Context(), principal, ids)
	c.JSON(http.StatusOK, gin.H{"results": toBulkResponse(outcomes)})
}

type postQueryRequest struct {
	Message string `json:"message" binding:"required"`
	Public  bool   `json:"public"`
}

func (h *Handler) postQuery(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req postQueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	bid, err := h.bids.PostQuery(c.Request.Context(), principal, id, req.Message, req.Public)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, bid)
}

func (h *Handler) postReply(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	queryID, ok := parseID(c, "queryId")
	if !ok {
		return
	}
	var req postQueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	bid, err := h.bids.PostReply(c.Request.Context(), principal, id, queryID, req.Message, req.Public)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, bid)
}

type negotiationInputRequest struct {
	Message         string               `json:"message"`
	ProposedChanges *proposedTermsRequest `json:"proposed_changes"`
	Attachments     []string             `json:"attachments"`
	ReasonCode      string               `json:"reason_code"`
}

type proposedTermsRequest struct {
	ProfessionalFee   int64  `json:"professional_fee" binding:"required"`
	Reimbursements    int64  `json:"reimbursements"`
	RegulatoryPayouts int64  `json:"regulatory_payouts"`
	OPE               int64  `json:"ope"`
	DeliveryDate      string `json:"delivery_date" binding:"required"`
}

func (r proposedTermsRequest) toModel() (model.ProposedTerms, error) {
	deliveryDate, err := parseDate(r.DeliveryDate)
	if err != nil {
		return model.ProposedTerms{}, err
	}
	return model.ProposedTerms{
		ProfessionalFee:   r.ProfessionalFee,
		Reimbursements:    r.Reimbursements,
		RegulatoryPayouts: r.RegulatoryPayouts,
		OPE:               r.OPE,
		DeliveryDate:      deliveryDate,
	}, nil
}

func (h *Handler) getNegotiation(c *gin.Context) {
	if _, ok := middleware.MustPrincipal(c); !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	thread, err := h.negotiations.Get(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, thread)
}

func (h *Handler) postNegotiationInput(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req negotiationInputRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	input := service.PostInputRequest{Message: req.Message, ReasonCode: req.ReasonCode}
	if req.ProposedChanges != nil {
		terms, err := req.ProposedChanges.toModel()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid proposed_changes"})
			return
		}
		input.ProposedChanges = &terms
	}
	attachments, err := parseBulkIDs(req.Attachments)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid attachment id"})
		return
	}
	input.Attachments = attachments

	thread, err := h.negotiations.PostInput(c.Request.Context(), principal, id, input)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, thread)
}

func (h *Handler) completeNegotiation(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req proposedTermsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	terms, err := req.toModel()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid delivery_date"})
		return
	}

	thread, agreed, err := h.negotiations.Complete(c.Request.Context(), principal, id, terms)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"thread": thread, "agreed_terms": agreed})
}

func (h *Handler) cancelNegotiation(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	thread, err := h.negotiations.Cancel(c.Request.Context(), principal, id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, thread)
}
