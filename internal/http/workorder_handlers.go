package http

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/nurpe/engagements/internal/http/middleware"
	"github.com/nurpe/engagements/internal/model"
	"github.com/nurpe/engagements/internal/repository"
	"github.com/nurpe/engagements/internal/service"
)

type createWorkOrderRequest struct {
	Seeker            partyRequest          `json:"seeker" binding:"required"`
	Provider          partyRequest          `json:"provider" binding:"required"`
	ScopeOfWork       string                `json:"scope_of_work" binding:"required"`
	Deliverables      []string              `json:"deliverables"`
	StartAt           string                `json:"start_at" binding:"required"`
	ExpectedAt        string                `json:"expected_completion_at" binding:"required"`
	ProfessionalFee   int64                 `json:"professional_fee" binding:"required"`
	Reimbursements    int64                 `json:"reimbursements"`
	RegulatoryPayouts int64                 `json:"regulatory_payouts"`
	OPE               int64                 `json:"ope"`
	Schedule          []paymentStageRequest `json:"schedule" binding:"required"`
}

func (h *Handler) createWorkOrder(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	var req createWorkOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	seeker, err := req.Seeker.toModel()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid seeker"})
		return
	}
	provider, err := req.Provider.toModel()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid provider"})
		return
	}
	startAt, err := parseDate(req.StartAt)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid start_at"})
		return
	}
	expectedAt, err := parseDate(req.ExpectedAt)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid expected_completion_at"})
		return
	}
	schedule, err := parseSchedule(req.Schedule)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid schedule"})
		return
	}

	wo, err := h.orders.CreateDraft(c.Request.Context(), principal, service.CreateDraftInput{
		Seeker:            seeker,
		Provider:          provider,
		ScopeOfWork:       req.ScopeOfWork,
		Deliverables:      req.Deliverables,
		StartAt:           startAt,
		ExpectedAt:        expectedAt,
		ProfessionalFee:   req.ProfessionalFee,
		Reimbursements:    req.Reimbursements,
		RegulatoryPayouts: req.RegulatoryPayouts,
		OPE:               req.OPE,
		Schedule:          schedule,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, wo)
}

func (h *Handler) listWorkOrders(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	filter := repository.WorkOrderFilter{
		Reference: strings.TrimSpace(c.Query("reference")),
	}
	if raw := c.Query("status"); raw != "" {
		for _, status := range strings.Split(raw, ",") {
			filter.Statuses = append(filter.Statuses, model.WorkOrderStatus(strings.TrimSpace(status)))
		}
	}
	from, err := parseDate(c.Query("from"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid from"})
		return
	}
	to, err := parseDate(c.Query("to"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid to"})
		return
	}
	filter.From, filter.To = from, to
	filter.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	filter.Limit, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))

	orders, total, err := h.orders.List(c.Request.Context(), principal, filter)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"work_orders": orders, "total": total})
}

func (h *Handler) getWorkOrder(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	wo, err := h.orders.Get(c.Request.Context(), principal, id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, wo)
}

type recordPaymentRequest struct {
	Amount    int64  `json:"amount" binding:"required"`
	Method    string `json:"method"`
	Reference string `json:"reference"`
}

func (h *Handler) recordPayment(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req recordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	wo, err := h.orders.RecordPayment(c.Request.Context(), principal, id, service.RecordPaymentInput{
		Amount:    req.Amount,
		Method:    req.Method,
		Reference: req.Reference,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, wo)
}

type signRequest struct {
	SignatureType string `json:"signature_type" binding:"required"`
}

func (h *Handler) sign(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req signRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	wo, err := h.orders.Sign(c.Request.Context(), principal, id, model.SignatureType(req.SignatureType))
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, wo)
}

type raiseDisputeRequest struct {
	Reason      string `json:"reason" binding:"required"`
	Description string `json:"description"`
}

func (h *Handler) raiseDispute(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req raiseDisputeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	wo, err := h.orders.RaiseDispute(c.Request.Context(), principal, id, service.RaiseDisputeInput{
		Reason:      model.DisputeReason(req.Reason),
		Description: req.Description,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, wo)
}

type resolveDisputeRequest struct {
	Resolution string `json:"resolution" binding:"required"`
	Note       string `json:"note"`
}

func (h *Handler) resolveDispute(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	disputeID, ok := parseID(c, "disputeId")
	if !ok {
		return
	}
	var req resolveDisputeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	wo, err := h.orders.ResolveDispute(c.Request.Context(), principal, id, disputeID, service.Resolution(req.Resolution), req.Note)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, wo)
}

func (h *Handler) markComplete(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	wo, err := h.orders.MarkComplete(c.Request.Context(), principal, id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, wo)
}

type feeAdviceRequest struct {
	Amount      int64  `json:"amount" binding:"required"`
	Description string `json:"description" binding:"required"`
}

func (h *Handler) requestFeeAdvice(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req feeAdviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	wo, err := h.orders.RequestFeeAdvice(c.Request.Context(), principal, id, service.FeeAdviceInput{
		Amount:      req.Amount,
		Description: req.Description,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, wo)
}

func (h *Handler) acceptFeeAdvice(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	adviceID, ok := parseID(c, "adviceId")
	if !ok {
		return
	}
	wo, err := h.orders.AcceptFeeAdvice(c.Request.Context(), principal, id, adviceID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, wo)
}

type rejectFeeAdviceRequest struct {
	Reason string `json:"reason" binding:"required"`
}

func (h *Handler) rejectFeeAdvice(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	adviceID, ok := parseID(c, "adviceId")
	if !ok {
		return
	}
	var req rejectFeeAdviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	wo, err := h.orders.RejectFeeAdvice(c.Request.Context(), principal, id, adviceID, req.Reason)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, wo)
}

func (h *Handler) payFeeAdvice(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	adviceID, ok := parseID(c, "adviceId")
	if !ok {
		return
	}
	wo, err := h.orders.MarkFeeAdvicePaid(c.Request.Context(), principal, id, adviceID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, wo)
}

type addMilestoneRequest struct {
	Title        string `json:"title" binding:"required"`
	DeliveryDate string `json:"delivery_date" binding:"required"`
}

func (h *Handler) addMilestone(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req addMilestoneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	deliveryDate, err := parseDate(req.DeliveryDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid delivery_date"})
		return
	}
	wo, err := h.orders.AddMilestone(c.Request.Context(), principal, id, service.AddMilestoneInput{
		Title:        req.Title,
		DeliveryDate: deliveryDate,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, wo)
}

type updateMilestoneStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

func (h *Handler) updateMilestoneStatus(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	milestoneID, ok := parseID(c, "milestoneId")
	if !ok {
		return
	}
	var req updateMilestoneStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	wo, err := h.orders.UpdateMilestoneStatus(c.Request.Context(), principal, id, milestoneID, model.MilestoneStatus(req.Status))
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, wo)
}

type attachDocumentRequest struct {
	DocumentID string `json:"document_id" binding:"required"`
}

func (h *Handler) attachMilestoneDocument(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	milestoneID, ok := parseID(c, "milestoneId")
	if !ok {
		return
	}
	var req attachDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	documentID, err := uuidFromString(req.DocumentID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid document_id"})
		return
	}
	wo, err := h.orders.AttachMilestoneDocument(c.Request.Context(), principal, id, milestoneID, documentID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, wo)
}

type addCommentRequest struct {
	Message string `json:"message" binding:"required"`
}

func (h *Handler) addMilestoneComment(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	milestoneID, ok := parseID(c, "milestoneId")
	if !ok {
		return
	}
	var req addCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	wo, err := h.orders.AddMilestoneComment(c.Request.Context(), principal, id, milestoneID, req.Message)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, wo)
}

type feedbackRequest struct {
	Stage   string `json:"stage" binding:"required"`
	Rating  int    `json:"rating" binding:"required"`
	Summary string `json:"summary"`
}

func (h *Handler) provideFeedback(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req feedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	wo, err := h.orders.ProvideFeedback(c.Request.Context(), principal, id, service.FeedbackInput{
		Stage:   model.FeedbackStage(req.Stage),
		Rating:  req.Rating,
		Summary: req.Summary,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, wo)
}

type informationRequest struct {
	Subject string `json:"subject" binding:"required"`
	Message string `json:"message" binding:"required"`
}

func (h *Handler) requestInformation(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req informationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	wo, err := h.orders.RequestInformation(c.Request.Context(), principal, id, req.Subject, req.Message)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, wo)
}

type informationResponseRequest struct {
	Response string `json:"response" binding:"required"`
}

func (h *Handler) respondInformation(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	requestID, ok := parseID(c, "requestId")
	if !ok {
		return
	}
	var req informationResponseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	wo, err := h.orders.RespondInformation(c.Request.Context(), principal, id, requestID, req.Response)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, wo)
}

type teamMemberRequest struct {
	UserID string `json:"user_id" binding:"required"`
	Name   string `json:"name" binding:"required"`
	Role   string `json:"role"`
}

func (h *Handler) addTeamMember(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req teamMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	userID, err := uuidFromString(req.UserID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user_id"})
		return
	}
	wo, err := h.orders.AddTeamMember(c.Request.Context(), principal, id, model.TeamMember{
		UserID: userID,
		Name:   req.Name,
		Role:   req.Role,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, wo)
}

func (h *Handler) removeTeamMember(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	userID, ok := parseID(c, "userId")
	if !ok {
		return
	}
	wo, err := h.orders.RemoveTeamMember(c.Request.Context(), principal, id, userID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, wo)
}

func (h *Handler) downloadProforma(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	wo, err := h.orders.Get(c.Request.Context(), principal, id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	content, err := h.pdf.Proforma(wo)
	if err != nil {
		h.handleError(c, err)
		return
	}

	fileName := fmt.Sprintf("%s-proforma.pdf", strings.ToLower(wo.Reference))
	c.Header("Content-Disposition", "attachment; filename=\""+fileName+"\"")
	c.Data(http.StatusOK, "application/pdf", content)
}

func (h *Handler) downloadLedgerStatement(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	wo, err := h.orders.Get(c.Request.Context(), principal, id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	content, err := h.excel.LedgerStatement(wo)
	if err != nil {
		h.handleError(c, err)
		return
	}

	fileName := fmt.Sprintf("%s-ledger.xlsx", strings.ToLower(wo.Reference))
	c.Header("Content-Disposition", "attachment; filename=\""+fileName+"\"")
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", content)
}
