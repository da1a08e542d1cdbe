// Package api exposes the intake engine over REST.
package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"loan-intake/internal/common/logger"
	"loan-intake/internal/common/validation"
	"loan-intake/internal/intake/rules"
	"loan-intake/internal/models"
)

// Service is the engine surface the REST layer needs.
type Service interface {
	SubmitPersonal(ctx context.Context, in rules.PersonalInput, id string) (*models.Application, error)
	SubmitContact(ctx context.Context, id string, in rules.ContactInput) (*models.Application, error)
	SubmitLoan(ctx context.Context, id string, in rules.LoanInput) (*models.Application, error)
	SubmitFinancial(ctx context.Context, id string, in rules.FinancialInput) (*models.Application, error)
	Finalize(ctx context.Context, id string) (*models.Application, error)
	Get(ctx context.Context, id string) (*models.Application, error)
	ListAll(ctx context.Context) ([]*models.Application, error)
}

type Handler struct {
	service Service
	logger  logger.Logger
}

func NewHandler(service Service, log logger.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  log.WithFields(map[string]interface{}{"component": "api"}),
	}
}

// RegisterRoutes mounts the customer routes on router.
func (h *Handler) RegisterRoutes(router gin.IRouter) {
	customer := router.Group("/api/customer")
	{
		customer.GET("", h.ListApplications)
		customer.POST("/personal-info", h.SubmitPersonalInfo)
		customer.GET("/:uid", h.GetApplication)
		customer.PATCH("/:uid/contact-info", h.SubmitContactInfo)
		customer.PATCH("/:uid/loan-info", h.SubmitLoanInfo)
		customer.PATCH("/:uid/financial-info", h.SubmitFinancialInfo)
		customer.PATCH("/:uid/finalize", h.Finalize)
	}
}

// SubmitPersonalInfo creates an application, or updates the one named by ?uid=.
func (h *Handler) SubmitPersonalInfo(c *gin.Context) {
	var in rules.PersonalInput
	if !h.decode(c, "personalInfo", validation.PersonalInfoSchema, &in) {
		return
	}

	uid := c.Query("uid")
	app, err := h.service.SubmitPersonal(c.Request.Context(), in, uid)
	if err != nil {
		h.writeError(c, err)
		return
	}

	status := http.StatusOK
	if uid == "" {
		status = http.StatusCreated
	}
	c.JSON(status, app)
}

func (h *Handler) SubmitContactInfo(c *gin.Context) {
	var in rules.ContactInput
	if !h.decode(c, "contactInfo", validation.ContactInfoSchema, &in) {
		return
	}

	app, err := h.service.SubmitContact(c.Request.Context(), c.Param("uid"), in)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, app)
}

func (h *Handler) SubmitLoanInfo(c *gin.Context) {
	var in rules.LoanInput
	if !h.decode(c, "loanInfo", validation.LoanInfoSchema, &in) {
		return
	}

	app, err := h.service.SubmitLoan(c.Request.Context(), c.Param("uid"), in)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, app)
}

func (h *Handler) SubmitFinancialInfo(c *gin.Context) {
	var in rules.FinancialInput
	if !h.decode(c, "financialInfo", validation.FinancialInfoSchema, &in) {
		return
	}

	app, err := h.service.SubmitFinancial(c.Request.Context(), c.Param("uid"), in)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, app)
}

func (h *Handler) Finalize(c *gin.Context) {
	app, err := h.service.Finalize(c.Request.Context(), c.Param("uid"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, app)
}

func (h *Handler) GetApplication(c *gin.Context) {
	app, err := h.service.Get(c.Request.Context(), c.Param("uid"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, app)
}

func (h *Handler) ListApplications(c *gin.Context) {
	apps, err := h.service.ListAll(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	if apps == nil {
		apps = []*models.Application{}
	}
	c.JSON(http.StatusOK, apps)
}

// decode schema-checks the request body and decodes it into dst. It writes the error
// response itself and reports whether the handler may continue.
func (h *Handler) decode(c *gin.Context, field string, schema validation.JSONSchema, dst interface{}) bool {
	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "INPUT_PARSING_FAILED", "message": err.Error()})
		return false
	}
	if err := validation.DecodeCategory(body, field, schema, dst); err != nil {
		h.writeError(c, err)
		return false
	}
	return true
}
