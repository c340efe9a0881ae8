package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sjperalta/payroll-ledger-api/internal/middleware"
	"github.com/sjperalta/payroll-ledger-api/internal/models"
	"github.com/sjperalta/payroll-ledger-api/internal/repository"
	"github.com/sjperalta/payroll-ledger-api/internal/services"
)

type LedgerHandler struct {
	ledgerService *services.LedgerService
	exportService *services.ExportService
}

func NewLedgerHandler(ledgerService *services.LedgerService, exportService *services.ExportService) *LedgerHandler {
	return &LedgerHandler{
		ledgerService: ledgerService,
		exportService: exportService,
	}
}

// PeriodRequest identifies a cutoff period in a request body
type PeriodRequest struct {
	Year   int    `json:"year" binding:"required"`
	Month  int    `json:"month" binding:"required,min=1,max=12"`
	Cutoff string `json:"cutoff" binding:"required"`
}

// CreateEntryRequest creates an entry from the employee's default template
type CreateEntryRequest struct {
	EmployeeID uint `json:"employee_id" binding:"required"`
	PeriodRequest
}

// PatchCellRequest edits one cell of the grid, creating the entry if needed
type PatchCellRequest struct {
	EmployeeID uint        `json:"employee_id" binding:"required"`
	Field      string      `json:"field" binding:"required"`
	Value      AmountInput `json:"value"`
	PeriodRequest
}

// PatchEntryRequest sets one field of an existing entry
type PatchEntryRequest struct {
	Field string      `json:"field" binding:"required"`
	Value AmountInput `json:"value"`
}

// EntryIDsRequest lists the entries of a bulk operation
type EntryIDsRequest struct {
	IDs []uint `json:"ids" binding:"max=5000"`
}

// category resolves the :category route segment; unknown ledgers are 404
func category(c *gin.Context) (models.Category, bool) {
	cat, err := models.ParseCategory(c.Param("category"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error(), "code": "not_found"})
		return "", false
	}
	return cat, true
}

// period parses and validates year, month and cutoff
func period(c *gin.Context, year, month int, label string) (models.CutoffPeriod, bool) {
	pr, err := models.ResolvePeriod(year, month, label)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "validation_error"})
		return models.CutoffPeriod{}, false
	}
	return pr.CutoffPeriod, true
}

// queryPeriod reads the period from ?year=&month=&cutoff=
func queryPeriod(c *gin.Context) (models.CutoffPeriod, bool) {
	year, errY := strconv.Atoi(c.Query("year"))
	month, errM := strconv.Atoi(c.Query("month"))
	if errY != nil || errM != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "year and month are required numeric query parameters", "code": "validation_error"})
		return models.CutoffPeriod{}, false
	}
	return period(c, year, month, c.Query("cutoff"))
}

func entryIDParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("entry_id"), 10, 32)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid entry id", "code": "validation_error"})
		return 0, false
	}
	return uint(id), true
}

// ledgerQuery builds the list query from query parameters
func ledgerQuery(c *gin.Context, cat models.Category, p models.CutoffPeriod) *repository.LedgerQuery {
	query := repository.NewListQuery()
	query.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	query.PerPage, _ = strconv.Atoi(c.DefaultQuery("per_page", "50"))
	query.Search = c.Query("search")
	query.SortBy = c.Query("sort_by")
	query.SortDir = c.Query("sort_dir")

	return &repository.LedgerQuery{
		ListQuery:  query,
		Category:   cat,
		Period:     p,
		Department: c.Query("department"),
		Status:     c.DefaultQuery("status", repository.StatusFilterAll),
	}
}

// @Summary List Ledger
// @Description Paginated active employees with their entry for the cutoff period (entry is null when none exists)
// @Tags Ledger
// @Produce json
// @Param category path string true "benefits or deductions"
// @Param year query int true "Year"
// @Param month query int true "Month (1-12)"
// @Param cutoff query string true "first or second"
// @Param search query string false "Search by name, employee number or department"
// @Param department query string false "Filter by department"
// @Param status query string false "all, posted, pending or no_data"
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Items per page" default(50)
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]string
// @Security BearerAuth
// @Router /ledgers/{category} [get]
func (h *LedgerHandler) Index(c *gin.Context) {
	cat, ok := category(c)
	if !ok {
		return
	}
	p, ok := queryPeriod(c)
	if !ok {
		return
	}

	query := ledgerQuery(c, cat, p)
	rows, total, err := h.ledgerService.List(c.Request.Context(), query)
	if err != nil {
		respondError(c, err)
		return
	}

	responses := make([]models.LedgerRowResponse, 0, len(rows))
	for i := range rows {
		responses = append(responses, rows[i].ToResponse())
	}

	c.JSON(http.StatusOK, gin.H{
		"category": cat,
		"period":   p,
		"fields":   cat.Fields(),
		"rows":     responses,
		"pagination": gin.H{
			"page":        query.Page,
			"per_page":    query.PerPage,
			"total":       total,
			"total_pages": query.TotalPages(total),
		},
	})
}

// @Summary Ledger Status Counts
// @Description Counts of entries for the period; employees without an entry are excluded
// @Tags Ledger
// @Produce json
// @Param category path string true "benefits or deductions"
// @Param year query int true "Year"
// @Param month query int true "Month (1-12)"
// @Param cutoff query string true "first or second"
// @Success 200 {object} models.StatusCounts
// @Failure 400 {object} map[string]string
// @Security BearerAuth
// @Router /ledgers/{category}/status [get]
func (h *LedgerHandler) Status(c *gin.Context) {
	cat, ok := category(c)
	if !ok {
		return
	}
	p, ok := queryPeriod(c)
	if !ok {
		return
	}

	counts, err := h.ledgerService.StatusCounts(c.Request.Context(), cat, p)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, counts)
}

// @Summary Export Ledger
// @Description Download every row matching the filters as an XLSX sheet
// @Tags Ledger
// @Produce application/octet-stream
// @Param category path string true "benefits or deductions"
// @Param year query int true "Year"
// @Param month query int true "Month (1-12)"
// @Param cutoff query string true "first or second"
// @Success 200 {file} file
// @Security BearerAuth
// @Router /ledgers/{category}/export [get]
func (h *LedgerHandler) Export(c *gin.Context) {
	cat, ok := category(c)
	if !ok {
		return
	}
	p, ok := queryPeriod(c)
	if !ok {
		return
	}

	data, filename, err := h.exportService.ExportXLSX(c.Request.Context(), ledgerQuery(c, cat, p))
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}

// @Summary Create Entry From Default
// @Description Returns the employee's entry for the period, creating it from the default template when absent
// @Tags Ledger
// @Accept json
// @Produce json
// @Param category path string true "benefits or deductions"
// @Param request body CreateEntryRequest true "Employee and period"
// @Success 201 {object} models.AdjustmentEntryResponse
// @Success 200 {object} models.AdjustmentEntryResponse
// @Failure 400 {object} map[string]string
// @Security BearerAuth
// @Router /ledgers/{category}/entries [post]
func (h *LedgerHandler) CreateEntry(c *gin.Context) {
	cat, ok := category(c)
	if !ok {
		return
	}
	var req CreateEntryRequest
	if !bindRequest(c, "entry", &req) {
		return
	}
	p, ok := period(c, req.Year, req.Month, req.Cutoff)
	if !ok {
		return
	}

	entry, created, err := h.ledgerService.CreateFromDefault(c.Request.Context(), req.EmployeeID, cat, p, middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, gin.H{"entry": entry.ToResponse(), "created": created})
}

// @Summary Edit Cell
// @Description Sets one field for an employee and period, creating the entry from the default template on first edit
// @Tags Ledger
// @Accept json
// @Produce json
// @Param category path string true "benefits or deductions"
// @Param request body PatchCellRequest true "Cell"
// @Success 200 {object} models.AdjustmentEntryResponse
// @Failure 400 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Security BearerAuth
// @Router /ledgers/{category}/cells [put]
func (h *LedgerHandler) PatchCell(c *gin.Context) {
	cat, ok := category(c)
	if !ok {
		return
	}
	var req PatchCellRequest
	if !bindRequest(c, "cell", &req) {
		return
	}
	p, ok := period(c, req.Year, req.Month, req.Cutoff)
	if !ok {
		return
	}

	entry, err := h.ledgerService.PatchCell(c.Request.Context(), req.EmployeeID, cat, p, req.Field, string(req.Value), middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entry": entry.ToResponse()})
}

// @Summary Patch Entry Field
// @Description Sets a single field of an unposted entry
// @Tags Ledger
// @Accept json
// @Produce json
// @Param category path string true "benefits or deductions"
// @Param entry_id path int true "Entry ID"
// @Param request body PatchEntryRequest true "Field and value"
// @Success 200 {object} models.AdjustmentEntryResponse
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Security BearerAuth
// @Router /ledgers/{category}/entries/{entry_id} [patch]
func (h *LedgerHandler) PatchEntry(c *gin.Context) {
	cat, ok := category(c)
	if !ok {
		return
	}
	id, ok := entryIDParam(c)
	if !ok {
		return
	}
	var req PatchEntryRequest
	if !bindRequest(c, "entry", &req) {
		return
	}

	entry, err := h.ledgerService.PatchField(c.Request.Context(), cat, id, req.Field, string(req.Value))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entry": entry.ToResponse()})
}

// @Summary Post Entry
// @Description Locks the entry for payroll; posted entries can no longer change
// @Tags Ledger
// @Produce json
// @Param category path string true "benefits or deductions"
// @Param entry_id path int true "Entry ID"
// @Success 200 {object} models.AdjustmentEntryResponse
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Security BearerAuth
// @Router /ledgers/{category}/entries/{entry_id}/post [post]
func (h *LedgerHandler) PostEntry(c *gin.Context) {
	cat, ok := category(c)
	if !ok {
		return
	}
	id, ok := entryIDParam(c)
	if !ok {
		return
	}

	entry, err := h.ledgerService.Post(c.Request.Context(), cat, id, middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entry": entry.ToResponse()})
}

// @Summary Set Entry As Default
// @Description Copies the entry's values into the employee's default template
// @Tags Ledger
// @Produce json
// @Param category path string true "benefits or deductions"
// @Param entry_id path int true "Entry ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Security BearerAuth
// @Router /ledgers/{category}/entries/{entry_id}/set_default [post]
func (h *LedgerHandler) SetDefault(c *gin.Context) {
	cat, ok := category(c)
	if !ok {
		return
	}
	id, ok := entryIDParam(c)
	if !ok {
		return
	}

	tmpl, entry, err := h.ledgerService.SetDefault(c.Request.Context(), cat, id, middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"template": tmpl.ToResponse(),
		"entry":    entry.ToResponse(),
	})
}

// @Summary Get Default Template
// @Tags Ledger
// @Produce json
// @Param category path string true "benefits or deductions"
// @Param employee_id path int true "Employee ID"
// @Success 200 {object} models.DefaultTemplateResponse
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /ledgers/{category}/templates/{employee_id} [get]
func (h *LedgerHandler) ShowTemplate(c *gin.Context) {
	cat, ok := category(c)
	if !ok {
		return
	}
	employeeID, err := strconv.ParseUint(c.Param("employee_id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid employee id", "code": "validation_error"})
		return
	}

	tmpl, err := h.ledgerService.GetTemplate(c.Request.Context(), uint(employeeID), cat)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"template": tmpl.ToResponse()})
}

// @Summary Bulk Create Entries
// @Description Creates entries from default templates for every active employee without one; safe to re-run
// @Tags Ledger Bulk
// @Accept json
// @Produce json
// @Param category path string true "benefits or deductions"
// @Param request body PeriodRequest true "Period"
// @Success 200 {object} services.BulkCreateResult
// @Security BearerAuth
// @Router /ledgers/{category}/bulk_create [post]
func (h *LedgerHandler) BulkCreate(c *gin.Context) {
	cat, ok := category(c)
	if !ok {
		return
	}
	var req PeriodRequest
	if !bindRequest(c, "period", &req) {
		return
	}
	p, ok := period(c, req.Year, req.Month, req.Cutoff)
	if !ok {
		return
	}

	result, err := h.ledgerService.BulkCreate(c.Request.Context(), cat, p, middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// @Summary Bulk Post Entries
// @Description Posts the listed entries; already posted and missing entries are skipped
// @Tags Ledger Bulk
// @Accept json
// @Produce json
// @Param category path string true "benefits or deductions"
// @Param request body EntryIDsRequest true "Entry IDs"
// @Success 200 {object} services.BulkPostResult
// @Security BearerAuth
// @Router /ledgers/{category}/bulk_post [post]
func (h *LedgerHandler) BulkPost(c *gin.Context) {
	cat, ok := category(c)
	if !ok {
		return
	}
	var req EntryIDsRequest
	if !bindRequest(c, "entries", &req) {
		return
	}

	result, err := h.ledgerService.BulkPost(c.Request.Context(), cat, req.IDs, middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// @Summary Post All Entries
// @Description Posts every pending entry of the period
// @Tags Ledger Bulk
// @Accept json
// @Produce json
// @Param category path string true "benefits or deductions"
// @Param request body PeriodRequest true "Period"
// @Success 200 {object} services.BulkPostResult
// @Security BearerAuth
// @Router /ledgers/{category}/post_all [post]
func (h *LedgerHandler) PostAll(c *gin.Context) {
	cat, ok := category(c)
	if !ok {
		return
	}
	var req PeriodRequest
	if !bindRequest(c, "period", &req) {
		return
	}
	p, ok := period(c, req.Year, req.Month, req.Cutoff)
	if !ok {
		return
	}

	result, err := h.ledgerService.PostAll(c.Request.Context(), cat, p, middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// @Summary Bulk Set Default
// @Description Promotes each listed entry into its employee's default template; missing and posted entries are skipped
// @Tags Ledger Bulk
// @Accept json
// @Produce json
// @Param category path string true "benefits or deductions"
// @Param request body EntryIDsRequest true "Entry IDs"
// @Success 200 {object} services.BulkSetDefaultResult
// @Security BearerAuth
// @Router /ledgers/{category}/bulk_set_default [post]
func (h *LedgerHandler) BulkSetDefault(c *gin.Context) {
	cat, ok := category(c)
	if !ok {
		return
	}
	var req EntryIDsRequest
	if !bindRequest(c, "entries", &req) {
		return
	}

	result, err := h.ledgerService.BulkSetDefault(c.Request.Context(), cat, req.IDs, middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
