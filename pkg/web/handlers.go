package web

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/clinicflow/clinicflow/pkg/engine"
	"github.com/clinicflow/clinicflow/pkg/history"
	"github.com/clinicflow/clinicflow/pkg/models"
	"github.com/clinicflow/clinicflow/pkg/persistence"
	"github.com/clinicflow/clinicflow/pkg/registry"
)

type APIHandlers struct {
	persistence persistence.Persistence
	engine      *engine.Engine
	history     *history.Service
	validator   *validator.Validate
	registry    *registry.Registry
}

func NewAPIHandlers(
	persistence persistence.Persistence,
	eng *engine.Engine,
	history *history.Service,
	validator *validator.Validate,
	registry *registry.Registry,
) *APIHandlers {
	return &APIHandlers{
		persistence: persistence,
		engine:      eng,
		history:     history,
		validator:   validator,
		registry:    registry,
	}
}

func (h *APIHandlers) GetWorkflows(c fiber.Ctx) error {
	workflows, err := h.persistence.Workflows(c.Context())
	if err != nil {
		return internalError(c, err)
	}

	if tenantID := c.Query("tenant_id"); tenantID != "" {
		filtered := make([]*models.Workflow, 0, len(workflows))

		for _, workflow := range workflows {
			if workflow.TenantID == tenantID {
				filtered = append(filtered, workflow)
			}
		}

		workflows = filtered
	}

	return c.JSON(fiber.Map{
		"workflows":   workflows,
		"total_count": len(workflows),
	})
}

func (h *APIHandlers) GetWorkflow(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	workflow, err := h.persistence.WorkflowByID(c.Context(), id)
	if err != nil {
		return handleEngineError(c, err)
	}

	return c.JSON(workflow)
}

func (h *APIHandlers) CreateWorkflow(c fiber.Ctx) error {
	var req CreateWorkflowRequest

	err := c.Bind().JSON(&req)
	if err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	err = h.validator.Struct(req)
	if err != nil {
		return badRequest(c, err.Error())
	}

	enabled := true
	if req.IsEnabled != nil {
		enabled = *req.IsEnabled
	}

	workflow := &models.Workflow{
		ID:            uuid.New().String(),
		TenantID:      req.TenantID,
		Name:          req.Name,
		Description:   req.Description,
		IsEnabled:     enabled,
		TriggerType:   models.TriggerType(req.TriggerType),
		TriggerConfig: req.TriggerConfig,
		StopOnError:   req.StopOnError,
		Actions:       buildActions("", req.Actions),
	}

	for _, action := range workflow.Actions {
		action.WorkflowID = workflow.ID
	}

	_, err = workflow.SortedActions()
	if err != nil {
		return badRequest(c, err.Error())
	}

	err = h.persistence.SaveWorkflow(c.Context(), workflow)
	if err != nil {
		return internalError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(workflow)
}

func (h *APIHandlers) UpdateWorkflow(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	var req UpdateWorkflowRequest

	err := c.Bind().JSON(&req)
	if err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	err = h.validator.Struct(req)
	if err != nil {
		return badRequest(c, err.Error())
	}

	existing, err := h.persistence.WorkflowByID(c.Context(), id)
	if err != nil {
		return handleEngineError(c, err)
	}

	if req.Name != nil {
		existing.Name = *req.Name
	}

	if req.Description != nil {
		existing.Description = *req.Description
	}

	if req.IsEnabled != nil {
		existing.IsEnabled = *req.IsEnabled
	}

	if req.TriggerType != nil {
		existing.TriggerType = models.TriggerType(*req.TriggerType)
	}

	if req.TriggerConfig != nil {
		existing.TriggerConfig = req.TriggerConfig
	}

	if req.StopOnError != nil {
		existing.StopOnError = *req.StopOnError
	}

	if req.Actions != nil {
		existing.Actions = buildActions(existing.ID, *req.Actions)
	}

	_, err = existing.SortedActions()
	if err != nil {
		return badRequest(c, err.Error())
	}

	err = h.persistence.SaveWorkflow(c.Context(), existing)
	if err != nil {
		return internalError(c, err)
	}

	return c.JSON(existing)
}

// DeleteWorkflow soft-disables the workflow. Definitions are never removed
// while execution history references them.
func (h *APIHandlers) DeleteWorkflow(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	workflow, err := h.persistence.WorkflowByID(c.Context(), id)
	if err != nil {
		return handleEngineError(c, err)
	}

	workflow.IsEnabled = false

	err = h.persistence.SaveWorkflow(c.Context(), workflow)
	if err != nil {
		return internalError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// FireWorkflow starts a new execution and returns without waiting for it.
func (h *APIHandlers) FireWorkflow(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	var req FireWorkflowRequest

	if len(c.Body()) > 0 {
		err := c.Bind().JSON(&req)
		if err != nil {
			return badRequest(c, "Invalid JSON format")
		}
	}

	execution, err := h.engine.Fire(c.Context(), id, req.TriggerData)
	if err != nil {
		return handleEngineError(c, err)
	}

	return c.Status(fiber.StatusAccepted).JSON(FireWorkflowResponse{
		ExecutionID: execution.ID,
		WorkflowID:  execution.WorkflowID,
		Status:      execution.Status,
	})
}

func (h *APIHandlers) GetExecution(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Execution ID is required")
	}

	execution, err := h.history.ExecutionByID(c.Context(), id)
	if err != nil {
		return handleEngineError(c, err)
	}

	return c.JSON(execution)
}

func (h *APIHandlers) GetWorkflowExecutions(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	opts, err := parseListExecutionsOptions(c)
	if err != nil {
		return badRequest(c, "Invalid query parameters: "+err.Error())
	}

	executions, err := h.history.ListExecutions(c.Context(), id, *opts)
	if err != nil {
		return handleEngineError(c, err)
	}

	return c.JSON(fiber.Map{
		"executions":  executions,
		"total_count": len(executions),
	})
}

func (h *APIHandlers) GetWorkflowStats(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	from, to, err := parseTimeRange(c)
	if err != nil {
		return badRequest(c, "Invalid time range: "+err.Error())
	}

	stats, err := h.history.WorkflowStats(c.Context(), id, from, to)
	if err != nil {
		return handleEngineError(c, err)
	}

	return c.JSON(stats)
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	status := "healthy"
	message := "Clinicflow API is healthy"
	httpStatus := http.StatusOK

	err := h.persistence.HealthCheck(c.Context())
	if err != nil {
		status = "unhealthy"
		message = "Clinicflow API is unhealthy: " + err.Error()
		httpStatus = http.StatusInternalServerError
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status":       status,
		"message":      message,
		"capabilities": h.registry.CapabilityTypes(),
		"timestamp":    time.Now().UTC(),
	})
}

func buildActions(workflowID string, requests []ActionRequest) []*models.WorkflowAction {
	actions := make([]*models.WorkflowAction, 0, len(requests))

	for _, req := range requests {
		actions = append(actions, &models.WorkflowAction{
			ID:           uuid.New().String(),
			WorkflowID:   workflowID,
			Name:         req.Name,
			Order:        req.Order,
			Type:         models.ActionType(req.Type),
			Config:       req.Config,
			Condition:    req.Condition,
			DelaySeconds: req.DelaySeconds,
		})
	}

	return actions
}

func parseListExecutionsOptions(c fiber.Ctx) (*persistence.ListExecutionsOptions, error) {
	opts := &persistence.ListExecutionsOptions{}

	if statusStr := c.Query("status"); statusStr != "" {
		status := models.ExecutionStatus(statusStr)
		opts.Status = &status
	}

	from, to, err := parseTimeRange(c)
	if err != nil {
		return nil, err
	}

	opts.From = from
	opts.To = to

	if limitStr := c.Query("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil {
			return nil, err
		}

		opts.Limit = limit
	}

	return opts, nil
}

func parseTimeRange(c fiber.Ctx) (*time.Time, *time.Time, error) {
	var from, to *time.Time

	if fromStr := c.Query("from"); fromStr != "" {
		parsed, err := time.Parse(time.RFC3339, fromStr)
		if err != nil {
			return nil, nil, err
		}

		from = &parsed
	}

	if toStr := c.Query("to"); toStr != "" {
		parsed, err := time.Parse(time.RFC3339, toStr)
		if err != nil {
			return nil, nil, err
		}

		to = &parsed
	}

	return from, to, nil
}
