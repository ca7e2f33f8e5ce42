package purchase

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"

	"oip/autopurchase/internal/framework"
	"oip/autopurchase/internal/model"
	"oip/autopurchase/pkg/errorutil"
)

// ActionType routes auto purchase jobs to this handler
const ActionType = "order_auto_purchase"

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.SetTagName("binding")
	return v
}

// Orchestrator is the purchase entry point the handler drives
type Orchestrator interface {
	OrchestratePurchase(ctx context.Context, order *model.Order) *model.OrchestrationResult
}

// JobData is the business payload of an auto purchase job
type JobData struct {
	Order model.Order `json:"order" binding:"required"`
}

// Handler runs one queued order through the orchestrator
type Handler struct {
	*framework.BaseHandler
	orchestrator Orchestrator
	data         JobData
	result       *model.OrchestrationResult
}

// NewHandler creates a Handler for a parsed job
func NewHandler(ctx context.Context, base *framework.BaseHandler, orchestrator Orchestrator) (framework.BusinessHandler, error) {
	if orchestrator == nil {
		return nil, fmt.Errorf("orchestrator is required")
	}
	return &Handler{
		BaseHandler:  base,
		orchestrator: orchestrator,
	}, nil
}

// Handle runs PreProcess, Process and PostProcess in order
func (h *Handler) Handle(ctx context.Context) ([]byte, error) {
	chain := framework.NewPreProcessor(h.PreProcess, h.Process, h.PostProcess)
	if err := chain.Run(ctx); err != nil {
		data, wrapErr := h.WrapErrorResponse(ctx, err)
		if wrapErr != nil {
			return nil, wrapErr
		}
		return data, err
	}
	return h.WrapResponse(ctx, h.GetOutput())
}

// PreProcess decodes and validates the payload
func (h *Handler) PreProcess(ctx context.Context) error {
	if err := h.DecodePayload(&h.data); err != nil {
		return errorutil.NonRetriableWithCause(errorutil.CodeInvalidRequest, "invalid auto purchase payload", err)
	}
	if h.data.Order.ID == "" {
		if meta := h.GetMeta(); meta != nil {
			h.data.Order.ID = meta.ID
		}
	}
	if err := validate.Struct(&h.data); err != nil {
		return errorutil.NonRetriableWithCause(errorutil.CodeInvalidRequest, "auto purchase payload failed validation", err)
	}
	return nil
}

// Process runs the orchestration. A failed purchase is still a processed job.
func (h *Handler) Process(ctx context.Context) error {
	h.result = h.orchestrator.OrchestratePurchase(ctx, &h.data.Order)
	return nil
}

// PostProcess exposes the result as the job output
func (h *Handler) PostProcess(ctx context.Context) error {
	if h.result == nil {
		return errorutil.Retriable(errorutil.CodeInternal, "orchestration returned no result")
	}
	h.SetOutput(h.result)
	return nil
}
