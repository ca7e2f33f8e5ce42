package domains

import (
	"context"

	"oip/autopurchase/internal/domains/handlers/purchase"
	"oip/autopurchase/internal/framework"
)

// Dependencies are the services handlers may use
type Dependencies struct {
	Orchestrator purchase.Orchestrator
}

// HandlerFactory builds the handler of one action type
type HandlerFactory func(ctx context.Context, base *framework.BaseHandler, deps *Dependencies) (framework.BusinessHandler, error)

// HandlerMap routes action types to handlers
var HandlerMap = map[string]HandlerFactory{
	purchase.ActionType: func(ctx context.Context, base *framework.BaseHandler, deps *Dependencies) (framework.BusinessHandler, error) {
		return purchase.NewHandler(ctx, base, deps.Orchestrator)
	},
}
