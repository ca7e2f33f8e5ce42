package domains

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/bitleak/lmstfy/client"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"oip/autopurchase/internal/framework"
	"oip/autopurchase/internal/model"
	"oip/autopurchase/pkg/lmstfyx"
	"oip/autopurchase/pkg/logger"
)

type fakeOrchestrator struct {
	orders []model.Order
	result *model.OrchestrationResult
	panics bool
}

func (f *fakeOrchestrator) OrchestratePurchase(ctx context.Context, order *model.Order) *model.OrchestrationResult {
	if f.panics {
		panic("orchestrator down")
	}
	f.orders = append(f.orders, *order)
	return f.result
}

func job(t *testing.T, actionType, id string, data interface{}) *client.Job {
	raw, err := json.Marshal(data)
	require.NoError(t, err)
	body, err := json.Marshal(framework.Job{Payload: &framework.JobPayload{Data: &framework.JobPayloadData{
		ActionType: actionType,
		ID:         id,
		Data:       raw,
	}}})
	require.NoError(t, err)
	return &client.Job{ID: "job-" + id, Queue: "auto_purchase", Data: body}
}

func validOrder() map[string]interface{} {
	return map[string]interface{}{
		"order": map[string]interface{}{
			"items":            []map[string]interface{}{{"sku": "SKU-1", "quantity": 2}},
			"shipping_address": map[string]interface{}{"country": "ES"},
		},
	}
}

func TestProcessAcksOrchestratedOrder(t *testing.T) {
	orch := &fakeOrchestrator{result: &model.OrchestrationResult{OrderID: "o-1", ProviderUsed: "amazon"}}
	proc := GetProcess(logger.NewNop(), &Dependencies{Orchestrator: orch})

	resp := proc(context.Background(), job(t, "order_auto_purchase", "o-1", validOrder()))

	require.Equal(t, lmstfyx.JobRespStatusSuccess, resp.Action)
	require.Len(t, orch.orders, 1)
	// id falls back to the job id
	assert.Equal(t, "o-1", orch.orders[0].ID)
	assert.Equal(t, 2, orch.orders[0].Items[0].Quantity)

	var out struct {
		Processed bool                      `json:"processed"`
		Result    model.OrchestrationResult `json:"result"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &out))
	assert.True(t, out.Processed)
	assert.Equal(t, "amazon", out.Result.ProviderUsed)
}

func TestProcessFailedPurchaseIsStillAcked(t *testing.T) {
	orch := &fakeOrchestrator{result: &model.OrchestrationResult{OrderID: "o-1", Error: "all item purchases failed"}}
	proc := GetProcess(logger.NewNop(), &Dependencies{Orchestrator: orch})

	resp := proc(context.Background(), job(t, "order_auto_purchase", "o-1", validOrder()))
	assert.Equal(t, lmstfyx.JobRespStatusSuccess, resp.Action)
}

func TestProcessBuriesBadJobs(t *testing.T) {
	orch := &fakeOrchestrator{result: &model.OrchestrationResult{}}
	proc := GetProcess(logger.NewNop(), &Dependencies{Orchestrator: orch})
	ctx := context.Background()

	garbage := &client.Job{ID: "junk", Data: []byte("not json")}
	assert.Equal(t, lmstfyx.JobRespStatusBury, proc(ctx, garbage).Action)

	unknown := job(t, "order_refund", "o-1", validOrder())
	assert.Equal(t, lmstfyx.JobRespStatusBury, proc(ctx, unknown).Action)

	noItems := job(t, "order_auto_purchase", "o-1", map[string]interface{}{
		"order": map[string]interface{}{"shipping_address": map[string]interface{}{"country": "ES"}},
	})
	assert.Equal(t, lmstfyx.JobRespStatusBury, proc(ctx, noItems).Action)

	badCountry := validOrder()
	badCountry["order"].(map[string]interface{})["shipping_address"] = map[string]interface{}{"country": "ESP"}
	assert.Equal(t, lmstfyx.JobRespStatusBury, proc(ctx, job(t, "order_auto_purchase", "o-1", badCountry)).Action)

	assert.Empty(t, orch.orders)
}

func TestProcessReleasesMissingResult(t *testing.T) {
	orch := &fakeOrchestrator{}
	proc := GetProcess(logger.NewNop(), &Dependencies{Orchestrator: orch})

	resp := proc(context.Background(), job(t, "order_auto_purchase", "o-1", validOrder()))
	assert.Equal(t, lmstfyx.JobRespStatusRelease, resp.Action)
}

func TestProcessBuriesOnPanic(t *testing.T) {
	proc := GetProcess(logger.NewNop(), &Dependencies{Orchestrator: &fakeOrchestrator{panics: true}})

	resp := proc(context.Background(), job(t, "order_auto_purchase", "o-1", validOrder()))
	assert.Equal(t, lmstfyx.JobRespStatusBury, resp.Action)
	assert.Contains(t, string(resp.Data), "handler panic")
}

func TestProcessBuriesWithoutOrchestrator(t *testing.T) {
	proc := GetProcess(logger.NewNop(), &Dependencies{})

	resp := proc(context.Background(), job(t, "order_auto_purchase", "o-1", validOrder()))
	assert.Equal(t, lmstfyx.JobRespStatusBury, resp.Action)
}
