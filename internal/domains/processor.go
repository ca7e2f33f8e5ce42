package domains

import (
	"context"
	"fmt"
	"time"

	"github.com/bitleak/lmstfy/client"
	"github.com/google/uuid"

	"oip/autopurchase/internal/framework"
	"oip/autopurchase/pkg/errorutil"
	"oip/autopurchase/pkg/lmstfyx"
	"oip/autopurchase/pkg/logger"
)

// GetProcess returns the Proc the framework processor runs for every job.
// Unparseable or unroutable jobs are buried, retryable failures released, the rest acked.
func GetProcess(log logger.Logger, deps *Dependencies) lmstfyx.Proc {
	return func(ctx context.Context, job *client.Job) (resp *lmstfyx.JobResp) {
		startTime := time.Now()

		base := &framework.BaseHandler{}
		if err := base.ParseJob(ctx, job.Data); err != nil {
			log.Errorf(ctx, "[GetProcess] parse job %s failed: %v", job.ID, err)
			return lmstfyx.Bury(nil)
		}

		meta := base.GetMeta()
		if meta.RequestID == "" {
			meta.RequestID = uuid.New().String()
		}
		ctx = logger.WithTraceID(ctx, meta.RequestID)

		log.Infof(ctx, "[GetProcess] Processing job: action_type=%s, id=%s", meta.ActionType, meta.ID)

		factory, ok := HandlerMap[meta.ActionType]
		if !ok {
			log.Errorf(ctx, "[GetProcess] handler not found for action_type: %s", meta.ActionType)
			return lmstfyx.Bury(nil)
		}

		defer func() {
			if r := recover(); r != nil {
				log.Errorf(ctx, "[GetProcess] handler panic: %v", r)
				data, _ := base.WrapErrorResponse(ctx, fmt.Errorf("handler panic: %v", r))
				resp = lmstfyx.Bury(data)
			}
			log.Infof(ctx, "[GetProcess] Processing complete: action=%s, duration=%v", resp.Action, time.Since(startTime))
		}()

		handler, err := factory(ctx, base, deps)
		if err != nil {
			log.Errorf(ctx, "[GetProcess] handler creation failed: %v", err)
			data, _ := base.WrapErrorResponse(ctx, err)
			return lmstfyx.Bury(data)
		}

		data, err := handler.Handle(ctx)
		return doJobReport(ctx, data, err, log)
	}
}

// doJobReport maps the handler outcome to a settle action
func doJobReport(ctx context.Context, data []byte, err error, log logger.Logger) *lmstfyx.JobResp {
	if err == nil {
		return lmstfyx.Ack(data)
	}

	if errorutil.IsRetryable(err) {
		log.Warnf(ctx, "[GetProcess] retryable failure, releasing: %v", err)
		return lmstfyx.Release(data)
	}

	log.Errorf(ctx, "[GetProcess] terminal failure: %v", err)
	return lmstfyx.Bury(data)
}
