package framework

import (
	"context"
	"encoding/json"
	"fmt"

	"oip/autopurchase/pkg/errorutil"
)

// Job is the standard queue job envelope
type Job struct {
	Payload *JobPayload `json:"payload"`
}

// JobPayload wraps the job data
type JobPayload struct {
	Data *JobPayloadData `json:"data"`
}

// JobPayloadData carries routing metadata and the business payload
type JobPayloadData struct {
	RequestID  string          `json:"request_id"`
	ActionType string          `json:"action_type"`
	OrgID      string          `json:"org_id"`
	ID         string          `json:"id"`
	Data       json.RawMessage `json:"data"`
}

// JobMeta is the routing metadata of a job
type JobMeta struct {
	RequestID  string `json:"request_id"`
	ActionType string `json:"action_type"`
	OrgID      string `json:"org_id,omitempty"`
	ID         string `json:"id"`
}

// Response is the serialized outcome of a handler
type Response struct {
	Error     *errorutil.Error `json:"error"`
	Result    interface{}      `json:"result"`
	Processed bool             `json:"processed"`
	Meta      *JobMeta         `json:"meta,omitempty"`
}

// BaseHandler holds the parsed job for a BusinessHandler
type BaseHandler struct {
	meta       *JobMeta
	rawData    []byte
	bizPayload json.RawMessage
	output     interface{}
}

// ParseJob decodes the standard envelope from rawData
func (b *BaseHandler) ParseJob(ctx context.Context, rawData []byte) error {
	b.rawData = rawData

	var job Job
	if err := json.Unmarshal(rawData, &job); err != nil {
		return b.WrapError(err, "unmarshal job failed")
	}

	if job.Payload == nil || job.Payload.Data == nil {
		return b.WrapError(nil, "invalid job structure: payload.data is missing")
	}

	data := job.Payload.Data
	if data.ActionType == "" {
		return b.WrapError(nil, "invalid job structure: action_type is missing")
	}

	b.meta = &JobMeta{
		RequestID:  data.RequestID,
		ActionType: data.ActionType,
		OrgID:      data.OrgID,
		ID:         data.ID,
	}
	b.bizPayload = data.Data

	return nil
}

// DecodePayload unmarshals the business payload into out
func (b *BaseHandler) DecodePayload(out interface{}) error {
	if len(b.bizPayload) == 0 {
		return b.WrapError(nil, "job payload is empty")
	}
	if err := json.Unmarshal(b.bizPayload, out); err != nil {
		return b.WrapError(err, "unmarshal job payload failed")
	}
	return nil
}

// WrapResponse serializes a processed response around output
func (b *BaseHandler) WrapResponse(ctx context.Context, output interface{}) ([]byte, error) {
	resp := &Response{
		Result:    output,
		Processed: true,
		Meta:      b.meta,
	}

	data, err := json.Marshal(resp)
	if err != nil {
		return nil, b.WrapError(err, "marshal response failed")
	}
	return data, nil
}

// WrapErrorResponse serializes an unprocessed response carrying err
func (b *BaseHandler) WrapErrorResponse(ctx context.Context, err error) ([]byte, error) {
	resp := &Response{
		Error:     errorutil.Wrap(err),
		Result:    b.output,
		Processed: false,
		Meta:      b.meta,
	}

	data, marshalErr := json.Marshal(resp)
	if marshalErr != nil {
		return nil, b.WrapError(marshalErr, "marshal error response failed")
	}
	return data, nil
}

// WrapError prefixes err with msg
func (b *BaseHandler) WrapError(err error, msg string) error {
	if err != nil {
		return fmt.Errorf("%s: %w", msg, err)
	}
	return fmt.Errorf("%s", msg)
}

// GetMeta returns the job metadata
func (b *BaseHandler) GetMeta() *JobMeta {
	return b.meta
}

// GetRawData returns the job bytes as received
func (b *BaseHandler) GetRawData() []byte {
	return b.rawData
}

// SetOutput stores the handler output
func (b *BaseHandler) SetOutput(output interface{}) {
	b.output = output
}

// GetOutput returns the handler output
func (b *BaseHandler) GetOutput() interface{} {
	return b.output
}
