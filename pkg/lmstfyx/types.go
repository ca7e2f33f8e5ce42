package lmstfyx

import (
	"context"

	"github.com/bitleak/lmstfy/client"
)

// Proc handles one raw lmstfy job and tells the processor what to do with it.
type Proc func(ctx context.Context, job *client.Job) *JobResp

// JobRespStatus is the settle action of a processed job
type JobRespStatus int

const (
	// JobRespStatusSuccess acks the job
	JobRespStatusSuccess JobRespStatus = iota
	// JobRespStatusRelease leaves the job unacked so lmstfy redelivers it after its TTR
	JobRespStatusRelease
	// JobRespStatusBury acks a job that can never succeed and logs it
	JobRespStatusBury
)

// String returns the action name used in logs
func (s JobRespStatus) String() string {
	switch s {
	case JobRespStatusSuccess:
		return "ack"
	case JobRespStatusRelease:
		return "release"
	case JobRespStatusBury:
		return "bury"
	}
	return "unknown"
}

// JobResp is the outcome of a Proc
type JobResp struct {
	Action JobRespStatus
	Data   []byte // serialized handler response, logged and optionally published
}

// Ack builds a success response
func Ack(data []byte) *JobResp {
	return &JobResp{Action: JobRespStatusSuccess, Data: data}
}

// Release builds a retry-later response
func Release(data []byte) *JobResp {
	return &JobResp{Action: JobRespStatusRelease, Data: data}
}

// Bury builds a give-up response
func Bury(data []byte) *JobResp {
	return &JobResp{Action: JobRespStatusBury, Data: data}
}
