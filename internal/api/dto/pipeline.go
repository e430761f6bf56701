package dto

import (
	"github.com/retailpulse/retailpulse/internal/domain/snapshot"
	"github.com/retailpulse/retailpulse/internal/service"
)

// RunPipelineRequest is a full snapshot submitted inline. Leaving out one of
// customers, products, transactions or line_items fails the run; stores and
// loyalty_rules are optional.
type RunPipelineRequest struct {
	snapshot.Dataset
}

func (r *RunPipelineRequest) Validate() error {
	return r.Dataset.Validate()
}

func (r *RunPipelineRequest) ToDataset() *snapshot.Dataset {
	return &r.Dataset
}

// PipelineRunResponse is a pipeline result and whether it was served from cache
type PipelineRunResponse struct {
	Cached bool `json:"cached"`
	*service.PipelineResult
}

func ToPipelineRunResponse(result *service.PipelineResult, cached bool) *PipelineRunResponse {
	return &PipelineRunResponse{
		Cached:         cached,
		PipelineResult: result,
	}
}
