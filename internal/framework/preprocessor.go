package framework

import (
	"context"
	"fmt"
)

// PreProcessor runs a chain of steps, stopping at the first error
type PreProcessor struct {
	processFuncs []ProcessorFunc
}

// NewPreProcessor creates a PreProcessor
func NewPreProcessor(processFuncs ...ProcessorFunc) *PreProcessor {
	return &PreProcessor{
		processFuncs: processFuncs,
	}
}

// Run executes the steps in order
func (p *PreProcessor) Run(ctx context.Context) error {
	for i, processFunc := range p.processFuncs {
		if err := processFunc(ctx); err != nil {
			return fmt.Errorf("processor[%d] failed: %w", i, err)
		}
	}
	return nil
}
