// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 KeepTower Authors

package vault

import (
	"context"
	"sync"

	"github.com/tjdeveng/KeepTower-sub013/internal/workers"
	"github.com/tjdeveng/KeepTower-sub013/models"
)

// CreationTask is one asynchronous creation run. It implements
// [workers.Worker] so it can be scheduled alongside other background work.
//
// Progress is buffered for the full pipeline, so the pipeline never blocks
// on a slow consumer. The channel is closed after the final event and Done
// is closed after that, so a consumer can range over Progress, wait on Done
// and then call Result.
type CreationTask struct {
	// ctx is captured at submission because [workers.Worker] runs without
	// parameters.
	ctx    context.Context
	svc    *vaultService
	params models.CreationParams

	once     sync.Once
	progress chan models.StepProgress
	done     chan struct{}

	result *models.CreationResult
	err    error
}

var _ workers.Worker = (*CreationTask)(nil)

func newCreationTask(ctx context.Context, svc *vaultService, params models.CreationParams) *CreationTask {
	return &CreationTask{
		ctx:      ctx,
		svc:      svc,
		params:   params,
		progress: make(chan models.StepProgress, totalCreationSteps),
		done:     make(chan struct{}),
	}
}

// Run executes the creation pipeline once. Further calls are no-ops.
func (t *CreationTask) Run() {
	t.once.Do(func() {
		t.result, t.err = t.svc.runCreation(t.ctx, t.params, func(p models.StepProgress) {
			t.progress <- p
		})
		close(t.progress)
		close(t.done)
	})
}

// Progress returns the step event stream. The channel is closed once the
// pipeline finishes or fails.
func (t *CreationTask) Progress() <-chan models.StepProgress {
	return t.progress
}

// Done returns a channel that is closed when the result is available.
func (t *CreationTask) Done() <-chan struct{} {
	return t.done
}

// Result returns the outcome of the run. It does not block: before Done is
// closed it reports [ErrTaskRunning].
func (t *CreationTask) Result() (*models.CreationResult, error) {
	select {
	case <-t.done:
		return t.result, t.err
	default:
		return nil, ErrTaskRunning
	}
}

// CreateAsync implements [Service]. The pipeline runs on a background
// worker; the returned task reports progress and carries the final result.
func (v *vaultService) CreateAsync(ctx context.Context, params models.CreationParams) *CreationTask {
	task := newCreationTask(ctx, v, params)
	go workers.NewWorkers(task).Run()
	return task
}
