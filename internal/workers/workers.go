package workers

// Workers aggregates background workers and runs them as one unit.
type Workers struct {
	workers []Worker
}

// NewWorkers builds an aggregate over the given workers. Run order follows
// argument order.
func NewWorkers(workers ...Worker) *Workers {
	return &Workers{workers: workers}
}

// Add appends a worker to the aggregate. Not safe to call concurrently
// with Run.
func (w *Workers) Add(worker Worker) {
	w.workers = append(w.workers, worker)
}

// Run starts every worker in order, blocking on each in turn.
func (w *Workers) Run() {
	for _, worker := range w.workers {
		worker.Run()
	}
}
