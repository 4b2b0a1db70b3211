package work

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/sindi/umshado/server/models"
)

type workerPool struct {
	handlers    map[string]Handler
	workers     []*worker
	requeuers   []*requeuer
	concurrency int
	started     bool
}

func newWorkerPool(concurrency int, sleepBackoffsInSeconds []int64) (*workerPool, error) {
	wp := workerPool{handlers: make(map[string]Handler), concurrency: concurrency}

	for i := 0; i < concurrency; i++ {
		wp.workers = append(wp.workers, newWorker(sleepBackoffsInSeconds))
	}

	for _, fromQueue := range []string{models.IN_PROGRESS_JOB, models.SCHEDULED_JOB} {
		rq, err := newRequeuer(fromQueue)
		if err != nil {
			return nil, err
		}
		wp.requeuers = append(wp.requeuers, rq)
	}

	return &wp, nil
}

// registerHandler binds a name to a job handler for all workers in pool
func (wp *workerPool) registerHandler(name string, handler Handler) error {
	if _, ok := wp.handlers[name]; ok {
		return ErrDuplicateHandler
	}
	wp.handlers[name] = handler

	for _, worker := range wp.workers {
		err := worker.registerHandler(name, handler)

		// Only panic on an unexpected error i.e. !ErrDuplicateHandler
		if err != nil && !errors.Is(err, ErrDuplicateHandler) {
			logg.Panic(err)
		}
	}
	return nil
}

// enqueue adds a job to the queue by creating a db record from 'JobParams'
func (wp *workerPool) enqueue(job JobParams) error {
	argsAsJson, err := marshalJobArgs(job)
	if err != nil {
		return err
	}

	if job.Unique {
		return models.CreateUniqueJobByName(job.Name, job.Handler, argsAsJson)
	}

	return models.CreateJob(job.Name, job.Handler, argsAsJson)
}

// enqueueIn records a job to enter the queue 'secondsFromNow' seconds
// out; the scheduled-jobs requeuer picks it up when the time comes.
func (wp *workerPool) enqueueIn(secondsFromNow int64, job JobParams) error {
	argsAsJson, err := marshalJobArgs(job)
	if err != nil {
		return err
	}

	runAt := time.Now().Add(time.Duration(secondsFromNow) * time.Second)
	return models.CreateScheduledJob(job.Name, job.Handler, argsAsJson, runAt)
}

func (wp *workerPool) start() {
	if wp.started {
		return
	}
	wp.started = true

	for _, worker := range wp.workers {
		worker.start()
	}
	for _, rq := range wp.requeuers {
		rq.start()
	}
}

func (wp *workerPool) stop() {
	if !wp.started {
		return
	}

	wg := sync.WaitGroup{}
	for _, w := range wp.workers {
		wg.Add(1)
		go func(w *worker) {
			w.stop()
			wg.Done()
		}(w)
	}
	for _, rq := range wp.requeuers {
		wg.Add(1)
		go func(rq *requeuer) {
			rq.stop()
			wg.Done()
		}(rq)
	}
	wg.Wait()
	wp.started = false
}

// ---------------------------------------------------------------------------------//
// Helper functions
// --------------------------------------------------------------------------------//

func marshalJobArgs(job JobParams) (string, error) {
	if strings.TrimSpace(job.Name) == "" || strings.TrimSpace(job.Handler) == "" {
		return "", fmt.Errorf("both a name & handler is required for a job")
	}

	argsAsJson, err := json.Marshal(job.Args)
	if err != nil {
		return "", errors.Wrap(err, "unable to serialize job args")
	}

	return string(argsAsJson), nil
}
