package work

import (
	"bytes"
	"testing"
	"time"

	"github.com/sindi/umshado/server/models"
	"github.com/stretchr/testify/assert"
)

func TestEnqueueIn(t *testing.T) {
	models.InitializeTestDb()

	workerPool, err := newWorkerPool(MAX_CONCURRENCY, testSleepBackoffsInSeconds)
	assert.Nil(t, err)

	err = workerPool.enqueueIn(1, JobParams{
		Name:    "suits",
		Handler: "donna",
		Args: map[string]interface{}{
			"first_name": "mike",
			"last_name":  "ross",
		},
	})
	assert.Nil(t, err)

	// At some point we need to be able to
	// mock the current time, instead of stopping the
	// process. For now, keep it simple
	time.Sleep(1 * time.Second)

	// Make sure the correct job is created & scheduled to be run
	job, err := models.FirstScheduledJobToBeQueued()
	assert.Nil(t, err)
	assert.Equal(t, "suits", job.Name, "The job name should match the expected job name")
	assert.Contains(t, job.Args, "mike", "Should contain the correct arg values")
	assert.Equal(t, models.SCHEDULED_JOB, job.JobStatus.Name, "The job should be in scheduled queue")
}

func TestPerformIn(t *testing.T) {
	models.InitializeTestDb()

	workerPool := NewWorkerAdapter("UTC", true)
	outputBuffer := new(bytes.Buffer)

	// Register job function
	writeToBuffer := func(m map[string]interface{}) error {
		_, err := outputBuffer.WriteString("Hello")
		return err
	}
	workerPool.Register("write_to_buffer", writeToBuffer)

	err := workerPool.PerformIn(2, JobParams{
		Name:    "write_to_buffer",
		Handler: "write_to_buffer",
		Args:    map[string]interface{}{},
	})
	assert.Nil(t, err)
	assert.Empty(t, outputBuffer.String(), "Expected outputBuffer to be empty")

	// Wait until time to perform job has elapsed
	time.Sleep(3 * time.Second)

	workerPool.Start()

	// Wait for job to be processed
	time.Sleep(2 * time.Second)

	workerPool.Stop()

	assert.Equal(t, "Hello", outputBuffer.String(), "Expected job to write to outputBuffer")
}

func TestFailedJobsAreRescheduledUntilDead(t *testing.T) {
	models.InitializeTestDb()

	workerPool, err := newWorkerPool(MAX_CONCURRENCY, testSleepBackoffsInSeconds)
	assert.Nil(t, err)

	failures := 0
	alwaysFails := func(m map[string]interface{}) error {
		failures++
		return assert.AnError
	}
	assert.Nil(t, workerPool.registerHandler("always_fails", alwaysFails))

	err = workerPool.enqueue(JobParams{
		Name:    "doomed",
		Handler: "always_fails",
		Args:    map[string]interface{}{},
	})
	assert.Nil(t, err)

	job, err := models.LastJob(models.ENQUEUED_JOB, false)
	assert.Nil(t, err)

	// Drive the worker directly instead of the polling loop, so the
	// test doesn't wait out the retry delay.
	worker := workerPool.workers[0]
	for i := 0; i < MAX_FAILS; i++ {
		claimed, err := job.MarkAsClaimed()
		assert.Nil(t, err)
		assert.True(t, claimed)

		worker.processJob(job)
	}

	assert.Equal(t, MAX_FAILS, failures)

	deadJobs, _, err := models.FetchJobsByStatus(models.DEAD_JOB, 1)
	assert.Nil(t, err)
	assert.Len(t, deadJobs, 1)
	assert.Equal(t, "doomed", deadJobs[0].Name)
	assert.Contains(t, deadJobs[0].LastError, assert.AnError.Error())
}
