// Package async runs independent query tasks on a small worker pool and
// collects their results by name. The admin overview uses it to fan out its
// dashboard queries instead of running them back to back.
package async

import (
	"context"
	"sync"
)

// Task is one named unit of work.
type Task struct {
	Name string
	Run  func() (any, error)
}

// Result is the outcome of a single task.
type Result struct {
	Name string
	Data any
	Err  error
}

// RunAll executes tasks on workerCount goroutines and returns the results
// keyed by task name. A cancelled context stops the run early; results
// gathered so far are returned.
func RunAll(ctx context.Context, workerCount int, tasks []Task) map[string]Result {
	if workerCount < 1 {
		workerCount = 1
	}

	queue := make(chan Task)
	outcomes := make(chan Result)

	var wg sync.WaitGroup
	for i := 0; i < workerCount; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case task, ok := <-queue:
					if !ok {
						return
					}
					data, err := task.Run()
					select {
					case outcomes <- Result{Name: task.Name, Data: data, Err: err}:
					case <-ctx.Done():
						return
					}
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	go func() {
		defer close(queue)
		for _, task := range tasks {
			select {
			case queue <- task:
			case <-ctx.Done():
				return
			}
		}
	}()

	results := make(map[string]Result, len(tasks))
	for range tasks {
		select {
		case result := <-outcomes:
			results[result.Name] = result
		case <-ctx.Done():
			return results
		}
	}

	wg.Wait()
	return results
}

// FirstError returns the first task error found, or nil when every task
// succeeded. Dashboard queries fail as a unit, so callers only need one.
func FirstError(results map[string]Result) error {
	for _, result := range results {
		if result.Err != nil {
			return result.Err
		}
	}
	return nil
}
