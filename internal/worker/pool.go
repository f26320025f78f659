// Package worker runs inbound conversational work on a fixed pool of
// goroutines partitioned by customer identity. All jobs for one phone hash
// to the same worker and its bounded queue, so a customer's messages are
// processed strictly in arrival order while different customers proceed in
// parallel. The webhook handler enqueues and returns immediately; a full
// queue sheds the job rather than blocking the acknowledgement.
package worker

import (
	"context"
	"hash/fnv"
	"sync"

	"github.com/rs/zerolog/log"
)

// Job is one unit of per-customer work.
type Job func(ctx context.Context)

// Pool is a partitioned worker pool. Create with NewPool, stop with Close.
type Pool struct {
	queues []chan queued
	wg     sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

type queued struct {
	key string
	job Job
}

// NewPool starts workers goroutines, each owning a queue of depth queueSize.
func NewPool(workers, queueSize int) *Pool {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 1 {
		queueSize = 16
	}

	p := &Pool{queues: make([]chan queued, workers)}
	for i := range p.queues {
		p.queues[i] = make(chan queued, queueSize)
		p.wg.Add(1)
		go p.run(p.queues[i])
	}
	return p
}

func (p *Pool) run(queue <-chan queued) {
	defer p.wg.Done()
	for q := range queue {
		func() {
			defer func() {
				if r := recover(); r != nil {
					log.Error().Interface("panic", r).Str("key", q.key).Msg("job panicked")
				}
			}()
			q.job(context.Background())
		}()
	}
}

// Submit enqueues a job on the partition for key. It returns false when the
// pool is closed or the partition's queue is full; the caller decides how to
// report the shed load.
func (p *Pool) Submit(key string, job Job) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return false
	}

	h := fnv.New32a()
	h.Write([]byte(key))
	queue := p.queues[int(h.Sum32())%len(p.queues)]

	select {
	case queue <- queued{key: key, job: job}:
		return true
	default:
		log.Warn().Str("key", key).Msg("worker queue full, job dropped")
		return false
	}
}

// Close stops accepting jobs and waits for queued work to drain.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	for _, q := range p.queues {
		close(q)
	}
	p.mu.Unlock()

	p.wg.Wait()
}
