// Package workerpool implements a fixed-size pool of goroutines draining
// a single task channel under tomb.Tomb supervision.
package workerpool

import (
	"github.com/rs/zerolog/log"
	tomb "gopkg.in/tomb.v2"
)

const taskChanSize = 100

// TaskFunc is the unit of work a pool worker executes. A non-nil error
// return is fatal to the tomb.
type TaskFunc func(t *tomb.Tomb, task any) error

// Pool is a fixed-size set of workers pulling tasks off a shared channel.
type Pool struct {
	n     int
	tasks chan any
	work  TaskFunc
}

// New constructs a Pool with size workers.
func New(size int, work TaskFunc) *Pool {
	return &Pool{
		n:     size,
		tasks: make(chan any, taskChanSize),
		work:  work,
	}
}

// AddTask enqueues task for a worker to pick up.
func (p *Pool) AddTask(task any) {
	p.tasks <- task
}

// Run starts size workers under t, replacing any worker that exits until
// t starts dying.
func (p *Pool) Run(t *tomb.Tomb) {
	log.Debug().Int("workers", p.n).Msg("starting worker pool")
	active := 0
	for {
		select {
		case <-t.Dying():
			return
		default:
			if active < p.n {
				t.Go(func() error {
					err := p.worker(t)
					active--
					return err
				})
				active++
			}
		}
	}
}

func (p *Pool) worker(t *tomb.Tomb) error {
	select {
	case <-t.Dying():
		return nil
	case task := <-p.tasks:
		if err := p.work(t, task); err != nil {
			log.Error().Err(err).Msg("worker exiting on error")
			return err
		}
	}
	return nil
}
