package jobs

import (
	"context"
	"log"
	"time"

	"github.com/hibiken/asynq"
)

const taskQueueSweep = "queue:sweep"

// Sweeper drops stale waiting-queue entries. Implemented by the matchmaking
// service.
type Sweeper interface {
	Sweep(ctx context.Context) int
}

// Processor runs background maintenance tasks over asynq. Today that is a
// periodic sweep of waiting users whose connection went away.
type Processor struct {
	sweeper       Sweeper
	server        *asynq.Server
	client        *asynq.Client
	sweepInterval time.Duration
	cancel        context.CancelFunc
}

func NewProcessor(sweeper Sweeper, redisURL string, sweepInterval time.Duration) (*Processor, error) {
	connOpt, err := asynq.ParseRedisURI(redisURL)
	if err != nil {
		return nil, err
	}

	server := asynq.NewServer(connOpt, asynq.Config{
		Concurrency: 2,
		Queues: map[string]int{
			"maintenance": 1,
		},
	})

	return &Processor{
		sweeper:       sweeper,
		server:        server,
		client:        asynq.NewClient(connOpt),
		sweepInterval: sweepInterval,
	}, nil
}

func (p *Processor) Start(ctx context.Context) error {
	mux := asynq.NewServeMux()
	mux.HandleFunc(taskQueueSweep, p.handleSweepTask)

	go func() {
		if err := p.server.Run(mux); err != nil {
			log.Printf("Asynq server error: %v", err)
		}
	}()

	ctx, p.cancel = context.WithCancel(ctx)
	go p.startPeriodicSweep(ctx)

	log.Println("Background processor started")
	return nil
}

func (p *Processor) Stop() {
	if p.cancel != nil {
		p.cancel()
	}
	p.server.Shutdown()
	p.client.Close()
}

func (p *Processor) handleSweepTask(ctx context.Context, task *asynq.Task) error {
	removed := p.sweeper.Sweep(ctx)
	if removed > 0 {
		log.Printf("[QUEUE_SWEEP] Sweep task removed %d entries", removed)
	}
	return nil
}

func (p *Processor) startPeriodicSweep(ctx context.Context) {
	ticker := time.NewTicker(p.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			task := asynq.NewTask(taskQueueSweep, nil)
			if _, err := p.client.Enqueue(task, asynq.Queue("maintenance")); err != nil {
				log.Printf("Error enqueueing sweep task: %v", err)
			}
		}
	}
}
