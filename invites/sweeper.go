package invites

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// Sweeper runs the engine's expiry sweep on an interval.
type Sweeper struct {
	engine   *Engine
	interval time.Duration
	stop     chan struct{}
	done     chan struct{}
}

func NewSweeper(engine *Engine, interval time.Duration) *Sweeper {
	return &Sweeper{
		engine:   engine,
		interval: interval,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

func (s *Sweeper) Start() {
	go func() {
		defer close(s.done)

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		log.Info().Dur("interval", s.interval).Msg("Started invitation expiry sweeper")

		for {
			select {
			case <-ticker.C:
				if err := s.engine.Sweep(context.Background()); err != nil {
					log.Error().Err(err).Msg("Expiry sweep failed")
				}
			case <-s.stop:
				return
			}
		}
	}()
}

func (s *Sweeper) Stop() {
	close(s.stop)
	<-s.done
}
