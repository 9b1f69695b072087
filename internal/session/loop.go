package session

import (
	"context"
	"time"

	"go.uber.org/zap"
)

func frameInterval(fps int) time.Duration {
	return time.Second / time.Duration(fps)
}

// runFrames reads, gates and estimates one frame per tick. A frame is fully
// processed before the next tick is taken; ticks that arrive meanwhile are
// coalesced by the ticker's single-slot channel.
//
// While the motion gate reports the scene idle, frames skip the estimator and
// the loop drops to IdleFPS until motion returns.
func (c *Controller) runFrames(ctx context.Context) {
	defer c.wg.Done()

	idle := false
	ticker := time.NewTicker(frameInterval(c.cfg.ActiveFPS))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		started := time.Now()

		frame, err := c.camera.ReadFrame()
		if err != nil {
			c.logger.Debug("failed to read frame", zap.Error(err))
			if c.metrics != nil {
				c.metrics.CounterCameraErrors.Inc()
			}
			continue
		}

		if c.frames != nil {
			if err := c.frames.Put(frame); err != nil {
				c.logger.Debug("failed to encode stream frame", zap.Error(err))
			}
		}

		if !c.motion.Active(frame, c.now()) {
			frame.Close()
			if !idle {
				idle = true
				c.camera.SetFPS(c.cfg.IdleFPS)
				ticker.Reset(frameInterval(c.cfg.IdleFPS))
				c.logger.Debug("switched to idle mode")
			}
			if c.metrics != nil {
				c.metrics.CounterFramesIdle.Inc()
			}
			continue
		}
		if idle {
			idle = false
			c.camera.SetFPS(c.cfg.ActiveFPS)
			ticker.Reset(frameInterval(c.cfg.ActiveFPS))
			c.logger.Debug("switched to active mode")
		}

		poses, err := c.estimator.Estimate(frame)
		frame.Close()

		c.HandleFrame(poses, err)

		if c.metrics != nil {
			c.metrics.CounterFrames.Inc()
			c.metrics.HistFrameDuration.Observe(time.Since(started).Seconds())
		}
	}
}

// runStats ticks the statistics on its own schedule. It only touches the
// counter's stats under mu, never the detector state.
func (c *Controller) runStats(ctx context.Context) {
	defer c.wg.Done()

	ticker := time.NewTicker(c.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.tick()
		}
	}
}
