// internal/supervisor/supervisor.go
package supervisor

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/tamzrod/tps55289/internal/bus"
	"github.com/tamzrod/tps55289/internal/monitor"
	"github.com/tamzrod/tps55289/internal/status"
	"github.com/tamzrod/tps55289/internal/tps55289"
	"github.com/tamzrod/tps55289/internal/writer"
)

// Converter is one managed device with its monitor and status pipeline.
type Converter struct {
	ID      string
	Device  *tps55289.Device
	Monitor *monitor.Monitor
	Tracker *status.Tracker

	// Status is nil when the converter has no status slot.
	Status writer.StatusWriter
}

// Supervisor owns every converter and the buses they share.
type Supervisor struct {
	converters []*Converter
	transports map[string]bus.Transport // raw, by bus key
	shared     map[string]*bus.Locked
	closers    []func() error
}

// Converters returns the managed converters in config order.
func (s *Supervisor) Converters() []*Converter { return s.converters }

// Init runs the power-up sequence on every converter. A converter that
// fails is logged and left to the monitor, which will report it unhealthy.
func (s *Supervisor) Init() error {
	var errs []error

	for _, c := range s.converters {
		rep, err := c.Device.Init()
		for _, w := range rep.Warnings {
			log.Printf("init warning (converter=%s): %s", c.ID, w)
		}
		if err != nil {
			log.Printf("init failed (converter=%s): %v", c.ID, err)
			c.Tracker.Observe(status.Reading{At: time.Now(), State: c.Device.State(), Err: err})
			errs = append(errs, fmt.Errorf("%s: %w", c.ID, err))
			continue
		}

		log.Printf("converter ready (converter=%s): vout=%.4fV ilim=%.2fA mode=%s output=%t",
			c.ID, rep.EffectiveVoltage, rep.EffectiveCurrentLimit, rep.Status.Mode, c.Device.State().OutputEnabled)
		for _, f := range rep.Status.Fields {
			log.Printf("status (converter=%s): %s=%s", c.ID, f.Name, f.Value)
		}
	}

	return errors.Join(errs...)
}

// Run starts one monitor and one orchestrator per converter and blocks
// until ctx is cancelled and all of them have returned.
func (s *Supervisor) Run(ctx context.Context) {
	var wg sync.WaitGroup

	for _, c := range s.converters {
		c := c // per-iteration copy (go 1.21 loop semantics)
		out := make(chan monitor.Result)

		wg.Add(2)
		go func() {
			defer wg.Done()
			c.Monitor.Run(ctx, out)
		}()
		go func() {
			defer wg.Done()
			orchestrate(ctx, c, out)
		}()
	}

	wg.Wait()
}

// orchestrate owns the tracker of one converter. Snapshots reach status
// memory only when they change.
func orchestrate(ctx context.Context, c *Converter, in <-chan monitor.Result) {
	secTicker := time.NewTicker(time.Second)
	defer secTicker.Stop()

	publish := func() {
		if c.Status == nil {
			return
		}
		if err := c.Status.WriteStatus(c.Tracker.Snapshot()); err != nil {
			log.Printf("status write failed (converter=%s): %v", c.ID, err)
		}
	}

	// Full block write on start (identity re-assert).
	publish()

	prev := c.Tracker.Snapshot().Health
	for {
		select {
		case <-ctx.Done():
			return

		case res := <-in:
			switch {
			case res.Err != nil:
				if prev != status.HealthError {
					log.Printf("status read failed (converter=%s): %v", c.ID, res.Err)
				}
			case res.Report.AutoDisabled:
				log.Printf("fault (converter=%s): %s, output disabled", c.ID, res.Report.Faults())
			}
			for _, f := range res.Report.Fields {
				log.Printf("status (converter=%s): %s=%s", c.ID, f.Name, f.Value)
			}

			changed := c.Tracker.Observe(status.Reading{
				At:     res.At,
				Report: res.Report,
				State:  res.State,
				Err:    res.Err,
			})
			if cur := c.Tracker.Snapshot().Health; cur != prev {
				if cur == status.HealthOK && prev != status.HealthUnknown {
					log.Printf("recovered (converter=%s)", c.ID)
				}
				prev = cur
			}
			if changed {
				publish()
			}

		case now := <-secTicker.C:
			if c.Tracker.Tick(now) {
				if h := c.Tracker.Snapshot().Health; h == status.HealthStale && prev != h {
					log.Printf("stale (converter=%s): no status reading", c.ID)
					prev = h
				}
				publish()
			}
		}
	}
}

// Close disables every output, then releases the buses and the status
// memory connection.
func (s *Supervisor) Close() error {
	var errs []error
	for _, c := range s.converters {
		if err := c.Device.Close(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", c.ID, err))
		}
	}
	if err := s.closeAll(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
