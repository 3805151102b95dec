package events

import (
	"context"
	"errors"
	"io"

	"github.com/ethereum/go-ethereum/log"

	"github.com/ethereum-optimism/infra/jenkins-reporter/metrics"
	"github.com/ethereum-optimism/infra/jenkins-reporter/types"
)

// Host receives lifecycle notifications in the order the test runner emits them.
type Host interface {
	OnRunStart(browsers []*types.Browser)
	OnBrowserStart(browser *types.Browser)
	SpecSuccess(browser *types.Browser, result *types.SpecResult)
	SpecSkipped(browser *types.Browser, result *types.SpecResult)
	SpecFailure(browser *types.Browser, result *types.SpecResult)
	OnBrowserComplete(browser *types.Browser)
	OnRunComplete()
	Adapters() []func(msg string)
}

// Dispatcher applies events to a Host one at a time.
type Dispatcher struct {
	host Host
	log  log.Logger
}

func NewDispatcher(host Host, logger log.Logger) *Dispatcher {
	return &Dispatcher{
		host: host,
		log:  logger.New("module", "events.dispatcher"),
	}
}

// Apply delivers ev to the host. Events that fail validation are not delivered.
func (d *Dispatcher) Apply(ev *Event) error {
	if err := ev.Validate(); err != nil {
		metrics.RecordErrorDetails("event", err)
		return err
	}
	metrics.RecordEvent(string(ev.Type))

	switch ev.Type {
	case TypeRunStart:
		d.host.OnRunStart(ev.Browsers)
	case TypeBrowserStart:
		d.host.OnBrowserStart(ev.Browser)
	case TypeSpecComplete:
		// routed the way the runner's base reporter splits results
		switch ev.Result.Status() {
		case types.SpecStatusSkip:
			d.host.SpecSkipped(ev.Browser, ev.Result)
		case types.SpecStatusPass:
			d.host.SpecSuccess(ev.Browser, ev.Result)
		default:
			d.host.SpecFailure(ev.Browser, ev.Result)
		}
	case TypeSpecSuccess:
		d.host.SpecSuccess(ev.Browser, ev.Result)
	case TypeSpecSkipped:
		d.host.SpecSkipped(ev.Browser, ev.Result)
	case TypeSpecFailure:
		d.host.SpecFailure(ev.Browser, ev.Result)
	case TypeBrowserComplete:
		d.host.OnBrowserComplete(ev.Browser)
	case TypeRunComplete:
		d.host.OnRunComplete()
	case TypeMessage:
		for _, adapter := range d.host.Adapters() {
			adapter(ev.Message)
		}
	}
	return nil
}

// Run applies events from in until the channel is closed or ctx is done.
// Invalid events are logged and skipped.
func (d *Dispatcher) Run(ctx context.Context, in <-chan *Event) {
	for {
		select {
		case <-ctx.Done():
			d.log.Debug("Context canceled, stopping dispatcher")
			return
		case ev, ok := <-in:
			if !ok {
				d.log.Debug("Event channel closed, stopping dispatcher")
				return
			}
			if err := d.Apply(ev); err != nil {
				d.log.Warn("Dropping event", "type", ev.Type, "err", err)
			}
		}
	}
}

// Replay decodes every event from dec and applies it in order. It stops at the
// end of the stream, at the first decoding error, or when ctx is done, and
// returns the number of events applied.
func (d *Dispatcher) Replay(ctx context.Context, dec *Decoder) (int, error) {
	applied := 0
	for {
		if err := ctx.Err(); err != nil {
			return applied, err
		}
		ev, err := dec.Next()
		if errors.Is(err, io.EOF) {
			return applied, nil
		}
		if err != nil {
			return applied, err
		}
		if err := d.Apply(ev); err != nil {
			d.log.Warn("Dropping event", "type", ev.Type, "err", err)
			continue
		}
		applied++
	}
}
