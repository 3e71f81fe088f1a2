// Package zlog adapts corobus/log.Logger onto logiface, backed by zerolog —
// the same facade-over-backend pairing used throughout the wider logiface
// corpus (logiface/zerolog).
package zlog

import (
	"io"

	"github.com/joeycumines/go-utilpkg/logiface"
	"github.com/rs/zerolog"

	corolog "github.com/baxromumarov/corobus/log"
)

type event struct {
	z   *zerolog.Event
	lvl logiface.Level
	logiface.UnimplementedEvent
}

func (e *event) Level() logiface.Level { return e.lvl }

func (e *event) AddField(key string, val any) { e.z.Interface(key, val) }

func (e *event) AddString(key string, val string) bool {
	e.z.Str(key, val)
	return true
}

func (e *event) AddInt(key string, val int) bool {
	e.z.Int(key, val)
	return true
}

type backend struct{ z zerolog.Logger }

func (b backend) NewEvent(level logiface.Level) *event {
	if !level.Enabled() {
		return nil
	}
	return &event{z: b.zerologEvent(level), lvl: level}
}

func (b backend) zerologEvent(level logiface.Level) *zerolog.Event {
	switch level {
	case logiface.LevelEmergency, logiface.LevelAlert, logiface.LevelCritical, logiface.LevelError:
		return b.z.Error()
	case logiface.LevelWarning, logiface.LevelNotice:
		return b.z.Warn()
	case logiface.LevelDebug, logiface.LevelTrace:
		return b.z.Debug()
	default:
		return b.z.Info()
	}
}

func (b backend) Write(e *event) error {
	e.z.Send()
	return nil
}

// Adapter implements corolog.Logger by emitting every bus event as a
// structured zerolog record, via logiface.
type Adapter struct {
	log *logiface.Logger[*event]
}

var _ corolog.Logger = (*Adapter)(nil)

// NewZerologLogger builds an Adapter writing newline-delimited JSON to w.
func NewZerologLogger(w io.Writer) *Adapter {
	b := backend{z: zerolog.New(w).With().Timestamp().Logger()}
	return &Adapter{
		log: logiface.New[*event](
			logiface.WithEventFactory[*event](logiface.EventFactoryFunc[*event](b.NewEvent)),
			logiface.WithWriter[*event](logiface.WriterFunc[*event](b.Write)),
		),
	}
}

func (a *Adapter) ChannelOpened(handle int, capacity int) {
	a.log.Info().Int("handle", handle).Int("capacity", capacity).Log("channel opened")
}

func (a *Adapter) ChannelClosed(handle int, generation uint64) {
	a.log.Info().Int("handle", handle).Int("generation", int(generation)).Log("channel closed")
}

func (a *Adapter) BroadcastRetry(handle int) {
	a.log.Debug().Int("handle", handle).Log("broadcast retry")
}

func (a *Adapter) WaiterParked(handle int, queue string) {
	a.log.Trace().Int("handle", handle).Str("queue", queue).Log("waiter parked")
}

func (a *Adapter) WaiterWoken(handle int, queue string, count int) {
	a.log.Trace().Int("handle", handle).Str("queue", queue).Int("count", count).Log("waiter woken")
}
