package script

import (
	"fmt"
	"runtime"
	"strconv"

	"github.com/cespare/xxhash/v2"

	"github.com/zeusync/listsync/internal/core/observability/log"
	"github.com/zeusync/listsync/pkg/listview"
	"github.com/zeusync/listsync/pkg/observable"
)

// Result is what a replay produced.
type Result struct {
	Name   string
	Values []string
	// Trace has one line per array notification.
	Trace []string
	// View has one line per call a bound table surface received.
	View   []string
	Digest uint64
}

func (r *Result) DigestHex() string {
	return strconv.FormatUint(r.Digest, 16)
}

type traceOwner struct {
	name string
}

// Run replays s on a fresh array. The returned Result is filled up to the
// failing step when err is not nil.
func Run(s *Script, logger log.Log) (*Result, error) {
	if logger == nil {
		logger = log.Nop()
	}
	logger = logger.With(log.String("script", s.Name))

	arr := NewArray(s.Initial, s.Order, observable.WithLogger[string](logger))
	owner := &traceOwner{name: s.Name}
	rec := &observable.Recorder[string]{}
	surface := &listview.Recording{}

	arr.Subscribe(observable.ObserverOf(owner), rec.Handlers())
	listview.BindTable(arr, observable.ObserverOf(owner), listview.Binding{}, surface)

	err := Apply(arr, s.Ops, s.KeySep)
	runtime.KeepAlive(owner)

	res := &Result{
		Name:   s.Name,
		Values: arr.Values(),
		View:   surface.Calls,
	}
	for _, c := range rec.Changes {
		res.Trace = append(res.Trace, FormatChange(c))
	}
	res.Digest = Digest(res.Values)

	if err != nil {
		logger.Warn("script failed", log.Error(err))
	} else {
		logger.Debug("script replayed",
			log.Int("ops", len(s.Ops)),
			log.Int("changes", len(res.Trace)),
			log.Uint64("digest", res.Digest))
	}
	return res, err
}

// Digest fingerprints an ordered list of values. Equal lists always produce
// the same digest; the separator keeps ["ab"] and ["a", "b"] apart.
func Digest(values []string) uint64 {
	d := xxhash.New()
	for _, v := range values {
		_, _ = d.WriteString(v)
		_, _ = d.Write([]byte{0})
	}
	return d.Sum64()
}

func FormatChange(c observable.Change[string]) string {
	switch c.Kind {
	case observable.ChangeMove:
		return fmt.Sprintf("move %q %d -> %d", c.Value, c.From, c.To)
	case observable.ChangeRemoveAll:
		return fmt.Sprintf("remove_all %q", c.Old)
	default:
		return fmt.Sprintf("%s %q at %d", c.Kind, c.Value, c.Index)
	}
}
