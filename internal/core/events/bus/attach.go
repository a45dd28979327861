package bus

import (
	"time"

	"github.com/google/uuid"

	"github.com/zeusync/listsync/pkg/observable"
)

// Attach republishes every change of arr on topic. encode converts elements to
// their wire form; nil passes them through unchanged. Delivery errors are only
// visible to bus observers since array handlers cannot fail.
func Attach[T any](b EventBus, topic string, arr *observable.Array[T], obs observable.Observer, encode func(T) any) {
	if encode == nil {
		encode = func(v T) any { return v }
	}

	arr.Subscribe(obs, observable.Funnel(func(c observable.Change[T]) {
		ev := Event{
			ID:        uuid.NewString(),
			Topic:     topic,
			Kind:      c.Kind.String(),
			Index:     c.Index,
			From:      c.From,
			To:        c.To,
			Timestamp: time.Now(),
		}
		if c.Kind == observable.ChangeRemoveAll {
			ev.Old = make([]any, len(c.Old))
			for i, v := range c.Old {
				ev.Old[i] = encode(v)
			}
		} else {
			ev.Value = encode(c.Value)
		}
		_ = b.Publish(topic, ev)
	}))
}
