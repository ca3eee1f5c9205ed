package mq

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type recorder struct {
	got []OrderEvent
	err error
}

func (r *recorder) Publish(_ context.Context, ev OrderEvent) error {
	r.got = append(r.got, ev)
	return r.err
}

func TestFanoutReachesEveryPublisher(t *testing.T) {
	a := &recorder{err: errors.New("broker down")}
	b := &recorder{}

	err := Fanout{a, b}.Publish(context.Background(), OrderEvent{Key: OrderPlacedKey, OrderID: "o1"})
	assert.EqualError(t, err, "broker down")
	assert.Len(t, a.got, 1)
	assert.Len(t, b.got, 1)
}

func TestEmitSwallowsErrors(t *testing.T) {
	r := &recorder{err: errors.New("nope")}
	assert.NotPanics(t, func() {
		Emit(context.Background(), r, zap.NewNop(), OrderEvent{Key: OrderStatusKey})
		Emit(context.Background(), nil, zap.NewNop(), OrderEvent{Key: OrderStatusKey})
	})
	assert.Len(t, r.got, 1)
}
