package component

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeComponent struct {
	*Base
	log      *[]string
	startErr error
}

func (f *fakeComponent) Start(ctx context.Context) error {
	*f.log = append(*f.log, "start "+f.Name())
	return f.startErr
}

func (f *fakeComponent) Stop(ctx context.Context) error {
	*f.log = append(*f.log, "stop "+f.Name())
	return nil
}

func TestOrchestratorOrder(t *testing.T) {
	var log []string
	o := NewOrchestrator()
	o.Register(&fakeComponent{Base: NewBase("router"), log: &log})
	o.Register(&fakeComponent{Base: NewBase("dataplane"), log: &log})

	require.NoError(t, o.Start(context.Background()))
	require.NoError(t, o.Stop(context.Background()))

	assert.Equal(t, []string{"start router", "start dataplane", "stop dataplane", "stop router"}, log)
}

func TestOrchestratorStartError(t *testing.T) {
	var log []string
	boom := errors.New("boom")

	o := NewOrchestrator()
	o.Register(&fakeComponent{Base: NewBase("router"), log: &log, startErr: boom})
	o.Register(&fakeComponent{Base: NewBase("dataplane"), log: &log})

	err := o.Start(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"start router"}, log)
}

func TestBaseGoWaitsOnStop(t *testing.T) {
	b := NewBase("worker")
	b.StartContext(context.Background())

	done := make(chan struct{})
	b.Go(func() {
		<-b.Ctx.Done()
		close(done)
	})

	b.StopContext()

	select {
	case <-done:
	default:
		t.Fatal("goroutine still running after StopContext")
	}
}

func TestRegistry(t *testing.T) {
	var log []string
	Register("test.fake", func(deps Dependencies) (Component, error) {
		return &fakeComponent{Base: NewBase("test.fake"), log: &log}, nil
	})

	_, ok := Get("test.fake")
	assert.True(t, ok)
	assert.Contains(t, List(), "test.fake")

	comps, err := LoadAll(Dependencies{})
	require.NoError(t, err)

	var names []string
	for _, c := range comps {
		names = append(names, c.Name())
	}
	assert.Contains(t, names, "test.fake")

	assert.Panics(t, func() {
		Register("test.fake", func(Dependencies) (Component, error) { return nil, nil })
	})
}
