package cron_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/erp-ledger/internal/cron"
	"github.com/jhoicas/erp-ledger/pkg/logger"
)

// ─── Fakes ─────────────────────────────────────────────────────────────────────

type testJob struct {
	name string
	err  error
	runs int
}

func (t *testJob) Name() string { return t.name }

func (t *testJob) Run(context.Context) error {
	t.runs++
	return t.err
}

type fakeRedis struct {
	values map[string]string
	getErr error
}

func newFakeRedis() *fakeRedis { return &fakeRedis{values: map[string]string{}} }

func (f *fakeRedis) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	if _, ok := f.values[key]; ok {
		return false, nil
	}
	f.values[key] = value.(string)
	return true, nil
}

func (f *fakeRedis) Get(_ context.Context, key string) (string, error) {
	if f.getErr != nil {
		return "", f.getErr
	}
	v, ok := f.values[key]
	if !ok {
		return "", redis.Nil
	}
	return v, nil
}

func (f *fakeRedis) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(f.values, k)
	}
	return nil
}

// ─── Service ───────────────────────────────────────────────────────────────────

func TestService_CorreTodosLosTrabajosAunqueUnoFalle(t *testing.T) {
	ok := &testJob{name: "ok"}
	fail := &testJob{name: "fail", err: errors.New("boom")}
	svc, err := cron.NewService(cron.ServiceParams{
		Logger: logger.Nop(),
		Jobs:   []cron.Job{ok, fail},
		Lock:   cron.NewLocalLock(),
	})
	require.NoError(t, err)

	require.NoError(t, svc.RunCycle(context.Background()))
	assert.Equal(t, 1, ok.runs)
	assert.Equal(t, 1, fail.runs)
}

func TestService_OmiteCicloSiOtroTieneElLock(t *testing.T) {
	lock := cron.NewLocalLock()
	acquired, err := lock.Acquire(context.Background())
	require.NoError(t, err)
	require.True(t, acquired)

	job := &testJob{name: "ok"}
	svc, err := cron.NewService(cron.ServiceParams{Logger: logger.Nop(), Jobs: []cron.Job{job}, Lock: lock})
	require.NoError(t, err)

	require.NoError(t, svc.RunCycle(context.Background()))
	assert.Equal(t, 0, job.runs)
}

func TestService_LiberaElLockTrasElCiclo(t *testing.T) {
	lock := cron.NewLocalLock()
	job := &testJob{name: "ok"}
	svc, err := cron.NewService(cron.ServiceParams{Logger: logger.Nop(), Jobs: []cron.Job{job}, Lock: lock})
	require.NoError(t, err)

	require.NoError(t, svc.RunCycle(context.Background()))
	require.NoError(t, svc.RunCycle(context.Background()))
	assert.Equal(t, 2, job.runs)
}

func TestService_RunTerminaAlCancelarContexto(t *testing.T) {
	job := &testJob{name: "ok"}
	svc, err := cron.NewService(cron.ServiceParams{
		Logger: logger.Nop(), Jobs: []cron.Job{job}, Lock: cron.NewLocalLock(), Interval: time.Hour,
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Run no terminó tras cancelar")
	}
}

func TestNewService_ValidaParametros(t *testing.T) {
	_, err := cron.NewService(cron.ServiceParams{Lock: cron.NewLocalLock()})
	assert.Error(t, err)
	_, err = cron.NewService(cron.ServiceParams{Logger: logger.Nop()})
	assert.Error(t, err)
}

// ─── RedisLock ─────────────────────────────────────────────────────────────────

func TestRedisLock_SoloUnDueno(t *testing.T) {
	store := newFakeRedis()
	a, err := cron.NewRedisLock(store, "erp:cron", time.Minute)
	require.NoError(t, err)
	b, err := cron.NewRedisLock(store, "erp:cron", time.Minute)
	require.NoError(t, err)
	ctx := context.Background()

	ok, err := a.Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = b.Acquire(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	// b no es dueño: no debe borrar el lock de a
	require.NoError(t, b.Release(ctx))
	assert.Contains(t, store.values, "erp:cron")

	require.NoError(t, a.Release(ctx))
	assert.NotContains(t, store.values, "erp:cron")

	ok, err = b.Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisLock_ReleaseSinClaveNoFalla(t *testing.T) {
	store := newFakeRedis()
	l, err := cron.NewRedisLock(store, "erp:cron", 0)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = l.Acquire(ctx)
	require.NoError(t, err)
	delete(store.values, "erp:cron")
	assert.NoError(t, l.Release(ctx))
}

func TestRedisLock_PropagaErrorDeLectura(t *testing.T) {
	store := newFakeRedis()
	l, err := cron.NewRedisLock(store, "erp:cron", time.Minute)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = l.Acquire(ctx)
	require.NoError(t, err)
	store.getErr = errors.New("conexión rechazada")
	assert.Error(t, l.Release(ctx))
}

func TestNewRedisLock_ValidaParametros(t *testing.T) {
	_, err := cron.NewRedisLock(nil, "k", time.Minute)
	assert.Error(t, err)
	_, err = cron.NewRedisLock(newFakeRedis(), "", time.Minute)
	assert.Error(t, err)
}
