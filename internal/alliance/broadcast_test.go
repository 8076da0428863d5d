package alliance

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

type recordingDeliverer struct {
	mu    sync.Mutex
	sent  []string
	fail  map[string]bool
	calls int
}

func (d *recordingDeliverer) Deliver(_ context.Context, gid, msg string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls++
	if d.fail[gid] {
		return errors.New("boom")
	}
	d.sent = append(d.sent, gid)
	return nil
}

func TestBroadcastFansOutToMembers(t *testing.T) {
	e := newEnv(t)
	_, err := e.lc.Create([]string{"G1", "G2", "G3"}, tAdmin)
	require.NoError(t, err)

	d := &recordingDeliverer{}
	b := NewBroadcaster(e.reg, d)

	require.NoError(t, b.Broadcast(context.Background(), "G1", "hola", true))
	sort.Strings(d.sent)
	require.Equal(t, []string{"G2", "G3"}, d.sent)

	d.sent = nil
	require.NoError(t, b.Broadcast(context.Background(), "G1", "hola", false))
	require.Len(t, d.sent, 3)
}

func TestBroadcastNoopWhenIndependent(t *testing.T) {
	e := newEnv(t)
	d := &recordingDeliverer{}
	b := NewBroadcaster(e.reg, d)

	require.NoError(t, b.Broadcast(context.Background(), "G9", "hola", true))
	require.Zero(t, d.calls)
}

func TestBroadcastIsolatesFailures(t *testing.T) {
	e := newEnv(t)
	_, err := e.lc.Create([]string{"G1", "G2", "G3", "G4"}, tAdmin)
	require.NoError(t, err)

	d := &recordingDeliverer{fail: map[string]bool{"G3": true}}
	b := NewBroadcaster(e.reg, d)

	// una entrega rota no corta las demás ni sube como error
	require.NoError(t, b.Broadcast(context.Background(), "G1", "hola", true))
	sort.Strings(d.sent)
	require.Equal(t, []string{"G2", "G4"}, d.sent)
	require.Equal(t, 3, d.calls)
}

func TestBroadcastToExplicitList(t *testing.T) {
	e := newEnv(t)
	d := &recordingDeliverer{}
	b := NewBroadcaster(e.reg, d)

	// lista explícita: no consulta el registro, sirve post-disolución
	b.BroadcastTo(context.Background(), []string{"G7", "G8"}, "chau")
	sort.Strings(d.sent)
	require.Equal(t, []string{"G7", "G8"}, d.sent)
}
