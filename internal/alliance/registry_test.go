package alliance

import (
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegistryRoundTrip(t *testing.T) {
	s := NewRegistryStore(t.TempDir())

	r, err := s.Load()
	require.NoError(t, err)
	require.Empty(t, r.Alliances)

	r.Alliances["G1"] = &Alliance{
		Groups:        []string{"G1", "G2"},
		CreatedAt:     1234,
		OriginalUsers: map[string][]string{"G1": {"u1"}, "G2": nil},
	}
	r.GroupToAlliance["G1"] = "G1"
	r.GroupToAlliance["G2"] = "G1"
	require.NoError(t, s.Save(r))

	got, err := s.Load()
	require.NoError(t, err)
	require.Equal(t, r.GroupToAlliance, got.GroupToAlliance)
	a := got.Alliances["G1"]
	require.Equal(t, []string{"G1", "G2"}, a.Groups)
	require.Equal(t, int64(1234), a.CreatedAt)
	require.Equal(t, []string{"u1"}, a.OriginalUsers["G1"])
}

func TestRegistryCorruptFileFails(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, RegistryFile), []byte("{::: no yaml"), 0o644))
	_, err := NewRegistryStore(dir).Load()
	require.Error(t, err)
	require.Contains(t, err.Error(), "estado corrupto")
}

func TestLockSetSerializesPerKey(t *testing.T) {
	ls := NewLockSet()

	var inside atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release := ls.Acquire("A")
			defer release()
			require.Equal(t, int32(1), inside.Add(1), "sección crítica exclusiva")
			inside.Add(-1)
		}()
	}

	// un lock de otra alianza no bloquea
	release := ls.Acquire("B")
	release()
	wg.Wait()
}
