package alliance

import (
	"errors"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Superskyyy/niuniu-plus/internal/domain/types"
	"github.com/Superskyyy/niuniu-plus/internal/store"
)

const tAdmin = "admin"

type env struct {
	reg   *RegistryStore
	parts *store.PartitionStore
	locks *LockSet
	lc    *Lifecycle
	sync  *Synchronizer
	res   *Resolver
}

func newEnv(t *testing.T) *env {
	t.Helper()
	root := t.TempDir()
	reg := NewRegistryStore(root)
	parts := store.New(root)
	locks := NewLockSet()
	isAdmin := func(a string) bool { return a == tAdmin }
	now := func() int64 { return 1000 }
	return &env{
		reg:   reg,
		parts: parts,
		locks: locks,
		lc:    NewLifecycle(reg, parts, locks, isAdmin, now),
		sync:  NewSynchronizer(reg, parts, locks),
		res:   NewResolver(reg),
	}
}

func (e *env) seed(t *testing.T, gid, uid string, rec *types.UserRecord) {
	t.Helper()
	c, err := e.parts.Load()
	require.NoError(t, err)
	p := c.Ensure(gid)
	p.Enabled = true
	p.Users[uid] = rec
	require.NoError(t, e.parts.Save(c))
}

func (e *env) users(t *testing.T, gid string) []string {
	t.Helper()
	c, err := e.parts.Load()
	require.NoError(t, err)
	p, ok := c[gid]
	if !ok {
		return nil
	}
	ids := p.UserIDs()
	sort.Strings(ids)
	return ids
}

func TestCreateRequiresAdmin(t *testing.T) {
	e := newEnv(t)
	_, err := e.lc.Create([]string{"G1", "G2"}, "pleb")
	require.ErrorIs(t, err, ErrPermissionDenied)
}

func TestCreateValidations(t *testing.T) {
	e := newEnv(t)

	_, err := e.lc.Create([]string{"G1"}, tAdmin)
	require.True(t, IsValidation(err), "menos de 2 grupos")

	_, err = e.lc.Create([]string{"G1", "G1"}, tAdmin)
	require.True(t, IsValidation(err), "grupo repetido")

	_, err = e.lc.Create([]string{"G1", "G2"}, tAdmin)
	require.NoError(t, err)

	_, err = e.lc.Create([]string{"G2", "G3"}, tAdmin)
	require.True(t, IsValidation(err), "G2 ya federado")
}

func TestCreateSnapshotsOriginalUsers(t *testing.T) {
	e := newEnv(t)
	e.seed(t, "G1", "u1", types.NewUserRecord("ana", 5))
	e.seed(t, "G1", "u2", types.NewUserRecord("bob", 3))
	e.seed(t, "G2", "u2", types.NewUserRecord("bob", 3))
	e.seed(t, "G2", "u3", types.NewUserRecord("eva", 8))

	a, err := e.lc.Create([]string{"G1", "G2"}, tAdmin)
	require.NoError(t, err)
	require.Equal(t, "G1", a.Anchor())
	require.Equal(t, []string{"u1", "u2"}, a.OriginalUsers["G1"])
	require.Equal(t, []string{"u2", "u3"}, a.OriginalUsers["G2"])
}

func TestViewNotFederated(t *testing.T) {
	e := newEnv(t)
	_, err := e.lc.View("G1")
	require.ErrorIs(t, err, ErrNotFederated)
}

func TestEffectiveScopeIdempotent(t *testing.T) {
	e := newEnv(t)
	_, err := e.lc.Create([]string{"G1", "G2"}, tAdmin)
	require.NoError(t, err)

	s1, err := e.res.EffectiveScope("G2")
	require.NoError(t, err)
	s2, err := e.res.EffectiveScope("G2")
	require.NoError(t, err)
	require.Equal(t, s1, s2)
	require.Equal(t, "G1", s1)

	solo, err := e.res.EffectiveScope("G9")
	require.NoError(t, err)
	require.Equal(t, "G9", solo)
}

func TestAnchorCannotLeave(t *testing.T) {
	e := newEnv(t)
	_, err := e.lc.Create([]string{"G1", "G2", "G3"}, tAdmin)
	require.NoError(t, err)

	_, err = e.lc.Leave("G1", tAdmin)
	require.True(t, IsValidation(err))

	// la alianza queda intacta
	sum, err := e.lc.View("G1")
	require.NoError(t, err)
	require.Equal(t, []string{"G1", "G2", "G3"}, sum.Groups)
}

func TestLeaveForksToSnapshot(t *testing.T) {
	e := newEnv(t)
	e.seed(t, "G1", "u1", types.NewUserRecord("ana", 5))
	e.seed(t, "G2", "u2", types.NewUserRecord("bob", 3))
	e.seed(t, "G3", "u3", types.NewUserRecord("eva", 8))

	_, err := e.lc.Create([]string{"G1", "G2", "G3"}, tAdmin)
	require.NoError(t, err)

	// u1 gana presencia en G3 durante la federación (un set propagado)
	require.NoError(t, e.sync.Apply("G1", "u1", types.Batch{
		types.SetField{Name: "hardness", Value: 5},
	}))
	require.Contains(t, e.users(t, "G3"), "u1")

	dissolved, err := e.lc.Leave("G3", tAdmin)
	require.NoError(t, err)
	require.False(t, dissolved)

	// G3 vuelve exactamente a su snapshot
	require.Equal(t, []string{"u3"}, e.users(t, "G3"))

	// G3 quedó independiente, los otros dos siguen federados
	scope, err := e.res.EffectiveScope("G3")
	require.NoError(t, err)
	require.Equal(t, "G3", scope)
	sum, err := e.lc.View("G1")
	require.NoError(t, err)
	require.Equal(t, []string{"G1", "G2"}, sum.Groups)
}

func TestAutoDissolveOnShrink(t *testing.T) {
	e := newEnv(t)
	e.seed(t, "G1", "u1", types.NewUserRecord("ana", 5))
	e.seed(t, "G2", "u2", types.NewUserRecord("bob", 3))

	_, err := e.lc.Create([]string{"G1", "G2"}, tAdmin)
	require.NoError(t, err)

	dissolved, err := e.lc.Leave("G2", tAdmin)
	require.NoError(t, err)
	require.True(t, dissolved)

	// ningún rastro de la alianza
	reg, err := e.reg.Load()
	require.NoError(t, err)
	require.Empty(t, reg.Alliances)
	require.Empty(t, reg.GroupToAlliance)

	for _, g := range []string{"G1", "G2"} {
		fed, err := e.res.IsFederated(g)
		require.NoError(t, err)
		require.False(t, fed)
	}
	t.Logf("✅ auto-disolución al quedar un solo miembro")
}

func TestDissolveForkAllMembers(t *testing.T) {
	e := newEnv(t)
	e.seed(t, "G1", "u1", types.NewUserRecord("ana", 5))
	e.seed(t, "G1", "u2", types.NewUserRecord("bob", 3))
	e.seed(t, "G2", "u2", types.NewUserRecord("bob", 3))
	e.seed(t, "G2", "u3", types.NewUserRecord("eva", 8))

	_, err := e.lc.Create([]string{"G1", "G2"}, tAdmin)
	require.NoError(t, err)

	// u4 entra en ambos grupos solo durante la federación
	require.NoError(t, e.sync.Apply("G1", "u4", types.Batch{
		types.SetField{Name: "length", Value: 1},
	}))
	require.Contains(t, e.users(t, "G1"), "u4")
	require.Contains(t, e.users(t, "G2"), "u4")

	require.NoError(t, e.lc.Dissolve("G1", tAdmin))

	require.Equal(t, []string{"u1", "u2"}, e.users(t, "G1"))
	require.Equal(t, []string{"u2", "u3"}, e.users(t, "G2"))
}

func TestDissolveOnlyFromAnchor(t *testing.T) {
	e := newEnv(t)
	_, err := e.lc.Create([]string{"G1", "G2"}, tAdmin)
	require.NoError(t, err)

	err = e.lc.Dissolve("G2", tAdmin)
	require.True(t, IsValidation(err))

	err = e.lc.Dissolve("G3", tAdmin)
	require.ErrorIs(t, err, ErrNotFederated)

	err = e.lc.Dissolve("G1", "pleb")
	require.True(t, errors.Is(err, ErrPermissionDenied))

	require.NoError(t, e.lc.Dissolve("G1", tAdmin))
}
