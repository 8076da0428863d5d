package alliance

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Superskyyy/niuniu-plus/internal/domain/types"
)

func (e *env) record(t *testing.T, gid, uid string) *types.UserRecord {
	t.Helper()
	c, err := e.parts.Load()
	require.NoError(t, err)
	p, ok := c[gid]
	if !ok {
		return nil
	}
	return p.Users[uid]
}

func (e *env) merged(t *testing.T, uid string) *types.UserRecord {
	t.Helper()
	reg, err := e.reg.Load()
	require.NoError(t, err)
	c, err := e.parts.Load()
	require.NoError(t, err)
	for _, a := range reg.Alliances {
		if rec, ok := Merge(uid, a, c); ok {
			return rec
		}
	}
	return nil
}

func TestSetPropagatesToAllMembers(t *testing.T) {
	e := newEnv(t)
	e.seed(t, "G1", "u1", types.NewUserRecord("ana", 5))
	e.seed(t, "G2", "u2", types.NewUserRecord("bob", 3))
	_, err := e.lc.Create([]string{"G1", "G2"}, tAdmin)
	require.NoError(t, err)

	require.NoError(t, e.sync.Apply("G1", "u1", types.Batch{
		types.SetNickname{Nickname: "anita"},
		types.SetField{Name: "hardness", Value: 9},
	}))

	for _, gid := range []string{"G1", "G2"} {
		rec := e.record(t, gid, "u1")
		require.NotNil(t, rec, "set crea el registro donde falte (%s)", gid)
		require.Equal(t, "anita", rec.Nickname)
		require.Equal(t, 9, rec.Hardness)
	}
}

func TestDeltaIsolation(t *testing.T) {
	e := newEnv(t)
	a := types.NewUserRecord("ana", 5)
	a.Coins = 100
	b := types.NewUserRecord("ana", 5)
	b.Coins = 40
	e.seed(t, "G1", "u1", a)
	e.seed(t, "G2", "u1", b)
	_, err := e.lc.Create([]string{"G1", "G2"}, tAdmin)
	require.NoError(t, err)

	require.NoError(t, e.sync.Apply("G1", "u1", types.Batch{
		types.DeltaField{Name: "coins", Delta: -50},
	}))

	require.Equal(t, 50, e.record(t, "G1", "u1").Coins, "el delta pega en el origen")
	require.Equal(t, 40, e.record(t, "G2", "u1").Coins, "y no toca al resto")
	require.Equal(t, 90, e.merged(t, "u1").Coins, "el merge lo refleja exactamente una vez")
}

func TestDeltaOnMissingRecordStartsAtFloor(t *testing.T) {
	e := newEnv(t)
	e.seed(t, "G1", "u1", types.NewUserRecord("ana", 5))
	e.seed(t, "G2", "u9", types.NewUserRecord("otro", 1))
	_, err := e.lc.Create([]string{"G1", "G2"}, tAdmin)
	require.NoError(t, err)

	// escenario completo: merge inicial sin registro en G2, luego un
	// delta originado en G2 crea el registro ahí
	m := e.merged(t, "u1")
	require.Equal(t, 5.0, m.Length)
	require.Zero(t, m.Coins)

	require.NoError(t, e.sync.Apply("G2", "u1", types.Batch{
		types.DeltaField{Name: "coins", Delta: 100},
	}))

	rec := e.record(t, "G2", "u1")
	require.NotNil(t, rec)
	require.Equal(t, 100, rec.Coins)
	require.Equal(t, 100, e.merged(t, "u1").Coins)
	t.Logf("✅ escenario G1/G2 completo")
}

func TestDeltaItemOnlyAtOrigin(t *testing.T) {
	e := newEnv(t)
	e.seed(t, "G1", "u1", types.NewUserRecord("ana", 5))
	e.seed(t, "G2", "u1", types.NewUserRecord("ana", 5))
	_, err := e.lc.Create([]string{"G1", "G2"}, tAdmin)
	require.NoError(t, err)

	require.NoError(t, e.sync.Apply("G2", "u1", types.Batch{
		types.DeltaItem{Item: "pills", Delta: 2},
		types.Touch{At: 777},
	}))

	require.Zero(t, e.record(t, "G1", "u1").ItemCount("pills"))
	require.Equal(t, 2, e.record(t, "G2", "u1").ItemCount("pills"))
	require.Equal(t, int64(777), e.record(t, "G2", "u1").LastActive)
	require.Zero(t, e.record(t, "G1", "u1").LastActive, "touch no propaga")
}

func TestApplyOnIndependentGroup(t *testing.T) {
	e := newEnv(t)
	require.NoError(t, e.sync.Apply("G1", "u1", types.Batch{
		types.SetField{Name: "length", Value: 7},
		types.DeltaField{Name: "coins", Delta: 10},
	}))
	rec := e.record(t, "G1", "u1")
	require.Equal(t, 7.0, rec.Length)
	require.Equal(t, 10, rec.Coins)
	require.Equal(t, types.HardnessFloor, rec.Hardness)
}

func TestApplyUnknownFieldFails(t *testing.T) {
	e := newEnv(t)
	err := e.sync.Apply("G1", "u1", types.Batch{
		types.SetField{Name: "no_existe", Value: 1},
	})
	require.Error(t, err)
}

func TestApplyRecomputesTargetsUnderLock(t *testing.T) {
	e := newEnv(t)
	e.seed(t, "G1", "u1", types.NewUserRecord("ana", 5))
	e.seed(t, "G2", "u1", types.NewUserRecord("ana", 5))
	e.seed(t, "G3", "u9", types.NewUserRecord("otro", 1))
	_, err := e.lc.Create([]string{"G1", "G2", "G3"}, tAdmin)
	require.NoError(t, err)

	// Se sostiene el lock del scope mientras un Apply queda bloqueado
	// con el registro viejo ya resuelto; mientras tanto se commitea la
	// salida de G2 (registro + fork de su partición), como haría Leave
	// bajo ese mismo lock.
	release := e.locks.Acquire("G1")

	done := make(chan error, 1)
	go func() {
		done <- e.sync.Apply("G1", "u1", types.Batch{
			types.SetField{Name: "hardness", Value: 9},
		})
	}()
	time.Sleep(100 * time.Millisecond) // el Apply ya resolvió scope y espera el lock

	reg, err := e.reg.Load()
	require.NoError(t, err)
	reg.Alliances["G1"].Groups = []string{"G1", "G3"}
	delete(reg.GroupToAlliance, "G2")
	c, err := e.parts.Load()
	require.NoError(t, err)
	delete(c["G2"].Users, "u1")
	require.NoError(t, e.parts.Save(c))
	require.NoError(t, e.reg.Save(reg))

	release()
	require.NoError(t, <-done)

	require.Nil(t, e.record(t, "G2", "u1"), "el grupo que salió no recibe propagaciones viejas")
	require.Equal(t, 9, e.record(t, "G1", "u1").Hardness)
	require.NotNil(t, e.record(t, "G3", "u1"), "los miembros vigentes sí reciben el set")
}
