package game

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func (e *testEnv) federate(t *testing.T, anchor string, others ...string) {
	t.Helper()
	out := e.handle(t, anchor, tAdmin, "admin", "牛牛结盟 "+strings.Join(others, " "))
	require.Contains(t, out, "联盟成立")
	e.del.sent = nil
}

func TestAllianceCreateAndView(t *testing.T) {
	e := newTestEnv(t)
	e.enable(t, "G1")
	e.enable(t, "G2")

	out := e.handle(t, "G1", "u1", "ana", "牛牛结盟 G2")
	require.Contains(t, out, "权限", "solo administradores federan")

	out = e.handle(t, "G1", tAdmin, "admin", "牛牛结盟 G2")
	require.Contains(t, out, "联盟成立")
	require.Contains(t, out, "G1", "el grupo que federa queda como ancla")

	// el aviso de formación llegó al otro grupo, no al origen
	require.Len(t, e.del.sent, 1)
	require.True(t, strings.HasPrefix(e.del.sent[0], "G2:"))

	out = e.handle(t, "G2", "u9", "eva", "牛牛联盟")
	require.Contains(t, out, "👑 G1")
	require.Contains(t, out, "G2")

	out = e.handle(t, "G3", "u9", "eva", "牛牛联盟")
	require.Contains(t, out, "未加入任何联盟")
}

func TestAllianceCreateValidation(t *testing.T) {
	e := newTestEnv(t)

	out := e.handle(t, "G1", tAdmin, "admin", "牛牛结盟 G1")
	require.Contains(t, out, "重复")

	e.federate(t, "G1", "G2")
	out = e.handle(t, "G3", tAdmin, "admin", "牛牛结盟 G2")
	require.Contains(t, out, "其他联盟")
}

func TestAllianceMergedViewAcrossGroups(t *testing.T) {
	e := newTestEnv(t)
	e.enable(t, "G1")
	e.enable(t, "G2")
	e.handle(t, "G1", "u1", "ana", "注册牛牛")
	e.federate(t, "G1", "G2")

	// registrada solo en G1, pero visible desde G2 vía merge
	out := e.handle(t, "G2", "u1", "ana", "我的牛牛")
	require.Contains(t, out, "长度")
	require.NotContains(t, out, "还没有注册")

	out = e.handle(t, "G2", "u2", "bob", "注册牛牛")
	require.Contains(t, out, "注册成功")
	out = e.handle(t, "G1", "u1", "ana", "牛牛排行")
	require.Contains(t, out, "ana")
	require.Contains(t, out, "bob", "el ranking federado junta ambos grupos")
}

func TestAllianceLeaveAndAutoDissolve(t *testing.T) {
	e := newTestEnv(t)
	e.federate(t, "G1", "G2", "G3")

	out := e.handle(t, "G2", "u1", "ana", "牛牛退盟")
	require.Contains(t, out, "权限", "retirar el grupo requiere administrador")

	out = e.handle(t, "G1", tAdmin, "admin", "牛牛退盟")
	require.Contains(t, out, "盟主群不能退盟")

	out = e.handle(t, "G2", tAdmin, "admin", "牛牛退盟")
	require.Contains(t, out, "已退出联盟")
	// el aviso fue a los que quedan, no al que se va
	require.NotEmpty(t, e.del.sent)
	for _, s := range e.del.sent {
		require.False(t, strings.HasPrefix(s, "G2:"))
	}

	// con G3 fuera quedan menos de 2: disolución automática
	out = e.handle(t, "G3", tAdmin, "admin", "牛牛退盟")
	require.Contains(t, out, "自动解散")

	out = e.handle(t, "G1", "u1", "ana", "牛牛联盟")
	require.Contains(t, out, "未加入任何联盟")
}

func TestAllianceDissolve(t *testing.T) {
	e := newTestEnv(t)
	e.federate(t, "G1", "G2", "G3")

	out := e.handle(t, "G1", "u1", "ana", "牛牛解散联盟")
	require.Contains(t, out, "权限")
	require.Empty(t, e.del.sent, "un intento denegado no avisa a nadie")

	out = e.handle(t, "G2", tAdmin, "admin", "牛牛解散联盟")
	require.Contains(t, out, "盟主", "solo el grupo ancla disuelve")

	out = e.handle(t, "G1", tAdmin, "admin", "牛牛解散联盟")
	require.Contains(t, out, "联盟已解散")
	require.Len(t, e.del.sent, 2)

	out = e.handle(t, "G2", "u1", "ana", "牛牛联盟")
	require.Contains(t, out, "未加入任何联盟")
}

func TestAllianceLeaveForksToSnapshot(t *testing.T) {
	e := newTestEnv(t)
	e.enable(t, "G1")
	e.enable(t, "G2")
	e.handle(t, "G1", "u1", "ana", "注册牛牛")
	e.federate(t, "G1", "G2")

	// u2 se registra después de la federación: no está en el snapshot de G2
	e.handle(t, "G2", "u2", "bob", "注册牛牛")

	out := e.handle(t, "G2", tAdmin, "admin", "牛牛退盟")
	require.Contains(t, out, "已退出联盟")

	require.Nil(t, e.record(t, "G2", "u2"), "al salir, G2 vuelve a su censo original")
	require.NotNil(t, e.record(t, "G1", "u1"))

	t.Logf("✅ 退盟后 G2 回到结盟时的用户名单")
}
