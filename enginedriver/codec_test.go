// File: enginedriver/codec_test.go
package enginedriver

import (
	"testing"

	"github.com/google/uuid"
	lua "github.com/yuin/gopher-lua"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lguibr/arenaserver/protocol"
)

func TestLuaToGo_Scalars(t *testing.T) {
	assert.Equal(t, true, luaToGo(lua.LBool(true)))
	assert.Equal(t, float64(42), luaToGo(lua.LNumber(42)))
	assert.Equal(t, "hi", luaToGo(lua.LString("hi")))
	assert.Nil(t, luaToGo(lua.LNil))
}

func TestLuaTableToGo_ArrayHeuristic(t *testing.T) {
	L := lua.NewState()
	defer L.Close()

	tbl := L.NewTable()
	tbl.RawSetInt(1, lua.LString("a"))
	tbl.RawSetInt(2, lua.LString("b"))

	got := luaTableToGo(tbl)
	assert.Equal(t, []interface{}{"a", "b"}, got)
}

func TestLuaTableToGo_MapHeuristic(t *testing.T) {
	L := lua.NewState()
	defer L.Close()

	tbl := L.NewTable()
	tbl.RawSetString("x", lua.LNumber(1))
	tbl.RawSetString("y", lua.LNumber(2))

	got := luaTableToGo(tbl)
	m, ok := got.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, float64(1), m["x"])
	assert.Equal(t, float64(2), m["y"])
}

func TestGameStateToJSON_NestedTable(t *testing.T) {
	L := lua.NewState()
	defer L.Close()

	inner := L.NewTable()
	inner.RawSetString("health", lua.LNumber(3))
	outer := L.NewTable()
	outer.RawSetString("player-1", inner)

	raw, err := gameStateToJSON(outer)
	require.NoError(t, err)
	assert.JSONEq(t, `{"player-1":{"health":3}}`, string(raw))
}

func TestPlayerOrderToLua_PreservesOrder(t *testing.T) {
	L := lua.NewState()
	defer L.Close()

	id1, id2 := uuid.New(), uuid.New()
	tbl := playerOrderToLua(L, []uuid.UUID{id1, id2})

	assert.Equal(t, id1.String(), tbl.RawGetInt(1).String())
	assert.Equal(t, id2.String(), tbl.RawGetInt(2).String())
}

func TestActionsToLua_EncodesFields(t *testing.T) {
	L := lua.NewState()
	defer L.Close()

	id := uuid.New()
	actions := map[uuid.UUID]protocol.PlayerAction{
		id: {Type: protocol.ActionMove, Direction: protocol.Up, Tag: "t1"},
	}
	tbl := actionsToLua(L, actions)

	entry, ok := tbl.RawGetString(id.String()).(*lua.LTable)
	require.True(t, ok)
	assert.Equal(t, "move", entry.RawGetString("type").String())
	assert.Equal(t, "up", entry.RawGetString("direction").String())
	assert.Equal(t, "t1", entry.RawGetString("tag").String())
}
