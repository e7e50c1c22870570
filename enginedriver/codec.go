// File: enginedriver/codec.go
package enginedriver

import (
	"encoding/json"

	"github.com/google/uuid"
	lua "github.com/yuin/gopher-lua"

	"github.com/lguibr/arenaserver/protocol"
)

// luaToGo converts a Lua value into the closest Go representation that
// encoding/json already knows how to marshal. It is the hand-rolled half
// of the codec: gopher-lua ships no built-in struct mapper, so this plays
// the part gluamapper-style libraries play elsewhere in the ecosystem.
func luaToGo(v lua.LValue) interface{} {
	switch val := v.(type) {
	case lua.LBool:
		return bool(val)
	case lua.LNumber:
		return float64(val)
	case lua.LString:
		return string(val)
	case *lua.LTable:
		return luaTableToGo(val)
	case *lua.LNilType:
		return nil
	default:
		return val.String()
	}
}

func luaTableToGo(tbl *lua.LTable) interface{} {
	if n := tbl.Len(); n > 0 {
		arr := make([]interface{}, 0, n)
		for i := 1; i <= n; i++ {
			arr = append(arr, luaToGo(tbl.RawGetInt(i)))
		}
		return arr
	}
	m := make(map[string]interface{})
	tbl.ForEach(func(key, val lua.LValue) {
		m[key.String()] = luaToGo(val)
	})
	return m
}

// gameStateToJSON marshals a Lua return value into the opaque blob the
// Coordinator forwards to clients verbatim.
func gameStateToJSON(v lua.LValue) (json.RawMessage, error) {
	b, err := json.Marshal(luaToGo(v))
	if err != nil {
		return nil, err
	}
	return json.RawMessage(b), nil
}

func playerOrderToLua(L *lua.LState, order []uuid.UUID) *lua.LTable {
	tbl := L.NewTable()
	for i, id := range order {
		tbl.RawSetInt(i+1, lua.LString(id.String()))
	}
	return tbl
}

func actionsToLua(L *lua.LState, actions map[uuid.UUID]protocol.PlayerAction) *lua.LTable {
	tbl := L.NewTable()
	for id, action := range actions {
		entry := L.NewTable()
		entry.RawSetString("type", lua.LString(action.Type))
		entry.RawSetString("direction", lua.LString(string(action.Direction)))
		entry.RawSetString("tag", lua.LString(action.Tag))
		tbl.RawSetString(id.String(), entry)
	}
	return tbl
}
