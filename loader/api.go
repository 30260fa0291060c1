package loader

import (
	lua "github.com/yuin/gopher-lua"
)

// registerAPI registers all Lua constructors and helpers as globals.
func registerAPI(L *lua.LState, coll *collector) {
	registerConstructors(L, coll)
	registerConditionHelpers(L)
	registerPatternHelpers(L)
}

// curried registers `Name "id" { ... }` and appends to the given slice.
func curried(L *lua.LState, name string, sink *[]rawDef) {
	L.SetGlobal(name, L.NewFunction(func(L *lua.LState) int {
		id := L.CheckString(1)
		L.Push(L.NewFunction(func(L *lua.LState) int {
			tbl := L.CheckTable(1)
			*sink = append(*sink, rawDef{id: id, table: tbl})
			return 0
		}))
		return 1
	}))
}

func registerConstructors(L *lua.LState, coll *collector) {
	// Game { title = "...", ... }
	L.SetGlobal("Game", L.NewFunction(func(L *lua.LState) int {
		coll.game = L.CheckTable(1)
		return 0
	}))

	// Party { members = {...}, gold = n, inventory = {...} }
	L.SetGlobal("Party", L.NewFunction(func(L *lua.LState) int {
		coll.party = L.CheckTable(1)
		return 0
	}))

	// Skill "id" { ... } — curried: Skill("id") returns a function that
	// takes a table. Same for the other keyed constructors.
	curried(L, "Skill", &coll.skills)
	curried(L, "Item", &coll.items)
	curried(L, "Equipment", &coll.equipment)
	curried(L, "Enemy", &coll.enemies)
	curried(L, "Character", &coll.characters)
	curried(L, "Troop", &coll.troops)
}

func registerConditionHelpers(L *lua.LState) {
	// Always()
	L.SetGlobal("Always", L.NewFunction(func(L *lua.LState) int {
		tbl := L.NewTable()
		tbl.RawSetString("kind", lua.LString("always"))
		L.Push(tbl)
		return 1
	}))

	// HPBetween(min, max) — own HP fraction within [min, max].
	L.SetGlobal("HPBetween", L.NewFunction(func(L *lua.LState) int {
		min := L.CheckNumber(1)
		max := L.CheckNumber(2)
		tbl := L.NewTable()
		tbl.RawSetString("kind", lua.LString("hp"))
		tbl.RawSetString("hp_min", min)
		tbl.RawSetString("hp_max", max)
		L.Push(tbl)
		return 1
	}))

	// HPBelow(max) — shorthand for HPBetween(0, max).
	L.SetGlobal("HPBelow", L.NewFunction(func(L *lua.LState) int {
		max := L.CheckNumber(1)
		tbl := L.NewTable()
		tbl.RawSetString("kind", lua.LString("hp"))
		tbl.RawSetString("hp_min", lua.LNumber(0))
		tbl.RawSetString("hp_max", max)
		L.Push(tbl)
		return 1
	}))

	// OnTurn(a, b) — fires when round == a + n*b; b = 0 fires once.
	L.SetGlobal("OnTurn", L.NewFunction(func(L *lua.LState) int {
		a := L.CheckNumber(1)
		b := L.CheckNumber(2)
		tbl := L.NewTable()
		tbl.RawSetString("kind", lua.LString("turn"))
		tbl.RawSetString("turn_a", a)
		tbl.RawSetString("turn_b", b)
		L.Push(tbl)
		return 1
	}))

	// PartyLevelAtLeast(n)
	L.SetGlobal("PartyLevelAtLeast", L.NewFunction(func(L *lua.LState) int {
		n := L.CheckNumber(1)
		tbl := L.NewTable()
		tbl.RawSetString("kind", lua.LString("party_level"))
		tbl.RawSetString("party_level", n)
		L.Push(tbl)
		return 1
	}))

	// HasStatus("tag")
	L.SetGlobal("HasStatus", L.NewFunction(func(L *lua.LState) int {
		tag := L.CheckString(1)
		tbl := L.NewTable()
		tbl.RawSetString("kind", lua.LString("status"))
		tbl.RawSetString("status", lua.LString(tag))
		L.Push(tbl)
		return 1
	}))
}

func registerPatternHelpers(L *lua.LState) {
	// Pattern("skill_id", rating, condition)
	L.SetGlobal("Pattern", L.NewFunction(func(L *lua.LState) int {
		skill := L.CheckString(1)
		rating := L.CheckNumber(2)
		cond := L.CheckTable(3)
		tbl := L.NewTable()
		tbl.RawSetString("skill", lua.LString(skill))
		tbl.RawSetString("rating", rating)
		tbl.RawSetString("condition", cond)
		L.Push(tbl)
		return 1
	}))

	// Drop("item_id", rate)
	L.SetGlobal("Drop", L.NewFunction(func(L *lua.LState) int {
		item := L.CheckString(1)
		rate := L.CheckNumber(2)
		tbl := L.NewTable()
		tbl.RawSetString("item", lua.LString(item))
		tbl.RawSetString("rate", rate)
		L.Push(tbl)
		return 1
	}))
}
