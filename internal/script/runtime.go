// Package script runs an optional user-supplied Lua filter ahead of tag
// extraction. The script may define keep_node, keep_way and keep_relation
// callbacks taking (id, tags) and returning a boolean; entities a callback
// rejects are dropped before classification. Missing callbacks keep
// everything.
package script

import (
	"fmt"

	"github.com/paulmach/osm"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// Runtime wraps one Lua state. A state is not safe for concurrent use;
// the pipeline creates one Runtime per worker.
type Runtime struct {
	L   *lua.LState
	log *zap.Logger

	keepNode     lua.LValue
	keepWay      lua.LValue
	keepRelation lua.LValue
}

// New creates an empty runtime. Load a script with LoadFile or LoadString.
func New(log *zap.Logger) *Runtime {
	if log == nil {
		log = zap.NewNop()
	}
	return &Runtime{
		L:   lua.NewState(),
		log: log,
	}
}

// Close releases Lua resources
func (r *Runtime) Close() {
	r.L.Close()
}

// LoadFile loads and executes a Lua filter script
func (r *Runtime) LoadFile(path string) error {
	if err := r.L.DoFile(path); err != nil {
		return fmt.Errorf("failed to load Lua file: %w", err)
	}
	r.extractCallbacks()
	return nil
}

// LoadString loads and executes Lua code from a string (for testing)
func (r *Runtime) LoadString(code string) error {
	if err := r.L.DoString(code); err != nil {
		return fmt.Errorf("failed to load Lua code: %w", err)
	}
	r.extractCallbacks()
	return nil
}

func (r *Runtime) extractCallbacks() {
	r.keepNode = r.L.GetGlobal("keep_node")
	r.keepWay = r.L.GetGlobal("keep_way")
	r.keepRelation = r.L.GetGlobal("keep_relation")
}

// KeepNode reports whether the script keeps the node
func (r *Runtime) KeepNode(id int64, tags osm.Tags) bool {
	return r.call(r.keepNode, id, tags)
}

// KeepWay reports whether the script keeps the way
func (r *Runtime) KeepWay(id int64, tags osm.Tags) bool {
	return r.call(r.keepWay, id, tags)
}

// KeepRelation reports whether the script keeps the relation
func (r *Runtime) KeepRelation(id int64, tags osm.Tags) bool {
	return r.call(r.keepRelation, id, tags)
}

// call invokes a callback with (id, tags). A script error keeps the entity:
// filtering is best-effort and must not lose data on a buggy script.
func (r *Runtime) call(fn lua.LValue, id int64, tags osm.Tags) bool {
	if fn == nil || fn == lua.LNil {
		return true
	}

	tbl := r.L.NewTable()
	for _, tag := range tags {
		tbl.RawSetString(tag.Key, lua.LString(tag.Value))
	}

	err := r.L.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, lua.LNumber(id), tbl)
	if err != nil {
		r.log.Warn("Lua filter failed, keeping entity",
			zap.Int64("id", id),
			zap.Error(err),
		)
		return true
	}

	ret := r.L.Get(-1)
	r.L.Pop(1)
	return lua.LVAsBool(ret)
}
