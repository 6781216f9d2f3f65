package script

import (
	"testing"

	"github.com/paulmach/osm"
)

func TestMissingCallbacksKeepEverything(t *testing.T) {
	r := New(nil)
	defer r.Close()

	if err := r.LoadString(``); err != nil {
		t.Fatalf("failed to load empty script: %v", err)
	}
	if !r.KeepNode(1, nil) || !r.KeepWay(2, nil) || !r.KeepRelation(3, nil) {
		t.Error("missing callbacks must keep everything")
	}
}

func TestKeepNodeCallback(t *testing.T) {
	r := New(nil)
	defer r.Close()

	err := r.LoadString(`
		function keep_node(id, tags)
			return tags.amenity ~= "bench"
		end
	`)
	if err != nil {
		t.Fatalf("failed to load script: %v", err)
	}

	bench := osm.Tags{{Key: "amenity", Value: "bench"}}
	cafe := osm.Tags{{Key: "amenity", Value: "cafe"}}

	if r.KeepNode(1, bench) {
		t.Error("keep_node should reject amenity=bench")
	}
	if !r.KeepNode(2, cafe) {
		t.Error("keep_node should keep amenity=cafe")
	}
}

func TestCallbackReceivesID(t *testing.T) {
	r := New(nil)
	defer r.Close()

	err := r.LoadString(`
		function keep_way(id, tags)
			return id ~= 42
		end
	`)
	if err != nil {
		t.Fatalf("failed to load script: %v", err)
	}

	if r.KeepWay(42, nil) {
		t.Error("keep_way should reject id 42")
	}
	if !r.KeepWay(43, nil) {
		t.Error("keep_way should keep id 43")
	}
}

func TestScriptErrorKeepsEntity(t *testing.T) {
	r := New(nil)
	defer r.Close()

	err := r.LoadString(`
		function keep_relation(id, tags)
			error("boom")
		end
	`)
	if err != nil {
		t.Fatalf("failed to load script: %v", err)
	}

	if !r.KeepRelation(1, nil) {
		t.Error("a failing callback must keep the entity")
	}
}

func TestLoadStringSyntaxError(t *testing.T) {
	r := New(nil)
	defer r.Close()

	if err := r.LoadString(`function keep_node(`); err == nil {
		t.Error("expected error for invalid Lua")
	}
}
