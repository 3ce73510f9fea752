package dag

import (
	"testing"

	"github.com/corestream/engine/internal/model"
)

type stubNode struct{ id string }

func (s *stubNode) ID() string           { return s.id }
func (s *stubNode) InitState() any       { return nil }
func (s *stubNode) Compute(model.NodeInputs, any) (model.NodeOutputs, error) {
	return model.NodeOutputs{}, nil
}

func TestRegistryCreateUnknownType(t *testing.T) {
	r := NewRegistry()
	_, err := r.Create(model.NodeDef{ID: "a", Type: "Nope"})
	if err == nil {
		t.Fatal("expected error for unregistered type")
	}
}

func TestRegistryCreateKnownType(t *testing.T) {
	r := NewRegistry()
	r.Register("Stub", func(def model.NodeDef) (model.Node, error) {
		return &stubNode{id: def.ID}, nil
	})

	n, err := r.Create(model.NodeDef{ID: "a", Type: "Stub"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if n.ID() != "a" {
		t.Fatalf("ID() = %q, want a", n.ID())
	}
	if !r.IsRegistered("Stub") {
		t.Fatal("expected Stub to be registered")
	}
}
