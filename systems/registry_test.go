package systems

import "testing"

func TestStageRegistry(t *testing.T) {
	reg := NewStageRegistry()

	want := []string{"spawning", "running", "evaluating", "harvesting"}
	ids := reg.IDs()
	if len(ids) != len(want) {
		t.Fatalf("IDs() = %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("IDs()[%d] = %q, want %q", i, ids[i], want[i])
		}
	}

	if got := reg.GetName("running"); got != "Movement" {
		t.Errorf("GetName(running) = %q", got)
	}
	if got := reg.GetName("unknown"); got != "unknown" {
		t.Errorf("GetName(unknown) = %q, want fallback to id", got)
	}

	reg.Register(StageInfo{ID: "running", Name: "Tick"})
	if len(reg.IDs()) != len(want) {
		t.Error("re-registering an id should not add a stage")
	}
	if info, _ := reg.Get("running"); info.Name != "Tick" {
		t.Errorf("re-registered name = %q", info.Name)
	}
}
