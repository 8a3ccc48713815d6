package quotaplan

import "testing"

func TestRegistryLoadsEmbeddedPlans(t *testing.T) {
	reg, err := NewRegistry()
	if err != nil {
		t.Fatalf("NewRegistry failed: %v", err)
	}

	plans := reg.List()
	if len(plans) == 0 {
		t.Fatal("expected at least one embedded plan")
	}
	if plans[0].Name != "free" {
		t.Errorf("expected the free tier first, got %q", plans[0].Name)
	}
	for _, p := range plans {
		if p.LimitBytes <= 0 {
			t.Errorf("plan %q has non-positive limit %d", p.Name, p.LimitBytes)
		}
	}
}

func TestRegistryGet(t *testing.T) {
	reg, err := NewRegistry()
	if err != nil {
		t.Fatalf("NewRegistry failed: %v", err)
	}

	free, err := reg.Get("free")
	if err != nil {
		t.Fatalf("Get(free) failed: %v", err)
	}
	if free.LimitBytes != 10*1024*1024*1024 {
		t.Errorf("free tier limit = %d, want 10 GiB", free.LimitBytes)
	}

	if _, err := reg.Get("platinum"); err == nil {
		t.Error("expected an error for an unknown plan")
	}
}
