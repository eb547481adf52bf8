package blocks

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultCatalogIsValid(t *testing.T) {
	c := DefaultCatalog()
	for _, typ := range EmissionOrder {
		if len(c.Variants(typ)) == 0 {
			t.Errorf("expected variants for %s", typ)
		}
	}
}

func TestVariantsOrderedByPriorityThenName(t *testing.T) {
	c, err := NewCatalog([]Block{
		{Type: Containment, Name: "b_second", OrderPriority: 2, Content: "x"},
		{Type: Containment, Name: "z_first", OrderPriority: 1, Content: "x"},
		{Type: Containment, Name: "a_also_second", OrderPriority: 2, Content: "x"},
	})
	if err != nil {
		t.Fatalf("NewCatalog: %v", err)
	}

	v := c.Variants(Containment)
	wantNames := []string{"z_first", "a_also_second", "b_second"}
	for i, name := range wantNames {
		if v[i].Name != name {
			t.Fatalf("variant %d = %s, want %s", i, v[i].Name, name)
		}
	}
}

func TestValidateRejectsDuplicateNames(t *testing.T) {
	_, err := NewCatalog([]Block{
		{Type: Validation, Name: "same", Content: "x"},
		{Type: Validation, Name: "same", Content: "y"},
	})
	if err == nil {
		t.Fatal("expected duplicate-name error")
	}
}

func TestValidateRequiresGentleDirectionForbidsPacing(t *testing.T) {
	_, err := NewCatalog([]Block{
		{Type: GentleDirection, Name: "bare", Content: "x"},
	})
	if err == nil {
		t.Fatal("expected error for gentle direction without the pacing exclusion")
	}

	_, err = NewCatalog([]Block{
		{Type: GentleDirection, Name: "guarded", Content: "x", ForbiddenWith: []Type{Pacing}},
	})
	if err != nil {
		t.Fatalf("valid gentle direction rejected: %v", err)
	}
}

func TestLoadCatalogFromYAML(t *testing.T) {
	yaml := `blocks:
  - type: CONTAINMENT
    name: steady
    trigger: bracing
    order_priority: 1
    content: "I'm right here."
  - type: GENTLE_DIRECTION
    name: onward
    trigger: ready_to_go_deeper
    order_priority: 1
    forbidden_with: [PACING]
    content: "Whenever you're ready."
`
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	if err := os.WriteFile(path, []byte(yaml), 0644); err != nil {
		t.Fatalf("write temp catalog: %v", err)
	}

	c, err := LoadCatalog(path)
	if err != nil {
		t.Fatalf("LoadCatalog: %v", err)
	}
	v := c.Variants(Containment)
	if len(v) != 1 || v[0].Name != "steady" || v[0].Trigger != "bracing" {
		t.Fatalf("unexpected containment variants: %+v", v)
	}
	gd := c.Variants(GentleDirection)
	if len(gd) != 1 || !gd[0].Forbids(Pacing) {
		t.Fatalf("gentle direction must carry the pacing exclusion: %+v", gd)
	}
}

func TestLoadCatalogErrors(t *testing.T) {
	if _, err := LoadCatalog("testdata/missing.yaml"); err == nil {
		t.Fatal("expected error for missing file")
	}

	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("blocks: [unclosed"), 0644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	if _, err := LoadCatalog(path); err == nil {
		t.Fatal("expected error for malformed yaml")
	}
}

func TestOrderIndex(t *testing.T) {
	if OrderIndex(Containment) != 0 {
		t.Fatalf("containment must emit first, got index %d", OrderIndex(Containment))
	}
	if OrderIndex(GentleDirection) != len(EmissionOrder)-1 {
		t.Fatal("gentle direction must emit last")
	}
	if OrderIndex(Type("UNKNOWN")) != len(EmissionOrder) {
		t.Fatal("unknown types must rank past the known order")
	}
}
