package domain

import (
	"reflect"
	"testing"
)

func TestQuantityMapAdd(t *testing.T) {
	q := QuantityMap{}
	q.Add("DOWEL_6X40", 4)
	q.Add("DOWEL_6X40", 2)
	q.Add("SCREW", 0)
	q.Add("NUT", -1)

	expected := QuantityMap{"DOWEL_6X40": 6}
	if !reflect.DeepEqual(q, expected) {
		t.Errorf("expected %v, got %v", expected, q)
	}
}

func TestQuantityMapAddAll(t *testing.T) {
	q := QuantityMap{"A": 1}
	q.AddAll(QuantityMap{"A": 2, "B": 3})

	if q["A"] != 3 || q["B"] != 3 {
		t.Errorf("unexpected merge result %v", q)
	}
	if codes := q.Codes(); !reflect.DeepEqual(codes, []string{"A", "B"}) {
		t.Errorf("expected sorted codes, got %v", codes)
	}
}

func TestSortBOM(t *testing.T) {
	lines := []BOMLine{
		{Code: "C", Name: "Screw", Category: "Fasteners"},
		{Code: "A", Name: "Cable", Category: "Cables"},
		{Code: "B", Name: "Dowel", Category: "Fasteners"},
	}
	SortBOM(lines)

	got := []string{lines[0].Code, lines[1].Code, lines[2].Code}
	if !reflect.DeepEqual(got, []string{"A", "B", "C"}) {
		t.Errorf("expected order [A B C], got %v", got)
	}
}

func TestCatalogAddMaterialReplaces(t *testing.T) {
	c := NewCatalog()
	c.AddMaterial(Material{Code: "X", Name: "old"})
	c.AddMaterial(Material{Code: "X", Name: "new"})

	if len(c.Materials) != 1 {
		t.Fatalf("expected 1 material, got %d", len(c.Materials))
	}
	m, ok := c.Material("X")
	if !ok || m.Name != "new" {
		t.Errorf("expected replaced material, got %+v", m)
	}
}
