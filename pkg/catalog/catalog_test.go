package catalog

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadCreatesSampleWhenMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "products.json")
	cat, err := Load(path, nil)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	if len(cat.Products()) == 0 {
		t.Fatalf("expected sample products")
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("sample file not written: %v", err)
	}
}

func TestReloadPicksUpChanges(t *testing.T) {
	path := filepath.Join(t.TempDir(), "products.json")
	initial := []Product{{ID: 1, Name: "Old", Available: true}}
	writeProducts(t, path, initial)

	cat, err := Load(path, nil)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	if cat.Products()[0].Name != "Old" {
		t.Fatalf("unexpected initial product")
	}

	writeProducts(t, path, []Product{{ID: 2, Name: "New", Available: true}})
	if err := cat.Reload(); err != nil {
		t.Fatalf("reload error: %v", err)
	}
	products := cat.Products()
	if len(products) != 1 || products[0].Name != "New" {
		t.Fatalf("reload did not replace snapshot: %+v", products)
	}
}

func writeProducts(t *testing.T, path string, products []Product) {
	t.Helper()
	data, err := json.Marshal(products)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
}
