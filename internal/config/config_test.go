package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultValidates(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default rules invalid: %v", err)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name  string
		mut   func(r *Rules)
	}{
		{"zero seed money", func(r *Rules) { r.Game.SeedMoney = 0 }},
		{"negative overhead", func(r *Rules) { r.Game.FixedOverhead = -1 }},
		{"zero base minutes", func(r *Rules) { r.Projects.BaseMinutesPerComplexity = 0 }},
		{"discount too steep", func(r *Rules) { r.Projects.SeniorityDiscount = 0.25 }},
		{"junior cap out of range", func(r *Rules) { r.Projects.JuniorMaxComplexity = 6 }},
		{"missing value tier", func(r *Rules) { delete(r.Projects.ValuePerComplexity, 3) }},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			r := Default()
			c.mut(r)
			if err := r.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestFromYAML(t *testing.T) {
	r, err := FromYAML([]byte("game:\n  seed_money: 5000\n  fixed_overhead: 100\n"))
	if err == nil {
		t.Fatal("partial rules should fail validation")
	}
	_ = r
	if _, err := FromYAML([]byte("game: [not a map")); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestLoadOptional(t *testing.T) {
	dir := t.TempDir()

	// no file falls back to defaults
	r, err := LoadOptional(dir)
	if err != nil {
		t.Fatalf("load without file: %v", err)
	}
	if r.Game.SeedMoney != 10000 {
		t.Fatalf("seed money = %v, want default 10000", r.Game.SeedMoney)
	}

	// Load without a file names the remedy
	if _, err := Load(dir); err == nil {
		t.Fatal("expected not-found error from Load")
	}

	if err := os.WriteFile(Path(dir), []byte(GenerateDefault()), 0o644); err != nil {
		t.Fatal(err)
	}
	if filepath.Base(Path(dir)) != "techco.yml" {
		t.Fatalf("unexpected rules path %s", Path(dir))
	}

	r, err = LoadOptional(dir)
	if err != nil {
		t.Fatalf("load with file: %v", err)
	}
	if err := r.Validate(); err != nil {
		t.Fatalf("loaded rules invalid: %v", err)
	}
}
