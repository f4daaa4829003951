package core

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestNormalizeHeader(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Product", "product"},
		{"  КОЛИЧЕСТВО  ", "количество"},
		{"Количество (бр.)", "количество"},
		{`"Product   Name"`, "product name"},
		{"„Дата“", "дата"},
		{"Продуктова\tгрупа", "продуктова група"},
		{"product\u00a0name", "product name"},
		{"\u00a0Брой\u2007\u00a0продажби\u202f", "брой продажби"},
		{"(only notes)", ""},
		{"", ""},
	}

	for _, tt := range tests {
		if got := NormalizeHeader(tt.input); got != tt.want {
			t.Errorf("NormalizeHeader(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestResolveHeaders(t *testing.T) {
	syn := DefaultSynonyms()

	tests := []struct {
		name   string
		header []string
		want   HeaderMapping
	}{
		{
			name:   "bulgarian headers",
			header: []string{"Продукт", "Количество", "Дата", "Продуктова група", "Продуктов клас"},
			want: HeaderMapping{
				FieldProduct: 0, FieldQuantity: 1, FieldDate: 2, FieldGroup: 3, FieldClass: 4,
			},
		},
		{
			name:   "english headers with extra columns",
			header: []string{"ID", "Item", "QTY", "Date", "Notes"},
			want:   HeaderMapping{FieldProduct: 1, FieldQuantity: 2, FieldDate: 3},
		},
		{
			name:   "unit in parentheses",
			header: []string{"Артикул", "Брой (бр.)"},
			want:   HeaderMapping{FieldProduct: 0, FieldQuantity: 1},
		},
		{
			name:   "first matching column wins",
			header: []string{"product", "Product", "qty", "quantity"},
			want:   HeaderMapping{FieldProduct: 0, FieldQuantity: 2},
		},
		{
			name:   "no-break spaces from a spreadsheet export",
			header: []string{"Брой\u00a0продажби", "Product\u00a0Name"},
			want:   HeaderMapping{FieldProduct: 1, FieldQuantity: 0},
		},
		{
			name:   "no partial matches",
			header: []string{"product code", "qty sold", "sale date"},
			want:   HeaderMapping{},
		},
		{
			name:   "empty header",
			header: nil,
			want:   HeaderMapping{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveHeaders(tt.header, syn)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ResolveHeaders(%q) = %v, want %v", tt.header, got, tt.want)
			}
		})
	}
}

func TestHeaderMapping_Missing(t *testing.T) {
	m := HeaderMapping{FieldProduct: 0}
	got := m.Missing(FieldProduct, FieldQuantity, FieldDate)
	want := []Field{FieldQuantity, FieldDate}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Missing() = %v, want %v", got, want)
	}
	if got := m.Missing(FieldProduct); got != nil {
		t.Errorf("Missing(product) = %v, want nil", got)
	}
}

func TestDefaultSynonyms(t *testing.T) {
	syn := DefaultSynonyms()
	for _, f := range CanonicalFields {
		if len(syn[f]) == 0 {
			t.Errorf("no synonyms for %s", f)
		}
	}
}

func TestParseSynonyms(t *testing.T) {
	syn, err := ParseSynonyms([]byte("product:\n  - \"Stock Item\"\n  - SKU (code)\nQuantity:\n  - Units\n"))
	if err != nil {
		t.Fatalf("ParseSynonyms() error = %v", err)
	}

	want := Synonyms{
		FieldProduct:  {"stock item", "sku"},
		FieldQuantity: {"units"},
	}
	if !reflect.DeepEqual(syn, want) {
		t.Errorf("ParseSynonyms() = %v, want %v", syn, want)
	}

	m := ResolveHeaders([]string{"SKU", "Units"}, syn)
	if idx, ok := m.Index(FieldQuantity); !ok || idx != 1 {
		t.Errorf("quantity index = (%d, %v), want (1, true)", idx, ok)
	}
}

func TestParseSynonyms_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "unknown field", input: "price:\n  - цена\n"},
		{name: "not a mapping", input: "- product\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseSynonyms([]byte(tt.input)); err == nil {
				t.Error("ParseSynonyms() should fail")
			}
		})
	}
}

func TestLoadSynonyms(t *testing.T) {
	t.Run("empty path uses built-in table", func(t *testing.T) {
		syn, err := LoadSynonyms("")
		if err != nil {
			t.Fatalf("LoadSynonyms() error = %v", err)
		}
		if !reflect.DeepEqual(syn, DefaultSynonyms()) {
			t.Error("LoadSynonyms(\"\") should equal DefaultSynonyms()")
		}
	})

	t.Run("file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "synonyms.yaml")
		if err := os.WriteFile(path, []byte("product:\n  - name\nquantity:\n  - sold\n"), 0o600); err != nil {
			t.Fatal(err)
		}
		syn, err := LoadSynonyms(path)
		if err != nil {
			t.Fatalf("LoadSynonyms() error = %v", err)
		}
		if got := syn[FieldQuantity]; !reflect.DeepEqual(got, []string{"sold"}) {
			t.Errorf("quantity synonyms = %v, want [sold]", got)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		if _, err := LoadSynonyms(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
			t.Error("LoadSynonyms() should fail for a missing file")
		}
	})
}
