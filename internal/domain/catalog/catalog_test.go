package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_SeedIsValid(t *testing.T) {
	c := Default()

	all := c.All()
	require.NotEmpty(t, all)

	sofa, err := c.Find("1")
	require.NoError(t, err)
	assert.Equal(t, "Mid-Century Modern Sofa", sofa.Name)
	assert.Equal(t, 850.0, sofa.Price)
	assert.Equal(t, 210.0, sofa.Dimensions.Width)
}

func TestCatalog_Find_NotFound(t *testing.T) {
	_, err := Default().Find("nope")
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestCatalog_All_ReturnsCopy(t *testing.T) {
	c := Default()
	all := c.All()
	all[0].Name = "changed"

	again := c.All()
	assert.NotEqual(t, "changed", again[0].Name)
}

// ============================================
// Filter Tests
// ============================================

func TestCatalog_Filter(t *testing.T) {
	c := Default()

	tests := []struct {
		name  string
		query Query
		want  []string
	}{
		{"everything", Query{}, []string{"1", "2", "3", "4", "5", "6", "7", "8"}},
		{"all keyword", Query{Category: MatchAll, Condition: MatchAll}, []string{"1", "2", "3", "4", "5", "6", "7", "8"}},
		{"category", Query{Category: "sofa"}, []string{"1", "8"}},
		{"condition", Query{Condition: "likeNew"}, []string{"1", "5"}},
		{"search ignores case", Query{Search: "CHAIR"}, []string{"3", "7"}},
		{"combined", Query{Search: "chair", Condition: "new"}, []string{"7"}},
		{"no match", Query{Search: "piano"}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.Filter(tt.query)
			ids := make([]string, 0, len(got))
			for _, p := range got {
				ids = append(ids, p.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestCatalog_Categories(t *testing.T) {
	assert.Equal(t, []string{"sofa", "table", "chair", "storage", "bed", "desk"}, Default().Categories())
}

// ============================================
// Paginate Tests
// ============================================

func TestPaginate(t *testing.T) {
	items := make([]Product, 30)
	for i := range items {
		items[i].ID = string(rune('a' + i))
	}

	tests := []struct {
		name      string
		page      int
		perPage   int
		wantLen   int
		wantFirst string
		wantPages int
	}{
		{"first page", 1, 0, 12, "a", 3},
		{"last page", 3, 12, 6, string(rune('a' + 24)), 3},
		{"past the end", 4, 12, 0, "", 3},
		{"page zero", 0, 10, 10, "a", 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Paginate(items, tt.page, tt.perPage)
			assert.Len(t, p.Items, tt.wantLen)
			assert.Equal(t, tt.wantPages, p.TotalPages)
			assert.Equal(t, 30, p.Total)
			if tt.wantFirst != "" {
				assert.Equal(t, tt.wantFirst, p.Items[0].ID)
			}
		})
	}

	empty := Paginate(nil, 1, 12)
	assert.Empty(t, empty.Items)
	assert.Equal(t, 0, empty.TotalPages)
}

// ============================================
// Load Tests
// ============================================

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	data := []byte(`
- id: lamp-1
  name: Brass Floor Lamp
  price: 95.5
  category: lighting
  condition: good
`)
	require.NoError(t, os.WriteFile(path, data, 0o600))

	c, err := LoadFile(path)

	require.NoError(t, err)
	p, err := c.Find("lamp-1")
	require.NoError(t, err)
	assert.Equal(t, 95.5, p.Price)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not yaml list", "name: x"},
		{"missing name", "- id: a\n  category: sofa\n  condition: new\n"},
		{"negative price", "- id: a\n  name: A\n  price: -1\n  category: sofa\n  condition: new\n"},
		{"duplicate id", "- id: a\n  name: A\n  category: sofa\n  condition: new\n- id: a\n  name: B\n  category: sofa\n  condition: new\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			assert.ErrorIs(t, err, ErrInvalidCatalog)
		})
	}

	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
