package catalog_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/petsaude/iasys/internal/catalog"
)

func TestCatalog_Lookup(t *testing.T) {
	c := catalog.New()

	g, ok := c.Lookup(catalog.CategoryChild)
	assert.True(t, ok)
	assert.Equal(t, catalog.CategoryChild, g.Category)
	assert.NotEmpty(t, g.Message)
	assert.NotEmpty(t, g.Vaccines)
	for _, v := range g.Vaccines {
		assert.NotEmpty(t, v.Name)
		assert.NotEmpty(t, v.Description)
		assert.Greater(t, v.Dosage, 0)
	}
}

func TestCatalog_LookupUnknown(t *testing.T) {
	c := catalog.New()

	_, ok := c.Lookup("marciano")
	assert.False(t, ok)
	_, ok = c.Lookup("")
	assert.False(t, ok)
	// Lookup is exact: categories are stored unaccented and lowercase.
	_, ok = c.Lookup("Criança")
	assert.False(t, ok)
}

func TestCatalog_Categories(t *testing.T) {
	c := catalog.New()

	want := []string{
		catalog.CategoryChild,
		catalog.CategoryTeen,
		catalog.CategoryAdult,
		catalog.CategoryElderly,
		catalog.CategoryPregnant,
	}
	assert.Equal(t, want, c.Categories())

	// Every listed category resolves.
	for _, cat := range c.Categories() {
		_, ok := c.Lookup(cat)
		assert.True(t, ok, cat)
	}
}
