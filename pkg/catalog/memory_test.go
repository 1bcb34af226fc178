package catalog_test

import (
	"testing"

	"github.com/ib-77/cellarfeed/pkg/catalog"
	"github.com/ib-77/cellarfeed/pkg/catalog/catalogtest"
)

func TestMemoryStore(t *testing.T) {
	catalogtest.RunStoreSuite(t, func(t *testing.T) catalog.Store {
		return catalog.NewMemoryStore()
	})
}
