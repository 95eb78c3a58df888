package store_test

import (
	"testing"

	"github.com/efreitasn/brokerage/internal/store"
	"github.com/efreitasn/brokerage/internal/store/storetest"
)

func TestMemory(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store { return store.NewMemory() })
}
