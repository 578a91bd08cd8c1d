package reference

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSource struct {
	mu        sync.Mutex
	failTruck bool
	failRoles map[string]bool
	roles     []string
}

func (s *stubSource) ListTrucks(context.Context) ([]Truck, error) {
	if s.failTruck {
		return nil, errors.New("boom")
	}
	return []Truck{{ID: "t1", VehicleNumber: "KA-01-1234"}}, nil
}

func (s *stubSource) ListRoutes(context.Context) ([]Route, error) {
	return []Route{{ID: "r1", Name: "North loop"}}, nil
}

func (s *stubSource) ListStaff(_ context.Context, role string) ([]Staff, error) {
	s.mu.Lock()
	s.roles = append(s.roles, role)
	s.mu.Unlock()
	if s.failRoles[role] {
		return nil, errors.New("staff down")
	}
	return []Staff{{ID: role + "-1", Name: "Ravi", Role: role}}, nil
}

func (s *stubSource) ListProducts(context.Context) ([]Product, error) {
	return []Product{{ID: "p1", Name: "Bananas", SellingPrice: 50, CurrentStock: 10, IsActive: true}}, nil
}

func TestLoadJoinsAllSources(t *testing.T) {
	src := &stubSource{}
	data := NewLoader(nil).Load(context.Background(), src)

	assert.False(t, data.IsDegraded())
	require.Len(t, data.Trucks, 1)
	require.Len(t, data.Routes, 1)
	require.Len(t, data.Drivers, 1)
	require.Len(t, data.Salespeople, 1)
	require.Len(t, data.Helpers, 1)
	require.Len(t, data.Products, 1)
	assert.Equal(t, RoleDriver, data.Drivers[0].Role)
	assert.ElementsMatch(t, []string{RoleDriver, RoleSalesperson, RoleHelper}, src.roles)
}

func TestLoadMarksFailedSourcesDegraded(t *testing.T) {
	src := &stubSource{failTruck: true, failRoles: map[string]bool{RoleHelper: true}}
	data := NewLoader(nil).Load(context.Background(), src)

	assert.Equal(t, []string{SourceTrucks, SourceHelpers}, data.Degraded)
	assert.NotNil(t, data.Trucks)
	assert.Empty(t, data.Trucks)
	assert.Empty(t, data.Helpers)
	assert.Len(t, data.Drivers, 1, "healthy sources still load")
	assert.Len(t, data.Products, 1)
}

func TestProductSellable(t *testing.T) {
	assert.True(t, Product{IsActive: true, CurrentStock: 1}.Sellable())
	assert.False(t, Product{IsActive: false, CurrentStock: 5}.Sellable())
	assert.False(t, Product{IsActive: true, CurrentStock: 0}.Sellable())
	assert.True(t, Product{MinStock: 5, CurrentStock: 5}.LowStock())
	assert.False(t, Product{CurrentStock: 0}.LowStock())
}
