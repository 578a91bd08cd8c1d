package reference

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Source names reported in Data.Degraded.
const (
	SourceTrucks      = "trucks"
	SourceRoutes      = "routes"
	SourceDrivers     = "drivers"
	SourceSalespeople = "salespeople"
	SourceHelpers     = "helpers"
	SourceProducts    = "products"
)

// Source is the upstream surface the loader reads from.
type Source interface {
	ListTrucks(ctx context.Context) ([]Truck, error)
	ListRoutes(ctx context.Context) ([]Route, error)
	ListStaff(ctx context.Context, role string) ([]Staff, error)
	ListProducts(ctx context.Context) ([]Product, error)
}

// Data is the joined result of a reference load. A source that failed is
// left empty and named in Degraded.
type Data struct {
	Trucks      []Truck   `json:"trucks"`
	Routes      []Route   `json:"routes"`
	Drivers     []Staff   `json:"drivers"`
	Salespeople []Staff   `json:"salespeople"`
	Helpers     []Staff   `json:"helpers"`
	Products    []Product `json:"products"`
	Degraded    []string  `json:"degraded,omitempty"`
}

// IsDegraded reports whether any source failed.
func (d Data) IsDegraded() bool {
	return len(d.Degraded) > 0
}

// Loader fans out reference requests.
type Loader struct {
	logger *slog.Logger
}

// NewLoader constructs a Loader.
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{logger: logger}
}

// Load fetches every reference list concurrently. It never fails: a source
// error is logged and recorded in Data.Degraded.
func (l *Loader) Load(ctx context.Context, src Source) Data {
	data := Data{
		Trucks:      []Truck{},
		Routes:      []Route{},
		Drivers:     []Staff{},
		Salespeople: []Staff{},
		Helpers:     []Staff{},
		Products:    []Product{},
	}
	var (
		mu       sync.Mutex
		degraded = map[string]bool{}
	)
	fail := func(name string, err error) {
		l.logger.Warn("reference source unavailable", slog.String("source", name), slog.Any("error", err))
		mu.Lock()
		degraded[name] = true
		mu.Unlock()
	}

	var g errgroup.Group
	g.Go(func() error {
		trucks, err := src.ListTrucks(ctx)
		if err != nil {
			fail(SourceTrucks, err)
			return nil
		}
		data.Trucks = nonNil(trucks)
		return nil
	})
	g.Go(func() error {
		routes, err := src.ListRoutes(ctx)
		if err != nil {
			fail(SourceRoutes, err)
			return nil
		}
		data.Routes = nonNil(routes)
		return nil
	})
	staff := []struct {
		role string
		name string
		dst  *[]Staff
	}{
		{RoleDriver, SourceDrivers, &data.Drivers},
		{RoleSalesperson, SourceSalespeople, &data.Salespeople},
		{RoleHelper, SourceHelpers, &data.Helpers},
	}
	for _, s := range staff {
		s := s
		g.Go(func() error {
			list, err := src.ListStaff(ctx, s.role)
			if err != nil {
				fail(s.name, err)
				return nil
			}
			*s.dst = nonNil(list)
			return nil
		})
	}
	g.Go(func() error {
		products, err := src.ListProducts(ctx)
		if err != nil {
			fail(SourceProducts, err)
			return nil
		}
		data.Products = nonNil(products)
		return nil
	})
	_ = g.Wait()

	for _, name := range []string{SourceTrucks, SourceRoutes, SourceDrivers, SourceSalespeople, SourceHelpers, SourceProducts} {
		if degraded[name] {
			data.Degraded = append(data.Degraded, name)
		}
	}
	return data
}

// Products loads only the product list; used by the POS screen.
func (l *Loader) Products(ctx context.Context, src Source) ([]Product, error) {
	products, err := src.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	return nonNil(products), nil
}

func nonNil[T any](in []T) []T {
	if in == nil {
		return []T{}
	}
	return in
}
