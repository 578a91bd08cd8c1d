package upstream

import (
	"github.com/fruitline/fruitline/internal/dispatch"
	"github.com/fruitline/fruitline/internal/pos"
	"github.com/fruitline/fruitline/internal/reference"
	"github.com/fruitline/fruitline/internal/sales"
)

var (
	_ dispatch.Gateway = (*Client)(nil)
	_ reference.Source = (*Client)(nil)
	_ pos.Gateway      = (*Client)(nil)
	_ sales.Gateway    = (*Client)(nil)
)
