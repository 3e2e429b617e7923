package factory

import (
	"fmt"

	"github.com/kilianp07/chargewindow/connectors"
	"github.com/kilianp07/chargewindow/connectors/clients/comed"
)

var (
	errUnknownClient = "unknown connector id: %s"
)

// NewPriceFeed returns the price feed registered under id.
func NewPriceFeed(id string, opts ...connectors.Option) (connectors.PriceFeed, error) {
	switch id {
	case comed.ID, "":
		return comed.New(opts...)
	default:
		return nil, fmt.Errorf(errUnknownClient, id)
	}
}
