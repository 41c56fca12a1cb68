// Package provider holds the clients for the five vehicle data sources and
// the typed records they return.
package provider

import (
	"context"

	"github.com/WessleyAI/vesbot/engine/domain"
)

// Name identifies a provider in results, logs and notifications.
type Name string

const (
	VESName         Name = "ves"
	MOTName         Name = "mot"
	EuroName        Name = "euro"
	MarketplaceName Name = "marketplace"
	VINName         Name = "vin"
)

// Provider fetches one source's view of a vehicle.
type Provider interface {
	Name() Name
	Fetch(ctx context.Context, reg domain.Registration) (Record, error)
}
