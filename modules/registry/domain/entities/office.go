// Package entities holds the registry rows as they are written by the sync
// engine, after normalization and coercion.
package entities

import (
	"github.com/shopspring/decimal"
)

type Office struct {
	Name      string
	Address   *string
	City      *string
	State     *string
	Pin       *string
	Email     *string
	Phone     *string
	Fax       *string
	Country   string
	Latitude  decimal.NullDecimal
	Longitude decimal.NullDecimal
	ParentRef *string
	SortID    int
	IsActive  bool
}
