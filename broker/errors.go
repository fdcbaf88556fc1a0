package broker

import "errors"

// Environment lifecycle errors.
var (
	ErrNotInitialized     = errors.New("environment has not been initialized")
	ErrAlreadyInitialized = errors.New("environment has already been initialized")
)

// MissingCurrencyError is returned when a broker is constructed with a
// settlement currency that is not one of its notional assets.
type MissingCurrencyError struct {
	Currency string
}

func (e *MissingCurrencyError) Error() string {
	return "missing currency notional asset " + e.Currency
}

// InvalidNotionalAssetError is returned when a pair's notional leg is not a
// permitted notional asset.
type InvalidNotionalAssetError struct {
	Asset string
}

func (e *InvalidNotionalAssetError) Error() string {
	return e.Asset + " is not a valid notional asset"
}

// NoNotionalPerUnitError is returned when no price has been set for a pair.
type NoNotionalPerUnitError struct {
	Pair string
}

func (e *NoNotionalPerUnitError) Error() string {
	return e.Pair + " does not have notional per unit"
}

// InsufficientBuyingPowerError rejects an order whose reservation would
// exceed the available buying power for an asset. The order is not created.
type InsufficientBuyingPowerError struct {
	Asset string
}

func (e *InsufficientBuyingPowerError) Error() string {
	return "not enough " + e.Asset + " buying power"
}

// InvalidFeeError rejects a broker fee outside the 0-100 percent range.
type InvalidFeeError struct {
	Percent string
}

func (e *InvalidFeeError) Error() string {
	return "fee percentage " + e.Percent + " is not between 0 and 100"
}

// OrderNotFoundError is returned when an order id is unknown.
type OrderNotFoundError struct {
	OrderID string
}

func (e *OrderNotFoundError) Error() string {
	return "order with id " + e.OrderID + " doesn't exist"
}
