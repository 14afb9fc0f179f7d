package enums

// CartValidationErrorType classifies why a cart line cannot be checked out.
type CartValidationErrorType string

const (
	CartErrorProductUnavailable CartValidationErrorType = "PRODUCT_UNAVAILABLE"
	CartErrorOutOfStock         CartValidationErrorType = "OUT_OF_STOCK"
	CartErrorPriceChanged       CartValidationErrorType = "PRICE_CHANGED"
)

// String implements fmt.Stringer.
func (c CartValidationErrorType) String() string {
	return string(c)
}
