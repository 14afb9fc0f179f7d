package enums

// GatewayTransactionStatus is the transaction_status reported by the payment gateway.
type GatewayTransactionStatus string

const (
	GatewayStatusCapture    GatewayTransactionStatus = "capture"
	GatewayStatusSettlement GatewayTransactionStatus = "settlement"
	GatewayStatusPending    GatewayTransactionStatus = "pending"
	GatewayStatusDeny       GatewayTransactionStatus = "deny"
	GatewayStatusExpire     GatewayTransactionStatus = "expire"
	GatewayStatusCancel     GatewayTransactionStatus = "cancel"
	GatewayStatusRefund     GatewayTransactionStatus = "refund"
)

// GatewayFraudStatus is the fraud_status attached to card captures.
type GatewayFraudStatus string

const (
	GatewayFraudAccept    GatewayFraudStatus = "accept"
	GatewayFraudChallenge GatewayFraudStatus = "challenge"
	GatewayFraudDeny      GatewayFraudStatus = "deny"
)
