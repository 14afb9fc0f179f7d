package config

const (
	EnvPrefix = "STOREFRONT"

	AppEnvDev  = "dev"
	AppEnvProd = "production"

	EnvAppEnv    = "STOREFRONT_APP_ENV"
	EnvPort      = "STOREFRONT_APP_PORT"
	EnvPublicURL = "STOREFRONT_APP_PUBLIC_URL"

	EnvDBDSN  = "STOREFRONT_DB_DSN"
	EnvDBHost = "STOREFRONT_DB_HOST"
	EnvDBUser = "STOREFRONT_DB_USER"
	EnvDBName = "STOREFRONT_DB_NAME"
	EnvDBPort = "STOREFRONT_DB_PORT"

	EnvRedisURL = "STOREFRONT_REDIS_URL"

	EnvJWTSecret  = "STOREFRONT_JWT_SECRET"
	EnvJWTIssuer  = "STOREFRONT_JWT_ISSUER"
	EnvJWTExpMins = "STOREFRONT_JWT_EXPIRATION_MINUTES"

	EnvDefaultShippingCost = "STOREFRONT_CHECKOUT_DEFAULT_SHIPPING_COST"
	EnvMarkPaidOnCreate    = "STOREFRONT_MARK_PAID_ON_CREATE"

	EnvPaymentServerKey    = "STOREFRONT_PAYMENT_SERVER_KEY"
	EnvPaymentIsProduction = "STOREFRONT_PAYMENT_IS_PRODUCTION"

	EnvLocationsCacheTTL = "STOREFRONT_LOCATIONS_CACHE_TTL"
)

var dbPartEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
