package config

// EnvPrefix is handed to envconfig; every field declares its full name explicitly.
const EnvPrefix = "STOREFRONT"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv   = "STOREFRONT_APP_ENV"
	EnvPort     = "STOREFRONT_APP_PORT"
	EnvLogLevel = "STOREFRONT_LOG_LEVEL"

	EnvDBDSN  = "STOREFRONT_DB_DSN"
	EnvDBHost = "STOREFRONT_DB_HOST"
	EnvDBUser = "STOREFRONT_DB_USER"
	EnvDBName = "STOREFRONT_DB_NAME"

	EnvRedisURL = "STOREFRONT_REDIS_URL"

	EnvCheckoutTaxRate          = "STOREFRONT_CHECKOUT_TAX_RATE"
	EnvCheckoutPricesIncludeTax = "STOREFRONT_CHECKOUT_PRICES_INCLUDE_TAX"
	EnvCheckoutCurrency         = "STOREFRONT_CHECKOUT_CURRENCY"
	EnvCheckoutShippingRates    = "STOREFRONT_CHECKOUT_SHIPPING_RATES"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
