package constants

type ctxKey string

const (
	CtxKeyPrincipal = "principal"
	CtxKeyRequestID = "request_id"

	CookieKeyAuthToken = "auth_token"

	LoggerFieldsKey ctxKey = "logger_fields"
)

const (
	ViperServerAddrKey      = "server.addr"
	ViperAllowedOriginsKey  = "server.allowed_origins"
	ViperPostgresDSNKey     = "postgres.dsn"
	ViperPostgresMaxConns   = "postgres.max_conns"
	ViperConnectRetriesKey  = "postgres.connect_retries"
	ViperUploadMaxSizeKey   = "upload.max_size"
	ViperUploadSessionTTL   = "upload.session_ttl"
	ViperSecretKey          = "auth.secret"
	ViperTokenTTLKey        = "auth.token_ttl"
	ViperLogLevelKey        = "log.level"
	ViperLogFormatKey       = "log.format"
	ViperExportSheetNameKey = "export.sheet_name"
)
