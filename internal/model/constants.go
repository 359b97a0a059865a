package model

const DefaultLeaderboardSize = 10
const DefaultPageSize = 20
const MaxPageSize = 100

const HeaderContentType = "Content-Type"

const KeyLoggerError = "error"

type ContextKey string

const (
	KeyContextLogger ContextKey = "logger"
	KeyContextUserID ContextKey = "user_id"
	KeyContextRole   ContextKey = "role"
)

const (
	RoleUser     = "user"
	RoleOperator = "operator"
)
