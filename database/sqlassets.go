package sqlassets

import _ "embed"

//go:embed schema/users.sql
var UsersSQL string

//go:embed schema/clients.sql
var ClientsSQL string

//go:embed schema/tokens.sql
var TokensSQL string

//go:embed schema/webhook_logs.sql
var WebhookLogsSQL string
