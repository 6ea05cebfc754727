package validation

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/deskradar/clients-api/platform/apperrors"
)

func requireDetail(t *testing.T, err error, ruleType, message string, path ...string) {
	t.Helper()

	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	require.Equal(t, "ValidationError", appErr.Name)
	require.Equal(t, 422, appErr.Status)

	details, ok := appErr.Details.([]apperrors.FieldError)
	require.True(t, ok)
	require.Len(t, details, 1)
	require.Equal(t, ruleType, details[0].Type)
	require.Equal(t, message, details[0].Message)
	require.Equal(t, path, details[0].Path)
}

func TestSchemaRequiredField(t *testing.T) {
	t.Parallel()

	schema := Object(String("email").Required().Email())

	_, err := schema.Validate(map[string]any{})
	requireDetail(t, err, "any.required", `"email" is required`, "email")
}

func TestSchemaFirstErrorWins(t *testing.T) {
	t.Parallel()

	schema := Object(
		String("name").Required().Max(140),
		String("email").Required().Email(),
	)

	// Both fields are invalid; only the first declared one is reported.
	_, err := schema.Validate(map[string]any{"email": "not-an-email"})
	requireDetail(t, err, "any.required", `"name" is required`, "name")
}

func TestSchemaRuleOrderWithinField(t *testing.T) {
	t.Parallel()

	schema := Object(String("domain").Min(3).Max(32).Regex(regexp.MustCompile(`^[a-z0-9]+$`)))

	_, err := schema.Validate(map[string]any{"domain": "a"})
	requireDetail(t, err, "string.min", `"domain" length must be at least 3 characters long`, "domain")

	_, err = schema.Validate(map[string]any{"domain": "Not-Valid"})
	requireDetail(t, err, "string.regex.base", `"domain" with value fails to match the required pattern: ^[a-z0-9]+$`, "domain")
}

func TestSchemaMessageOverride(t *testing.T) {
	t.Parallel()

	schema := Object(String("name").Max(140).Message("is too long"))

	long := make([]byte, 141)
	for i := range long {
		long[i] = 'a'
	}

	_, err := schema.Validate(map[string]any{"name": string(long)})
	requireDetail(t, err, "string.max", `"name" is too long`, "name")
}

func TestSchemaRejectsUnknownKeys(t *testing.T) {
	t.Parallel()

	schema := Object(String("email").Email())

	_, err := schema.Validate(map[string]any{
		"email":   "a@example.com",
		"bogus":   true,
		"another": 1,
	})
	requireDetail(t, err, "object.allowUnknown", `"another" is not allowed`, "another")
}

func TestSchemaUnknownAllowed(t *testing.T) {
	t.Parallel()

	schema := Object(String("email").Email()).Unknown()

	out, err := schema.Validate(map[string]any{
		"email": "a@example.com",
		"bogus": true,
	})
	require.NoError(t, err)
	require.Equal(t, "a@example.com", out["email"])
}

func TestStringAllowBypassesRules(t *testing.T) {
	t.Parallel()

	schema := Object(String("node").Hostname().Max(32).Allow(""))

	out, err := schema.Validate(map[string]any{"node": ""})
	require.NoError(t, err)
	require.Equal(t, "", out["node"])

	_, err = schema.Validate(map[string]any{"node": "bad host"})
	requireDetail(t, err, "string.hostname", `"node" must be a valid hostname`, "node")
}

func TestStringEmptyRejectedByDefault(t *testing.T) {
	t.Parallel()

	schema := Object(String("name").Required().Max(140))

	_, err := schema.Validate(map[string]any{"name": ""})
	requireDetail(t, err, "any.empty", `"name" is not allowed to be empty`, "name")
}

func TestStringTypeMismatch(t *testing.T) {
	t.Parallel()

	schema := Object(String("name"))

	_, err := schema.Validate(map[string]any{"name": 42})
	requireDetail(t, err, "string.base", `"name" must be a string`, "name")
}

func TestStringOneOf(t *testing.T) {
	t.Parallel()

	schema := Object(String("role").Required().OneOf("admin"))

	out, err := schema.Validate(map[string]any{"role": "admin"})
	require.NoError(t, err)
	require.Equal(t, "admin", out["role"])

	_, err = schema.Validate(map[string]any{"role": "root"})
	requireDetail(t, err, "any.allowOnly", `"role" must be one of [admin]`, "role")
}

func TestStringCountryCode(t *testing.T) {
	t.Parallel()

	schema := Object(String("country").Required().Country())

	out, err := schema.Validate(map[string]any{"country": "DE"})
	require.NoError(t, err)
	require.Equal(t, "DE", out["country"])

	_, err = schema.Validate(map[string]any{"country": "XX"})
	requireDetail(t, err, "string.countryCode", `"country" needs to be a valid ISO 3166-1 alpha-2 country code`, "country")

	_, err = schema.Validate(map[string]any{"country": "de"})
	requireDetail(t, err, "string.countryCode", `"country" needs to be a valid ISO 3166-1 alpha-2 country code`, "country")
}

func TestStringIPv4(t *testing.T) {
	t.Parallel()

	schema := Object(String("ipaddress").IPv4().Allow(""))

	out, err := schema.Validate(map[string]any{"ipaddress": "10.0.0.1"})
	require.NoError(t, err)
	require.Equal(t, "10.0.0.1", out["ipaddress"])

	_, err = schema.Validate(map[string]any{"ipaddress": "::1"})
	requireDetail(t, err, "string.ipVersion", `"ipaddress" must be a valid ip address of one of the following versions [ipv4]`, "ipaddress")
}

func TestBooleanStrict(t *testing.T) {
	t.Parallel()

	schema := Object(Boolean("consent").Required())

	out, err := schema.Validate(map[string]any{"consent": true})
	require.NoError(t, err)
	require.Equal(t, true, out["consent"])

	_, err = schema.Validate(map[string]any{"consent": "true"})
	requireDetail(t, err, "boolean.base", `"consent" must be a boolean`, "consent")
}

func TestNumberStrictWithBounds(t *testing.T) {
	t.Parallel()

	schema := Object(
		Number("ssh_port").Required().
			Min(1).Message("must be a valid port number").
			Max(65535).Message("must be a valid port number"),
	)

	out, err := schema.Validate(map[string]any{"ssh_port": float64(2022)})
	require.NoError(t, err)
	require.Equal(t, float64(2022), out["ssh_port"])

	_, err = schema.Validate(map[string]any{"ssh_port": "22"})
	requireDetail(t, err, "number.base", `"ssh_port" must be a number`, "ssh_port")

	_, err = schema.Validate(map[string]any{"ssh_port": float64(0)})
	requireDetail(t, err, "number.min", `"ssh_port" must be a valid port number`, "ssh_port")

	_, err = schema.Validate(map[string]any{"ssh_port": float64(70000)})
	requireDetail(t, err, "number.max", `"ssh_port" must be a valid port number`, "ssh_port")
}

func TestDateISO(t *testing.T) {
	t.Parallel()

	schema := Object(Date("deployed_at").Required())

	out, err := schema.Validate(map[string]any{"deployed_at": "2020-06-01T10:20:30Z"})
	require.NoError(t, err)
	require.Equal(t, time.Date(2020, 6, 1, 10, 20, 30, 0, time.UTC), out["deployed_at"])

	out, err = schema.Validate(map[string]any{"deployed_at": "2020-06-01"})
	require.NoError(t, err)
	require.Equal(t, time.Date(2020, 6, 1, 0, 0, 0, 0, time.UTC), out["deployed_at"])

	_, err = schema.Validate(map[string]any{"deployed_at": "yesterday"})
	requireDetail(t, err, "date.isoDate", `"deployed_at" must be a valid ISO 8601 date`, "deployed_at")
}

func TestNestedObjectPathsArePrefixed(t *testing.T) {
	t.Parallel()

	schema := Object(
		NestedObject("deployment", Object(
			String("domain").Required().Min(3).Message("is too short"),
		)).Required(),
	)

	_, err := schema.Validate(map[string]any{
		"deployment": map[string]any{"domain": "ab"},
	})
	requireDetail(t, err, "string.min", `"domain" is too short`, "deployment", "domain")

	_, err = schema.Validate(map[string]any{
		"deployment": map[string]any{"domain": "abc", "extra": 1},
	})
	requireDetail(t, err, "object.allowUnknown", `"extra" is not allowed`, "deployment", "extra")
}

func TestNestedObjectDecodesJSONString(t *testing.T) {
	t.Parallel()

	schema := Object(
		NestedObject("passthrough", Object(String("client_id").Required()).Unknown()).Required(),
	)

	out, err := schema.Validate(map[string]any{
		"passthrough": `{"client_id":"abc123"}`,
	})
	require.NoError(t, err)

	nested, ok := out["passthrough"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, "abc123", nested["client_id"])

	_, err = schema.Validate(map[string]any{"passthrough": "not json"})
	requireDetail(t, err, "object.base", `"passthrough" must be an object`, "passthrough")
}

func TestSchemaValidOutputKeepsOnlyPresentFields(t *testing.T) {
	t.Parallel()

	schema := Object(
		String("name").Required().Max(140),
		String("organization").Max(140),
	)

	out, err := schema.Validate(map[string]any{"name": "Acme"})
	require.NoError(t, err)
	require.Equal(t, map[string]any{"name": "Acme"}, out)
}
