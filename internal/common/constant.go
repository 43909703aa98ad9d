package common

// AuthorizationHeaderName carries the bearer token on HTTP requests.
const AuthorizationHeaderName = "Authorization"

// BearerScheme is the only authorization scheme accepted by the gate.
const BearerScheme = "Bearer"

// RequestIDHeaderName is echoed on every response.
const RequestIDHeaderName = "X-Request-ID"

// DefaultRole is assigned to every newly registered identity and used for
// identities stored without a role.
const DefaultRole = "user"
