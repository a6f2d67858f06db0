package logger

import (
	"time"

	"go.uber.org/zap"
)

// =================================================================================
// STANDARD FIELDS - HTTP
// =================================================================================

// RequestID builds a field for the request ID.
func RequestID(v string) zap.Field {
	return zap.String("request_id", v)
}

// Method builds a field for the HTTP method.
func Method(v string) zap.Field {
	return zap.String("method", v)
}

// Path builds a field for the request path.
func Path(v string) zap.Field {
	return zap.String("path", v)
}

// Status builds a field for the HTTP status code.
func Status(v int) zap.Field {
	return zap.Int("status", v)
}

// Duration builds a field for the request duration.
func Duration(v time.Duration) zap.Field {
	return zap.Duration("duration", v)
}

// ClientIP builds a field for the client IP.
func ClientIP(v string) zap.Field {
	return zap.String("client_ip", v)
}

// =================================================================================
// STANDARD FIELDS - DOMAIN
// =================================================================================

// ClientID builds a field for the OAuth client id.
func ClientID(v string) zap.Field {
	return zap.String("client_id", v)
}

// GrantType builds a field for the grant type being processed.
func GrantType(v string) zap.Field {
	return zap.String("grant_type", v)
}

// SubType builds a field for the principal kind (individual/organization).
func SubType(v string) zap.Field {
	return zap.String("sub_type", v)
}

// Sub builds a field for the principal id.
func Sub(v string) zap.Field {
	return zap.String("sub", v)
}

// Scope builds a field for a space-delimited scope set.
func Scope(v string) zap.Field {
	return zap.String("scope", v)
}

// Issuer builds a field for a federated token issuer.
func Issuer(v string) zap.Field {
	return zap.String("issuer", v)
}

// =================================================================================
// STANDARD FIELDS - SYSTEM
// =================================================================================

// Component builds a field for the component/module.
func Component(v string) zap.Field {
	return zap.String("component", v)
}

// Op builds a field for the current operation.
func Op(v string) zap.Field {
	return zap.String("op", v)
}

// Layer builds a field for the layer (controller, service, repository).
func Layer(v string) zap.Field {
	return zap.String("layer", v)
}

// Err builds a field for an error.
func Err(err error) zap.Field {
	return zap.Error(err)
}

// =================================================================================
// STANDARD FIELDS - GENERIC
// =================================================================================

// Count builds a field for a count.
func Count(v int) zap.Field {
	return zap.Int("count", v)
}

// ID builds a generic id field.
func ID(v string) zap.Field {
	return zap.String("id", v)
}

// Any builds a generic field for any value.
func Any(key string, v any) zap.Field {
	return zap.Any(key, v)
}

// String builds a generic string field.
func String(key, v string) zap.Field {
	return zap.String(key, v)
}

// Int builds a generic int field.
func Int(key string, v int) zap.Field {
	return zap.Int(key, v)
}

// Bool builds a generic bool field.
func Bool(key string, v bool) zap.Field {
	return zap.Bool(key, v)
}
