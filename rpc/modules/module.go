package modules

// ModuleError carries an RPC error along with the HTTP status the transport
// should use when surfacing it.
type ModuleError struct {
	HTTPStatus int
	Code       int
	Message    string
	Data       interface{}
}

const (
	codeInvalidParams = -32602
	codeServerError   = -32000
	codeNotFound      = -32022
)
