// Package abstractions holds the protocol-agnostic types shared by generated
// clients and the request adapter: the request description, header
// collections, request options, error mappings and the adapter contract.
package abstractions

// HttpMethod is the verb of an outgoing request.
type HttpMethod int

const (
	GET HttpMethod = iota
	POST
	PATCH
	DELETE
	OPTIONS
	CONNECT
	PUT
	TRACE
	HEAD
)

var methodNames = [...]string{"GET", "POST", "PATCH", "DELETE", "OPTIONS", "CONNECT", "PUT", "TRACE", "HEAD"}

// String returns the wire name of the method.
func (m HttpMethod) String() string {
	if m < 0 || int(m) >= len(methodNames) {
		return "UNKNOWN"
	}
	return methodNames[m]
}
