package domain

// OperationType identifies a key operation.
type OperationType string

// Supported operation types.
const (
	GenerateKeyOperation OperationType = "GenerateKeyOperation"
	SignOperation        OperationType = "SignOperation"
	VerifyOperation      OperationType = "VerifyOperation"
	WrapKeyOperation     OperationType = "WrapKeyOperation"
	UnwrapKeyOperation   OperationType = "UnwrapKeyOperation"
)

// MethodName returns the module method that executes the operation type,
// for example "generateKey" for GenerateKeyOperation. It returns "" for unknown types.
func (t OperationType) MethodName() string {
	switch t {
	case GenerateKeyOperation:
		return "generateKey"
	case SignOperation:
		return "sign"
	case VerifyOperation:
		return "verify"
	case WrapKeyOperation:
		return "wrapKey"
	case UnwrapKeyOperation:
		return "unwrapKey"
	default:
		return ""
	}
}

// InvocationTarget is the key an operation targets. Type and Controller are only
// meaningful for GenerateKeyOperation.
type InvocationTarget struct {
	ID         string
	Type       string
	Controller string
}

// Proof carries the controller identity already authenticated upstream.
type Proof struct {
	VerificationMethod string
}

// Operation is a transient key operation request.
//
// Payload fields are base64url encoded and used by the operation types that need them:
// VerifyData by sign and verify, SignatureValue by verify, UnwrappedKey by wrapKey and
// WrappedKey by unwrapKey.
type Operation struct {
	Type             OperationType
	InvocationTarget InvocationTarget
	Proof            Proof

	VerifyData     string
	SignatureValue string
	UnwrappedKey   string
	WrappedKey     string
}

// IsGenerate reports whether the operation generates a key.
func (o *Operation) IsGenerate() bool {
	return o.Type == GenerateKeyOperation
}

// Controller returns the asserted controller identity of the invoker.
func (o *Operation) Controller() string {
	return o.Proof.VerificationMethod
}

// Result is the plain result object returned by a module method.
type Result map[string]any
