package jwt

// Reason is the category of a token rejection.
type Reason string

const (
	ReasonMalformed               Reason = "malformed"
	ReasonInvalidSignature        Reason = "invalid_signature"
	ReasonInvalidIssuerOrAudience Reason = "invalid_issuer_or_audience"
	ReasonExpired                 Reason = "expired"
)

// Sentinels for errors.Is matching
var (
	ErrMalformed               = &RejectionError{Reason: ReasonMalformed}
	ErrInvalidSignature        = &RejectionError{Reason: ReasonInvalidSignature}
	ErrInvalidIssuerOrAudience = &RejectionError{Reason: ReasonInvalidIssuerOrAudience}
	ErrExpired                 = &RejectionError{Reason: ReasonExpired}
)

// RejectionError is returned by Validator for any token that is not accepted.
type RejectionError struct {
	Err    error
	Reason Reason
}

func (e *RejectionError) Error() string {
	if e.Err != nil {
		return "token rejected: " + string(e.Reason) + ": " + e.Err.Error()
	}
	return "token rejected: " + string(e.Reason)
}

// Is сравнивает только причину, поэтому errors.Is(err, ErrExpired) работает
// для любой ошибки с причиной expired
func (e *RejectionError) Is(target error) bool {
	t, ok := target.(*RejectionError)
	return ok && t.Reason == e.Reason
}

func (e *RejectionError) Unwrap() error {
	return e.Err
}

func reject(reason Reason, err error) *RejectionError {
	return &RejectionError{Reason: reason, Err: err}
}
