package apperrors

// Error is a hierarchical application error. Errors derived with New, Msg, Err or MsgErr
// match their parent with errors.Is, so callers can test for a whole family of failures.
type Error interface {
	Error() string
	ErrorAll() string
	New(msg string) Error
	MsgErr(msg string, err ...error) Error
	Msg(msg string) Error
	Prefix(prefix string) Error
	Suffix(suffix string) Error
	Err(err ...error) Error
	Unwrap() []error
	Is(target error) bool
	SetExpandError(expand bool) Error
}
