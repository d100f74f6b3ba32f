package mirror

import "fmt"

// AuthExpiredError marks a remote rejection caused by an expired
// access token. It is the only failure kind that triggers the
// refresh-and-retry path, exactly once per operation.
type AuthExpiredError struct {
	Op   string
	Path string
}

func (e *AuthExpiredError) Error() string {
	return fmt.Sprintf("%s %s: access token expired", e.Op, e.Path)
}

// TransferError covers every other remote failure: network errors,
// unexpected statuses, malformed responses. It is never retried
// automatically.
type TransferError struct {
	Op      string
	Path    string
	Status  int
	Message string
	Err     error
}

func (e *TransferError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
	}
	return fmt.Sprintf("%s %s: status %d: %s", e.Op, e.Path, e.Status, e.Message)
}

func (e *TransferError) Unwrap() error { return e.Err }
