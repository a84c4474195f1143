package client

import "github.com/pingcap/errors"

// ErrUnexpectedStatus is the cause of errors for responses whose status
// code does not belong to the called operation.
var ErrUnexpectedStatus = errors.New("unexpected response status")
