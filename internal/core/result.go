package core

import "fmt"

// Result describes the outcome of a single operation apply.
type Result struct {
	Changed bool
	Message string
}

func SuccessChange(msg string) Result {
	return Result{Changed: true, Message: msg}
}

func SuccessNoChange(msg string) Result {
	return Result{Changed: false, Message: msg}
}

func Failure(err error, msg string) Result {
	return Result{Changed: false, Message: fmt.Sprintf("%s: %v", msg, err)}
}
