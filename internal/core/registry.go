package core

import "fmt"

// OperationFactory builds an operation from its profile parameters.
type OperationFactory func(name string, params map[string]interface{}, ctx *SystemContext) (Operation, error)

var registry = map[string]OperationFactory{}

// RegisterOperation wires an operation type into the factory. Adapters call
// this from init().
func RegisterOperation(opType string, fn OperationFactory) {
	registry[opType] = fn
}

// NewOperation instantiates a registered operation type.
func NewOperation(opType, name string, params map[string]interface{}, ctx *SystemContext) (Operation, error) {
	fn, ok := registry[opType]
	if !ok {
		return nil, fmt.Errorf("unknown operation type: %s", opType)
	}
	return fn(name, params, ctx)
}
