package domain

import (
	"errors"
	"fmt"
)

var (
	ErrAlreadyStarted       = errors.New("component already started")
	ErrNotStarted           = errors.New("component not started")
	ErrNotFound             = errors.New("resource not found")
	ErrInvalidConfig        = errors.New("invalid configuration")
	ErrInvalidInput         = errors.New("invalid input")
	ErrNoInstancesAvailable = errors.New("no instances available")
	ErrNoEligibleInstances  = errors.New("no eligible instances")
	ErrInstanceNotFound     = errors.New("instance not found")
	ErrUnknownAlgorithm     = errors.New("unknown load balancing algorithm")
	ErrWorkPanicked         = errors.New("work unit panicked")
	ErrCapabilityNotFound   = errors.New("no capability registered for agent type")
	ErrSolutionNotFound     = errors.New("cold start solution not found")
)

// DispatchError reports why a dispatch for an agent type could not proceed.
type DispatchError struct {
	Op        string
	AgentType string
	Err       error
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("dispatch[%s] %s: %v", e.AgentType, e.Op, e.Err)
}

func (e *DispatchError) Unwrap() error {
	return e.Err
}

func NewDispatchError(agentType, op string, err error) *DispatchError {
	return &DispatchError{
		Op:        op,
		AgentType: agentType,
		Err:       err,
	}
}

type StorageError struct {
	Op  string
	Key string
	Err error
}

func (e *StorageError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("storage %s %s: %v", e.Op, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func NewStorageError(op, key string, err error) *StorageError {
	return &StorageError{
		Op:  op,
		Key: key,
		Err: err,
	}
}

func IsDispatchError(err error) bool {
	var dispatchErr *DispatchError
	return errors.As(err, &dispatchErr)
}

func IsStorageError(err error) bool {
	var storageErr *StorageError
	return errors.As(err, &storageErr)
}

func IsNoInstancesAvailable(err error) bool {
	return errors.Is(err, ErrNoInstancesAvailable)
}

func IsNoEligibleInstances(err error) bool {
	return errors.Is(err, ErrNoEligibleInstances)
}

func IsAlreadyStarted(err error) bool {
	return errors.Is(err, ErrAlreadyStarted)
}

func IsNotStarted(err error) bool {
	return errors.Is(err, ErrNotStarted)
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrInstanceNotFound) ||
		errors.Is(err, ErrSolutionNotFound)
}

func IsInvalidConfig(err error) bool {
	return errors.Is(err, ErrInvalidConfig)
}
