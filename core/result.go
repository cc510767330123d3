package core

import "fmt"

// ResultVariantError is raised when a Result is read through the variant it does not hold.
type ResultVariantError struct {
	Want string
}

func (e *ResultVariantError) Error() string {
	return fmt.Sprintf("core: result does not hold a %s value", e.Want)
}

// Result holds exactly one of a success value or an error.
type Result[T any] struct {
	value T
	err   error
	set   bool
}

func Success[T any](value T) Result[T] {
	return Result[T]{value: value, set: true}
}

// Failure wraps err. A nil err is a contract violation and is tagged as a generic error.
func Failure[T any](err error) Result[T] {
	if err == nil {
		err = NewKindError(KindGeneric, "core: failure without error", nil)
	}
	return Result[T]{err: err, set: true}
}

// ResultOf folds a (value, error) pair into a Result.
func ResultOf[T any](value T, err error) Result[T] {
	if err != nil {
		return Failure[T](err)
	}
	return Success(value)
}

func (r Result[T]) IsError() bool {
	r.mustBeSet()
	return r.err != nil
}

// SuccessValue panics with *ResultVariantError when r holds an error.
func (r Result[T]) SuccessValue() T {
	r.mustBeSet()
	if r.err != nil {
		panic(&ResultVariantError{Want: "success"})
	}
	return r.value
}

// ErrorValue panics with *ResultVariantError when r holds a success value.
func (r Result[T]) ErrorValue() error {
	r.mustBeSet()
	if r.err == nil {
		panic(&ResultVariantError{Want: "error"})
	}
	return r.err
}

func (r Result[T]) Kind() ErrorKind {
	if r.err == nil {
		return ""
	}
	return KindOf(r.err)
}

func (r Result[T]) Unwrap() (T, error) {
	r.mustBeSet()
	return r.value, r.err
}

func (r Result[T]) mustBeSet() {
	if !r.set {
		panic(&ResultVariantError{Want: "success or error"})
	}
}
