package ir

import "reflect"

// Operation describes a single API operation: a function or method whose
// signature is documented.
type Operation struct {
	// Key uniquely identifies the operation, e.g. "users.UserService.Get".
	Key string

	// Name is the declared function or method name.
	Name string

	// Package is the import path of the package declaring the function.
	Package string

	// Receiver is the receiver type for methods, nil for plain functions.
	Receiver *Type

	// Service is the registration group name, if the operation was
	// registered under one (e.g. "Users").
	Service string

	// Methods are the HTTP methods the operation answers to.
	// Empty means all methods.
	Methods []string

	// Path is the URL path, if known.
	Path string

	// Params are the declared parameters in order.
	Params []Param

	// Results are the declared result types in order.
	Results []*Type

	// Source is where the operation is declared, if known.
	Source Source
}

// Param is a declared operation parameter.
type Param struct {
	// Name is the declared parameter name. May be empty for the reflection host.
	Name string

	// Type is the declared parameter type.
	Type *Type

	// Tag carries binding annotations in struct tag syntax,
	// e.g. `schema:"page,default:1" validate:"min=1"`.
	Tag reflect.StructTag
}
