// Package api is a fixture for the source provider.
package api

import (
	"context"
	"net/http"
	"time"
)

// Status is the account state.
type Status string

const (
	// StatusLocked accounts cannot sign in.
	StatusLocked Status = "locked"
	// StatusActive accounts are in good standing.
	StatusActive Status = "active"
)

// Priority orders work.
type Priority uint8

const (
	Low Priority = iota + 1
	High
)

// Timestamp is a point in time.
type Timestamp time.Time

// Node is a linked list node.
type Node[T any] struct {
	Value T
	Next  *Node[T]
}

// Page is one page of results.
type Page[T any] struct {
	// Items on this page.
	Items []T `json:"items"`
	Total int `json:"total"`
}

// Base holds common fields.
type Base struct {
	// ID is the identifier.
	ID      string    `json:"id" validate:"required"`
	Created Timestamp `json:"created"`
}

// User is an account.
type User struct {
	Base
	Name   string   `json:"name" validate:"min=1,max=64"`
	Status Status   `json:"status"`
	Tags   []string `json:"tags"`
}

// Shape is something drawable.
//
//apidoc:subtypes kind Circle Square
type Shape struct {
	Kind string `json:"kind"`
}

// Circle is a round shape.
type Circle struct {
	Shape
	Radius float64 `json:"radius"`
}

// Square is a shape with four equal sides.
type Square struct {
	Shape
	Side float64 `json:"side"`
}

// Filter selects users.
type Filter struct {
	Query    string   `schema:"q"`
	Priority Priority `schema:"priority,default:1"`
}

// UserService manages users.
//
//apidoc:service Users
type UserService struct{}

// Get fetches a user.
//
// @param id the user ID
//
//apidoc:api GET /users/{id}
//apidoc:param id validate:"required"
func (s *UserService) Get(ctx context.Context, id string) (*User, error) {
	return nil, nil
}

// Search finds users.
//
//apidoc:api GET /users
func (s *UserService) Search(ctx context.Context, r *http.Request, f Filter) (Page[User], error) {
	return Page[User]{}, nil
}

// Chain returns a linked list.
//
//apidoc:api
func Chain(ctx context.Context) (*Node[string], error) {
	return nil, nil
}

// Draw renders a shape.
//
//apidoc:api POST
func Draw(shape Shape) error {
	return nil
}
