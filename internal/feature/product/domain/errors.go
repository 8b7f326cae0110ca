// Package domain defines domain-level errors for the product feature.
package domain

import "errors"

// ErrProductNotFound indicates that no product matched the given id(s).
var ErrProductNotFound = errors.New("product not found")
