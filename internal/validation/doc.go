// Cotswold Cycling Adventures - Tour Booking Platform
// Copyright 2026 arko8919
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/arko8919/cotswold-cycling-adventures

// Package validation provides struct validation using go-playground/validator v10.
//
// Request bodies are decoded into structs carrying validate tags and checked
// with ValidateStruct, which returns a *RequestValidationError. The api
// package turns that error into a 400 whose text is Message():
//
//	Invalid input data. Please tell us your name. Please provide a valid email
//
// # Messages
//
// Each field may carry a msg tag with the text users see. Rules can have
// their own text with tag=message pairs separated by "|":
//
//	type SignupRequest struct {
//	    Name            string `json:"name" validate:"notblank" msg:"Please tell us your name."`
//	    Email           string `json:"email" validate:"required,email" msg:"required=Please provide your email.|email=Please provide a valid email"`
//	    Password        string `json:"password" validate:"required,min=8" msg:"required=Please provide a password|min=Password must have at least 8 characters"`
//	    PasswordConfirm string `json:"passwordConfirm" validate:"eqfield=Password" msg:"Passwords are not the same."`
//	}
//
// Fields without a msg tag get a generic message built from the JSON field
// name, for example "price must be greater than 0".
//
// # Custom Validators
//
//   - notblank: the string is not empty after trimming spaces
//
// # Thread Safety
//
// GetValidator returns a singleton initialised once. validator.Validate
// caches struct metadata and is safe for concurrent use.
package validation
