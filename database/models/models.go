// Copyright 2026 The Peering Manager Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package models

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

// MigrateModels contains a list of model objects that should have DB migrations applied
var MigrateModels = []any{
	&Network{},
	&NetworkIXLAN{},
	&Prefix{},
	&SyncCheckpoint{},
}

const (
	maxAsn        = 4294967295
	maxNameLength = 255
)

// ValidationError describes an entity that fails its attribute constraints
type ValidationError struct {
	Entity string
	ID     int64
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf(
		"invalid %s #%d: %s: %s",
		e.Entity,
		e.ID,
		e.Field,
		e.Reason,
	)
}

// IsValidationError reports whether err is (or wraps) a ValidationError
func IsValidationError(err error) bool {
	var verr *ValidationError
	return errors.As(err, &verr)
}

func validateID(entity string, field string, id int64, owner int64) error {
	if id <= 0 {
		return &ValidationError{
			Entity: entity,
			ID:     owner,
			Field:  field,
			Reason: "must be a positive integer",
		}
	}
	return nil
}

func validateAsn(entity string, id int64, asn int64) error {
	if asn < 1 || asn > maxAsn {
		return &ValidationError{
			Entity: entity,
			ID:     id,
			Field:  "asn",
			Reason: fmt.Sprintf("%d is outside 1..%d", asn, maxAsn),
		}
	}
	return nil
}

func validateLength(
	entity string,
	id int64,
	field string,
	value string,
	required bool,
) error {
	if required && value == "" {
		return &ValidationError{
			Entity: entity,
			ID:     id,
			Field:  field,
			Reason: "must not be empty",
		}
	}
	if utf8.RuneCountInString(value) > maxNameLength {
		return &ValidationError{
			Entity: entity,
			ID:     id,
			Field:  field,
			Reason: fmt.Sprintf("longer than %d characters", maxNameLength),
		}
	}
	return nil
}
