// Copyright 2025 Poiesic Systems
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


package core

import (
	"fmt"
	"strings"
)

// ValidateEventRecord validates an EventRecord according to domain rules.
//
// Validation rules:
//   - Reaction must not be empty and must be trimmed
//   - Sex must be one of the defined values
//   - Age, when known, must not be negative
//
// NOT validated:
//   - DrugName (an empty name is legal and simply never matches a drug filter)
//   - ReportID, ReceiveDate (descriptive only)
func ValidateEventRecord(record *EventRecord) error {
	if record == nil {
		return fmt.Errorf("%w: record is nil", ErrInvalidEventRecord)
	}

	if record.Reaction == "" {
		return fmt.Errorf("%w: %w", ErrInvalidEventRecord, ErrEmptyReaction)
	}

	if strings.TrimSpace(record.Reaction) != record.Reaction {
		return fmt.Errorf("%w: %w", ErrInvalidEventRecord, ErrUntrimmedReaction)
	}

	if err := ValidateSex(record.Sex); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidEventRecord, err)
	}

	if record.Age != nil && *record.Age < 0 {
		return fmt.Errorf("%w: %w", ErrInvalidEventRecord, ErrInvalidAge)
	}

	return nil
}

// ValidateSex validates that a Sex has a defined value.
func ValidateSex(sex Sex) error {
	if sex != SexUnknown && sex != SexMale && sex != SexFemale {
		return fmt.Errorf("%w: value %d", ErrInvalidSex, sex)
	}
	return nil
}
