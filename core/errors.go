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

import "errors"

// Domain validation errors
var (
	// ErrInvalidEventRecord indicates an EventRecord failed validation.
	ErrInvalidEventRecord = errors.New("invalid event record")

	// ErrEmptyReaction indicates the Reaction field is empty.
	ErrEmptyReaction = errors.New("reaction cannot be empty")

	// ErrUntrimmedReaction indicates the Reaction field carries surrounding whitespace.
	ErrUntrimmedReaction = errors.New("reaction must be trimmed")

	// ErrInvalidSex indicates an invalid Sex value.
	ErrInvalidSex = errors.New("invalid sex")

	// ErrInvalidAge indicates a negative age.
	ErrInvalidAge = errors.New("age cannot be negative")
)
