// Copyright 2025 MoltSpace
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
	// ErrInvalidAgent indicates an Agent failed validation.
	ErrInvalidAgent = errors.New("invalid agent")

	// ErrInvalidSubmolt indicates a Submolt failed validation.
	ErrInvalidSubmolt = errors.New("invalid submolt")

	// ErrInvalidPost indicates a Post failed validation.
	ErrInvalidPost = errors.New("invalid post")

	// ErrInvalidComment indicates a Comment failed validation.
	ErrInvalidComment = errors.New("invalid comment")

	// ErrEmptyMoltbookID indicates the MoltbookID field is empty.
	ErrEmptyMoltbookID = errors.New("moltbook id cannot be empty")

	// ErrEmptyName indicates a required name field is empty.
	ErrEmptyName = errors.New("name cannot be empty")

	// ErrMissingPostReference indicates a comment without a post reference.
	ErrMissingPostReference = errors.New("comment requires a post reference")

	// ErrMissingAuthorReference indicates a comment without an author reference.
	ErrMissingAuthorReference = errors.New("comment requires an author reference")
)
