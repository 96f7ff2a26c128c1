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


package moltbook

import "fmt"

// UpstreamError reports a non-2xx response from the Moltbook API.
// The client never retries; pagination for the affected entity stops at
// the orchestrator level.
type UpstreamError struct {
	// Status is the HTTP status code.
	Status int

	// Reason is the HTTP status text reported by the upstream.
	Reason string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("moltbook API error: %d %s", e.Status, e.Reason)
}
