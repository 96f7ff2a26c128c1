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


package storage

import (
	"fmt"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
)

// vectorSer serializes embedding vectors for BLOB storage.
var vectorSer = ord.NewSliceSer[float32](raw.Float32)

// MarshalVector serializes an embedding vector to bytes.
// A nil or empty vector marshals to nil, which backends store as NULL.
func MarshalVector(vector []float32) []byte {
	if len(vector) == 0 {
		return nil
	}
	buf := make([]byte, vectorSer.Size(vector))
	vectorSer.Marshal(vector, buf)
	return buf
}

// UnmarshalVector deserializes an embedding vector from bytes.
// Nil or empty input yields a nil vector.
func UnmarshalVector(data []byte) ([]float32, error) {
	if len(data) == 0 {
		return nil, nil
	}
	vector, _, err := vectorSer.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return vector, nil
}
