// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/json"
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/relabs-tech/ubx_gateway/internal/config"
)

// Codec encodes per-message payloads.
type Codec interface {
	Name() string
	Marshal(v any) ([]byte, error)
}

func NewCodec(name string) (Codec, error) {
	switch name {
	case "", config.EncodingJSON:
		return jsonCodec{}, nil
	case config.EncodingCBOR:
		em, err := cbor.EncOptions{Time: cbor.TimeRFC3339Nano}.EncMode()
		if err != nil {
			return nil, err
		}
		return cborCodec{em: em}, nil
	default:
		return nil, fmt.Errorf("unknown payload encoding %q", name)
	}
}

type jsonCodec struct{}

func (jsonCodec) Name() string                  { return config.EncodingJSON }
func (jsonCodec) Marshal(v any) ([]byte, error) { return json.Marshal(v) }

type cborCodec struct {
	em cbor.EncMode
}

func (cborCodec) Name() string                    { return config.EncodingCBOR }
func (c cborCodec) Marshal(v any) ([]byte, error) { return c.em.Marshal(v) }
