package api

import (
	"encoding/json"
	"fmt"

	"connectrpc.com/connect"
)

// CodecName имя кодека в Content-Type (application/json, application/connect+json)
const CodecName = "json"

// JSONCodec сериализует обычные структуры для connect
type JSONCodec struct{}

var _ connect.Codec = JSONCodec{}

// Name implements connect.Codec
func (JSONCodec) Name() string { return CodecName }

// Marshal implements connect.Codec
func (JSONCodec) Marshal(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal %T: %w", v, err)
	}
	return data, nil
}

// Unmarshal implements connect.Codec
func (JSONCodec) Unmarshal(data []byte, v any) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("unmarshal %T: %w", v, err)
	}
	return nil
}

// WithJSON опция connect для сервера и клиента
func WithJSON() connect.Option {
	return connect.WithCodec(JSONCodec{})
}
