package api

import (
	"encoding/json"

	"google.golang.org/grpc/encoding"
)

// codecName is registered as a grpc encoding.Codec. The client must set
// grpc.ForceCodec(jsonCodec{}) and the server grpc.ForceServerCodec so
// both sides skip the default codec's proto.Message type assertion,
// which these plain structs would fail.
const codecName = "json"

type jsonCodec struct{}

func (jsonCodec) Marshal(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonCodec) Unmarshal(data []byte, v interface{}) error {
	return json.Unmarshal(data, v)
}

func (jsonCodec) Name() string {
	return codecName
}

func init() {
	encoding.RegisterCodec(jsonCodec{})
}

// Codec returns the grpc.Codec implementation this server speaks, so a
// client dials with the same one via grpc.ForceCodec.
func Codec() encoding.Codec {
	return jsonCodec{}
}
