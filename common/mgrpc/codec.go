package mgrpc

import (
	"encoding/json"

	"google.golang.org/grpc/encoding"
)

// JSONCodecName is registered as the default codec name ("proto") so that
// grpc-go's transport uses it without requiring clients to set a custom
// content-subtype. The RPC method catalog (spec §6) is specified by its
// method names and message shapes, not by a compiled .proto contract; this
// codec marshals the same request/response Go structs used by the REST
// ApiSurface, so the gRPC and HTTP transports share one wire
// representation end to end.
const JSONCodecName = "proto"

type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonCodec) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

func (jsonCodec) Name() string {
	return JSONCodecName
}

func init() {
	encoding.RegisterCodec(jsonCodec{})
}
