package api

// The request and response bodies in types.go mirror api.yaml by hand; only
// the embedded document is generated.

//go:generate go run github.com/oapi-codegen/oapi-codegen/v2/cmd/oapi-codegen --generate spec -o spec.gen.go -package=api api.yaml
