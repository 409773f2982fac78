package types

import (
	"reflect"

	"github.com/invopop/jsonschema"
)

// Schema describes both directions of the protocol so client code can be generated
// or validated against it.
func Schema() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: true,
		DoNotReference:            true,
	}

	client := reflector.ReflectFromType(reflect.TypeOf(ClientMessage{}))
	client.Version = ""
	client.Title = "Client Message"
	client.Description = "Message sent by a browser client to its match room."

	server := reflector.ReflectFromType(reflect.TypeOf(ServerMessage{}))
	server.Version = ""
	server.Title = "Server Message"
	server.Description = "Message sent by a match room to one or all of its sessions."

	return &jsonschema.Schema{
		Version:     jsonschema.Version,
		Title:       "Gunslinger Wire Protocol",
		Description: "JSON text frames exchanged over the /ws endpoint.",
		OneOf:       []*jsonschema.Schema{client, server},
	}
}
