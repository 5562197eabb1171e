package generate

import _ "embed"

// JSON schemas for the generation wire formats. The input schemas describe
// what the backends receive, the output schemas gate what they return
// before decoding.

//go:embed architecture_input.schema.json
var architectureInputSchema string

//go:embed architecture_output.schema.json
var architectureOutputSchema string

//go:embed craft_input.schema.json
var craftInputSchema string

//go:embed craft_output.schema.json
var craftOutputSchema string
