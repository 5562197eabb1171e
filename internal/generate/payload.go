package generate

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/xeipuuv/gojsonschema"

	"github.com/atelierhq/atelier/internal/blueprint"
	"github.com/atelierhq/atelier/internal/config"
)

const (
	defaultModelID     = "groq/llama-3.3-70b-versatile"
	defaultTemperature = 0.7
)

type wireOutline struct {
	Name            string `json:"name"`
	RoleDescription string `json:"role_description"`
	Goal            string `json:"goal"`
	IsCoordinator   bool   `json:"is_coordinator"`
}

type wireProposal struct {
	Reasoning string        `json:"reasoning"`
	Agents    []wireOutline `json:"agents"`
}

type wireSpec struct {
	Name              string   `json:"name"`
	Description       string   `json:"description"`
	ModelID           string   `json:"model_id"`
	Temperature       *float64 `json:"temperature"`
	RoleDescription   string   `json:"role_description"`
	Goal              string   `json:"goal"`
	Instructions      string   `json:"instructions"`
	UsageDescription  string   `json:"usage_description"`
	FeatureFlags      []string `json:"feature_flags"`
	SubAgentFilenames []string `json:"sub_agent_filenames"`
}

func decodeProposal(raw []byte) (blueprint.ArchitectureProposal, error) {
	var wire wireProposal
	if err := decodePayload(raw, architectureOutputSchema, &wire); err != nil {
		return blueprint.ArchitectureProposal{}, err
	}
	return wire.toProposal(), nil
}

func decodeSpec(raw []byte, req blueprint.CraftRequest, defaults config.AgentDefaults) (blueprint.AgentSpec, error) {
	var wire wireSpec
	if err := decodePayload(raw, craftOutputSchema, &wire); err != nil {
		return blueprint.AgentSpec{}, err
	}
	return wire.toSpec(req, defaults), nil
}

// toProposal orders the coordinator first. When no entry carries the
// coordinator flag, the first entry is promoted.
func (w wireProposal) toProposal() blueprint.ArchitectureProposal {
	coordinator := -1
	for i, a := range w.Agents {
		if a.IsCoordinator {
			coordinator = i
			break
		}
	}
	if coordinator < 0 && len(w.Agents) > 0 {
		coordinator = 0
	}

	agents := make([]blueprint.AgentOutline, 0, len(w.Agents))
	if coordinator >= 0 {
		agents = append(agents, w.Agents[coordinator].toOutline())
	}
	for i, a := range w.Agents {
		if i == coordinator {
			continue
		}
		agents = append(agents, a.toOutline())
	}
	return blueprint.ArchitectureProposal{Reasoning: strings.TrimSpace(w.Reasoning), Agents: agents}
}

func (w wireOutline) toOutline() blueprint.AgentOutline {
	return blueprint.AgentOutline{
		Name:            strings.TrimSpace(w.Name),
		RoleDescription: strings.TrimSpace(w.RoleDescription),
		Goal:            strings.TrimSpace(w.Goal),
	}
}

// toSpec finishes a generated spec: role and index come from the request,
// never from the model output, the filename is derived from the final name,
// and configured defaults fill what generation left empty.
func (w wireSpec) toSpec(req blueprint.CraftRequest, defaults config.AgentDefaults) blueprint.AgentSpec {
	spec := blueprint.AgentSpec{
		Role:              blueprint.RoleFor(req.IsCoordinator),
		Index:             req.AgentIndex,
		Name:              strings.TrimSpace(w.Name),
		Description:       strings.TrimSpace(w.Description),
		ModelID:           strings.TrimSpace(w.ModelID),
		RoleDescription:   strings.TrimSpace(w.RoleDescription),
		Goal:              strings.TrimSpace(w.Goal),
		Instructions:      strings.TrimSpace(w.Instructions),
		UsageDescription:  strings.TrimSpace(w.UsageDescription),
		FeatureFlags:      w.FeatureFlags,
		SubAgentFilenames: w.SubAgentFilenames,
	}
	if spec.Name == "" {
		spec.Name = req.AgentName
	}
	spec.Filename = blueprint.Filename(spec.Name)
	if spec.ModelID == "" {
		spec.ModelID = defaults.ModelID
	}
	if spec.ModelID == "" {
		spec.ModelID = defaultModelID
	}
	switch {
	case w.Temperature != nil:
		spec.Temperature = *w.Temperature
	case defaults.Temperature != nil:
		spec.Temperature = *defaults.Temperature
	default:
		spec.Temperature = defaultTemperature
	}
	if len(spec.FeatureFlags) == 0 {
		spec.FeatureFlags = append([]string(nil), defaults.FeatureFlags...)
	}
	if !req.IsCoordinator {
		spec.SubAgentFilenames = nil
	}
	return spec
}

// decodePayload turns raw generator output into a typed value: strip code
// fences, recover the JSON document, check it against the schema, then
// decode leniently so near-miss typing (numbers as strings) still lands.
func decodePayload(raw []byte, schema string, out any) error {
	data, err := payloadJSON(raw)
	if err != nil {
		return err
	}

	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parse generation output: %w", err)
	}
	if err := validatePayload(schema, doc); err != nil {
		return err
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return fmt.Errorf("build payload decoder: %w", err)
	}
	if err := dec.Decode(doc); err != nil {
		return fmt.Errorf("decode generation output: %w", err)
	}
	return nil
}

func payloadJSON(raw []byte) ([]byte, error) {
	trimmed := bytes.TrimSpace(stripFences(raw))
	if len(trimmed) > 0 && json.Valid(trimmed) {
		return trimmed, nil
	}
	extracted, ok := ExtractJSON(trimmed)
	if !ok {
		return nil, fmt.Errorf("generation output is not valid JSON")
	}
	return extracted, nil
}

func validatePayload(schema string, doc map[string]any) error {
	result, err := gojsonschema.Validate(gojsonschema.NewStringLoader(schema), gojsonschema.NewGoLoader(doc))
	if err != nil {
		return fmt.Errorf("validate payload schema: %w", err)
	}
	if result.Valid() {
		return nil
	}
	errs := make([]string, 0, len(result.Errors()))
	for _, schemaErr := range result.Errors() {
		errs = append(errs, schemaErr.String())
	}
	sort.Strings(errs)
	return fmt.Errorf("generation output failed schema validation: %s", strings.Join(errs, "; "))
}

// stripFences removes a surrounding markdown code fence, with or without a
// language tag.
func stripFences(raw []byte) []byte {
	trimmed := bytes.TrimSpace(raw)
	if !bytes.HasPrefix(trimmed, []byte("```")) {
		return trimmed
	}
	rest := trimmed[3:]
	if i := bytes.IndexByte(rest, '\n'); i >= 0 {
		rest = rest[i+1:]
	}
	if i := bytes.LastIndex(rest, []byte("```")); i >= 0 {
		rest = rest[:i]
	}
	return bytes.TrimSpace(rest)
}

// ExtractJSON pulls the first balanced JSON object or array out of mixed
// output, tolerating surrounding prose.
func ExtractJSON(raw []byte) ([]byte, bool) {
	start := bytes.IndexAny(raw, "{[")
	for start >= 0 {
		if candidate, ok := balancedFrom(raw[start:]); ok && json.Valid(candidate) {
			return candidate, true
		}
		next := bytes.IndexAny(raw[start+1:], "{[")
		if next < 0 {
			break
		}
		start = start + 1 + next
	}
	return nil, false
}

func balancedFrom(s []byte) ([]byte, bool) {
	open := s[0]
	closing := byte('}')
	if open == '[' {
		closing = ']'
	}
	depth := 0
	inString := false
	escaped := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case open:
			depth++
		case closing:
			depth--
			if depth == 0 {
				return s[:i+1], true
			}
		}
	}
	return nil, false
}
