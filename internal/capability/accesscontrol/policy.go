// Package accesscontrol implements the capability-based ACL: handlers
// that veto operations whose property key falls outside the policy's
// allow-sets. Denied reads, calls and constructions raise; denied
// writes and deletes report a boolean denial.
package accesscontrol

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/goccy/go-yaml"
	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"

	apperrors "github.com/intercede-dev/intercede/internal/application/errors"
	"github.com/intercede-dev/intercede/internal/version"
)

// Wildcard in an allow-set permits every key for that intent.
const Wildcard = "*"

// Policy is a versioned access-control document. The allow-sets are
// evaluated against the operation's property key.
type Policy struct {
	// Version is the policy document's own version (semver).
	Version string `yaml:"version" json:"version"`
	// Requires optionally constrains the engine version this policy
	// was written for, e.g. ">= 0.2.0".
	Requires string `yaml:"requires,omitempty" json:"requires,omitempty"`
	// Allow holds the per-intent allow-sets.
	Allow AllowSets `yaml:"allow" json:"allow"`
}

// AllowSets names the properties each intent may touch.
type AllowSets struct {
	Read      []string `yaml:"read,omitempty" json:"read,omitempty"`
	Write     []string `yaml:"write,omitempty" json:"write,omitempty"`
	Invoke    []string `yaml:"invoke,omitempty" json:"invoke,omitempty"`
	Construct bool     `yaml:"construct,omitempty" json:"construct,omitempty"`
}

// policySchema validates the structural shape of a policy document.
const policySchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["version", "allow"],
  "additionalProperties": false,
  "properties": {
    "version": {"type": "string", "pattern": "^\\d+\\.\\d+\\.\\d+$"},
    "requires": {"type": "string"},
    "allow": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "read": {"type": "array", "items": {"type": "string", "minLength": 1}},
        "write": {"type": "array", "items": {"type": "string", "minLength": 1}},
        "invoke": {"type": "array", "items": {"type": "string", "minLength": 1}},
        "construct": {"type": "boolean"}
      }
    }
  }
}`

// ParsePolicy parses and validates a YAML policy document.
func ParsePolicy(data []byte) (Policy, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return Policy{}, apperrors.NewValidationError("policy", "not valid YAML", err.Error())
	}
	if err := validateAgainstSchema(raw); err != nil {
		return Policy{}, err
	}

	var p Policy
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Policy{}, apperrors.NewValidationError("policy", "does not match the policy shape", err.Error())
	}
	if err := p.Validate(); err != nil {
		return Policy{}, err
	}
	return p, nil
}

// LoadPolicy reads and parses a policy file.
func LoadPolicy(path string) (Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Policy{}, fmt.Errorf("failed to read policy %s: %w", path, err)
	}
	p, err := ParsePolicy(data)
	if err != nil {
		return Policy{}, fmt.Errorf("policy %s: %w", path, err)
	}
	return p, nil
}

// Validate checks the document's version fields. Structural shape is
// the schema's job; this covers what a schema cannot express.
func (p Policy) Validate() error {
	if _, err := semver.NewVersion(p.Version); err != nil {
		return apperrors.NewValidationError("version", fmt.Sprintf("%q is not valid semver", p.Version))
	}
	if p.Requires == "" {
		return nil
	}

	constraint, err := semver.NewConstraint(p.Requires)
	if err != nil {
		return apperrors.NewValidationError("requires", fmt.Sprintf("%q is not a valid version constraint", p.Requires))
	}
	engine := version.Get().Version
	if engine == "dev" {
		// Development builds satisfy every constraint.
		return nil
	}
	v, err := semver.NewVersion(engine)
	if err != nil {
		return nil
	}
	if !constraint.Check(v) {
		return apperrors.NewValidationError("requires",
			fmt.Sprintf("policy requires engine %s, running %s", p.Requires, engine))
	}
	return nil
}

// validateAgainstSchema checks the decoded document against the policy
// schema. YAML decoding can yield map[any]any nesting; normalize
// through JSON first so the validator sees plain maps.
func validateAgainstSchema(doc any) error {
	normalized, err := normalizeForSchema(doc)
	if err != nil {
		return apperrors.NewValidationError("policy", "cannot normalize document", err.Error())
	}

	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	if err := compiler.AddResource("policy.json", strings.NewReader(policySchema)); err != nil {
		return fmt.Errorf("failed to add policy schema resource: %w", err)
	}
	schema, err := compiler.Compile("policy.json")
	if err != nil {
		return fmt.Errorf("failed to compile policy schema: %w", err)
	}

	if err := schema.Validate(normalized); err != nil {
		var validationErr *jsonschema.ValidationError
		if errors.As(err, &validationErr) {
			return apperrors.NewValidationError("policy", "schema validation failed", flattenSchemaError(validationErr)...)
		}
		return apperrors.NewValidationError("policy", "schema validation failed", err.Error())
	}
	return nil
}

func normalizeForSchema(doc any) (any, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(doc); err != nil {
		return nil, err
	}
	var normalized any
	if err := json.NewDecoder(&buf).Decode(&normalized); err != nil {
		return nil, err
	}
	return normalized, nil
}

func flattenSchemaError(err *jsonschema.ValidationError) []string {
	var details []string
	var collect func(*jsonschema.ValidationError)
	collect = func(e *jsonschema.ValidationError) {
		if len(e.Causes) == 0 {
			location := e.InstanceLocation
			if location == "" {
				location = "/"
			}
			details = append(details, fmt.Sprintf("%s: %s", location, e.Message))
			return
		}
		for _, cause := range e.Causes {
			collect(cause)
		}
	}
	collect(err)
	return details
}
