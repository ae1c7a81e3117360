// Package validation provides input validation for manifests and config.
//
// It supports both struct tag validation (using the validator library) and
// programmatic validation with error collection. Struct tag validation
// covers shape checks; the collecting Validator covers semantic checks
// that need to report every problem at once.
//
// # Struct Tag Validation
//
//	type StageDef struct {
//	    Name string   `yaml:"name" validate:"required"`
//	    Run  []string `yaml:"run" validate:"required,min=1"`
//	}
//	err := validation.Validate(def)
//
// # Programmatic Validation
//
//	v := validation.New()
//	v.Required("name", m.Name).OneOf("topology", m.Topology, topologies)
//	err := v.Validate()
package validation
