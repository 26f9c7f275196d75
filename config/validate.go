package config

import (
	"fmt"
	"strings"
)

func structural(field, msg string) Violation {
	return Violation{Field: field, Kind: KindStructuralViolation, Message: msg}
}

func isBlank(s string) bool { return strings.TrimSpace(s) == "" }

// Validate runs the structural checks over p and returns every violation
// found, in a stable order. An empty result means p is valid.
//
// Store settings maps are not inspected here; they are checked when a store's
// typed configuration is decoded.
func Validate(p Properties) []Violation {
	var vs []Violation

	if isBlank(p.Version) {
		vs = append(vs, structural("version", "must not be blank"))
	}
	if isBlank(p.Registry) {
		vs = append(vs, structural("registry", "must not be blank"))
	}
	if isBlank(p.ActiveStore) {
		vs = append(vs, structural("activeStore", "must not be blank"))
	}
	if p.RegistryRefreshInterval < 0 {
		vs = append(vs, structural("registryRefreshInterval",
			fmt.Sprintf("must not be negative, got %d", p.RegistryRefreshInterval)))
	}
	if p.Logging == nil {
		vs = append(vs, structural("logging", "must not be null"))
	}

	seen := make(map[string]int, len(p.Stores))
	for i, s := range p.Stores {
		if s.malformed != "" {
			vs = append(vs, structural(fmt.Sprintf("stores[%d]", i), s.malformed))
			continue
		}
		field := fmt.Sprintf("stores[%d].name", i)
		if isBlank(s.Name) {
			vs = append(vs, structural(field, "must not be blank"))
			continue
		}
		if first, ok := seen[s.Name]; ok {
			vs = append(vs, Violation{
				Field:   field,
				Kind:    KindDuplicateStoreName,
				Message: fmt.Sprintf("duplicate store name %q, first declared at stores[%d]", s.Name, first),
			})
			continue
		}
		seen[s.Name] = i
	}

	if t := p.Tracing; t != nil && t.Enabled {
		if !strings.EqualFold(strings.TrimSpace(t.TracerName), TracerJaeger) {
			vs = append(vs, structural("tracing.tracerName",
				fmt.Sprintf("must be %q when tracing is enabled, got %q", TracerJaeger, t.TracerName)))
		}
		if isBlank(t.ServiceName) {
			vs = append(vs, structural("tracing.serviceName", "must not be blank when tracing is enabled"))
		}
	}

	if a := p.RegistryAuth; a.Enabled() && isBlank(a.ClientID) {
		vs = append(vs, structural("registryAuth.clientId", "must not be blank when tokenUrl is set"))
	}

	if p.Logging != nil {
		vs = append(vs, p.Logging.violations()...)
	}
	return vs
}
