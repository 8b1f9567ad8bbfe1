package policy

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// MaxBundleSize is the largest a policy bundle file is allowed to be.
const MaxBundleSize = 1 << 20 // 1 MiB

// ConfigError wraps every failure a bundle load can produce into one
// error type, so callers have a single thing to check for regardless of
// which step failed.
type ConfigError struct {
	msg string
	err error
}

func (e *ConfigError) Error() string {
	if e.err != nil {
		return fmt.Sprintf("policy: %s: %v", e.msg, e.err)
	}
	return fmt.Sprintf("policy: %s", e.msg)
}

func (e *ConfigError) Unwrap() error { return e.err }

func configErrf(format string, args ...any) *ConfigError {
	return &ConfigError{msg: fmt.Sprintf(format, args...)}
}

func wrapConfigErr(msg string, err error) *ConfigError {
	return &ConfigError{msg: msg, err: err}
}

// CompiledBundle is the output of a successful load: the parsed bundle,
// its content hash (the bundle's policy_version), and the precompiled
// regex cache used at evaluation time.
type CompiledBundle struct {
	Bundle *Bundle
	Hash   string // hex-encoded SHA-256 of the raw file bytes
	regex  *regexCache
}

// LoadBundleFile reads and validates the bundle at path.
func LoadBundleFile(path string) (*CompiledBundle, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, wrapConfigErr("opening bundle file", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, wrapConfigErr("stat bundle file", err)
	}
	if info.Size() > MaxBundleSize {
		return nil, configErrf("bundle file exceeds maximum size of %d bytes", MaxBundleSize)
	}

	raw, err := io.ReadAll(f)
	if err != nil {
		return nil, wrapConfigErr("reading bundle file", err)
	}
	return LoadBundleBytes(raw)
}

// LoadBundleBytes parses and validates raw as a policy bundle. The hash is
// computed over these exact bytes before any parsing happens, so it is
// stable under any subsequent change to how the bundle is decoded.
func LoadBundleBytes(raw []byte) (*CompiledBundle, error) {
	if len(raw) > MaxBundleSize {
		return nil, configErrf("bundle exceeds maximum size of %d bytes", MaxBundleSize)
	}

	sum := sha256.Sum256(raw)
	hash := hex.EncodeToString(sum[:])

	var generic any
	if err := yaml.Unmarshal(raw, &generic); err != nil {
		return nil, wrapConfigErr("parsing YAML", err)
	}
	if _, ok := generic.(map[string]any); !ok {
		return nil, configErrf("bundle must be a top-level mapping")
	}

	if err := ValidateSchema(generic); err != nil {
		return nil, wrapConfigErr("schema validation", err)
	}

	var bundle Bundle
	if err := yaml.Unmarshal(raw, &bundle); err != nil {
		return nil, wrapConfigErr("decoding bundle", err)
	}

	if bundle.APIVersion != SupportedAPIVersion {
		return nil, configErrf("unsupported api_version %q", bundle.APIVersion)
	}

	if err := validateUniqueIDs(bundle.Contracts); err != nil {
		return nil, err
	}

	cache := newRegexCache()
	if err := precompileRegexes(bundle.Contracts, cache); err != nil {
		return nil, err
	}

	if err := validatePreSelectors(bundle.Contracts); err != nil {
		return nil, err
	}

	return &CompiledBundle{Bundle: &bundle, Hash: hash, regex: cache}, nil
}

func validateUniqueIDs(contracts []ContractSpec) error {
	seen := make(map[string]bool, len(contracts))
	for _, c := range contracts {
		if seen[c.ID] {
			return configErrf("duplicate contract id %q", c.ID)
		}
		seen[c.ID] = true
	}
	return nil
}

func precompileRegexes(contracts []ContractSpec, cache *regexCache) error {
	var walk func(e *Expr) error
	walk = func(e *Expr) error {
		if e == nil {
			return nil
		}
		if e.Operator == "matches" {
			pattern, ok := e.Operand.(string)
			if !ok {
				return configErrf("contract selector %q: \"matches\" operand must be a string", e.Selector)
			}
			if err := cache.precompile(pattern); err != nil {
				return configErrf("contract selector %q: invalid regex %q: %v", e.Selector, pattern, err)
			}
		}
		if e.Operator == "matches_any" {
			list, ok := e.Operand.([]any)
			if !ok {
				return configErrf("contract selector %q: \"matches_any\" operand must be a list", e.Selector)
			}
			for _, item := range list {
				pattern, ok := item.(string)
				if !ok {
					return configErrf("contract selector %q: \"matches_any\" entries must be strings", e.Selector)
				}
				if err := cache.precompile(pattern); err != nil {
					return configErrf("contract selector %q: invalid regex %q: %v", e.Selector, pattern, err)
				}
			}
		}
		for i := range e.All {
			if err := walk(&e.All[i]); err != nil {
				return err
			}
		}
		for i := range e.Any {
			if err := walk(&e.Any[i]); err != nil {
				return err
			}
		}
		if e.Not != nil {
			return walk(e.Not)
		}
		return nil
	}

	for _, c := range contracts {
		if err := walk(c.When); err != nil {
			return err
		}
	}
	return nil
}

// validatePreSelectors rejects the "output.text" selector anywhere inside
// a pre-type contract, since a pre-check runs before the tool has
// produced any output.
func validatePreSelectors(contracts []ContractSpec) error {
	var containsOutputText func(e *Expr) bool
	containsOutputText = func(e *Expr) bool {
		if e == nil {
			return false
		}
		if e.Selector == "output.text" {
			return true
		}
		for i := range e.All {
			if containsOutputText(&e.All[i]) {
				return true
			}
		}
		for i := range e.Any {
			if containsOutputText(&e.Any[i]) {
				return true
			}
		}
		return containsOutputText(e.Not)
	}

	for _, c := range contracts {
		if c.Type == "pre" && containsOutputText(c.When) {
			return configErrf("contract %q: \"output.text\" selector is not allowed in a pre contract", c.ID)
		}
	}
	return nil
}
