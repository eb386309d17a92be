// Package embedded provides access to embedded asset data files.
package embedded

import _ "embed"

// StringsData contains the embedded user-facing strings and the assistant
// system preamble as YAML.
//
//go:embed strings.yaml
var StringsData []byte
