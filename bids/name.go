// Package bids handles the filename and directory conventions of the Brain
// Imaging Data Structure. It covers only what the housekeeping pipeline
// touches: entity parsing, entity rewrites, and companion-file paths.
// Validation of full datasets is left to the external BIDS toolchain.
package bids

import (
	"fmt"
	"regexp"
	"strings"
)

// Entity keys in the order BIDS requires them to appear in a filename.
var entityOrder = []string{"sub", "ses", "task", "acq", "dir", "run"}

var runSegment = regexp.MustCompile(`run-[0-9][0-9]_`)

// Name is a decomposed BIDS filename such as
// sub-01_ses-02_acq-single_dir-AP_dwi.nii.gz.
type Name struct {
	keys   []string
	values map[string]string
	Suffix string
	Ext    string
}

// ParseName decomposes a BIDS basename into entities, suffix, and extension.
// The .nii.gz double extension is treated as a single extension.
func ParseName(basename string) (Name, error) {
	n := Name{values: map[string]string{}}

	rest := basename
	if strings.HasSuffix(rest, ".nii.gz") {
		n.Ext = ".nii.gz"
		rest = strings.TrimSuffix(rest, ".nii.gz")
	} else if i := strings.LastIndex(rest, "."); i > 0 {
		n.Ext = rest[i:]
		rest = rest[:i]
	}

	parts := strings.Split(rest, "_")
	for i, part := range parts {
		kv := strings.SplitN(part, "-", 2)
		if len(kv) == 2 && kv[0] != "" {
			if _, seen := n.values[kv[0]]; seen {
				return n, fmt.Errorf("bids: duplicate entity %q in %q", kv[0], basename)
			}
			n.keys = append(n.keys, kv[0])
			n.values[kv[0]] = kv[1]
			continue
		}

		// The first non key-value segment is the suffix and must be last.
		if i != len(parts)-1 {
			return n, fmt.Errorf("bids: unexpected segment %q in %q", part, basename)
		}
		n.Suffix = part
	}

	return n, nil
}

// Get returns the value of an entity ("" when absent).
func (n Name) Get(key string) string {
	return n.values[key]
}

// With returns a copy of the name with the given entity set, inserting it in
// canonical position when it was not already present.
func (n Name) With(key, value string) Name {
	out := n.clone()

	if _, exists := out.values[key]; exists {
		out.values[key] = value
		return out
	}

	out.values[key] = value
	out.keys = insertCanonical(out.keys, key)
	return out
}

// WithoutRun returns a copy of the name with any run entity removed.
func (n Name) WithoutRun() Name {
	out := n.clone()

	if _, exists := out.values["run"]; !exists {
		return out
	}
	delete(out.values, "run")

	keys := out.keys[:0]
	for _, k := range out.keys {
		if k != "run" {
			keys = append(keys, k)
		}
	}
	out.keys = keys
	return out
}

func (n Name) String() string {
	var sb strings.Builder
	for _, k := range n.keys {
		if sb.Len() > 0 {
			sb.WriteByte('_')
		}
		sb.WriteString(k)
		sb.WriteByte('-')
		sb.WriteString(n.values[k])
	}
	if n.Suffix != "" {
		if sb.Len() > 0 {
			sb.WriteByte('_')
		}
		sb.WriteString(n.Suffix)
	}
	sb.WriteString(n.Ext)
	return sb.String()
}

func (n Name) clone() Name {
	out := Name{
		keys:   append([]string{}, n.keys...),
		values: make(map[string]string, len(n.values)),
		Suffix: n.Suffix,
		Ext:    n.Ext,
	}
	for k, v := range n.values {
		out.values[k] = v
	}
	return out
}

func insertCanonical(keys []string, key string) []string {
	rank := map[string]int{}
	for i, k := range entityOrder {
		rank[k] = i
	}

	newRank, known := rank[key]
	if !known {
		return append(keys, key)
	}

	for i, k := range keys {
		if r, ok := rank[k]; ok && r > newRank {
			keys = append(keys[:i], append([]string{key}, keys[i:]...)...)
			return keys
		}
	}
	return append(keys, key)
}

// StripRun removes any run-NN_ segment from a basename. Run numbers are
// two digits by this study's convention.
func StripRun(basename string) string {
	return runSegment.ReplaceAllString(basename, "")
}

// HasRun reports whether a basename carries a run-NN_ segment.
func HasRun(basename string) bool {
	return runSegment.MatchString(basename)
}
