/*
Copyright © 2025 ApexData Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package oci pulls agent binary artifacts from OCI registries using ORAS.
// `apexctl service update --from oci://...` uses it to fetch pre-built agent
// releases distributed as OCI artifacts.
package oci

import (
	"strings"

	"github.com/distribution/reference"

	apperrors "github.com/apexdata/apexctl/pkg/errors"
)

// URIScheme is the URI scheme for OCI artifact sources
// (e.g. "oci://ghcr.io/apexdata/apexdata-agent:v1.2.3").
const URIScheme = "oci://"

// Reference is a parsed OCI artifact reference.
type Reference struct {
	// Registry is the registry host (e.g. "ghcr.io", "localhost:5000").
	Registry string
	// Repository is the repository path (e.g. "apexdata/apexdata-agent").
	Repository string
	// Tag is the artifact tag. Defaults to "latest" when unspecified.
	Tag string
}

// String returns the registry/repository:tag form without the URI scheme.
func (r Reference) String() string {
	return r.Registry + "/" + r.Repository + ":" + r.Tag
}

// IsOCIReference reports whether target carries the oci:// scheme.
func IsOCIReference(target string) bool {
	return strings.HasPrefix(target, URIScheme)
}

// ParseReference parses an oci:// URI into its components.
func ParseReference(target string) (*Reference, error) {
	if !IsOCIReference(target) {
		return nil, apperrors.New(apperrors.ErrCodeInvalidRequest,
			"OCI reference must start with oci://")
	}

	ref, err := reference.ParseNormalizedNamed(strings.TrimPrefix(target, URIScheme))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInvalidRequest, "invalid OCI reference", err)
	}

	out := &Reference{
		Registry:   reference.Domain(ref),
		Repository: reference.Path(ref),
		Tag:        "latest",
	}
	if tagged, ok := ref.(reference.Tagged); ok {
		out.Tag = tagged.Tag()
	}
	return out, nil
}
