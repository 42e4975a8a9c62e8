/*
Copyright © 2025 ApexData Inc.
SPDX-License-Identifier: Apache-2.0
*/
package oci

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	ociv1 "github.com/opencontainers/image-spec/specs-go/v1"
	oras "oras.land/oras-go/v2"
	"oras.land/oras-go/v2/content/file"
	"oras.land/oras-go/v2/registry/remote"
	"oras.land/oras-go/v2/registry/remote/auth"
	"oras.land/oras-go/v2/registry/remote/credentials"
)

// ArtifactType is the media type for ApexData agent OCI artifacts.
const ArtifactType = "application/vnd.apexdata.agent.artifact"

// PullOptions configures the OCI pull operation.
type PullOptions struct {
	// Reference is the artifact to pull, in oci:// URI form.
	Reference string
	// PlainHTTP uses HTTP instead of HTTPS for the registry connection.
	PlainHTTP bool
	// InsecureTLS skips TLS certificate verification.
	InsecureTLS bool
}

// PullResult contains the result of a successful pull.
type PullResult struct {
	// Digest is the SHA256 digest of the pulled manifest.
	Digest string
	// BinaryPath is the path of the pulled agent binary inside the
	// temporary download directory.
	BinaryPath string
	// Cleanup removes the download directory. Always call it.
	Cleanup func()
}

// Pull fetches an agent artifact from a registry into a temporary directory
// and locates the binary inside it. The artifact is expected to contain a
// single file layer (the agent binary).
func Pull(ctx context.Context, opts PullOptions) (*PullResult, error) {
	ref, err := ParseReference(opts.Reference)
	if err != nil {
		return nil, err
	}

	destDir, err := os.MkdirTemp("", "apexctl-pull-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create download directory: %w", err)
	}
	cleanup := func() { _ = os.RemoveAll(destDir) }

	fs, err := file.New(destDir)
	if err != nil {
		cleanup()
		return nil, fmt.Errorf("failed to create file store: %w", err)
	}
	defer func() { _ = fs.Close() }()

	repo, err := remote.NewRepository(ref.Registry + "/" + ref.Repository)
	if err != nil {
		cleanup()
		return nil, fmt.Errorf("failed to initialize remote repository: %w", err)
	}
	repo.PlainHTTP = opts.PlainHTTP
	repo.Client = newAuthClient(opts.PlainHTTP, opts.InsecureTLS)

	slog.Info("pulling agent artifact", "reference", ref.String())

	desc, err := oras.Copy(ctx, repo, ref.Tag, fs, ref.Tag, oras.DefaultCopyOptions)
	if err != nil {
		cleanup()
		return nil, fmt.Errorf("failed to pull artifact from registry: %w", err)
	}
	if desc.MediaType != ociv1.MediaTypeImageManifest {
		slog.Warn("unexpected manifest media type", "mediaType", desc.MediaType)
	}

	binaryPath, err := findBinary(destDir)
	if err != nil {
		cleanup()
		return nil, err
	}

	return &PullResult{
		Digest:     desc.Digest.String(),
		BinaryPath: binaryPath,
		Cleanup:    cleanup,
	}, nil
}

// findBinary locates the single regular file the artifact materialized.
func findBinary(dir string) (string, error) {
	var found string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		if found != "" {
			return fmt.Errorf("artifact contains more than one file: %s and %s", found, path)
		}
		found = path
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to inspect pulled artifact: %w", err)
	}
	if found == "" {
		return "", fmt.Errorf("artifact contains no files")
	}
	return found, nil
}

// newAuthClient creates an HTTP client with optional TLS configuration and
// Docker credential support.
func newAuthClient(plainHTTP, insecureTLS bool) *auth.Client {
	credStore, _ := credentials.NewStoreFromDocker(credentials.StoreOptions{})

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if !plainHTTP && insecureTLS {
		if transport.TLSClientConfig == nil {
			transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec
		} else {
			transport.TLSClientConfig.InsecureSkipVerify = true //nolint:gosec
		}
	}

	return &auth.Client{
		Client:     &http.Client{Transport: transport},
		Cache:      auth.NewCache(),
		Credential: credentials.Credential(credStore),
	}
}
