/*
Copyright © 2025 ApexData Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package serializer renders command output in the formats apexctl supports:
//   - JSON: machine-readable structured data with indentation
//   - YAML: human-readable configuration format
//   - Table: flattened key/value rows for terminal reading
//
// Usage:
//
//	w := serializer.NewFileWriterOrStdout(serializer.FormatYAML, path)
//	defer w.Close()
//	if err := w.Serialize(ctx, status); err != nil {
//	    return err
//	}
package serializer

import "context"

// Serializer renders a value to a configured destination.
//
// The context parameter is reserved for implementations that perform I/O
// with cancellation semantics; file and stdout writers ignore it.
type Serializer interface {
	Serialize(ctx context.Context, v any) error
}

// Closer is an optional interface Serializers implement when they hold
// resources (e.g. file handles).
type Closer interface {
	Close() error
}
