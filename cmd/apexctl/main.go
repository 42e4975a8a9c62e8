/*
Copyright © 2025 ApexData Inc.
SPDX-License-Identifier: Apache-2.0
*/
package main

import (
	"github.com/apexdata/apexctl/pkg/cli"
)

func main() {
	cli.Run()
}
