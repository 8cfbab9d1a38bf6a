// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package cmd

import (
	"testing"

	"go.viam.com/test"
)

func TestRootCommands(t *testing.T) {
	root := getRootCmd()

	for _, name := range []string{"read", "probe", "produce", "console", "web", "registers", "display"} {
		c, _, err := root.Find([]string{name})
		test.That(t, err, test.ShouldBeNil)
		test.That(t, c.Name(), test.ShouldEqual, name)
		test.That(t, c.RunE, test.ShouldNotBeNil)
	}

	cfg := root.PersistentFlags().Lookup("config")
	test.That(t, cfg, test.ShouldNotBeNil)
	test.That(t, cfg.DefValue, test.ShouldEqual, DefaultConfigPath)

	count := ReadCmd.Flags().Lookup("count")
	test.That(t, count, test.ShouldNotBeNil)
	test.That(t, count.DefValue, test.ShouldEqual, "1")
	test.That(t, ReadCmd.Flags().Lookup("interval"), test.ShouldNotBeNil)

	// The root is built once; asking for it again is harmless.
	test.That(t, getRootCmd(), test.ShouldEqual, root)
	test.That(t, getRootCmd(), test.ShouldEqual, root)
	test.That(t, len(root.Commands()), test.ShouldEqual, 7)
}
