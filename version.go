// Copyright ©2024 The GUDA Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gridlaunch

import "runtime/debug"

const modulePath = "github.com/LynnColeArt/gridlaunch"

// Version returns the module version recorded in the running binary, or ""
// when the binary carries no build info or was built from a working tree
// without one. Run reports stamp it so archived runs can be traced to a build.
func Version() string {
	b, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	if b.Main.Path == modulePath {
		return moduleVersion(b.Main)
	}
	for _, m := range b.Deps {
		if m.Path == modulePath {
			return moduleVersion(*m)
		}
	}
	return ""
}

func moduleVersion(m debug.Module) string {
	if m.Version == "(devel)" {
		return ""
	}
	return m.Version
}
