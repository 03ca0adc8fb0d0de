// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package version holds the azapp version number.
package version

// Current is the version of the azapp tool.
const Current = "0.1.0"
