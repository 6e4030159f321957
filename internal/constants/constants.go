// Package constants defines application-wide constants and version information.
package constants

import "runtime"

// Version holds the application version information
const Version = "1.0-" + runtime.GOOS + "/" + runtime.GOARCH

// AssetsDirEnv names the environment variable that points the dashboard at an
// on-disk asset directory instead of the embedded one
const AssetsDirEnv = "LIVETEMP_RESTSERVER_ASSETS_DIR"
