// Package config loads the camera rig description from JSON or YAML files.
package config
