// Package config provides configuration loading and validation for the audio
// annotation service. It handles YAML-based configuration with per-section
// struct validation and supplies the documented defaults for segmentation and
// readiness gating.
package config
