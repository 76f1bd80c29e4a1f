// Package config loads loom.toml.
//
// The file is optional: every key has a default and only the keys present
// in the file override it.
//
// # Configuration File Structure
//
//	[runtime]
//	slow_hook_warning = "3s"
//	max_flush_rounds = 1000
//
//	[log]
//	level = "info"     # debug, info, warn, error
//	format = "text"    # text, json
//
//	[metrics]
//	namespace = "loom"
//	subsystem = ""
//	buckets = [0.0005, 0.005, 0.05, 0.5]
//
//	[tracing]
//	enabled = false
//	service = "loom"
//
//	[inspect]
//	addr = "127.0.0.1:7070"
//	buffer = 256
//
//	[profile]
//	dir = ".loom/profiles"
//	s3_bucket = ""
//	s3_prefix = "profiles/"
//	s3_region = "us-east-1"
//	s3_endpoint = ""
package config
