// Package config handles configuration loading for the registrar tools.
//
// # Overview
//
// Configuration is loaded from a YAML or TOML file with environment
// variable expansion. A .env file in the working directory is read first.
// Every setting has a default, so running without a file works against a
// local backend.
//
// # Configuration File
//
// Default locations (in order):
//
//  1. Path from REGISTRAR_CONFIG environment variable
//  2. ./registrar.yaml or ./registrar.toml
//  3. ~/.config/registrar/config.yaml or config.toml
//
// Files ending in .toml are decoded as TOML; anything else as YAML.
//
// # Environment Variable Expansion
//
// Configuration values can reference environment variables:
//
//	storage:
//	  cloudinary:
//	    api_secret: "${CLOUDINARY_API_SECRET}"
//
// # Environment Overrides
//
//	REGISTRAR_API_URL   replaces api.base_url
//	REGISTRAR_TOKEN     bearer token used instead of the stored one
//	CLOUDINARY_*        fill empty storage.cloudinary credentials
//
// # Configuration Sections
//
//	api:
//	  base_url: "http://localhost:5000/api"
//	  timeout: "10s"
//
//	session:
//	  store: "file"        # or "sqlite"
//	  path: ""             # default ~/.config/registrar/token or session.db
//
//	paging:
//	  page_size: 10
//
//	notifications:
//	  display_duration: "3s"
//
//	mutations:
//	  guard_ttl: "1m"
//
//	logging:
//	  level: "info"        # debug, info, warn, error
//	  format: "text"       # text or json
//
//	devserver:
//	  addr: "127.0.0.1:5000"
//	  jwt_secret: "${REGISTRAR_JWT_SECRET}"
//	  token_ttl: "24h"
//	  seed: true
//	  allowed_origins: ["http://localhost:5173"]
//
// Duration values use Go's time.ParseDuration syntax.
package config
