// Package config holds the settings of a crawl run and the optional
// .sitecrawler YAML file with per-site overrides.
package config
