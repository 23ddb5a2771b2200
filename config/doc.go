// Package config provides application configuration management.
//
// The config package handles loading and validation of the server's
// configuration from YAML files via viper. It covers server transport
// settings, scope provisioning parameters, and logging options.
//
// Usage:
//
//	cfg, err := config.New()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("Server transport: %s\n", cfg.Server.Transport)
package config
