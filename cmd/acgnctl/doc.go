// Command acgnctl runs and administers the ACGN assistant backend.
//
// The HTTP API, the database schema and the bootstrap administrator are all
// managed from here:
//
//	# Apply the Postgres schema
//	acgnctl db migrate
//
//	# Make sure ADMIN_EMAIL exists and is an active admin
//	acgnctl admin bootstrap
//
//	# Start the server, reloading acgn.yml when it changes
//	acgnctl server --watch-config
//
// # Environment Variables
//
// Every setting in acgn.yml can be overridden by its upper case name, e.g.
// DATABASE_URL, JWT_SECRET, DEEPSEEK_API_KEY or ADMIN_EMAIL. A .env file in
// the working directory is loaded before anything else.
//
//   - ACGN_CONFIG_PATH: directory holding acgn.yml (default: /etc/acgn)
//   - ACGN_LOG_LEVEL: set to debug to log SQL statements
//   - PORT: server port (default: 8000)
//   - BIND_ADDRESS: server bind address (default: 0.0.0.0)
package main
