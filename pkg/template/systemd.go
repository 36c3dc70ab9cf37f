package template

import (
	"fmt"
	"strings"
)

// SystemdTemplate runs the server as a notify-type unit. Placeholders in
// order: description, working directory, user, group, env file, exec start.
var SystemdTemplate = `[Unit]
Description=%s
Requires=network-online.target
After=network-online.target

[Service]
Type=notify
NotifyAccess=main

WorkingDirectory=%s

User=%s
Group=%s
NoNewPrivileges=yes
ProtectSystem=strict
ProtectHome=yes
PrivateTmp=yes
ReadWritePaths=/var/log/ranked-tracker-web
ReadOnlyPaths=/etc/ranked-tracker-web /etc/ssl/certs

EnvironmentFile=-%s
ExecStart=%s
ExecStop=/bin/kill -TERM $MAINPID
KillMode=mixed
TimeoutStopSec=15

Restart=on-failure
RestartSec=5

SyslogIdentifier=ranked-tracker-web

[Install]
WantedBy=multi-user.target
`

// UnitOptions fills SystemdTemplate
type UnitOptions struct {
	Description string
	User        string
	Group       string
	WorkDir     string
	Binary      string
	ConfigPath  string
	EnvFile     string
}

// RenderSystemdUnit returns the unit file for opts
func RenderSystemdUnit(opts UnitOptions) string {
	exec := []string{opts.Binary}
	if opts.ConfigPath != "" {
		exec = append(exec, "--config", opts.ConfigPath)
	}
	exec = append(exec, "serve")

	return fmt.Sprintf(SystemdTemplate,
		opts.Description,
		opts.WorkDir,
		opts.User,
		opts.Group,
		opts.EnvFile,
		strings.Join(exec, " "),
	)
}
