package template

import (
	"strings"
	"testing"
)

func TestRenderSystemdUnit(t *testing.T) {
	unit := RenderSystemdUnit(UnitOptions{
		Description: "Ranked Tracker web",
		User:        "rtweb",
		Group:       "rtweb",
		WorkDir:     "/var/lib/ranked-tracker-web",
		Binary:      "/usr/local/bin/ranked-tracker-web",
		ConfigPath:  "/etc/ranked-tracker-web/config.yaml",
		EnvFile:     "/etc/ranked-tracker-web/env",
	})

	for _, want := range []string{
		"Description=Ranked Tracker web\n",
		"Type=notify\n",
		"WorkingDirectory=/var/lib/ranked-tracker-web\n",
		"User=rtweb\n",
		"Group=rtweb\n",
		"EnvironmentFile=-/etc/ranked-tracker-web/env\n",
		"ExecStart=/usr/local/bin/ranked-tracker-web --config /etc/ranked-tracker-web/config.yaml serve\n",
	} {
		if !strings.Contains(unit, want) {
			t.Errorf("unit missing %q", want)
		}
	}
	if strings.Contains(unit, "%!") {
		t.Errorf("unit has formatting errors:\n%s", unit)
	}
}

func TestRenderSystemdUnit_NoConfig(t *testing.T) {
	unit := RenderSystemdUnit(UnitOptions{Binary: "/usr/bin/rtw"})
	if !strings.Contains(unit, "ExecStart=/usr/bin/rtw serve\n") {
		t.Errorf("unexpected ExecStart in:\n%s", unit)
	}
}
