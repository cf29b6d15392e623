package nebula

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDirectLauncher(t *testing.T) {
	inv := Invocation{
		Binary: "/opt/nebula/nebula",
		Args:   []string{"-config", "/etc/nebula/config.yaml"},
		Dir:    "/var/lib/nebula-tower",
		Env:    []string{"PATH=/var/lib/nebula-tower/bin:/usr/bin"},
	}

	cmd := DirectLauncher{}.Command(inv)
	assert.Equal(t, inv.Binary, cmd.Path)
	assert.Equal(t, []string{inv.Binary, "-config", "/etc/nebula/config.yaml"}, cmd.Args)
	assert.Equal(t, inv.Dir, cmd.Dir)
	assert.Equal(t, inv.Env, cmd.Env)
}

func TestElevatedLauncher(t *testing.T) {
	inv := Invocation{
		Binary: "/Applications/Nebula Tower/bin/nebula",
		Args:   []string{"-config", `/Users/o'brien/"net"/config.yaml`},
		Dir:    "/Users/o'brien/nebula-tower",
		Env:    []string{"HOME=/Users/o'brien", "PATH=/a/bin:/usr/bin"},
	}

	cmd := ElevatedLauncher{OSAScript: "/usr/bin/osascript"}.Command(inv)
	assert.Equal(t, "/usr/bin/osascript", cmd.Path)
	assert.Equal(t, "-e", cmd.Args[1])
	assert.Equal(t, inv.Dir, cmd.Dir)

	expected := `do shell script "cd '/Users/o'\\''brien/nebula-tower' && PATH='/a/bin:/usr/bin' exec ` +
		`'/Applications/Nebula Tower/bin/nebula' '-config' '/Users/o'\\''brien/\"net\"/config.yaml'"` +
		` with administrator privileges`
	assert.Equal(t, expected, cmd.Args[2])
	assert.Equal(t, expected, AppleScript(inv))
}

func TestElevatedLauncher_DefaultPath(t *testing.T) {
	cmd := ElevatedLauncher{}.Command(Invocation{Binary: "nebula"})
	assert.Equal(t, "osascript", filepath.Base(cmd.Path))
	assert.Equal(t, `do shell script "exec 'nebula'" with administrator privileges`, cmd.Args[2])
}
