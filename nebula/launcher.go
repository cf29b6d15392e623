package nebula

import (
	"os/exec"
	"strings"
)

// Invocation describes how nebula should be executed.
type Invocation struct {
	Binary string
	Args   []string
	Dir    string
	Env    []string
}

// Launcher turns an Invocation into a command ready to start.
type Launcher interface {
	Command(inv Invocation) *exec.Cmd
}

// DirectLauncher executes the binary as the current user.
type DirectLauncher struct{}

// Command implements Launcher.
func (DirectLauncher) Command(inv Invocation) *exec.Cmd {
	cmd := exec.Command(inv.Binary, inv.Args...)
	cmd.Dir = inv.Dir
	cmd.Env = inv.Env
	return cmd
}

// ElevatedLauncher runs the binary through osascript, which prompts for an
// administrator password before nebula can create its tun device.
type ElevatedLauncher struct {
	// OSAScript is the osascript path. Empty means /usr/bin/osascript.
	OSAScript string
}

// Command implements Launcher.
func (l ElevatedLauncher) Command(inv Invocation) *exec.Cmd {
	osascript := l.OSAScript
	if osascript == "" {
		osascript = "/usr/bin/osascript"
	}
	cmd := exec.Command(osascript, "-e", AppleScript(inv))
	cmd.Dir = inv.Dir
	cmd.Env = inv.Env
	return cmd
}

// AppleScript returns the "do shell script" statement for inv. The shell
// resets PATH for privileged scripts, so it is passed explicitly.
func AppleScript(inv Invocation) string {
	var parts []string
	if inv.Dir != "" {
		parts = append(parts, "cd "+shellQuote(inv.Dir)+" &&")
	}
	if path, ok := lookupEnv(inv.Env, "PATH"); ok {
		parts = append(parts, "PATH="+shellQuote(path))
	}
	parts = append(parts, "exec", shellQuote(inv.Binary))
	for _, arg := range inv.Args {
		parts = append(parts, shellQuote(arg))
	}
	shell := strings.Join(parts, " ")
	return `do shell script "` + appleScriptEscape(shell) + `" with administrator privileges`
}

func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

func appleScriptEscape(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `"`, `\"`)
}

func lookupEnv(env []string, key string) (string, bool) {
	prefix := key + "="
	for i := len(env) - 1; i >= 0; i-- {
		if strings.HasPrefix(env[i], prefix) {
			return env[i][len(prefix):], true
		}
	}
	return "", false
}
