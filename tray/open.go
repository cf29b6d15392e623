package tray

import (
	"os/exec"

	"github.com/yllada/nebula-tower/common"
)

// Opener opens a file or URL in the user's default application.
type Opener interface {
	Open(target string) error
}

// SystemOpener uses the platform's open command.
type SystemOpener struct{}

// Open implements Opener. It does not wait for the application to exit.
func (SystemOpener) Open(target string) error {
	name, args := openCommand(target)
	cmd := exec.Command(name, args...)
	if err := cmd.Start(); err != nil {
		return common.WrapError(err, "failed to run "+name)
	}
	go cmd.Wait()
	return nil
}
