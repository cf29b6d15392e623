package tray

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"

	"github.com/yllada/nebula-tower/common"
)

// Installer makes a nebula binary available.
type Installer struct {
	paths  common.Paths
	opener Opener
	logger common.Logger
	// Shell runs the install script.
	Shell string
}

// NewInstaller creates an installer for the application directory.
func NewInstaller(paths common.Paths, opener Opener, logger common.Logger) *Installer {
	return &Installer{
		paths:  paths,
		opener: opener,
		logger: common.OrDefault(logger),
		Shell:  "/bin/bash",
	}
}

// Install runs scripts/install_nebula.sh from the application directory when
// present. Otherwise the nebula releases page is opened.
func (i *Installer) Install(ctx context.Context) error {
	script := i.paths.InstallerScript()
	if !common.FileExists(script) {
		i.logger.Info("No installer at %s, opening %s", script, common.ReleasesURL)
		return i.opener.Open(common.ReleasesURL)
	}

	i.logger.Info("Running installer %s", script)
	cmd := exec.CommandContext(ctx, i.Shell, script)
	cmd.Dir = i.paths.Root
	cmd.Env = append(common.PrependPath(os.Environ(), i.paths.BinDir()),
		common.HomeEnv+"="+i.paths.Root)

	out, err := cmd.CombinedOutput()
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		i.logger.Info("[installer] %s", scanner.Text())
	}
	if err != nil {
		return fmt.Errorf("installer failed: %w", err)
	}
	i.logger.Info("Installer finished")
	return nil
}
