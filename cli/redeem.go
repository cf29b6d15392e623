package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/yllada/nebula-tower/common"
	"github.com/yllada/nebula-tower/config"
	"github.com/yllada/nebula-tower/provision"
	"github.com/yllada/nebula-tower/tray"
)

var (
	redeemOverwrite bool
	redeemTimeout   int
)

// Terminal access, replaced in tests.
var (
	stdinIsTerminal  = func() bool { return term.IsTerminal(int(os.Stdin.Fd())) }
	stdoutIsTerminal = func() bool { return term.IsTerminal(int(os.Stdout.Fd())) }
	readSecret       = func() (string, error) {
		b, err := term.ReadPassword(int(os.Stdin.Fd()))
		return string(b), err
	}
)

// desktopNotifier is a notifier owning a connection.
type desktopNotifier interface {
	common.Notifier
	Close() error
}

var newDesktopNotifier = func(logger common.Logger) desktopNotifier {
	return tray.NewDBusNotifier(logger)
}

var errOverwriteDeclined = errors.New("existing certificates kept; re-run with --overwrite to replace them")

func init() {
	rootCmd.AddCommand(cmdRedeem)
	cmdRedeem.Flags().BoolVar(&redeemOverwrite, "overwrite", false, "Replace existing certificates without asking")
	cmdRedeem.Flags().IntVar(&redeemTimeout, "timeout", int(common.RedeemTimeout/time.Second), "Timeout in seconds for the enrollment request")
}

var cmdRedeem = &cobra.Command{
	Use:   "redeem <peer> [invite-code]",
	Short: "Redeem an invite and install the returned certificates",
	Long: `Exchanges an invite code with the enrollment service at <peer> (host or host:port)
and extracts the returned config.yaml, host.key, host.crt and ca.crt into the
application directory. The code is read from the terminal when omitted.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if redeemTimeout <= 0 {
			return errors.New("timeout must be greater than 0 seconds")
		}
		paths, err := appPaths()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		in := bufio.NewReader(cmd.InOrStdin())

		peer := strings.TrimSpace(args[0])
		if peer == "" {
			return errors.New("peer must not be empty")
		}
		code := ""
		if len(args) == 2 {
			code = args[1]
		} else if code, err = promptCode(out, in); err != nil {
			return err
		}
		code = strings.TrimSpace(code)
		if code == "" {
			return errors.New("invite code must not be empty")
		}

		if provision.CheckExistingCerts(paths.DefaultConfigFile()) && !redeemOverwrite {
			ok, err := confirm(out, in, "Certificates already exist in "+paths.Root+". Overwrite them?")
			if err != nil {
				return err
			}
			if !ok {
				return errOverwriteDeclined
			}
		}

		notifier := newDesktopNotifier(common.GetLogger())
		defer notifier.Close()

		client := provision.NewClient(paths, common.GetLogger())
		client.SetTimeout(time.Duration(redeemTimeout) * time.Second)

		var spin *spinner.Spinner
		if stdoutIsTerminal() {
			spin = spinner.New(spinner.CharSets[21], 120*time.Millisecond, spinner.WithWriter(out))
			spin.Suffix = " Contacting " + peer + "..."
			spin.Start()
		}
		// Confirmation already happened above.
		result, err := client.RedeemInvite(commandContext(cmd), peer, code, true)
		if spin != nil {
			spin.Stop()
		}
		if err != nil {
			notify(notifier, "Invite redemption failed", err.Error())
			return err
		}

		fmt.Fprintf(out, "%s Invite redeemed into %s\n", mark(true), paths.Root)
		for _, name := range result.Written {
			fmt.Fprintf(out, "  wrote   %s\n", name)
		}
		for _, name := range result.Skipped {
			fmt.Fprintf(out, "  skipped %s\n", mutedStyle.Render(name))
		}
		if result.HostKey != nil {
			fmt.Fprintf(out, "Host key fingerprint: %s\n", result.HostKey.Fingerprint)
		}
		if err := rememberLighthouse(paths, peer); err != nil {
			fmt.Fprintf(out, "%s Lighthouse address not saved: %v\n", mark(false), err)
		} else {
			fmt.Fprintf(out, "Lighthouse: %s\n", peer)
		}
		notify(notifier, "Invite redeemed", fmt.Sprintf("%d files written to %s", len(result.Written), paths.Root))
		return nil
	},
}

// promptCode reads the invite code, without echo on a terminal.
func promptCode(out io.Writer, in *bufio.Reader) (string, error) {
	if stdinIsTerminal() {
		fmt.Fprint(out, "Invite code: ")
		code, err := readSecret()
		fmt.Fprintln(out)
		return code, err
	}
	line, err := in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return line, nil
}

// confirm asks a yes/no question. Without a terminal the answer is no.
func confirm(out io.Writer, in *bufio.Reader, question string) (bool, error) {
	if !stdinIsTerminal() {
		return false, nil
	}
	fmt.Fprintf(out, "%s [y/N] ", question)
	answer, err := in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

// rememberLighthouse stores the peer an invite was redeemed with so the tray
// can poll its status.
func rememberLighthouse(paths common.Paths, peer string) error {
	store := config.NewStore(paths, common.GetLogger())
	settings := store.Load()
	settings.Lighthouse = peer
	return store.Save(settings)
}

func notify(notifier common.Notifier, title, message string) {
	if err := notifier.Notify(title, message); err != nil {
		common.LogDebug("Notification failed: %v", err)
	}
}
