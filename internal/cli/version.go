package cli

import (
	"fmt"
	"os/exec"
	"runtime"

	"github.com/common-nighthawk/go-figure"
	"github.com/jrsteele09/citypulse/internal/config"
	"github.com/spf13/cobra"
)

func (r *runner) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			// version still answers when the config is broken.
			cfg, err := config.Load(r.configPath)
			if err != nil {
				cfg = config.Default()
			}
			displayAppname(cmd, cfg.AppName)
			fmt.Fprintf(cmd.OutOrStdout(), "citypulse %s\n", r.opts.Version)
		},
	}
}

func displayAppname(cmd *cobra.Command, appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	fmt.Fprintln(cmd.OutOrStdout(), myFigure.String())
}

// openBrowser hands url to the platform's default opener.
func openBrowser(url string) error {
	var c *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		c = exec.Command("open", url)
	case "windows":
		c = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		c = exec.Command("xdg-open", url)
	}
	return c.Start()
}
