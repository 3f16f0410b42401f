package cmd

import (
	"fmt"
	"log"
	"os"
	"os/exec"
	"strconv"

	"github.com/jcdickinson/symdoc/internal/config"
	"github.com/spf13/cobra"
)

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "View the log file written by symdoc mcp (or --log-file)",
	Run:   runLogs,
}

var (
	logsFollow bool
	logsLines  int
	logsPath   bool
)

func init() {
	logsCmd.Flags().BoolVarP(&logsFollow, "follow", "f", false, "follow log output")
	logsCmd.Flags().IntVarP(&logsLines, "lines", "n", 50, "number of lines to show")
	logsCmd.Flags().BoolVar(&logsPath, "path", false, "print the log file location and exit")
}

// runLogs tails the log file. The persistent --log-file flag names the
// file here instead of redirecting this command's own logging.
func runLogs(cmd *cobra.Command, args []string) {
	path := logFile
	if path == "" {
		path = config.LogPath()
	}
	if logsPath {
		fmt.Println(path)
		return
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		fmt.Printf("no log file at %s (symdoc mcp has not run yet)\n", path)
		return
	}

	tailArgs := []string{"-n", strconv.Itoa(logsLines)}
	if logsFollow {
		tailArgs = append(tailArgs, "-f")
	}
	tailArgs = append(tailArgs, path)

	tailCmd := exec.Command("tail", tailArgs...)
	tailCmd.Stdout = os.Stdout
	tailCmd.Stderr = os.Stderr
	if err := tailCmd.Run(); err != nil {
		log.Fatalf("tail failed: %v", err)
	}
}
