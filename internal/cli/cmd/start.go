package cmd

import (
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	rotatelogs "github.com/lestrrat-go/file-rotatelogs"
	daemon "github.com/sevlyar/go-daemon"
	"github.com/spf13/cobra"

	"github.com/doczir/compton/internal/compositor"
	"github.com/doczir/compton/internal/ipc"
)

func NewStartCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "start",
		Short: "Start the compton daemon",
		Run: func(c *cobra.Command, args []string) {
			background, _ := c.Flags().GetBool("background")
			StartCompositor(background)
		},
	}
	return c
}

// StartCompositor runs the compositor, optionally forking into the
// background first.
func StartCompositor(background bool) {
	if background && os.Getenv("BACKGROUND_PROCESS") != "1" {
		daemonize()
		return
	}

	log.Infof("compton starting in PID: %d", os.Getpid())

	if os.Getenv("BACKGROUND_PROCESS") == "1" {
		setupRotatingLogger()
	}

	if _, err := ipc.Status(); err == nil {
		log.Info("compton is already running, exiting")
		os.Exit(0)
	}

	opts, settings, err := buildOptions()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	manager, err := compositor.NewManager(opts, settings)
	if err != nil {
		log.Fatalf("Failed to start compositor: %v", err)
	}

	go func() {
		log.Info("Starting socket server")
		ipc.Start(manager)
	}()

	manager.Run()

	os.Remove(ipc.SocketPath())
	log.Info("compton exited")
}

// daemonize forks into the background and returns in the parent. The child
// re-enters StartCompositor with BACKGROUND_PROCESS set.
func daemonize() {
	ctx := &daemon.Context{
		PidFileName: filepath.Join(stateDir(), "compton.pid"),
		PidFilePerm: 0644,
		Env:         append(os.Environ(), "BACKGROUND_PROCESS=1"),
	}

	child, err := ctx.Reborn()
	if err != nil {
		log.Fatalf("Failed to daemonize: %v", err)
	}
	if child != nil {
		log.Infof("compton started in background, PID: %d", child.Pid)
		return
	}
	defer ctx.Release()

	StartCompositor(true)
}

func stateDir() string {
	home := os.Getenv("HOME")
	dir := filepath.Join(home, ".local", "share", "compton")
	_ = os.MkdirAll(dir, 0755)
	return dir
}

func setupRotatingLogger() {
	logPath := filepath.Join(stateDir(), "compton.log")

	writer, err := rotatelogs.New(
		logPath+".%Y%m%d%H%M",
		rotatelogs.WithLinkName(logPath),
		rotatelogs.WithMaxAge(7*24*time.Hour),
		rotatelogs.WithRotationSize(10*1024*1024),
		rotatelogs.WithRotationTime(24*time.Hour),
	)
	if err != nil {
		log.Fatalf("failed to configure log rotation: %v", err)
	}

	log.SetOutput(writer)
	log.SetLevel(log.InfoLevel)
}
