// Command dunicore is the node's single binary entrypoint.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/duniter/dunicore/log"
	"github.com/duniter/dunicore/node"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "usage: dunicore <start|sync|enable|disable|modules|reset|dbex|keys> [flags]")
		return 1
	}

	logger := log.New()
	verb, rest := args[0], args[1:]

	switch verb {
	case "start":
		fs := flag.NewFlagSet("start", flag.ContinueOnError)
		forkWindow := fs.Int("fork-window", 100, "fork tree window (max_depth)")
		maxCert := fs.Uint("max-cert", 100, "WoT max_cert")
		profilesPathFlag := fs.String("profiles-path", defaultProfilesPath(), "root directory holding per-profile subdirectories")
		profileNameFlag := fs.String("profile", "default", "profile name under profiles-path")
		if err := fs.Parse(rest); err != nil {
			return 1
		}
		return runNodeCore(logger, *profilesPathFlag, *profileNameFlag, *forkWindow, uint32(*maxCert), node.CmdStart)

	case "sync":
		fs := flag.NewFlagSet("sync", flag.ContinueOnError)
		sourceType := fs.String("source-type", "network", "sync source: network or local")
		unsafe := fs.Bool("unsafe", false, "skip extra validation during sync")
		cautious := fs.Bool("cautious", false, "apply extra validation during sync")
		forkWindow := fs.Int("fork-window", 100, "fork tree window (max_depth)")
		maxCert := fs.Uint("max-cert", 100, "WoT max_cert")
		profilesPathFlag := fs.String("profiles-path", defaultProfilesPath(), "root directory holding per-profile subdirectories")
		profileNameFlag := fs.String("profile", "default", "profile name under profiles-path")
		if err := fs.Parse(rest); err != nil {
			return 1
		}
		logger.Info("sync starting", "source-type", *sourceType, "unsafe", *unsafe, "cautious", *cautious)
		return runNodeCore(logger, *profilesPathFlag, *profileNameFlag, *forkWindow, uint32(*maxCert), node.CmdSync)

	case "modules":
		fs := flag.NewFlagSet("modules", flag.ContinueOnError)
		disabled := fs.Bool("disabled", false, "list disabled modules instead of enabled ones")
		network := fs.Bool("network", false, "restrict to network modules")
		if err := fs.Parse(rest); err != nil {
			return 1
		}
		fmt.Printf("modules: disabled=%v network=%v (no modules registered in this build)\n", *disabled, *network)
		return 0

	case "enable", "disable":
		if len(rest) != 1 {
			fmt.Fprintf(os.Stderr, "usage: dunicore %s <module>\n", verb)
			return 1
		}
		fmt.Printf("%s: %s (configuration-only, no runtime change)\n", verb, rest[0])
		return 0

	case "reset":
		fs := flag.NewFlagSet("reset", flag.ContinueOnError)
		profilesPathFlag := fs.String("profiles-path", defaultProfilesPath(), "root directory holding per-profile subdirectories")
		profileNameFlag := fs.String("profile", "default", "profile name under profiles-path")
		if err := fs.Parse(rest); err != nil {
			return 1
		}
		positional := fs.Args()
		if len(positional) != 1 || (positional[0] != "data" && positional[0] != "conf" && positional[0] != "all") {
			fmt.Fprintln(os.Stderr, "usage: dunicore reset {data|conf|all}")
			return 1
		}
		dir := node.ProfileDir(*profilesPathFlag, *profileNameFlag)
		return runReset(dir, positional[0])

	case "dbex":
		fs := flag.NewFlagSet("dbex", flag.ContinueOnError)
		if err := fs.Parse(rest); err != nil {
			return 1
		}
		if len(fs.Args()) != 1 {
			fmt.Fprintln(os.Stderr, "usage: dunicore dbex <query>")
			return 1
		}
		fmt.Fprintln(os.Stderr, "dbex: read-only DB exploration is an external collaborator, not implemented in this core")
		return 1

	case "keys":
		fs := flag.NewFlagSet("keys", flag.ContinueOnError)
		profilesPathFlag := fs.String("profiles-path", defaultProfilesPath(), "root directory holding per-profile subdirectories")
		profileNameFlag := fs.String("profile", "default", "profile name under profiles-path")
		if err := fs.Parse(rest); err != nil {
			return 1
		}
		return runKeys(logger, node.ProfileDir(*profilesPathFlag, *profileNameFlag), fs.Args())

	default:
		fmt.Fprintf(os.Stderr, "unknown verb %q\n", verb)
		return 1
	}
}

func defaultProfilesPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home + "/.dunicore"
}

func runNodeCore(logger log.Logger, profilesPath, profileName string, forkWindow int, maxCert uint32, cmd node.Command) int {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("node: received shutdown signal")
		cancel()
	}()

	err := node.Run(ctx, node.Config{
		ProfilesPath:        profilesPath,
		ProfileName:         profileName,
		ForkWindow:          forkWindow,
		MaxCert:             maxCert,
		GenerateKeyIfAbsent: true,
	}, logger, nil, cmd, nil)
	if err != nil {
		logger.Error("node: exited with error", "err", err)
		return 2
	}
	return 0
}
