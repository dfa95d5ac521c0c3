package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/duniter/dunicore/log"
	"github.com/duniter/dunicore/node"
)

// runKeys implements the `keys` CLI verb's subcommands: generate a fresh
// keypair, or show the public key of the current one.
func runKeys(logger log.Logger, profileDir string, args []string) int {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "usage: dunicore keys <generate|show>")
		return 1
	}

	keypairPath := filepath.Join(profileDir, "keypairs.json")

	switch args[0] {
	case "generate":
		if _, err := os.Stat(keypairPath); err == nil {
			fmt.Fprintf(os.Stderr, "keys generate: %s already exists, refusing to overwrite\n", keypairPath)
			return 1
		}
		kp, err := node.LoadOrGenerateKeyPair(keypairPath, true)
		if err != nil {
			logger.Error("keys generate failed", "err", err)
			return 2
		}
		fmt.Println(kp.Pub.String())
		return 0

	case "show":
		kp, err := node.LoadOrGenerateKeyPair(keypairPath, false)
		if err != nil {
			logger.Error("keys show failed", "err", err)
			return 2
		}
		fmt.Println(kp.Pub.String())
		return 0

	default:
		fmt.Fprintln(os.Stderr, "usage: dunicore keys <generate|show>")
		return 1
	}
}
