// This program generates Ed25519 key pairs for wallets and node operators:
// a standalone utility, separate from the node binary, needed to produce
// anything the node can accept as a signed transaction.
package main

import (
	"encoding/hex"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/denny1997/go-prism-node/internal/signature"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "keygen",
		Short: "Generate Ed25519 key pairs for the Prism node",
	}
	root.AddCommand(generateCmd())
	return root
}

func generateCmd() *cobra.Command {
	var count int
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate one or more random key pairs",
		RunE: func(cmd *cobra.Command, args []string) error {
			for i := 0; i < count; i++ {
				kp, err := signature.GenerateKeyPair()
				if err != nil {
					return fmt.Errorf("generating key pair: %w", err)
				}
				fmt.Printf("address:     %s\n", kp.Address())
				fmt.Printf("public_key:  %s\n", hex.EncodeToString(kp.Public))
				fmt.Printf("private_key: %s\n", hex.EncodeToString(kp.Private))
				fmt.Println()
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&count, "count", "n", 1, "number of key pairs to generate")
	return cmd
}
